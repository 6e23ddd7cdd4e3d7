// Package server hosts the short-lived HTTP listener that receives the OAuth redirect during interactive login.
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack where the first
// middleware added is outermost. [RequestLogger] is the only middleware shipped.
//
// [OAuthHandler] implements the authorization code callback with PKCE: it checks the state parameter, exchanges
// the code together with the verifier, and publishes a single [OAuthResult]. Later callbacks are rejected.
package server
