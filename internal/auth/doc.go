// Package auth establishes and refreshes the authenticated session.
//
// A [Coordinator] owns the path from credentials to a usable REST client:
//
//	Store.Load -> StreamingSession.Connect -> StreamingSession.ExchangeToken -> TokenSink.SetToken
//
// [Coordinator.InitFromCache] starts from stored credentials; [Coordinator.InteractiveLogin] starts from a
// [Login] collaborator such as [BrowserLogin.Run]. Both end in [Coordinator.Connect], which always derives the
// first bearer token before reporting success.
//
// # Retry discipline
//
// [CallWithRetry] wraps any REST call. A 401, or a token the client already knows to be expired, derives a new
// token and retries. A 429 sleeps for Retry-After and retries. Other failures are returned immediately. The loop
// has no upper bound unless [shared.RetryConfig] sets one, and every wait honours the caller's context.
//
// # Errors
//
// Every error returned here is a [*shared.AuthError] carrying a [shared.ErrorKind]. Rate limiting never escapes
// on its own; it only appears wrapped with [shared.ErrTooManyAttempts] when a cap is configured.
//
// # Credential stores
//
// [KeyringStore] keeps credentials in the OS keyring; [FileStore] writes a 0600 JSON file. [NewStore] picks one
// from config.
package auth
