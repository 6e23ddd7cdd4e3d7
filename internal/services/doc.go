// Package services talks to the Spotify accounts service and Web API.
//
// # Streaming Session
//
// [SpotifySession] binds [models.Credentials] and hands out bearer tokens. The first exchange after a connect
// reuses the token the connect obtained; every later exchange forces a refresh through [oauth2.Config.TokenSource],
// so a token the API rejected with 401 is never handed out again.
//
// # REST Client
//
// [SpotifyClient] holds one [models.BearerToken] behind an atomic pointer. Many calls may read it while the auth
// coordinator swaps it. The client never refreshes on its own: a missing or expired token is reported as
// [shared.ErrTokenExpired] before any request is issued, and non-2xx responses are returned as [*HTTPError] with
// status and headers intact so the caller can honour Retry-After.
//
// Requests are throttled with a [rate.Limiter] when [shared.APIConfig.RateLimit] is set.
//
// # Projections
//
// [ToPlaylist], [ToTrack] and [ToTracks] map Web API objects onto [models.Playlist] and [models.Track]. The first
// listed artist is treated as the main artist and the first album image as the cover.
package services
