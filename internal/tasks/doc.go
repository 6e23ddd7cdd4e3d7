// Package tasks bridges a user interface to the auth and playback coordinators.
//
// # Commands and updates
//
// The UI sends [Command] values on one channel and receives [Update] values on another. Neither side calls the
// other directly, so the coordinators stay independent of any UI toolkit.
//
// # Goroutines
//
// [Bridge.Run] starts three kinds of work:
//
//  1. Bring-up: connect from cached credentials, then report the auth state
//  2. The player event loop ([playback.Coordinator.Run])
//  3. Command dispatch. Engine commands run inline; logins and fetches get their own goroutine
//
// Updates are sent without blocking. When the UI falls behind, updates are dropped and logged.
//
// # Caching
//
// Fetched playlists and tracks are written to the optional sqlite repositories. Cache errors are logged and never
// surface as [ErrorUpdate].
package tasks
