// Package models defines the value types shared by the auth, playback and UI layers of taan.
//
// Auth material:
//   - [Credentials] : stored or freshly issued OAuth material, replaced wholesale on re-auth
//   - [Session] : the single live streaming connection
//   - [BearerToken] : short-lived REST credential derived from a [Session]
//
// UI-facing snapshots:
//   - [PlaybackState] : what is playing, where, and its metadata
//   - [AuthState] : login status shown by the UI
//
// REST projections:
//   - [Playlist], [Track] : trimmed views of Web API objects, also persisted by the repositories package
package models
