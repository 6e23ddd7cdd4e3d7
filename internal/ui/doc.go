// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoginView] : shown until the session is logged in
//  2. [PlaylistListView] : browse the user's playlists
//  3. [TrackListView] : browse a playlist and start a track
//
// A now-playing bar sits under every view. The [Model] never calls the coordinators directly; it sends
// [tasks.Command] values and renders the [tasks.Update] values that come back.
//
// Keys: l login, enter open/play, space play/pause, ←/→ seek 5s, esc back, q quit.
package ui
