// Package playback applies the audio engine's event stream to a single playback state.
//
// A [Coordinator] consumes [PlayerEvent] values in order, publishes each new
// [models.PlaybackState] and fetches cover art in the background. Stale covers
// (for a track that is no longer current) are dropped.
package playback
