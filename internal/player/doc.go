// Package player adapts a go-librespot daemon to [playback.Engine].
package player
