// package formatter renders playlists, tracks and playback times for the CLI and TUI (plain text, CSV, Markdown).
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

// Format names accepted by [Tracks].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// FormatTime renders milliseconds as m:ss. Negative values render as 0:00.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Progress renders "position / duration".
func Progress(positionMS, durationMS int64) string {
	return FormatTime(positionMS) + " / " + FormatTime(durationMS)
}

// NowPlaying renders a one-line summary of s.
func NowPlaying(s models.PlaybackState) string {
	if s.Title == "" {
		return "Nothing playing"
	}
	icon := "⏸"
	if s.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s", icon, s.Title)
	if s.Artist != "" {
		line += " - " + s.Artist
	}
	return line + " [" + Progress(s.PositionMS, s.DurationMS) + "]"
}

// Playlists renders one playlist per line with its ID and track count.
func Playlists(playlists []models.Playlist) []byte {
	var buf bytes.Buffer
	for i, p := range playlists {
		fmt.Fprintf(&buf, "%d. %s (%d tracks) [%s]\n", i+1, p.Name, p.TrackCount, p.ID)
	}
	return buf.Bytes()
}

// TracksToText renders a numbered "artist - title [m:ss]" list.
func TracksToText(p *models.Playlist, tracks []models.Track) []byte {
	var buf bytes.Buffer
	if p != nil {
		fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
		if p.Owner != "" {
			fmt.Fprintf(&buf, "Owner: %s\n", p.Owner)
		}
		fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))
	}
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, t.Artist, t.Title, FormatTime(t.DurationMS))
	}
	return buf.Bytes()
}

// TracksToCSV renders tracks with columns ID, Title, Artist, Album, Duration.
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Artist", "Album", "Duration"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, t := range tracks {
		record := []string{t.ID, t.Title, t.Artist, t.Album, strconv.FormatInt(t.DurationMS, 10)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TracksToMarkdown renders a playlist heading followed by a numbered track list.
func TracksToMarkdown(p *models.Playlist, tracks []models.Track) []byte {
	var buf bytes.Buffer
	name := "Tracks"
	if p != nil {
		name = p.Name
	}
	fmt.Fprintf(&buf, "# %s\n\n", name)
	if p != nil && p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, t := range tracks {
		album := ""
		if t.Album != "" {
			album = fmt.Sprintf(" (%s)", t.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, t.Artist, t.Title, album, FormatTime(t.DurationMS))
	}
	return buf.Bytes()
}

// Tracks renders tracks in the named format.
func Tracks(format string, p *models.Playlist, tracks []models.Track) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TracksToText(p, tracks), nil
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown, "markdown":
		return TracksToMarkdown(p, tracks), nil
	case FormatJSON:
		return shared.MarshalJSON(tracks, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}
