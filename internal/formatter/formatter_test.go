package formatter

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "track1", Title: "Song One", Artist: "Artist One", Album: "Album One", DurationMS: 180000},
		{ID: "track2", Title: "Song, Two", Artist: "Artist Two", DurationMS: 61500},
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{1000, "0:01"},
		{61500, "1:01"},
		{600000, "10:00"},
		{3723000, "62:03"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTime(tt.ms); got != tt.want {
				t.Errorf("FormatTime(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestNowPlaying(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		if got := NowPlaying(models.PlaybackState{}); got != "Nothing playing" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("playing", func(t *testing.T) {
		s := models.PlaybackState{Title: "Song", Artist: "Band", IsPlaying: true, PositionMS: 65000, DurationMS: 200000}
		if got := NowPlaying(s); got != "▶ Song - Band [1:05 / 3:20]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("paused", func(t *testing.T) {
		s := models.PlaybackState{Title: "Song"}
		if got := NowPlaying(s); !strings.HasPrefix(got, "⏸ Song") {
			t.Errorf("got %q", got)
		}
	})
}

func TestExporters(t *testing.T) {
	playlist := &models.Playlist{ID: "p1", Name: "Test Playlist", Owner: "wizzler", Description: "A test playlist"}

	t.Run("Playlists", func(t *testing.T) {
		out := string(Playlists([]models.Playlist{*playlist, {ID: "p2", Name: "Other", TrackCount: 4}}))
		if !strings.Contains(out, "1. Test Playlist (0 tracks) [p1]") || !strings.Contains(out, "2. Other (4 tracks) [p2]") {
			t.Errorf("got %q", out)
		}
	})

	t.Run("Text", func(t *testing.T) {
		out := string(TracksToText(playlist, sampleTracks()))
		for _, want := range []string{"Playlist: Test Playlist", "Owner: wizzler", "Tracks: 2", "1. Artist One - Song One [3:00]", "2. Artist Two - Song, Two [1:01]"} {
			if !strings.Contains(out, want) {
				t.Errorf("text missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Text without playlist", func(t *testing.T) {
		out := string(TracksToText(nil, sampleTracks()))
		if strings.HasPrefix(out, "Playlist:") {
			t.Errorf("unexpected header: %s", out)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := TracksToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}
		out := string(data)
		if !strings.HasPrefix(out, "ID,Title,Artist,Album,Duration\n") {
			t.Errorf("CSV missing headers, got: %s", out)
		}
		if !strings.Contains(out, `track2,"Song, Two",Artist Two,,61500`) {
			t.Errorf("CSV did not quote the comma, got: %s", out)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		out := string(TracksToMarkdown(playlist, sampleTracks()))
		for _, want := range []string{"# Test Playlist", "**Description**: A test playlist", "1. Artist One - Song One (Album One) [3:00]", "2. Artist Two - Song, Two [1:01]"} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Tracks dispatch", func(t *testing.T) {
		for _, f := range []string{"", "text", "CSV", "md", "markdown", "json"} {
			if _, err := Tracks(f, playlist, sampleTracks()); err != nil {
				t.Errorf("Tracks(%q) error = %v", f, err)
			}
		}
		data, _ := Tracks("json", nil, sampleTracks())
		if !strings.Contains(string(data), `"duration_ms": 180000`) {
			t.Errorf("json output = %s", data)
		}
		if _, err := Tracks("xml", nil, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
