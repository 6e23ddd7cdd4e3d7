package ui

import "github.com/charmbracelet/lipgloss"

const spotifyGreen = lipgloss.Color("#1DB954")

// palette holds the TUI's styles.
type palette struct {
	title   lipgloss.Style
	playing lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
}

var styles = palette{
	title:   lipgloss.NewStyle().Bold(true).Foreground(spotifyGreen).MarginBottom(1),
	playing: lipgloss.NewStyle().Bold(true).Foreground(spotifyGreen),
	err:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E22134")),
	warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA42B")),
	help:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#6A6A6A", Dark: "#B3B3B3"}),
}

// accent tints the now-playing title with the cover's dominant colour, falling back to the default.
func (p palette) accent(hex string) lipgloss.Style {
	if hex == "" {
		return p.playing
	}
	return p.playing.Foreground(lipgloss.Color(hex))
}
