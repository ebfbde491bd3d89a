// Package render presents classified downloader events to people: one styled
// line per event for terminals and logs, or a live bubbletea view.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/dlpstream/pkg/classify"
)

// Text is a classify.Sink writing one styled line per event.
type Text struct {
	w     io.Writer
	theme Theme
	width int
}

// NewText creates a text renderer. Lines longer than width display cells are
// truncated; width <= 0 disables truncation.
func NewText(w io.Writer, theme Theme, width int) *Text {
	return &Text{w: w, theme: theme, width: width}
}

// Emit renders ev as a single line.
func (t *Text) Emit(ev classify.Event) error {
	line := t.Line(ev)
	if line == "" {
		return nil
	}
	_, err := io.WriteString(t.w, line+"\n")
	return err
}

// Line formats ev without a trailing newline. Unknown event types render as
// an empty string.
func (t *Text) Line(ev classify.Event) string {
	icon, style, text := t.describe(ev)
	if text == "" {
		return ""
	}
	plain := icon + " " + text
	if t.width > 0 {
		plain = runewidth.Truncate(plain, t.width, "…")
	}
	return style.Render(plain)
}

func (t *Text) describe(ev classify.Event) (string, lipgloss.Style, string) {
	icons := t.theme.Icons
	switch e := ev.(type) {
	case classify.Warning:
		return icons.Warn, t.theme.Warning, "warning: " + e.Message
	case classify.Error:
		return icons.Fail, t.theme.Error, "error: " + e.Message
	case classify.AlreadyExists:
		return icons.Done, t.theme.Success, "already downloaded"
	case classify.Location:
		return icons.File, t.theme.Primary, e.Location
	case classify.Progress:
		return icons.Progress, t.theme.Muted,
			fmt.Sprintf("%s%% of %sMiB at %sMiB/s ETA %s", e.Percent, e.TotalSize, e.Speed, e.ETA)
	case classify.StartingPlaylist:
		return icons.Playlist, t.theme.Bold, "playlist: " + e.PlaylistName
	case classify.PlaylistIndex:
		return icons.Bullet, t.theme.Muted, fmt.Sprintf("item %s of %s", e.Index, e.TotalIndex)
	default:
		return "", lipgloss.NewStyle(), ""
	}
}
