package align

import (
	"fmt"
	"strings"

	"github.com/leonardotrapani/scribe/internal/transcriber"
)

// FormatTimestamp renders seconds as [HH:MM:SS], truncating fractions.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d:%02d]", total/3600, (total%3600)/60, total%60)
}

// RenderTurns writes one "[HH:MM:SS] [Speaker] text" line per turn.
func RenderTurns(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s [%s] %s", FormatTimestamp(t.Start), t.Speaker, t.Text))
	}
	return strings.Join(lines, "\n")
}

// RenderTimestamped writes one "[HH:MM:SS] text" line per non-empty segment.
func RenderTimestamped(segments []transcriber.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", FormatTimestamp(s.Start), text))
	}
	return strings.Join(lines, "\n")
}
