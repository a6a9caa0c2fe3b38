// Package align attributes transcript text to speakers by fusing transcript
// timing with diarization intervals.
package align

import (
	"strings"

	"github.com/leonardotrapani/scribe/internal/diarizer"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

// Unknown labels words or segments no interval could be matched to.
const Unknown = "Unknown"

// NearestTolerance is the maximum distance in seconds between a word midpoint
// and an interval boundary for the word to snap to that interval.
const NearestTolerance = 0.5

// AlignedWord is a word with its resolved speaker.
type AlignedWord struct {
	transcriber.Word
	Speaker string
}

// Turn is a contiguous run of speech by one speaker.
type Turn struct {
	Start   float64
	Speaker string
	Text    string
}

// Align picks word-level alignment when any segment has word timing and
// segment-level alignment otherwise.
func Align(result transcriber.Timed, intervals []diarizer.Interval) []Turn {
	sorted := make([]diarizer.Interval, len(intervals))
	copy(sorted, intervals)
	diarizer.SortIntervals(sorted)

	if result.HasWords() {
		words := ResolveWords(result.Words(), sorted)
		return GroupTurns(Smooth(words))
	}
	return AlignSegments(result.Segments, sorted)
}

// AlignSegments assigns each non-empty segment the speaker with the largest
// overlap. Ties keep the earlier interval, including a tie at zero overlap.
// Only an empty interval list yields Unknown.
func AlignSegments(segments []transcriber.Segment, intervals []diarizer.Interval) []Turn {
	turns := make([]Turn, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := Unknown
		best := -1.0
		for _, iv := range intervals {
			if ov := overlap(seg.Start, seg.End, iv.Start, iv.End); ov > best {
				best = ov
				speaker = iv.Speaker
			}
		}
		turns = append(turns, Turn{Start: seg.Start, Speaker: speaker, Text: text})
	}
	return turns
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	ov := min(aEnd, bEnd) - max(aStart, bStart)
	if ov < 0 {
		return 0
	}
	return ov
}

// ResolveWords labels each word by the interval containing its midpoint,
// falling back to the nearest interval within NearestTolerance.
func ResolveWords(words []transcriber.Word, intervals []diarizer.Interval) []AlignedWord {
	aligned := make([]AlignedWord, 0, len(words))
	for _, w := range words {
		aligned = append(aligned, AlignedWord{Word: w, Speaker: speakerAt((w.Start+w.End)/2, intervals)})
	}
	return aligned
}

func speakerAt(mid float64, intervals []diarizer.Interval) string {
	for _, iv := range intervals {
		if iv.Start <= mid && mid <= iv.End {
			return iv.Speaker
		}
	}

	speaker := Unknown
	nearest := NearestTolerance
	for _, iv := range intervals {
		var d float64
		switch {
		case mid < iv.Start:
			d = iv.Start - mid
		case mid > iv.End:
			d = mid - iv.End
		}
		if d < nearest {
			nearest = d
			speaker = iv.Speaker
		}
	}
	return speaker
}

// Smooth removes single-word label flips, forward-fills Unknown words from
// their predecessor and backfills a leading Unknown from the second word.
// The input is not modified.
func Smooth(words []AlignedWord) []AlignedWord {
	out := make([]AlignedWord, len(words))
	copy(out, words)

	for i := 1; i < len(out)-1; i++ {
		prev, next := out[i-1].Speaker, out[i+1].Speaker
		if prev == next && out[i].Speaker != prev {
			out[i].Speaker = prev
		}
	}

	for i := 1; i < len(out); i++ {
		if out[i].Speaker == Unknown && out[i-1].Speaker != Unknown {
			out[i].Speaker = out[i-1].Speaker
		}
	}

	if len(out) > 1 && out[0].Speaker == Unknown && out[1].Speaker != Unknown {
		out[0].Speaker = out[1].Speaker
	}
	return out
}

// GroupTurns folds words into turns. Unknown words never open a new turn and
// an Unknown turn takes the first resolved label found inside it.
func GroupTurns(words []AlignedWord) []Turn {
	var turns []Turn
	var texts []string
	var current Turn

	flush := func() {
		if len(texts) == 0 {
			return
		}
		current.Text = joinWords(texts)
		turns = append(turns, current)
		texts = nil
	}

	for _, w := range words {
		if len(texts) > 0 && w.Speaker != current.Speaker && w.Speaker != Unknown {
			if current.Speaker == Unknown {
				current.Speaker = w.Speaker
			} else {
				flush()
			}
		}
		if len(texts) == 0 {
			current = Turn{Start: w.Start, Speaker: w.Speaker}
		}
		texts = append(texts, w.Text)
	}
	flush()
	return turns
}

// joinWords joins with single spaces except before closing punctuation.
func joinWords(words []string) string {
	var b strings.Builder
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if b.Len() > 0 && !strings.ContainsAny(w[:1], ",.?!") {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}
