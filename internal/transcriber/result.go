package transcriber

import "strings"

// Word is one recognized word with its timing in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a time-annotated span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Result is either PlainText or Timed.
type Result interface {
	// Plain returns the transcript without any timing information.
	Plain() string
	isResult()
}

// PlainText is returned when no timestamps were requested.
type PlainText struct {
	Text string
}

func (p PlainText) Plain() string { return p.Text }
func (PlainText) isResult()       {}

// Timed carries segment-level and optionally word-level timing.
type Timed struct {
	Text     string
	Segments []Segment
}

func (t Timed) Plain() string {
	if t.Text != "" {
		return t.Text
	}
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (Timed) isResult() {}

// HasWords reports whether any segment carries word-level timing.
func (t Timed) HasWords() bool {
	for _, s := range t.Segments {
		if len(s.Words) > 0 {
			return true
		}
	}
	return false
}

// Words flattens word timing across all segments in order.
func (t Timed) Words() []Word {
	var words []Word
	for _, s := range t.Segments {
		words = append(words, s.Words...)
	}
	return words
}

// attachWords distributes a flat, ordered word list over ordered segments.
// A word belongs to the first segment that has not ended before the word starts.
func attachWords(segments []Segment, words []Word) []Segment {
	if len(segments) == 0 || len(words) == 0 {
		return segments
	}
	j := 0
	for _, w := range words {
		for j < len(segments)-1 && w.Start >= segments[j].End {
			j++
		}
		segments[j].Words = append(segments[j].Words, w)
	}
	return segments
}
