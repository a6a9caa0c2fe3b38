package align

import (
	"strings"
	"testing"

	"github.com/leonardotrapani/scribe/internal/diarizer"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

func labels(words []AlignedWord) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Speaker
	}
	return out
}

func labeled(speakers ...string) []AlignedWord {
	words := make([]AlignedWord, len(speakers))
	for i, s := range speakers {
		words[i] = AlignedWord{
			Word:    transcriber.Word{Text: "w" + string(rune('a'+i)), Start: float64(i), End: float64(i) + 0.5},
			Speaker: s,
		}
	}
	return words
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "[00:00:00]"},
		{65, "[00:01:05]"},
		{3725, "[01:02:05]"},
		{59.999, "[00:00:59]"},
		{36000.5, "[10:00:00]"},
		{-3, "[00:00:00]"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestAlignSegments(t *testing.T) {
	tests := []struct {
		name      string
		segments  []transcriber.Segment
		intervals []diarizer.Interval
		want      []string
	}{
		{
			name:      "both segments inside one interval",
			segments:  []transcriber.Segment{{Start: 0, End: 2.5, Text: "one"}, {Start: 2.5, End: 5, Text: "two"}},
			intervals: []diarizer.Interval{{Start: 0, End: 5, Speaker: "A"}},
			want:      []string{"A", "A"},
		},
		{
			name:      "strictly greater overlap wins",
			segments:  []transcriber.Segment{{Start: 0, End: 4, Text: "span"}},
			intervals: []diarizer.Interval{{Start: 0, End: 1.5, Speaker: "A"}, {Start: 1.5, End: 4, Speaker: "B"}},
			want:      []string{"B"},
		},
		{
			name:      "tie keeps first interval",
			segments:  []transcriber.Segment{{Start: 0, End: 4, Text: "tie"}},
			intervals: []diarizer.Interval{{Start: 0, End: 2, Speaker: "A"}, {Start: 2, End: 4, Speaker: "B"}},
			want:      []string{"A"},
		},
		{
			name:      "zero overlap ties on the first interval",
			segments:  []transcriber.Segment{{Start: 10, End: 12, Text: "late"}},
			intervals: []diarizer.Interval{{Start: 0, End: 2, Speaker: "A"}, {Start: 3, End: 5, Speaker: "B"}},
			want:      []string{"A"},
		},
		{
			name:      "no intervals is unknown",
			segments:  []transcriber.Segment{{Start: 0, End: 2, Text: "alone"}},
			intervals: nil,
			want:      []string{Unknown},
		},
		{
			name:      "empty text skipped",
			segments:  []transcriber.Segment{{Start: 0, End: 1, Text: "  "}, {Start: 1, End: 2, Text: "kept"}},
			intervals: []diarizer.Interval{{Start: 0, End: 2, Speaker: "A"}},
			want:      []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := AlignSegments(tt.segments, tt.intervals)
			got := make([]string, len(turns))
			for i, turn := range turns {
				got[i] = turn.Speaker
			}
			if !equal(got, tt.want) {
				t.Errorf("speakers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveWords(t *testing.T) {
	intervals := []diarizer.Interval{
		{Start: 0, End: 2, Speaker: "A"},
		{Start: 3, End: 5, Speaker: "B"},
	}
	words := []transcriber.Word{
		{Text: "inside", Start: 0.5, End: 1.0},
		{Text: "boundary", Start: 1.8, End: 2.2},
		{Text: "near-a", Start: 2.2, End: 2.6},
		{Text: "gap", Start: 2.3, End: 2.7},
		{Text: "near-b", Start: 2.6, End: 2.8},
		{Text: "far", Start: 6, End: 7},
	}

	got := labels(ResolveWords(words, intervals))
	want := []string{"A", "A", "A", Unknown, "B", Unknown}
	if !equal(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "single flip", in: []string{"A", "A", "B", "A", "A"}, want: []string{"A", "A", "A", "A", "A"}},
		{name: "leading unknown", in: []string{Unknown, "B"}, want: []string{"B", "B"}},
		{name: "forward fill", in: []string{"A", Unknown, Unknown, "B"}, want: []string{"A", "A", "A", "B"}},
		{name: "real change kept", in: []string{"A", "A", "B", "B"}, want: []string{"A", "A", "B", "B"}},
		{name: "flip between unknowns becomes unknown", in: []string{Unknown, "B", Unknown}, want: []string{Unknown, Unknown, Unknown}},
		{name: "word between unknowns is erased then filled", in: []string{"A", Unknown, "B", Unknown, "A"}, want: []string{"A", "A", "A", "A", "A"}},
		{name: "unknown between agreeing speakers", in: []string{"A", Unknown, "A"}, want: []string{"A", "A", "A"}},
		{name: "single word", in: []string{Unknown}, want: []string{Unknown}},
		{name: "empty", in: []string{}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := labeled(tt.in...)
			got := labels(Smooth(in))
			if !equal(got, tt.want) {
				t.Errorf("Smooth(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !equal(labels(in), tt.in) {
				t.Error("Smooth modified its input")
			}
		})
	}
}

func TestGroupTurns(t *testing.T) {
	words := []AlignedWord{
		{Word: transcriber.Word{Text: "Hello", Start: 0.2}, Speaker: "A"},
		{Word: transcriber.Word{Text: ",", Start: 0.5}, Speaker: "A"},
		{Word: transcriber.Word{Text: "uh", Start: 1.0}, Speaker: Unknown},
		{Word: transcriber.Word{Text: "friend", Start: 1.5}, Speaker: "A"},
		{Word: transcriber.Word{Text: "Hi", Start: 3.4}, Speaker: "B"},
		{Word: transcriber.Word{Text: "there", Start: 3.7}, Speaker: "B"},
		{Word: transcriber.Word{Text: "?", Start: 3.9}, Speaker: Unknown},
	}

	turns := GroupTurns(words)
	if len(turns) != 2 {
		t.Fatalf("turns = %+v, want 2", turns)
	}
	if turns[0].Speaker != "A" || turns[0].Text != "Hello, uh friend" || turns[0].Start != 0.2 {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Speaker != "B" || turns[1].Text != "Hi there?" || turns[1].Start != 3.4 {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestGroupTurnsUpgradesUnknown(t *testing.T) {
	words := []AlignedWord{
		{Word: transcriber.Word{Text: "so", Start: 0}, Speaker: Unknown},
		{Word: transcriber.Word{Text: "anyway", Start: 0.4}, Speaker: "C"},
		{Word: transcriber.Word{Text: "ok", Start: 1}, Speaker: "D"},
	}

	turns := GroupTurns(words)
	if len(turns) != 2 {
		t.Fatalf("turns = %+v, want 2", turns)
	}
	if turns[0].Speaker != "C" || turns[0].Text != "so anyway" || turns[0].Start != 0 {
		t.Errorf("turn 0 = %+v", turns[0])
	}
}

func TestJoinWords(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"Hello", ",", "world", "!"}, "Hello, world!"},
		{[]string{"Really", "?"}, "Really?"},
		{[]string{" padded ", "", "words."}, "padded words."},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := joinWords(tt.in); got != tt.want {
			t.Errorf("joinWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAlignChoosesMode(t *testing.T) {
	intervals := []diarizer.Interval{
		{Start: 2, End: 4, Speaker: "B"},
		{Start: 0, End: 2, Speaker: "A"},
	}

	withWords := transcriber.Timed{Segments: []transcriber.Segment{{
		Start: 0, End: 4, Text: "hi there how are you",
		Words: []transcriber.Word{
			{Text: "hi", Start: 0, End: 0.5},
			{Text: "there", Start: 0.6, End: 1.2},
			{Text: "how", Start: 2.1, End: 2.4},
			{Text: "are", Start: 2.5, End: 2.8},
			{Text: "you", Start: 2.9, End: 3.3},
		},
	}}}
	got := RenderTurns(Align(withWords, intervals))
	want := "[00:00:00] [A] hi there\n[00:00:02] [B] how are you"
	if got != want {
		t.Errorf("word mode =\n%s\nwant\n%s", got, want)
	}

	segmentsOnly := transcriber.Timed{Segments: []transcriber.Segment{
		{Start: 0, End: 1.5, Text: "first"},
		{Start: 2.2, End: 3.9, Text: "second"},
	}}
	got = RenderTurns(Align(segmentsOnly, intervals))
	want = "[00:00:00] [A] first\n[00:00:02] [B] second"
	if got != want {
		t.Errorf("segment mode =\n%s\nwant\n%s", got, want)
	}
	if intervals[0].Speaker != "B" {
		t.Error("Align reordered the caller's intervals")
	}
}

func TestRenderTimestamped(t *testing.T) {
	segments := []transcriber.Segment{
		{Start: 0, Text: " intro "},
		{Start: 30, Text: ""},
		{Start: 65.9, Text: "later"},
	}
	got := RenderTimestamped(segments)
	want := "[00:00:00] intro\n[00:01:05] later"
	if got != want {
		t.Errorf("RenderTimestamped() = %q, want %q", got, want)
	}
	if strings.Contains(got, "[00:00:30]") {
		t.Error("empty segment rendered")
	}
}
