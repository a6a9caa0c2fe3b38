package diarizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leonardotrapani/scribe/internal/media"
)

type fakeRunner struct {
	calls  [][]string
	result media.CommandResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.result, f.err
}

type fakeNormalizer struct {
	outputs []string
	err     error
}

func (f *fakeNormalizer) Normalize(ctx context.Context, in, out string) error {
	f.outputs = append(f.outputs, out)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("RIFF"), 0o644)
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if dErr.Kind != want {
		t.Errorf("Kind = %s, want %s", dErr.Kind, want)
	}
}

func TestPyannoteDiarize(t *testing.T) {
	runner := &fakeRunner{result: media.CommandResult{Stdout: `[
		{"start": 4.0, "end": 6.5, "speaker": "SPEAKER_01"},
		{"start": 0.0, "end": 4.0, "speaker": "SPEAKER_00"}
	]`}}
	norm := &fakeNormalizer{}
	tmp := t.TempDir()
	p := NewPyannote("", "hf_secret", norm, WithRunner(runner), WithTempDir(tmp))

	got, err := p.Diarize(context.Background(), "talk.mp3", 2)
	if err != nil {
		t.Fatalf("Diarize() error = %v", err)
	}
	if len(got) != 2 || got[0].Speaker != "SPEAKER_00" || got[1].Start != 4.0 {
		t.Errorf("intervals = %+v, want sorted by start", got)
	}

	call := runner.calls[0]
	if call[0] != DefaultCommand {
		t.Errorf("command = %s, want %s", call[0], DefaultCommand)
	}
	if got := argValue(call, "--num-speakers"); got != "2" {
		t.Errorf("--num-speakers = %q, want 2", got)
	}
	if got := argValue(call, "--audio"); got != norm.outputs[0] {
		t.Errorf("--audio = %q, want normalized wav %q", got, norm.outputs[0])
	}

	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("temp wav not removed: %v", entries)
	}
}

func TestPyannoteAutoSpeakers(t *testing.T) {
	runner := &fakeRunner{result: media.CommandResult{Stdout: `{"segments": []}`}}
	p := NewPyannote("diarize", "hf", &fakeNormalizer{}, WithRunner(runner), WithTempDir(t.TempDir()))

	got, err := p.Diarize(context.Background(), "a.wav", 0)
	if err != nil {
		t.Fatalf("Diarize() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("intervals = %+v, want none", got)
	}
	if argValue(runner.calls[0], "--num-speakers") != "" {
		t.Error("speaker count should be omitted when auto")
	}
}

func TestPyannoteMissingToken(t *testing.T) {
	runner := &fakeRunner{}
	p := NewPyannote("", "", &fakeNormalizer{}, WithRunner(runner))

	_, err := p.Diarize(context.Background(), "a.wav", 0)
	assertKind(t, err, KindCredential)
	if !errors.Is(err, ErrNoToken) {
		t.Error("error should wrap ErrNoToken")
	}
	if len(runner.calls) != 0 {
		t.Error("engine should not run without a token")
	}

	p.SetToken("hf_new")
	if _, err := p.Diarize(context.Background(), "a.wav", 0); err == nil {
		t.Error("expected parse error on empty output after token set")
	} else {
		assertKind(t, err, KindInference)
	}
}

func TestPyannoteMissingCommand(t *testing.T) {
	p := NewPyannote(filepath.Join(t.TempDir(), "no-such-runner"), "hf", &fakeNormalizer{})
	_, err := p.Diarize(context.Background(), "a.wav", 0)
	assertKind(t, err, KindLoad)
}

func TestPyannoteFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		norm   *fakeNormalizer
	}{
		{
			name:   "normalization fails",
			runner: &fakeRunner{},
			norm:   &fakeNormalizer{err: errors.New("ffmpeg exploded")},
		},
		{
			name:   "engine fails",
			runner: &fakeRunner{err: errors.New("exit status 1"), result: media.CommandResult{Stderr: "CUDA out of memory"}},
			norm:   &fakeNormalizer{},
		},
		{
			name:   "garbage output",
			runner: &fakeRunner{result: media.CommandResult{Stdout: "loading pipeline..."}},
			norm:   &fakeNormalizer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			p := NewPyannote("", "hf", tt.norm, WithRunner(tt.runner), WithTempDir(tmp))
			_, err := p.Diarize(context.Background(), "a.wav", 0)
			assertKind(t, err, KindInference)

			entries, _ := os.ReadDir(tmp)
			if len(entries) != 0 {
				t.Errorf("temp wav not removed: %v", entries)
			}
		})
	}
}

func TestParseIntervals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "array", input: `[{"start":0,"end":1,"speaker":"A"}]`, want: 1},
		{name: "object", input: `{"segments":[{"start":0,"end":1,"speaker":"A"},{"start":1,"end":2,"speaker":"B"}]}`, want: 2},
		{name: "empty", input: "  ", wantErr: true},
		{name: "end before start", input: `[{"start":2,"end":1,"speaker":"A"}]`, wantErr: true},
		{name: "negative start", input: `[{"start":-1,"end":1,"speaker":"A"}]`, wantErr: true},
		{name: "missing speaker", input: `[{"start":0,"end":1}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntervals([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIntervals() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSortIntervalsStable(t *testing.T) {
	intervals := []Interval{
		{Start: 3, End: 4, Speaker: "C"},
		{Start: 1, End: 2, Speaker: "A"},
		{Start: 1, End: 3, Speaker: "B"},
	}
	SortIntervals(intervals)
	want := []string{"A", "B", "C"}
	for i, iv := range intervals {
		if iv.Speaker != want[i] {
			t.Errorf("intervals[%d] = %s, want %s", i, iv.Speaker, want[i])
		}
	}
}

func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}
