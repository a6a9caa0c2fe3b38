package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner delegates to an injected function.
type fakeRunner struct {
	calls [][]string
	run   func(name string, args ...string) (CommandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.run == nil {
		return CommandResult{}, nil
	}
	return f.run(name, args...)
}

type fixedProber struct {
	duration float64
	err      error
}

func (p fixedProber) Duration(ctx context.Context, path string) (float64, error) {
	return p.duration, p.err
}

// writeOutput emulates ffmpeg writing its last argument.
func writeOutput(t *testing.T, args []string) {
	t.Helper()
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
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

func TestProberDuration(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		runErr  error
		want    float64
		wantErr bool
	}{
		{name: "valid", stdout: `{"format":{"duration":"1500.250000"}}`, want: 1500.25},
		{name: "exit failure", runErr: errors.New("exit status 1"), wantErr: true},
		{name: "not json", stdout: "garbage", wantErr: true},
		{name: "missing duration", stdout: `{"format":{}}`, wantErr: true},
		{name: "non numeric", stdout: `{"format":{"duration":"N/A"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{run: func(name string, args ...string) (CommandResult, error) {
				if tt.runErr != nil {
					return CommandResult{ExitCode: 1, Stderr: "boom"}, tt.runErr
				}
				return CommandResult{Stdout: tt.stdout}, nil
			}}
			p := NewProber("ffprobe-test", runner)

			got, err := p.Duration(context.Background(), "/in.mp3")
			if tt.wantErr {
				var inspErr *InspectionError
				if !errors.As(err, &inspErr) {
					t.Fatalf("error = %v, want *InspectionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Duration() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
			if runner.calls[0][0] != "ffprobe-test" {
				t.Errorf("command = %q, want ffprobe-test", runner.calls[0][0])
			}
		})
	}
}

func TestSegmenterSplitShortRecordingReturnsInput(t *testing.T) {
	for _, d := range []float64{0, 1, 600, 1199.99, 1200} {
		t.Run(fmt.Sprint(d), func(t *testing.T) {
			runner := &fakeRunner{}
			s := NewSegmenter("ffmpeg", 1200, fixedProber{duration: d}, runner)

			chunks, err := s.Split(context.Background(), "/uploads/meeting.mp3", t.TempDir())
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) != 1 {
				t.Fatalf("chunks = %d, want 1", len(chunks))
			}
			if chunks[0].Path != "/uploads/meeting.mp3" || chunks[0].Index != 0 {
				t.Errorf("chunk = %+v, want original path at index 0", chunks[0])
			}
			if len(runner.calls) != 0 {
				t.Errorf("ffmpeg should not run, got %d calls", len(runner.calls))
			}
		})
	}
}

func TestSegmenterSplitLongRecording(t *testing.T) {
	tests := []struct {
		duration float64
		want     int
	}{
		{1500, 2},
		{2400, 3}, // exact multiple still gets a trailing chunk
		{3601, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.duration), func(t *testing.T) {
			dir := t.TempDir()
			runner := &fakeRunner{}
			runner.run = func(name string, args ...string) (CommandResult, error) {
				writeOutput(t, args)
				return CommandResult{}, nil
			}
			s := NewSegmenter("ffmpeg", 1200, fixedProber{duration: tt.duration}, runner)

			chunks, err := s.Split(context.Background(), "/uploads/talk.m4a", dir)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) != tt.want {
				t.Fatalf("chunks = %d, want %d", len(chunks), tt.want)
			}
			for i, c := range chunks {
				wantPath := filepath.Join(dir, fmt.Sprintf("talk_parte%d.m4a", i+1))
				if c.Path != wantPath {
					t.Errorf("chunk %d path = %s, want %s", i, c.Path, wantPath)
				}
				if c.Index != i {
					t.Errorf("chunk %d index = %d", i, c.Index)
				}
				if c.Offset != float64(i)*1200 {
					t.Errorf("chunk %d offset = %v", i, c.Offset)
				}
				args := runner.calls[i]
				if got := argValue(args, "-ss"); got != fmt.Sprint(i*1200) {
					t.Errorf("chunk %d -ss = %s", i, got)
				}
				if got := argValue(args, "-t"); got != "1200" {
					t.Errorf("chunk %d -t = %s", i, got)
				}
				if got := argValue(args, "-c"); got != "copy" {
					t.Errorf("chunk %d should use stream copy, -c = %q", i, got)
				}
			}
		})
	}
}

func TestSegmenterFallsBackToReencode(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	runner.run = func(name string, args ...string) (CommandResult, error) {
		if argValue(args, "-c") == "copy" && strings.Contains(args[len(args)-1], "parte2") {
			return CommandResult{ExitCode: 1}, errors.New("exit status 1")
		}
		writeOutput(t, args)
		return CommandResult{}, nil
	}
	s := NewSegmenter("ffmpeg", 60, fixedProber{duration: 150}, runner)

	chunks, err := s.Split(context.Background(), "/in/a.mp3", dir)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	// part1 copy, part2 copy, part2 encode, part3 copy
	if len(runner.calls) != 4 {
		t.Fatalf("ffmpeg calls = %d, want 4", len(runner.calls))
	}
	if argValue(runner.calls[2], "-c") != "" {
		t.Errorf("fallback should re-encode, got args %v", runner.calls[2])
	}
}

func TestSegmenterFailsAfterFallback(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	runner.run = func(name string, args ...string) (CommandResult, error) {
		if strings.Contains(args[len(args)-1], "parte2") {
			return CommandResult{ExitCode: 1, Stderr: "invalid data"}, errors.New("exit status 1")
		}
		writeOutput(t, args)
		return CommandResult{}, nil
	}
	s := NewSegmenter("ffmpeg", 60, fixedProber{duration: 150}, runner)

	_, err := s.Split(context.Background(), "/in/a.mp3", dir)
	var segErr *SegmentationError
	if !errors.As(err, &segErr) {
		t.Fatalf("error = %v, want *SegmentationError", err)
	}
	if segErr.Chunk != 2 {
		t.Errorf("failed chunk = %d, want 2", segErr.Chunk)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a_parte1.mp3")); !os.IsNotExist(statErr) {
		t.Errorf("earlier chunk should be removed on failure, stat err = %v", statErr)
	}
}

func TestSegmenterPropagatesProbeError(t *testing.T) {
	inspectErr := &InspectionError{Path: "/x", Err: errors.New("bad")}
	s := NewSegmenter("ffmpeg", 60, fixedProber{err: inspectErr}, &fakeRunner{})

	_, err := s.Split(context.Background(), "/x", t.TempDir())
	var inspErr *InspectionError
	if !errors.As(err, &inspErr) {
		t.Fatalf("error = %v, want *InspectionError", err)
	}
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		d, max float64
		want   int
	}{
		{0, 1200, 1},
		{1200, 1200, 1},
		{1500, 1200, 2},
		{2400, 1200, 3},
	}
	for _, tt := range tests {
		if got := ChunkCount(tt.d, tt.max); got != tt.want {
			t.Errorf("ChunkCount(%v, %v) = %d, want %d", tt.d, tt.max, got, tt.want)
		}
	}
}

func TestBuildNormalizeArgs(t *testing.T) {
	args := buildNormalizeArgs("/in.m4a", "/tmp/out.wav")
	if argValue(args, "-ar") != "16000" || argValue(args, "-ac") != "1" || argValue(args, "-c:a") != "pcm_s16le" {
		t.Errorf("unexpected normalize args: %v", args)
	}
	if args[len(args)-1] != "/tmp/out.wav" {
		t.Errorf("output should be last arg, got %v", args)
	}
}
