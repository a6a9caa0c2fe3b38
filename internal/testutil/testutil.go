package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/scribe/internal/diarizer"
	"github.com/leonardotrapani/scribe/internal/media"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// CreateAudioFile writes a placeholder audio file and returns its path
func CreateAudioFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake audio"), 0644); err != nil {
		t.Fatalf("Failed to create audio file: %v", err)
	}
	return path
}

// MockRunner implements media.Runner. ffmpeg calls create their output file
// (the last argument) unless RunFunc says otherwise.
type MockRunner struct {
	RunFunc func(name string, args []string) (media.CommandResult, error)

	mu    sync.Mutex
	Calls [][]string
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]string{name}, args...))
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(name, args)
	}
	if len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], []byte("chunk"), 0644); err != nil {
			return media.CommandResult{ExitCode: 1, Stderr: err.Error()}, err
		}
	}
	return media.CommandResult{}, nil
}

func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockProber implements media.DurationProber with a fixed duration
type MockProber struct {
	Seconds float64
	Err     error
}

func (m MockProber) Duration(ctx context.Context, path string) (float64, error) {
	return m.Seconds, m.Err
}

// MockSegmenter returns a segmenter backed by MockProber and MockRunner
func MockSegmenter(seconds, maxChunkSeconds float64) (*media.Segmenter, *MockRunner) {
	runner := &MockRunner{}
	return media.NewSegmenter("ffmpeg", maxChunkSeconds, MockProber{Seconds: seconds}, runner), runner
}

// MockTranscriber implements processor.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, path string, opts transcriber.Options) (transcriber.Result, error)

	mu      sync.Mutex
	Paths   []string
	Options []transcriber.Options
}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

func (m *MockTranscriber) Transcribe(ctx context.Context, path string, opts transcriber.Options) (transcriber.Result, error) {
	m.mu.Lock()
	m.Paths = append(m.Paths, path)
	m.Options = append(m.Options, opts)
	n := len(m.Paths)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, path, opts)
	}
	text := fmt.Sprintf("mock transcription %d", n)
	if !opts.Timestamps && !opts.Words {
		return transcriber.PlainText{Text: text}, nil
	}
	seg := transcriber.Segment{Start: 1, End: 3, Text: text}
	if opts.Words {
		seg.Words = []transcriber.Word{
			{Text: "mock", Start: 1, End: 1.5},
			{Text: "transcription", Start: 1.6, End: 2.4},
			{Text: fmt.Sprint(n), Start: 2.5, End: 3},
		}
	}
	return transcriber.Timed{Text: text, Segments: []transcriber.Segment{seg}}, nil
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Paths)
}

// MockDiarizer implements diarizer.Diarizer
type MockDiarizer struct {
	Intervals []diarizer.Interval
	Err       error

	mu    sync.Mutex
	Paths []string
}

func NewMockDiarizer(intervals ...diarizer.Interval) *MockDiarizer {
	if len(intervals) == 0 {
		intervals = []diarizer.Interval{{Start: 0, End: 10, Speaker: "SPEAKER_00"}}
	}
	return &MockDiarizer{Intervals: intervals}
}

func (m *MockDiarizer) Diarize(ctx context.Context, path string, speakers int) ([]diarizer.Interval, error) {
	m.mu.Lock()
	m.Paths = append(m.Paths, path)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]diarizer.Interval, len(m.Intervals))
	copy(out, m.Intervals)
	return out, nil
}

func (m *MockDiarizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Paths)
}

// MockEngine implements transcriber.Engine
type MockEngine struct {
	Output transcriber.Output
	Err    error
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Transcribe(ctx context.Context, req transcriber.Request) (transcriber.Output, error) {
	return m.Output, m.Err
}

// MockLoader returns a loader that hands out engine and records requested models
func MockLoader(engine transcriber.Engine, models *[]string) transcriber.Loader {
	var mu sync.Mutex
	return func(ctx context.Context, model string) (transcriber.Engine, error) {
		mu.Lock()
		defer mu.Unlock()
		if models != nil {
			*models = append(*models, model)
		}
		return engine, nil
	}
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}
