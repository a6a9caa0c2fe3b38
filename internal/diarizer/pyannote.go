package diarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/scribe/internal/media"
)

// DefaultCommand is the pyannote runner invoked when none is configured.
const DefaultCommand = "pyannote-diarize"

// ErrNoToken is returned when no Hugging Face token is configured.
var ErrNoToken = errors.New("hugging face token not configured")

// Normalizer converts audio into 16 kHz mono PCM WAV.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

// Pyannote runs an external pyannote runner that prints speaker intervals as
// JSON on stdout. The runner reads the token from HF_TOKEN.
type Pyannote struct {
	mu         sync.RWMutex
	command    string
	token      string
	normalizer Normalizer
	run        func(token string) media.Runner
	lookPath   func(string) (string, error)
	tempDir    string
}

type PyannoteOption func(*Pyannote)

// WithRunner replaces the process runner, mostly for tests.
func WithRunner(r media.Runner) PyannoteOption {
	return func(p *Pyannote) {
		p.run = func(string) media.Runner { return r }
		p.lookPath = func(name string) (string, error) { return name, nil }
	}
}

func WithTempDir(dir string) PyannoteOption {
	return func(p *Pyannote) { p.tempDir = dir }
}

func NewPyannote(command, token string, normalizer Normalizer, opts ...PyannoteOption) *Pyannote {
	if command == "" {
		command = DefaultCommand
	}
	p := &Pyannote{
		command:    command,
		token:      token,
		normalizer: normalizer,
		run: func(token string) media.Runner {
			return &media.ExecRunner{Env: []string{"HF_TOKEN=" + token}}
		},
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetToken swaps the credential used for later runs.
func (p *Pyannote) SetToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

func (p *Pyannote) credential() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

func (p *Pyannote) Diarize(ctx context.Context, path string, speakers int) ([]Interval, error) {
	token := p.credential()
	if token == "" {
		return nil, &Error{Kind: KindCredential, Path: path, Err: ErrNoToken}
	}
	bin, err := p.lookPath(p.command)
	if err != nil {
		return nil, &Error{Kind: KindLoad, Path: path, Err: fmt.Errorf("%s not found: %w", p.command, err)}
	}

	tmp, err := os.CreateTemp(p.tempDir, "scribe-diarize-*.wav")
	if err != nil {
		return nil, &Error{Kind: KindInference, Path: path, Err: fmt.Errorf("create temp wav: %w", err)}
	}
	wavPath := tmp.Name()
	tmp.Close()
	defer os.Remove(wavPath)

	if err := p.normalizer.Normalize(ctx, path, wavPath); err != nil {
		return nil, &Error{Kind: KindInference, Path: path, Err: fmt.Errorf("prepare audio: %w", err)}
	}

	start := time.Now()
	res, err := p.run(token).Run(ctx, bin, buildPyannoteArgs(wavPath, speakers)...)
	if err != nil {
		log.Printf("Diarizer: %s failed after %v: %v\nstderr: %s", filepath.Base(bin), time.Since(start), err, strings.TrimSpace(res.Stderr))
		return nil, &Error{Kind: KindInference, Path: path, Err: err}
	}

	intervals, err := parseIntervals([]byte(res.Stdout))
	if err != nil {
		return nil, &Error{Kind: KindInference, Path: path, Err: err}
	}
	SortIntervals(intervals)
	log.Printf("Diarizer: %s -> %d intervals in %v", path, len(intervals), time.Since(start))
	return intervals, nil
}

func buildPyannoteArgs(wavPath string, speakers int) []string {
	args := []string{"--audio", wavPath, "--format", "json"}
	if speakers > 0 {
		args = append(args, "--num-speakers", strconv.Itoa(speakers))
	}
	return args
}

// parseIntervals accepts either a bare JSON array or an object with a
// "segments" array.
func parseIntervals(data []byte) ([]Interval, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty diarization output")
	}

	var intervals []Interval
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &intervals); err != nil {
			return nil, fmt.Errorf("parse diarization output: %w", err)
		}
	} else {
		var doc struct {
			Segments []Interval `json:"segments"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("parse diarization output: %w", err)
		}
		intervals = doc.Segments
	}

	for i, iv := range intervals {
		if iv.Start < 0 || iv.End < iv.Start {
			return nil, fmt.Errorf("invalid interval %d: %.3f-%.3f", i, iv.Start, iv.End)
		}
		if iv.Speaker == "" {
			return nil, fmt.Errorf("interval %d has no speaker", i)
		}
	}
	return intervals, nil
}
