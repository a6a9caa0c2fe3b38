package transcriber

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/scribe/internal/language"
)

// Service owns the currently loaded engine. The engine is loaded lazily on
// first use and reloaded when the configured model identifier changes.
type Service struct {
	mu       sync.Mutex
	load     Loader
	model    string
	language string
	engine   Engine
	loaded   string
}

func NewService(model, language string, load Loader) *Service {
	return &Service{
		load:     load,
		model:    model,
		language: language,
	}
}

// Model returns the configured model identifier.
func (s *Service) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Loaded reports whether an engine for the configured model is ready.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil && s.loaded == s.model
}

// Language returns the configured language code ("auto" or empty means detect).
func (s *Service) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Service) SetLanguage(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
}

// UseModel sets the model identifier and drops the loaded engine if it differs.
// It reports whether the model changed.
func (s *Service) UseModel(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if model == "" || model == s.model {
		return false
	}
	log.Printf("Transcriber: switching model %s -> %s", s.model, model)
	s.model = model
	s.engine = nil
	s.loaded = ""
	return true
}

// SetLoader replaces the loader and drops the loaded engine. Used when the
// provider configuration changes.
func (s *Service) SetLoader(load Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load = load
	s.engine = nil
	s.loaded = ""
}

// Ensure loads the engine for the configured model if it is not loaded yet.
func (s *Service) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.ensureLocked(ctx)
	return err
}

func (s *Service) ensureLocked(ctx context.Context) (Engine, error) {
	if s.engine != nil && s.loaded == s.model {
		return s.engine, nil
	}
	if s.load == nil {
		return nil, &Error{Op: "load", Err: ErrEngineNotLoaded}
	}
	start := time.Now()
	engine, err := s.load(ctx, s.model)
	if err != nil {
		return nil, &Error{Op: "load", Err: fmt.Errorf("model %s: %w", s.model, err)}
	}
	if engine == nil {
		return nil, &Error{Op: "load", Err: ErrEngineNotLoaded}
	}
	s.engine = engine
	s.loaded = s.model
	log.Printf("Transcriber: loaded %s (%s) in %v", s.model, engine.Name(), time.Since(start))
	return engine, nil
}

// Transcribe recognizes speech in the file at path. With no timing requested
// it returns PlainText, otherwise Timed.
func (s *Service) Transcribe(ctx context.Context, path string, opts Options) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}

	s.mu.Lock()
	engine, err := s.ensureLocked(ctx)
	lang := language.Normalize(s.language)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := engine.Transcribe(ctx, Request{Path: path, Language: lang, Options: opts})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Op: "transcribe", Path: path, Err: err}
	}
	log.Printf("Transcriber: %s transcribed in %v (%d segments)", path, time.Since(start), len(out.Segments))

	if !opts.Timestamps && !opts.Words {
		return PlainText{Text: strings.TrimSpace(out.Text)}, nil
	}

	segments := make([]Segment, len(out.Segments))
	copy(segments, out.Segments)
	if !opts.Words {
		for i := range segments {
			segments[i].Words = nil
		}
	}
	return Timed{Text: strings.TrimSpace(out.Text), Segments: segments}, nil
}
