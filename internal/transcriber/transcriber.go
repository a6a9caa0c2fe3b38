package transcriber

import (
	"context"
	"fmt"
)

// Options selects how much timing the caller wants back.
type Options struct {
	Timestamps bool
	Words      bool
}

// Request is what an engine receives for one file.
type Request struct {
	Path     string
	Language string // empty means auto-detect
	Options
}

// Output is the raw engine output before it is shaped into a Result.
type Output struct {
	Text     string
	Language string
	Segments []Segment
}

// Engine runs recognition for a single loaded model.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (Output, error)
}

// Loader produces an engine for a model identifier.
type Loader func(ctx context.Context, model string) (Engine, error)

// Config selects the provider behind the default loader.
type Config struct {
	Provider string // "openai", "groq" or "whisper-cpp"
	APIKey   string
	Model    string
	Language string
	Threads  int
}

const (
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderWhisperCpp = "whisper-cpp"
)

func DefaultConfig() Config {
	return Config{
		Provider: ProviderOpenAI,
		Model:    "whisper-1",
		Language: "auto",
	}
}

// NewLoader returns a Loader for the configured provider. The model passed to
// the loader overrides cfg.Model so the service can swap models at runtime.
func NewLoader(cfg Config, deps WhisperCppDeps) Loader {
	return func(ctx context.Context, model string) (Engine, error) {
		switch cfg.Provider {
		case ProviderOpenAI:
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("openai API key required")
			}
			return NewOpenAIEngine(cfg.APIKey, model, ""), nil
		case ProviderGroq:
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("groq API key required")
			}
			return NewOpenAIEngine(cfg.APIKey, model, GroqBaseURL), nil
		case ProviderWhisperCpp:
			return NewWhisperCppEngine(model, cfg.Threads, deps)
		default:
			return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
		}
	}
}
