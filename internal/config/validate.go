package config

import (
	"fmt"

	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/provider"
)

func (c *Config) Validate() error {
	if c.General.OutputDir == "" {
		return fmt.Errorf("invalid general.output_dir: empty")
	}
	if c.General.UploadDir == "" {
		return fmt.Errorf("invalid general.upload_dir: empty")
	}
	if !language.IsValidCode(c.General.Language) {
		return fmt.Errorf("invalid general.language: %s (use \"auto\" or ISO-639-1 codes like 'en', 'es', 'it')", c.General.Language)
	}

	if c.Transcription.Provider == "" {
		return fmt.Errorf("invalid transcription.provider: empty")
	}
	p := provider.GetProvider(c.Transcription.Provider)
	if p == nil {
		return fmt.Errorf("unsupported transcription.provider: %s (must be one of %v)", c.Transcription.Provider, provider.ListProviders())
	}
	if p.RequiresAPIKey() && c.ResolveAPIKey(c.Transcription.Provider) == "" {
		return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%s)",
			p.DisplayName(), p.Name(), p.EnvVar())
	}
	if c.Transcription.Model != "" {
		model := provider.FindModel(p.Name(), c.Transcription.Model)
		if model == nil {
			return fmt.Errorf("invalid model for %s: %s (must be one of %v)", p.Name(), c.Transcription.Model, provider.ModelIDs(p.Name()))
		}
		if !model.SupportsLanguage(language.Normalize(c.General.Language)) {
			return fmt.Errorf("model %s does not support language %s", model.ID, c.General.Language)
		}
	}
	if c.Transcription.Threads < 0 {
		return fmt.Errorf("invalid transcription.threads: %d", c.Transcription.Threads)
	}

	if c.Segmentation.MaxChunkMinutes <= 0 {
		return fmt.Errorf("invalid segmentation.max_chunk_minutes: %v", c.Segmentation.MaxChunkMinutes)
	}
	if c.Diarization.Speakers < 0 {
		return fmt.Errorf("invalid diarization.speakers: %d", c.Diarization.Speakers)
	}

	switch c.Notifications.Type {
	case "desktop", "log", "none":
	case "":
		if c.Notifications.Enabled {
			return fmt.Errorf("invalid notifications.type: empty")
		}
	default:
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log or none)", c.Notifications.Type)
	}

	return nil
}
