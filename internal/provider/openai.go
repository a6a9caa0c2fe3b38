package provider

import (
	"strings"

	"github.com/leonardotrapani/scribe/internal/language"
)

// OpenAIProvider is OpenAI's hosted Whisper
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string        { return "openai" }
func (p *OpenAIProvider) DisplayName() string { return "OpenAI" }
func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) APIKeyURL() string { return "https://platform.openai.com/api-keys" }
func (p *OpenAIProvider) EnvVar() string    { return "OPENAI_API_KEY" }
func (p *OpenAIProvider) IsLocal() bool     { return false }

func (p *OpenAIProvider) Models() []Model {
	return []Model{
		{
			ID:                 "whisper-1",
			Name:               "Whisper 1",
			Description:        "OpenAI's production speech-to-text model, segment and word timestamps",
			WordTimestamps:     true,
			SupportedLanguages: language.Codes(),
			DocsURL:            "https://platform.openai.com/docs/guides/speech-to-text",
		},
	}
}

func (p *OpenAIProvider) DefaultModel() string {
	return "whisper-1"
}
