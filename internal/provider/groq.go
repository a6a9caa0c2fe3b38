package provider

import (
	"strings"

	"github.com/leonardotrapani/scribe/internal/language"
)

// GroqProvider serves Whisper through Groq's OpenAI-compatible API
type GroqProvider struct{}

func (p *GroqProvider) Name() string        { return "groq" }
func (p *GroqProvider) DisplayName() string { return "Groq" }
func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) APIKeyURL() string { return "https://console.groq.com/keys" }
func (p *GroqProvider) EnvVar() string    { return "GROQ_API_KEY" }
func (p *GroqProvider) IsLocal() bool     { return false }

func (p *GroqProvider) Models() []Model {
	docs := "https://console.groq.com/docs/speech-to-text"
	return []Model{
		{
			ID:                 "whisper-large-v3",
			Name:               "Whisper Large V3",
			Description:        "Best accuracy on Groq",
			WordTimestamps:     true,
			SupportedLanguages: language.Codes(),
			DocsURL:            docs,
		},
		{
			ID:                 "whisper-large-v3-turbo",
			Name:               "Whisper Large V3 Turbo",
			Description:        "Faster and cheaper, slightly lower accuracy",
			WordTimestamps:     true,
			SupportedLanguages: language.Codes(),
			DocsURL:            docs,
		},
	}
}

func (p *GroqProvider) DefaultModel() string {
	return "whisper-large-v3-turbo"
}
