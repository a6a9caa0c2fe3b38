package config

import (
	"os"

	"github.com/leonardotrapani/scribe/internal/provider"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

// EnvHFToken is the fallback source of the diarization credential.
const EnvHFToken = "HF_TOKEN"

func (c *Config) ToTranscriberConfig() transcriber.Config {
	model := c.Transcription.Model
	if model == "" {
		if p := provider.GetProvider(c.Transcription.Provider); p != nil {
			model = p.DefaultModel()
		}
	}
	return transcriber.Config{
		Provider: c.Transcription.Provider,
		APIKey:   c.ResolveAPIKey(c.Transcription.Provider),
		Model:    model,
		Language: c.General.Language,
		Threads:  c.Transcription.Threads,
	}
}

// ResolveAPIKey returns the API key for a provider from config, then environment.
func (c *Config) ResolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}
	if envVar := provider.EnvVarForProvider(providerName); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}

// HFToken returns the diarization token from config, then HF_TOKEN.
func (c *Config) HFToken() string {
	if c.Diarization.HFToken != "" {
		return c.Diarization.HFToken
	}
	return os.Getenv(EnvHFToken)
}

// MaxChunkSeconds converts the configured chunk ceiling to seconds.
func (c *Config) MaxChunkSeconds() float64 {
	return c.Segmentation.MaxChunkMinutes * 60
}

// NotifierType returns the effective notifier, "none" when disabled.
func (c *Config) NotifierType() string {
	if !c.Notifications.Enabled || c.Notifications.Type == "" {
		return "none"
	}
	return c.Notifications.Type
}

// MaskedToken shows the first and last four characters of a secret.
func MaskedToken(token string) string {
	if token == "" {
		return ""
	}
	head := token[:min(4, len(token))]
	tail := token[max(0, len(token)-4):]
	return head + "..." + tail
}
