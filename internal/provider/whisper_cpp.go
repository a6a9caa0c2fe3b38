package provider

import (
	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/models/whisper"
)

// WhisperCppProvider runs whisper.cpp locally on downloaded ggml models
type WhisperCppProvider struct{}

func (p *WhisperCppProvider) Name() string        { return "whisper-cpp" }
func (p *WhisperCppProvider) DisplayName() string { return "whisper.cpp (local)" }
func (p *WhisperCppProvider) RequiresAPIKey() bool {
	return false
}

func (p *WhisperCppProvider) ValidateAPIKey(key string) bool { return true }
func (p *WhisperCppProvider) APIKeyURL() string              { return "" }
func (p *WhisperCppProvider) EnvVar() string                 { return "" }
func (p *WhisperCppProvider) IsLocal() bool                  { return true }

func (p *WhisperCppProvider) Models() []Model {
	docsURL := "https://github.com/ggml-org/whisper.cpp#models"
	catalog := whisper.Catalog()
	result := make([]Model, 0, len(catalog))

	for _, wm := range catalog {
		langs := []string{"en"}
		if wm.Multilingual {
			langs = language.Codes()
		}
		result = append(result, Model{
			ID:                 wm.ID,
			Name:               wm.Name,
			Description:        modelDescription(wm),
			Local:              true,
			WordTimestamps:     true,
			SupportedLanguages: langs,
			LocalInfo: &LocalModelInfo{
				Filename:    wm.Filename,
				Size:        wm.Size,
				DownloadURL: whisper.DownloadURL(wm.ID),
			},
			DocsURL: docsURL,
		})
	}
	return result
}

func modelDescription(m whisper.ModelInfo) string {
	switch m.ID {
	case "tiny", "tiny.en":
		return "Fastest, lowest accuracy; fine for quick drafts"
	case "base", "base.en":
		return "Balanced speed and accuracy, recommended start"
	case "small", "small.en":
		return "Better accuracy, needs a decent CPU"
	case "medium", "medium.en":
		return "Great accuracy for long meetings, needs good CPU/RAM"
	case "large-v3":
		return "Best accuracy, needs strong hardware"
	case "large-v3-turbo":
		return "Near-best accuracy with much better speed"
	}
	return "Local whisper.cpp model"
}

func (p *WhisperCppProvider) DefaultModel() string {
	return "base"
}
