package provider

// Model represents a transcription model with full metadata
type Model struct {
	ID                 string          // unique identifier (e.g., "whisper-1", "base.en")
	Name               string          // display name
	Description        string          // short description
	Local              bool            // runs locally (no API call)
	WordTimestamps     bool            // can return word-level timing for diarized output
	SupportedLanguages []string        // explicit list of language codes
	LocalInfo          *LocalModelInfo // nil for cloud models
	DocsURL            string
}

// LocalModelInfo holds metadata for downloadable local models
type LocalModelInfo struct {
	Filename    string // e.g., "ggml-base.en.bin"
	Size        string // human readable size (e.g., "142MB")
	DownloadURL string
}

// NeedsDownload returns true if this is a local model that requires downloading
func (m *Model) NeedsDownload() bool {
	return m.LocalInfo != nil
}

// SupportsLanguage returns true if the model supports the given language code.
// Auto-detect (empty string) is always supported.
func (m *Model) SupportsLanguage(code string) bool {
	if code == "" {
		return true
	}
	for _, supported := range m.SupportedLanguages {
		if supported == code {
			return true
		}
	}
	return false
}
