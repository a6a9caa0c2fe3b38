package whisper

import (
	"errors"
	"fmt"
)

// ModelInfo describes one ggml model published for whisper.cpp
type ModelInfo struct {
	ID           string // e.g. "base.en"
	Name         string
	Filename     string // e.g. "ggml-base.en.bin"
	Size         string
	SizeBytes    int64 // expected size, used when the server omits Content-Length
	Multilingual bool
}

var (
	ErrUnknownModel = errors.New("unknown whisper model")
	ErrNotInstalled = errors.New("whisper model not installed")
)

// DefaultBaseURL hosts the ggml model files
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

var catalog = []ModelInfo{
	{ID: "tiny.en", Name: "Tiny English", Filename: "ggml-tiny.en.bin", Size: "75MB", SizeBytes: 77_691_713},
	{ID: "base.en", Name: "Base English", Filename: "ggml-base.en.bin", Size: "142MB", SizeBytes: 147_964_211},
	{ID: "small.en", Name: "Small English", Filename: "ggml-small.en.bin", Size: "466MB", SizeBytes: 487_614_201},
	{ID: "medium.en", Name: "Medium English", Filename: "ggml-medium.en.bin", Size: "1.5GB", SizeBytes: 1_533_774_781},

	{ID: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", Size: "75MB", SizeBytes: 77_691_713, Multilingual: true},
	{ID: "base", Name: "Base", Filename: "ggml-base.bin", Size: "142MB", SizeBytes: 147_951_465, Multilingual: true},
	{ID: "small", Name: "Small", Filename: "ggml-small.bin", Size: "466MB", SizeBytes: 487_601_967, Multilingual: true},
	{ID: "medium", Name: "Medium", Filename: "ggml-medium.bin", Size: "1.5GB", SizeBytes: 1_533_763_059, Multilingual: true},
	{ID: "large-v3", Name: "Large V3", Filename: "ggml-large-v3.bin", Size: "3.1GB", SizeBytes: 3_095_033_483, Multilingual: true},
	{ID: "large-v3-turbo", Name: "Large V3 Turbo", Filename: "ggml-large-v3-turbo.bin", Size: "1.6GB", SizeBytes: 1_624_555_275, Multilingual: true},
}

// Catalog returns every known model, english-only first
func Catalog() []ModelInfo {
	out := make([]ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the catalog entry for id
func Find(id string) (ModelInfo, error) {
	for _, m := range catalog {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
}

// DownloadURL returns where the model file is fetched from
func DownloadURL(id string) string {
	m, err := Find(id)
	if err != nil {
		return ""
	}
	return DefaultBaseURL + "/" + m.Filename
}
