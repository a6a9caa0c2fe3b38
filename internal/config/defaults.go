package config

import (
	"os"
	"path/filepath"

	"github.com/leonardotrapani/scribe/internal/diarizer"
)

const (
	DefaultMaxChunkMinutes = 20
	DefaultProvider        = "whisper-cpp"
	DefaultModel           = "base"
)

// DataDir is where transcripts, staged uploads and models live by default.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "scribe")
	}
	return filepath.Join(home, ".local", "share", "scribe")
}

// DefaultConfig returns the initial configuration used for onboarding.
func DefaultConfig() *Config {
	data := DataDir()
	return &Config{
		General: GeneralConfig{
			OutputDir: filepath.Join(data, "transcriptions"),
			UploadDir: filepath.Join(data, "uploads"),
			Language:  "auto",
		},
		Transcription: TranscriptionConfig{
			Provider: DefaultProvider,
			Model:    DefaultModel,
			Threads:  0,
		},
		Segmentation: SegmentationConfig{
			MaxChunkMinutes: DefaultMaxChunkMinutes,
			FFmpegPath:      "ffmpeg",
			FFprobePath:     "ffprobe",
		},
		Diarization: DiarizationConfig{
			Command: diarizer.DefaultCommand,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
		Providers: make(map[string]ProviderConfig),
	}
}
