package config

// GeneralConfig holds paths and the transcription language
type GeneralConfig struct {
	OutputDir string `toml:"output_dir"`
	UploadDir string `toml:"upload_dir"`
	Language  string `toml:"language"` // ISO-639-1 code or "auto"
}

type Config struct {
	General       GeneralConfig             `toml:"general"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Segmentation  SegmentationConfig        `toml:"segmentation"`
	Diarization   DiarizationConfig         `toml:"diarization"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"` // "openai", "groq", "whisper-cpp"
	Model    string `toml:"model"`
	Threads  int    `toml:"threads"` // CPU threads for local transcription (0 = auto: NumCPU-1)
}

type SegmentationConfig struct {
	MaxChunkMinutes float64 `toml:"max_chunk_minutes"`
	FFmpegPath      string  `toml:"ffmpeg_path"`
	FFprobePath     string  `toml:"ffprobe_path"`
}

type DiarizationConfig struct {
	HFToken  string `toml:"hf_token"`
	Command  string `toml:"command"`
	Speakers int    `toml:"speakers"` // default expected speaker count, 0 = auto
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
