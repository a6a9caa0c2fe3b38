package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/leonardotrapani/scribe/internal/diarizer"
)

var ErrConfigNotFound = errors.New("config not found")

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "SCRIBE_CONFIG"

func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	scribeDir := filepath.Join(configDir, "scribe")
	if err := os.MkdirAll(scribeDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(scribeDir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadOrDefault loads the config file, falling back to defaults when none exists.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if errors.Is(err, ErrConfigNotFound) {
		log.Printf("Config: no configuration file, using defaults")
		cfg = DefaultConfig()
		cfg.applyThreadsDefault()
		return cfg, nil
	}
	return cfg, err
}

func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run scribe configure", ErrConfigNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("Config: loading configuration from %s", configPath)
	config := DefaultConfig()
	meta, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Printf("Config: ignoring unknown keys: %v", undecoded)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}
	config.applyDefaults()
	config.applyThreadsDefault()

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

// applyDefaults fills keys left empty in the file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.General.OutputDir == "" {
		c.General.OutputDir = defaults.General.OutputDir
	}
	if c.General.UploadDir == "" {
		c.General.UploadDir = defaults.General.UploadDir
	}
	if c.General.Language == "" {
		c.General.Language = "auto"
	}
	if c.Segmentation.MaxChunkMinutes == 0 {
		c.Segmentation.MaxChunkMinutes = DefaultMaxChunkMinutes
	}
	if c.Segmentation.FFmpegPath == "" {
		c.Segmentation.FFmpegPath = "ffmpeg"
	}
	if c.Segmentation.FFprobePath == "" {
		c.Segmentation.FFprobePath = "ffprobe"
	}
	if c.Diarization.Command == "" {
		c.Diarization.Command = diarizer.DefaultCommand
	}
}

// applyThreadsDefault sets default threads for local transcription if not explicitly set
func (c *Config) applyThreadsDefault() {
	if c.Transcription.Threads == 0 {
		threads := runtime.NumCPU() - 1
		if threads < 1 {
			threads = 1
		}
		c.Transcription.Threads = threads
	}
}

const configHeader = `# Scribe Configuration
# Changes are picked up by a running daemon without restart.
#
# general.language: ISO-639-1 code ("en", "it", "es", ...) or "auto"
# transcription.provider: "openai", "groq" or "whisper-cpp"
# diarization.hf_token: Hugging Face token for the pyannote runner (or HF_TOKEN)

`

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg atomically so watchers never observe a partial file.
func SaveTo(configPath string, cfg *Config) error {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp := configPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, configPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	log.Printf("Config: saved configuration to %s", configPath)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}
