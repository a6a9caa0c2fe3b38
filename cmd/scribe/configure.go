package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/models/whisper"
	"github.com/leonardotrapani/scribe/internal/provider"
	"github.com/leonardotrapani/scribe/internal/tui"
)

func configureCmd() *cobra.Command {
	var onboarding bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for scribe.
This will guide you through setting up:
- The transcription provider, model and API key
- The spoken language
- Speaker diarization (Hugging Face token)
- Output directory, chunk length and notifications`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd.OutOrStdout(), onboarding)
		},
	}

	cmd.Flags().BoolVar(&onboarding, "onboarding", false, "Run the guided onboarding wizard")

	return cmd
}

func runConfigure(out io.Writer, onboarding bool) error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.DefaultConfig()
		onboarding = true
	} else if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg, onboarding)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}

	if result.Cancelled {
		fmt.Fprintln(out, "Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Fprintf(out, "Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved successfully!")
	fmt.Fprintln(out)

	showNextSteps(out, result.Config)
	return nil
}

func showNextSteps(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Next Steps:")
	step := 1
	if m := provider.FindModel(cfg.Transcription.Provider, cfg.Transcription.Model); m != nil && m.NeedsDownload() {
		if store, err := whisper.NewStore(); err == nil && !store.Installed(m.ID) {
			fmt.Fprintf(out, "%d. Download the model: scribe model download %s\n", step, m.ID)
			step++
		}
	}
	fmt.Fprintf(out, "%d. Check external tools: scribe doctor\n", step)
	step++
	fmt.Fprintf(out, "%d. Transcribe a file: scribe transcribe recording.mp3\n", step)
	step++
	fmt.Fprintf(out, "%d. Or start the daemon and queue files: scribe serve / scribe submit\n", step)
	fmt.Fprintln(out)

	configPath, _ := config.GetConfigPath()
	fmt.Fprintf(out, "Config file location: %s\n", configPath)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration file",
	}

	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetTokenCmd())

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return writeMasked(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeMasked(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		masked.Providers[name] = config.ProviderConfig{APIKey: config.MaskedToken(pc.APIKey)}
	}
	masked.Diarization.HFToken = config.MaskedToken(cfg.Diarization.HFToken)

	if path, err := config.GetConfigPath(); err == nil {
		fmt.Fprintf(w, "# %s\n", path)
	}
	return toml.NewEncoder(w).Encode(masked)
}

func configSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <hf_token>",
		Short: "Store the Hugging Face token used for speaker diarization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if !strings.HasPrefix(token, "hf_") {
				return fmt.Errorf("token should start with hf_")
			}
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Diarization.HFToken = token
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token %s saved\n", config.MaskedToken(token))
			return nil
		},
	}
}
