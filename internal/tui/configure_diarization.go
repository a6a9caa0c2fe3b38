package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
)

func editDiarization(cfg *config.Config) error {
	token := cfg.Diarization.HFToken
	speakers := strconv.Itoa(cfg.Diarization.Speakers)
	command := cfg.Diarization.Command

	tokenDesc := "Needed to identify speakers. Create one at https://huggingface.co/settings/tokens"
	if token != "" {
		tokenDesc = "Currently: " + config.MaskedToken(token) + ". Leave as is to keep it."
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Hugging Face Token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Validate(validateHFToken).
				Value(&token),
			huh.NewInput().
				Title("Expected Speakers").
				Description("0 lets the diarizer decide").
				Validate(func(s string) error {
					_, err := parseSpeakers(s)
					return err
				}).
				Value(&speakers),
			huh.NewInput().
				Title("Diarizer Command").
				Description("Executable that prints speaker intervals as JSON").
				Value(&command),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	n, _ := parseSpeakers(speakers)
	cfg.Diarization.HFToken = strings.TrimSpace(token)
	cfg.Diarization.Speakers = n
	if c := strings.TrimSpace(command); c != "" {
		cfg.Diarization.Command = c
	}
	return nil
}

// validateHFToken accepts empty (diarization disabled) or an hf_ token
func validateHFToken(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "hf_") {
		return nil
	}
	return fmt.Errorf("Hugging Face tokens start with hf_")
}

func parseSpeakers(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("enter a whole number, 0 or more")
	}
	return n, nil
}

func formatDiarizationLabel(cfg *config.Config) string {
	if cfg.HFToken() == "" {
		return "Speaker Identification (no token)"
	}
	return "Speaker Identification"
}
