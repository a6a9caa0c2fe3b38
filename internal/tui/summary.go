package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/provider"
)

func formatTranscriptionLabel(cfg *config.Config) string {
	name := cfg.Transcription.Provider
	if p := provider.GetProvider(name); p != nil {
		name = p.DisplayName()
	}
	return fmt.Sprintf("Transcription (%s, %s)", name, cfg.Transcription.Model)
}

// buildSummaryLines renders label/value pairs; secrets are masked
func buildSummaryLines(cfg *config.Config) [][2]string {
	lines := [][2]string{
		{"Transcription:", fmt.Sprintf("%s (%s)", cfg.Transcription.Provider, cfg.Transcription.Model)},
		{"Language:", language.Label(cfg.General.Language)},
	}

	var keyed []string
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			keyed = append(keyed, name+" "+config.MaskedToken(pc.APIKey))
		}
	}
	sort.Strings(keyed)
	for _, k := range keyed {
		lines = append(lines, [2]string{"API key:", k})
	}

	speakers := "auto"
	if cfg.Diarization.Speakers > 0 {
		speakers = fmt.Sprint(cfg.Diarization.Speakers)
	}
	if token := cfg.Diarization.HFToken; token != "" {
		lines = append(lines, [2]string{"Diarization:", fmt.Sprintf("token %s, speakers %s", config.MaskedToken(token), speakers)})
	} else {
		lines = append(lines, [2]string{"Diarization:", "no token (speaker labels disabled)"})
	}

	lines = append(lines,
		[2]string{"Transcripts:", cfg.General.OutputDir},
		[2]string{"Chunks:", fmt.Sprintf("%g min", cfg.Segmentation.MaxChunkMinutes)},
		[2]string{"Notifications:", cfg.NotifierType()},
	)
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	for _, l := range buildSummaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(l[0]), l[1])
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println()
		fmt.Println(StyleWarning.Render("Warning: " + err.Error()))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
