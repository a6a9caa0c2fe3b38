package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/provider"
)

func editLanguage(cfg *config.Config) error {
	model := provider.FindModel(cfg.Transcription.Provider, cfg.Transcription.Model)
	selected := cfg.General.Language

	desc := "Auto-detect works for most recordings; fixing the language helps with short or noisy ones"
	if model != nil && len(model.SupportedLanguages) == 1 {
		desc = fmt.Sprintf("%s is an English-only model", model.ID)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description(desc).
				Options(getModelLanguageOptions(model, selected)...).
				Height(12).
				Value(&selected),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.General.Language = selected
	return nil
}

// getModelLanguageOptions lists auto-detect first, then what model supports.
// Unknown models get every language.
func getModelLanguageOptions(model *provider.Model, current string) []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption("Auto-detect", language.AutoCode)}
	for _, l := range language.List() {
		if model != nil && !model.SupportsLanguage(l.Code) {
			continue
		}
		opt := huh.NewOption(language.Label(l.Code), l.Code)
		if l.Code == language.Normalize(current) {
			opt = opt.Selected(true)
		}
		options = append(options, opt)
	}
	return options
}

func formatLanguageLabel(cfg *config.Config) string {
	return fmt.Sprintf("Language (%s)", language.Label(cfg.General.Language))
}
