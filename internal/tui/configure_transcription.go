package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/models/whisper"
	"github.com/leonardotrapani/scribe/internal/provider"
)

// editTranscription picks provider, API key and model
func editTranscription(cfg *config.Config) error {
	selectedProvider := cfg.Transcription.Provider
	if provider.GetProvider(selectedProvider) == nil {
		selectedProvider = config.DefaultProvider
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Provider").
				Description("Local runs on this machine, cloud providers need an API key").
				Options(getProviderOptions(cfg)...).
				Value(&selectedProvider),
		),
	).WithTheme(getTheme())
	if err := providerForm.Run(); err != nil {
		return err
	}

	p := provider.GetProvider(selectedProvider)
	if p.RequiresAPIKey() && cfg.ResolveAPIKey(p.Name()) == "" {
		key, err := inputAPIKey(p)
		if err != nil {
			return err
		}
		cfg.Providers[p.Name()] = config.ProviderConfig{APIKey: key}
	}

	if cfg.Transcription.Provider != selectedProvider {
		cfg.Transcription.Model = p.DefaultModel()
	}
	cfg.Transcription.Provider = selectedProvider

	selectedModel := cfg.Transcription.Model
	if provider.FindModel(p.Name(), selectedModel) == nil {
		selectedModel = p.DefaultModel()
	}

	modelForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Model").
				Description(fmt.Sprintf("Models offered by %s", p.DisplayName())).
				Options(getTranscriptionModelOptions(p.Name())...).
				Value(&selectedModel),
		),
	).WithTheme(getTheme())
	if err := modelForm.Run(); err != nil {
		return err
	}
	cfg.Transcription.Model = selectedModel

	if m := provider.FindModel(p.Name(), selectedModel); m != nil && m.NeedsDownload() {
		store, err := whisper.NewStore()
		if err == nil && !store.Installed(selectedModel) {
			fmt.Println(StyleWarning.Render(fmt.Sprintf(
				"Model %s is not downloaded yet. Run: scribe model download %s", selectedModel, selectedModel)))
		}
	}
	return nil
}

func getProviderOptions(cfg *config.Config) []huh.Option[string] {
	var options []huh.Option[string]
	for _, name := range provider.ListProviders() {
		options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
	}
	return options
}

func formatProviderOption(cfg *config.Config, name string) string {
	p := provider.GetProvider(name)
	switch {
	case p.IsLocal():
		return p.DisplayName() + " - free, offline"
	case cfg.ResolveAPIKey(name) != "":
		return p.DisplayName() + " - key configured"
	default:
		return p.DisplayName() + " - needs API key"
	}
}

func getTranscriptionModelOptions(providerName string) []huh.Option[string] {
	p := provider.GetProvider(providerName)
	if p == nil {
		return nil
	}
	var options []huh.Option[string]
	for _, m := range p.Models() {
		options = append(options, huh.NewOption(buildModelDesc(m), m.ID))
	}
	return options
}

func buildModelDesc(m provider.Model) string {
	parts := []string{m.ID}
	if m.LocalInfo != nil {
		parts = append(parts, m.LocalInfo.Size)
	}
	if len(m.SupportedLanguages) == 1 {
		parts = append(parts, "english only")
	}
	label := strings.Join(parts, " · ")
	if m.Description != "" {
		label += " - " + m.Description
	}
	return label
}

func inputAPIKey(p provider.Provider) (string, error) {
	var key string
	desc := fmt.Sprintf("Stored in the config file. You can also export %s.", p.EnvVar())
	if url := p.APIKeyURL(); url != "" {
		desc += "\nGet one at " + url
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(p.DisplayName()+" API Key").
				Description(desc).
				EchoMode(huh.EchoModePassword).
				Validate(validateAPIKey(p)).
				Value(&key),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func validateAPIKey(p provider.Provider) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("API key is required")
		}
		if !p.ValidateAPIKey(s) {
			return fmt.Errorf("this does not look like a %s key", p.DisplayName())
		}
		return nil
	}
}
