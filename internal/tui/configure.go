package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leonardotrapani/scribe/internal/config"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionTranscription ConfigSection = "transcription"
	SectionLanguage      ConfigSection = "language"
	SectionDiarization   ConfigSection = "diarization"
	SectionOutput        ConfigSection = "output"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the TUI configuration wizard. fresh selects the guided
// onboarding flow instead of the section menu.
func Run(existingConfig *config.Config, fresh bool) (*ConfigureResult, error) {
	if existingConfig == nil {
		existingConfig = config.DefaultConfig()
	}
	cfg := *existingConfig
	cfg.Providers = make(map[string]config.ProviderConfig, len(existingConfig.Providers))
	for k, v := range existingConfig.Providers {
		cfg.Providers[k] = v
	}

	if fresh {
		return runFreshInstall(&cfg)
	}
	return runEditExisting(&cfg)
}

// runFreshInstall walks through every section once
func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println()
	fmt.Println(StyleMuted.Render("Let's set up scribe. You can change everything later with 'scribe configure'."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editTranscription,
		editLanguage,
		editDiarization,
		editOutput,
		editNotifications,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: cfg}, nil
}

// runEditExisting runs the menu-based edit flow for existing configs
func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		var editErr error
		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		case SectionTranscription:
			editErr = editTranscription(cfg)
		case SectionLanguage:
			editErr = editLanguage(cfg)
		case SectionDiarization:
			editErr = editDiarization(cfg)
		case SectionOutput:
			editErr = editOutput(cfg)
		case SectionNotifications:
			editErr = editNotifications(cfg)
		}
		if editErr != nil && !errors.Is(editErr, huh.ErrUserAborted) {
			fmt.Println(StyleError.Render(editErr.Error()))
		}
	}
}

func sectionOptions(cfg *config.Config) []huh.Option[ConfigSection] {
	return []huh.Option[ConfigSection]{
		huh.NewOption(formatTranscriptionLabel(cfg), SectionTranscription),
		huh.NewOption(formatLanguageLabel(cfg), SectionLanguage),
		huh.NewOption(formatDiarizationLabel(cfg), SectionDiarization),
		huh.NewOption(formatOutputLabel(cfg), SectionOutput),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(sectionOptions(cfg)...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(ColorError)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
