package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
)

func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled
	kind := cfg.Notifications.Type
	if kind == "" || kind == "none" {
		kind = "desktop"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Notifications").
				Description("Tell me when a transcription finishes or fails").
				Affirmative("Enable").
				Negative("Disable").
				Value(&enabled),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification Type").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
				).
				Value(&kind),
		).WithHideFunc(func() bool { return !enabled }),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled
	cfg.Notifications.Type = kind
	if !enabled {
		cfg.Notifications.Type = "none"
	}
	return nil
}

func formatNotificationsLabel(cfg *config.Config) string {
	if cfg.NotifierType() == "none" {
		return "Notifications (off)"
	}
	return "Notifications (" + cfg.NotifierType() + ")"
}
