package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/scribe/internal/config"
)

func editOutput(cfg *config.Config) error {
	outputDir := cfg.General.OutputDir
	minutes := strconv.FormatFloat(cfg.Segmentation.MaxChunkMinutes, 'f', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Transcript Folder").
				Description("Where .txt transcripts are written").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("folder is required")
					}
					return nil
				}).
				Value(&outputDir),
			huh.NewInput().
				Title("Chunk Length (minutes)").
				Description("Longer recordings are split into parts of this length").
				Validate(func(s string) error {
					_, err := parseMinutes(s)
					return err
				}).
				Value(&minutes),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.OutputDir = strings.TrimSpace(outputDir)
	cfg.Segmentation.MaxChunkMinutes, _ = parseMinutes(minutes)
	return nil
}

func parseMinutes(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("enter a positive number of minutes")
	}
	return v, nil
}

func formatOutputLabel(cfg *config.Config) string {
	return fmt.Sprintf("Output (%g min chunks)", cfg.Segmentation.MaxChunkMinutes)
}
