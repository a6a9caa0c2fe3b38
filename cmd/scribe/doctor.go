package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/deps"
	"github.com/leonardotrapani/scribe/internal/provider"
	"github.com/leonardotrapani/scribe/internal/tui"
)

func doctorCmd(checker *deps.Checker) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, credentials and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			c := checker
			if c == nil {
				c = deps.NewChecker()
			}
			return runDoctor(cmd, c, cfg)
		},
	}
}

func runDoctor(cmd *cobra.Command, c *deps.Checker, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	p := provider.GetProvider(cfg.Transcription.Provider)
	local := p != nil && p.IsLocal()

	statuses := []deps.Status{
		c.FFmpeg(ctx, cfg.Segmentation.FFmpegPath),
		c.FFprobe(ctx, cfg.Segmentation.FFprobePath),
		c.WhisperCli(ctx, local),
		c.Diarizer(ctx, cfg.Diarization.Command),
	}

	fmt.Fprintln(out, tui.StyleHeader.Render("Tools"))
	for _, s := range statuses {
		printStatus(out, s)
	}

	fmt.Fprintln(out, tui.StyleHeader.Render("Settings"))
	if p != nil && p.RequiresAPIKey() {
		if cfg.ResolveAPIKey(p.Name()) != "" {
			check(out, true, p.DisplayName()+" API key")
		} else {
			check(out, false, fmt.Sprintf("%s API key (set %s or run scribe configure)", p.DisplayName(), p.EnvVar()))
		}
	}
	if local {
		store, err := newStore()
		installed := err == nil && store.Installed(cfg.Transcription.Model)
		msg := "model " + cfg.Transcription.Model
		if !installed {
			msg += " (run scribe model download " + cfg.Transcription.Model + ")"
		}
		check(out, installed, msg)
	}
	if cfg.HFToken() != "" {
		check(out, true, "Hugging Face token (diarization enabled)")
	} else {
		fmt.Fprintln(out, "  "+tui.StyleMuted.Render("- no Hugging Face token, --diarize unavailable"))
	}

	if missing := deps.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
	return nil
}

func printStatus(out io.Writer, s deps.Status) {
	if !s.Installed {
		label := s.Name + " not found"
		if !s.Required {
			fmt.Fprintln(out, "  "+tui.StyleMuted.Render("- "+label+" (optional)"))
			return
		}
		check(out, false, label)
		return
	}
	label := s.Name
	if s.Version != "" {
		label += "  " + tui.StyleSubtle.Render(s.Version)
	}
	check(out, true, label)
}

func check(out io.Writer, ok bool, label string) {
	if ok {
		fmt.Fprintln(out, "  "+tui.StyleSuccess.Render("✓")+" "+label)
		return
	}
	fmt.Fprintln(out, "  "+tui.StyleError.Render("✗")+" "+label)
}
