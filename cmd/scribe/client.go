package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/scribe/internal/bus"
	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/jobs"
	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/tui"
)

func submitCmd() *cobra.Command {
	var flags jobFlags
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Queue a file on the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if !jobs.IsAllowed(path) {
				return fmt.Errorf("%w: %s", jobs.ErrUnsupportedFormat, filepath.Ext(path))
			}
			output := flags.output
			if output != "" {
				if output, err = filepath.Abs(output); err != nil {
					return err
				}
			}

			var job jobs.Job
			if _, err := send(bus.CmdSubmit, bus.SubmitRequest{
				Path:              path,
				OutputDir:         output,
				Model:             flags.model,
				IncludeTimestamps: flags.timestamps,
				Diarize:           flags.diarize,
				Speakers:          flags.speakers,
			}, &job); err != nil {
				return fmt.Errorf("failed to submit: %w", err)
			}

			if !watch {
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s as job %s\n", job.Filename, job.ID)
				return nil
			}
			final, err := tui.WatchJob(job, func() (jobs.Job, error) {
				return fetchJob(job.ID)
			})
			if err != nil {
				return err
			}
			if final.Status == jobs.StatusError {
				return fmt.Errorf("job %s failed: %s", final.ID, final.Error)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "follow the job until it finishes")

	return cmd
}

func fetchJob(id string) (jobs.Job, error) {
	var job jobs.Job
	_, err := send(bus.CmdStatus, id, &job)
	return job, err
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := fetchJob(args[0])
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			printJob(cmd.OutOrStdout(), job)
			return nil
		},
	}
}

func printJob(w io.Writer, job jobs.Job) {
	fmt.Fprintf(w, "%s  %s\n", job.ID, job.Filename)
	fmt.Fprintf(w, "  status:   %s (%d%%)\n", job.Status, job.Progress)
	if job.Model != "" {
		fmt.Fprintf(w, "  model:    %s\n", job.Model)
	}
	if !job.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  created:  %s\n", humanize.Time(job.CreatedAt))
	}
	if job.ChunkCount > 1 {
		fmt.Fprintf(w, "  segments: %d\n", job.ChunkCount)
	}
	if job.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", job.Error)
	}
	for _, f := range job.OutputFiles {
		fmt.Fprintf(w, "  output:   %s\n", f)
	}
}

func jobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []jobs.Job
			if _, err := send(bus.CmdList, nil, &list); err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "no jobs")
				return nil
			}
			for _, j := range list {
				fmt.Fprintf(out, "%-36s  %-10s %3d%%  %s\n", j.ID, j.Status, j.Progress, j.Filename)
			}
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var h bus.Health
			if _, err := send(bus.CmdHealth, nil, &h); err != nil {
				return fmt.Errorf("failed to get health: %w", err)
			}
			loaded := "not loaded"
			if h.ModelLoaded {
				loaded = "loaded"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:   %s\n", h.Status)
			fmt.Fprintf(out, "version:  %s\n", h.Version)
			fmt.Fprintf(out, "model:    %s/%s (%s)\n", h.Provider, h.Model, loaded)
			fmt.Fprintf(out, "language: %s\n", language.Label(h.Language))
			fmt.Fprintf(out, "queue:    busy=%v pending=%d\n", h.Busy, h.Pending)
			fmt.Fprintf(out, "chunks:   %.0f min\n", h.ChunkMinutes)
			return nil
		},
	}
}

func languageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "language <code>",
		Short: "Set the transcription language (ISO 639-1 code or 'auto')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToLower(strings.TrimSpace(args[0]))
			if !language.IsValidCode(code) {
				return fmt.Errorf("unsupported language: %s", code)
			}
			out := cmd.OutOrStdout()

			_, err := send(bus.CmdLanguage, code, nil)
			if err == nil {
				fmt.Fprintf(out, "language set to %s\n", language.Label(code))
				return nil
			}
			if !errors.Is(err, bus.ErrDaemonNotRunning) {
				return fmt.Errorf("failed to set language: %w", err)
			}

			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.General.Language = code
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(out, "language set to %s (saved to config)\n", language.Label(code))
			return nil
		},
	}
}
