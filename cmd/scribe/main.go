package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/scribe/internal/bus"
	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/daemon"
	"github.com/leonardotrapani/scribe/internal/jobs"
	"github.com/leonardotrapani/scribe/internal/pipeline"
	"github.com/leonardotrapani/scribe/internal/processor"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// newEndpoint locates the daemon socket; tests point it at a temp dir.
var newEndpoint = bus.DefaultEndpoint

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "scribe",
	Short:         "Transcribe long recordings with optional speaker labels",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(
		transcribeCmd(),
		serveCmd(),
		submitCmd(),
		statusCmd(),
		jobsCmd(),
		healthCmd(),
		languageCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		configCmd(),
		modelCmd(),
		doctorCmd(nil),
	)
}

type jobFlags struct {
	timestamps bool
	diarize    bool
	speakers   int
	model      string
	output     string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.timestamps, "timestamps", "t", false, "prefix lines with [HH:MM:SS] timestamps")
	cmd.Flags().BoolVarP(&f.diarize, "diarize", "d", false, "label speakers (needs a Hugging Face token)")
	cmd.Flags().IntVar(&f.speakers, "speakers", 0, "expected number of speakers (0 = auto)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "override the configured model")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "directory for transcripts (default from config)")
}

func (f *jobFlags) validate() error {
	if f.speakers < 0 {
		return fmt.Errorf("--speakers must be >= 0")
	}
	if f.speakers > 0 && !f.diarize {
		return fmt.Errorf("--speakers requires --diarize")
	}
	return nil
}

func transcribeCmd(opts ...pipeline.Option) *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file>...",
		Short: "Transcribe files in the foreground without a daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runTranscribe(cmd, pipeline.New(cfg, opts...), flags, args)
		},
	}
	flags.register(cmd)

	return cmd
}

func runTranscribe(cmd *cobra.Command, p *pipeline.Pipeline, flags jobFlags, files []string) error {
	out := cmd.OutOrStdout()
	dir := flags.output
	if dir == "" {
		dir = p.Config().General.OutputDir
	}
	var failed int
	for _, file := range files {
		job, err := p.Run(cmd.Context(), jobs.Request{
			Request: processor.Request{
				Path:              file,
				OutputDir:         flags.output,
				IncludeTimestamps: flags.timestamps,
				Diarize:           flags.diarize,
				Speakers:          flags.speakers,
			},
			Model: flags.model,
		})
		if err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(file), err)
			failed++
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", job.Filename)
		for _, f := range job.OutputFiles {
			fmt.Fprintf(out, "  %s\n", filepath.Join(dir, f))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManager()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			endpoint, err := newEndpoint()
			if err != nil {
				return fmt.Errorf("failed to locate runtime dir: %w", err)
			}
			p := pipeline.New(manager.GetConfig())
			d := daemon.New(manager, p, endpoint, version)
			return d.Run()
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := send(bus.CmdQuit, nil, nil); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "daemon stopping")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and daemon versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scribe %s\n", version)

			var v map[string]string
			_, err := send(bus.CmdVersion, nil, &v)
			switch {
			case errors.Is(err, bus.ErrDaemonNotRunning):
				fmt.Fprintln(out, "daemon: not running")
			case err != nil:
				return fmt.Errorf("failed to get version: %w", err)
			default:
				fmt.Fprintf(out, "daemon: %s (protocol %s)\n", v["version"], v["proto"])
			}
			return nil
		},
	}
}

// send issues one command to the daemon and decodes the reply into out when non-nil.
func send(cmd byte, payload, out any) (bus.Response, error) {
	endpoint, err := newEndpoint()
	if err != nil {
		return bus.Response{}, err
	}
	resp, err := endpoint.Send(cmd, payload)
	if err != nil {
		return resp, err
	}
	return resp, resp.Decode(out)
}
