package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/scribe/internal/models/whisper"
	"github.com/leonardotrapani/scribe/internal/provider"
	"github.com/leonardotrapani/scribe/internal/tui"
)

// newStore opens the local model store; tests point it at a temp dir.
var newStore = whisper.NewStore

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage transcription models",
	}

	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(modelDownloadCmd())
	cmd.AddCommand(modelRemoveCmd())

	return cmd
}

func modelListCmd() *cobra.Command {
	var providerFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available transcription models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(cmd.OutOrStdout(), providerFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")

	return cmd
}

func runModelList(out io.Writer, providerFilter string) error {
	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	for _, name := range providerNames {
		p := provider.GetProvider(name)
		fmt.Fprintf(out, "\n%s:\n", name)
		for _, m := range p.Models() {
			fmt.Fprintln(out, modelLine(store, m))
		}
	}
	fmt.Fprintln(out)
	return nil
}

func modelLine(store *whisper.Store, m provider.Model) string {
	prefix := "  "
	if m.Local {
		if store.Installed(m.ID) {
			prefix = "  [x]"
		} else {
			prefix = "  [ ]"
		}
	}

	var parts []string
	if m.WordTimestamps {
		parts = append(parts, "word timestamps")
	}
	if len(m.SupportedLanguages) == 1 {
		parts = append(parts, m.SupportedLanguages[0]+" only")
	}
	if m.LocalInfo != nil && m.LocalInfo.Size != "" {
		parts = append(parts, m.LocalInfo.Size)
	}

	line := fmt.Sprintf("%s %s", prefix, m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	if len(parts) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}
	return line
}

// findLocalModel reports whether id is a known model and whether it is local.
func findLocalModel(id string) (bool, error) {
	if _, err := whisper.Find(id); err == nil {
		return true, nil
	}
	for _, name := range provider.ListProviders() {
		if m := provider.FindModel(name, id); m != nil {
			return m.NeedsDownload(), nil
		}
	}
	return false, fmt.Errorf("unknown model: %s", id)
}

func modelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model-name>",
		Short: "Download a whisper.cpp model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			out := cmd.OutOrStdout()

			local, err := findLocalModel(id)
			if err != nil {
				return err
			}
			if !local {
				fmt.Fprintf(out, "model '%s' is a cloud model and does not require download\n", id)
				return nil
			}

			store, err := newStore()
			if err != nil {
				return err
			}
			if store.Installed(id) {
				path, _ := store.Path(id)
				fmt.Fprintf(out, "model '%s' is already installed at %s\n", id, path)
				return nil
			}

			if err := tui.RunDownload(cmd.Context(), store, id); err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			path, _ := store.Path(id)
			fmt.Fprintf(out, "download complete: %s\n", path)
			return nil
		},
	}
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model-name>",
		Short: "Remove a downloaded whisper.cpp model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			local, err := findLocalModel(id)
			if err != nil {
				return err
			}
			if !local {
				fmt.Fprintf(cmd.OutOrStdout(), "model '%s' is a cloud model, nothing to remove\n", id)
				return nil
			}

			store, err := newStore()
			if err != nil {
				return err
			}
			if err := store.Remove(id); err != nil {
				if errors.Is(err, whisper.ErrNotInstalled) {
					return fmt.Errorf("model '%s' is not installed", id)
				}
				return fmt.Errorf("failed to remove model: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "model '%s' removed successfully\n", id)
			return nil
		},
	}
}
