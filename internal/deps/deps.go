package deps

import (
	"context"
	"os/exec"
	"strings"

	"github.com/leonardotrapani/scribe/internal/media"
)

// Status represents the installation status of an external tool
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
	Required  bool
}

// Checker locates external tools and asks them for a version string
type Checker struct {
	LookPath func(file string) (string, error)
	Runner   media.Runner
}

func NewChecker() *Checker {
	return &Checker{LookPath: exec.LookPath, Runner: &media.ExecRunner{}}
}

// Check resolves name on PATH (or as a path) and runs it with versionArgs.
// The first non-empty output line becomes the version.
func (c *Checker) Check(ctx context.Context, name string, versionArgs ...string) Status {
	status := Status{Name: name}
	path, err := c.LookPath(name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if len(versionArgs) == 0 {
		return status
	}
	res, err := c.Runner.Run(ctx, path, versionArgs...)
	if err != nil && res.Stdout == "" && res.Stderr == "" {
		return status
	}
	out := res.Stdout
	if strings.TrimSpace(out) == "" {
		out = res.Stderr
	}
	status.Version = firstLine(out)
	return status
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func (c *Checker) FFmpeg(ctx context.Context, path string) Status {
	s := c.Check(ctx, orDefault(path, "ffmpeg"), "-version")
	s.Required = true
	return s
}

func (c *Checker) FFprobe(ctx context.Context, path string) Status {
	s := c.Check(ctx, orDefault(path, "ffprobe"), "-version")
	s.Required = true
	return s
}

// WhisperCli is only required for the whisper-cpp provider
func (c *Checker) WhisperCli(ctx context.Context, required bool) Status {
	s := c.Check(ctx, "whisper-cli", "--version")
	s.Required = required
	return s
}

// Diarizer checks the pyannote runner; diarization is optional
func (c *Checker) Diarizer(ctx context.Context, command string) Status {
	return c.Check(ctx, command)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Missing returns the required tools that are not installed
func Missing(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if s.Required && !s.Installed {
			names = append(names, s.Name)
		}
	}
	return names
}
