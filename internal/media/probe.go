package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Prober measures container duration with ffprobe.
type Prober struct {
	ffprobePath string
	runner      Runner
}

// NewProber creates a prober; an empty path defaults to "ffprobe".
func NewProber(ffprobePath string, runner Runner) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Prober{ffprobePath: ffprobePath, runner: runner}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the recording length in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := buildProbeArgs(path)
	res, err := p.runner.Run(ctx, p.ffprobePath, args...)
	if err != nil {
		return 0, &InspectionError{Path: path, Stderr: res.Stderr, Err: fmt.Errorf("ffprobe exit %d: %w", res.ExitCode, err)}
	}

	duration, err := parseDuration(res.Stdout)
	if err != nil {
		return 0, &InspectionError{Path: path, Err: err}
	}

	log.Printf("Prober: %s lasts %.2fs (%.2f min)", path, duration, duration/60)
	return duration, nil
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}
}

func parseDuration(raw string) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	value := strings.TrimSpace(out.Format.Duration)
	if value == "" {
		return 0, fmt.Errorf("ffprobe output has no format.duration")
	}
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %v", duration)
	}
	return duration, nil
}
