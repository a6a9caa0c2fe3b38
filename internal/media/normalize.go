package media

import (
	"context"
	"fmt"
)

// Normalizer converts audio to 16 kHz mono 16-bit PCM WAV, the layout the
// diarization engine expects.
type Normalizer struct {
	ffmpegPath string
	runner     Runner
}

func NewNormalizer(ffmpegPath string, runner Runner) *Normalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Normalizer{ffmpegPath: ffmpegPath, runner: runner}
}

// Normalize writes the converted copy of in to out.
func (n *Normalizer) Normalize(ctx context.Context, in, out string) error {
	res, err := n.runner.Run(ctx, n.ffmpegPath, buildNormalizeArgs(in, out)...)
	if err != nil {
		return fmt.Errorf("ffmpeg normalize (exit %d): %w", res.ExitCode, err)
	}
	return nil
}

func buildNormalizeArgs(in, out string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", in,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		out,
	}
}
