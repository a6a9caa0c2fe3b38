package media

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultMaxChunkSeconds is the chunk ceiling used when none is configured (20 minutes).
const DefaultMaxChunkSeconds = 20 * 60

// Chunk is one bounded slice of a recording.
type Chunk struct {
	Index  int     // zero-based
	Path   string  // file to transcribe
	Offset float64 // seconds from the start of the original recording
}

// Number returns the 1-based chunk number used in file names and headers.
func (c Chunk) Number() int {
	return c.Index + 1
}

// DurationProber reports a media file's length in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Segmenter splits recordings longer than MaxChunkSeconds with ffmpeg.
type Segmenter struct {
	ffmpegPath      string
	maxChunkSeconds float64
	prober          DurationProber
	runner          Runner
	remove          func(path string) error
}

// NewSegmenter creates a segmenter. maxChunkSeconds <= 0 uses DefaultMaxChunkSeconds.
func NewSegmenter(ffmpegPath string, maxChunkSeconds float64, prober DurationProber, runner Runner) *Segmenter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if maxChunkSeconds <= 0 {
		maxChunkSeconds = DefaultMaxChunkSeconds
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Segmenter{
		ffmpegPath:      ffmpegPath,
		maxChunkSeconds: maxChunkSeconds,
		prober:          prober,
		runner:          runner,
		remove:          os.Remove,
	}
}

// MaxChunkSeconds returns the configured chunk ceiling.
func (s *Segmenter) MaxChunkSeconds() float64 {
	return s.maxChunkSeconds
}

// ChunkCount returns how many chunks a recording of the given duration yields.
func ChunkCount(duration, maxChunkSeconds float64) int {
	if duration <= maxChunkSeconds {
		return 1
	}
	return int(math.Floor(duration/maxChunkSeconds)) + 1
}

// Split returns the chunks to transcribe for path. Recordings within the
// ceiling come back as a single chunk pointing at path itself.
func (s *Segmenter) Split(ctx context.Context, path, outputDir string) ([]Chunk, error) {
	duration, err := s.prober.Duration(ctx, path)
	if err != nil {
		return nil, err
	}

	if duration <= s.maxChunkSeconds {
		log.Printf("Segmenter: %s does not need splitting", filepath.Base(path))
		return []Chunk{{Index: 0, Path: path, Offset: 0}}, nil
	}

	n := ChunkCount(duration, s.maxChunkSeconds)
	log.Printf("Segmenter: splitting %s into %d parts of %.2f min", filepath.Base(path), n, s.maxChunkSeconds/60)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}

	stem, ext := splitName(path)
	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * s.maxChunkSeconds
		out := filepath.Join(outputDir, ChunkName(stem, i+1)+ext)

		if err := s.extract(ctx, path, out, start, i+1); err != nil {
			for _, c := range chunks {
				_ = s.remove(c.Path)
			}
			return nil, err
		}
		chunks = append(chunks, Chunk{Index: i, Path: out, Offset: start})
	}

	return chunks, nil
}

func (s *Segmenter) extract(ctx context.Context, in, out string, start float64, number int) error {
	res, err := s.runner.Run(ctx, s.ffmpegPath, buildCopyArgs(in, out, start, s.maxChunkSeconds)...)
	if err == nil {
		log.Printf("Segmenter: created %s", filepath.Base(out))
		return nil
	}
	log.Printf("Segmenter: stream copy failed for part %d (exit %d), re-encoding", number, res.ExitCode)

	res, err = s.runner.Run(ctx, s.ffmpegPath, buildEncodeArgs(in, out, start, s.maxChunkSeconds)...)
	if err != nil {
		_ = s.remove(out)
		return &SegmentationError{Path: in, Chunk: number, Stderr: res.Stderr, Err: err}
	}
	log.Printf("Segmenter: created %s (re-encoded)", filepath.Base(out))
	return nil
}

// ChunkName embeds the 1-based chunk number into a file stem.
func ChunkName(stem string, number int) string {
	return fmt.Sprintf("%s_parte%d", stem, number)
}

func splitName(path string) (string, string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func buildCopyArgs(in, out string, start, length float64) []string {
	return []string{
		"-i", in,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-c", "copy",
		"-y",
		out,
	}
}

func buildEncodeArgs(in, out string, start, length float64) []string {
	return []string{
		"-i", in,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-y",
		out,
	}
}
