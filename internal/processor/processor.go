// Package processor turns one recording into transcript files: it splits the
// recording, transcribes and optionally diarizes every chunk, and writes the
// per-chunk and consolidated outputs.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leonardotrapani/scribe/internal/align"
	"github.com/leonardotrapani/scribe/internal/diarizer"
	"github.com/leonardotrapani/scribe/internal/media"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

const tempDirName = "temp"

// Splitter cuts a recording into bounded chunks.
type Splitter interface {
	Split(ctx context.Context, path, outputDir string) ([]media.Chunk, error)
}

// Transcriber recognizes speech in one file.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, opts transcriber.Options) (transcriber.Result, error)
}

// Request describes one recording to process.
type Request struct {
	Path              string
	OutputDir         string
	OriginalFilename  string
	IncludeTimestamps bool
	Diarize           bool
	Speakers          int // <= 0 lets the diarizer decide
}

// Result lists what was produced, in chunk order with the consolidated file last.
type Result struct {
	OriginalFile string   `json:"original_file"`
	ChunkCount   int      `json:"num_segments"`
	OutputFiles  []string `json:"output_files"`
	Success      bool     `json:"success"`
}

type Processor struct {
	splitter    Splitter
	transcriber Transcriber
	diarizer    diarizer.Diarizer
	remove      func(string) error
}

// New builds a processor. d may be nil when no diarization engine is configured.
func New(splitter Splitter, t Transcriber, d diarizer.Diarizer) *Processor {
	return &Processor{
		splitter:    splitter,
		transcriber: t,
		diarizer:    d,
		remove:      os.Remove,
	}
}

// Process runs the whole pipeline synchronously. Diarization failures degrade
// the output of the failing chunk and every later chunk; every other failure
// aborts.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	stem := outputStem(req)
	start := time.Now()

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	tempDir := filepath.Join(req.OutputDir, tempDirName)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}

	chunks, err := p.splitter.Split(ctx, req.Path, tempDir)
	if err != nil {
		return Result{}, err
	}
	if len(chunks) > 1 {
		defer p.removeChunks(chunks)
	}
	log.Printf("Processor: %s split into %d chunk(s)", stem, len(chunks))

	run := &chunkRun{req: req, diarize: req.Diarize}
	if req.Diarize && p.diarizer == nil {
		log.Printf("Processor: warning: diarization requested but no diarizer configured")
		run.diarize = false
	}

	texts := make([]string, 0, len(chunks))
	outputs := make([]string, 0, len(chunks)+1)
	for _, chunk := range chunks {
		log.Printf("Processor: transcribing chunk %d/%d", chunk.Number(), len(chunks))

		text, err := p.processChunk(ctx, run, chunk)
		if err != nil {
			return Result{}, fmt.Errorf("chunk %d: %w", chunk.Number(), err)
		}
		texts = append(texts, text)

		name := stem + ".txt"
		if len(chunks) > 1 {
			name = media.ChunkName(stem, chunk.Number()) + ".txt"
		}
		path := filepath.Join(req.OutputDir, name)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return Result{}, fmt.Errorf("write transcript %s: %w", name, err)
		}
		outputs = append(outputs, path)
		log.Printf("Processor: saved %s", name)
	}

	if len(chunks) > 1 {
		name := stem + "_completo.txt"
		path := filepath.Join(req.OutputDir, name)
		if err := os.WriteFile(path, []byte(Consolidate(texts)), 0o644); err != nil {
			return Result{}, fmt.Errorf("write consolidated transcript: %w", err)
		}
		outputs = append(outputs, path)
		log.Printf("Processor: saved consolidated %s", name)
	}

	original := req.OriginalFilename
	if original == "" {
		original = stem
	}
	log.Printf("Processor: %s done in %v", stem, time.Since(start))
	return Result{
		OriginalFile: original,
		ChunkCount:   len(chunks),
		OutputFiles:  outputs,
		Success:      true,
	}, nil
}

// chunkRun carries state shared across the chunks of one request.
type chunkRun struct {
	req     Request
	diarize bool
}

func (p *Processor) processChunk(ctx context.Context, run *chunkRun, chunk media.Chunk) (string, error) {
	wantSpeakers := run.diarize
	opts := transcriber.Options{
		Timestamps: run.req.IncludeTimestamps || wantSpeakers,
		Words:      wantSpeakers,
	}
	res, err := p.transcriber.Transcribe(ctx, chunk.Path, opts)
	if err != nil {
		return "", err
	}

	var intervals []diarizer.Interval
	diarized := false
	if wantSpeakers {
		intervals, err = p.diarizer.Diarize(ctx, chunk.Path, run.req.Speakers)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("Processor: warning: diarization failed on chunk %d, continuing without speakers: %v", chunk.Number(), err)
			run.diarize = false
		} else {
			diarized = true
		}
	}

	return format(res, intervals, diarized, run.req.IncludeTimestamps), nil
}

// format picks speaker turns, then timestamps, then plain text, by what is available.
func format(res transcriber.Result, intervals []diarizer.Interval, diarized, timestamps bool) string {
	timed, ok := res.(transcriber.Timed)
	if !ok {
		return strings.TrimSpace(res.Plain())
	}
	switch {
	case diarized:
		return align.RenderTurns(align.Align(timed, intervals))
	case timestamps:
		return align.RenderTimestamped(timed.Segments)
	default:
		return strings.TrimSpace(timed.Plain())
	}
}

// Consolidate joins chunk transcripts under "--- Parte N ---" headers.
func Consolidate(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Parte %d ---\n\n", i+1)
		b.WriteString(text)
	}
	return b.String()
}

func (p *Processor) removeChunks(chunks []media.Chunk) {
	for _, c := range chunks {
		if err := p.remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Processor: failed to remove chunk %s: %v", c.Path, err)
		}
	}
}

func outputStem(req Request) string {
	name := req.OriginalFilename
	if name == "" {
		name = req.Path
	}
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
