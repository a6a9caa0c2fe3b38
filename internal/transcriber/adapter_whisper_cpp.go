package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leonardotrapani/scribe/internal/media"
	"github.com/leonardotrapani/scribe/internal/models/whisper"
)

const defaultWhisperCli = "whisper-cli"

// AudioNormalizer converts any input into 16 kHz mono WAV.
type AudioNormalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

// WhisperCppDeps carries the collaborators of the local engine.
type WhisperCppDeps struct {
	CliPath      string
	Runner       media.Runner
	Normalizer   AudioNormalizer
	ResolveModel func(model string) (string, error)
}

// WhisperCppEngine runs whisper.cpp's CLI on local model files.
type WhisperCppEngine struct {
	cliPath    string
	modelPath  string
	threads    int
	runner     media.Runner
	normalizer AudioNormalizer
}

// NewWhisperCppEngine resolves model to an installed model file. The model
// may be a registry ID such as "base" or a path to a ggml file.
func NewWhisperCppEngine(model string, threads int, deps WhisperCppDeps) (*WhisperCppEngine, error) {
	resolve := deps.ResolveModel
	if resolve == nil {
		resolve = resolveWhisperModel
	}
	modelPath, err := resolve(model)
	if err != nil {
		return nil, err
	}
	cliPath := deps.CliPath
	if cliPath == "" {
		cliPath = defaultWhisperCli
	}
	runner := deps.Runner
	if runner == nil {
		runner = &media.ExecRunner{}
	}
	normalizer := deps.Normalizer
	if normalizer == nil {
		normalizer = media.NewNormalizer("", runner)
	}
	return &WhisperCppEngine{
		cliPath:    cliPath,
		modelPath:  modelPath,
		threads:    threads,
		runner:     runner,
		normalizer: normalizer,
	}, nil
}

func resolveWhisperModel(model string) (string, error) {
	if info, err := os.Stat(model); err == nil && !info.IsDir() {
		return model, nil
	}
	if _, err := whisper.Find(model); err != nil {
		return "", err
	}
	store, err := whisper.NewStore()
	if err != nil {
		return "", err
	}
	return store.Resolve(model)
}

func (e *WhisperCppEngine) Name() string { return ProviderWhisperCpp }

func (e *WhisperCppEngine) Transcribe(ctx context.Context, req Request) (Output, error) {
	tmpDir, err := os.MkdirTemp("", "scribe-whisper-")
	if err != nil {
		return Output{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "input.wav")
	if err := e.normalizer.Normalize(ctx, req.Path, wavPath); err != nil {
		return Output{}, fmt.Errorf("prepare audio: %w", err)
	}

	outBase := filepath.Join(tmpDir, "output")
	args := buildWhisperArgs(e.modelPath, wavPath, outBase, req.Language, e.threads, req.Words)

	start := time.Now()
	res, err := e.runner.Run(ctx, e.cliPath, args...)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}
		log.Printf("whisper-cpp: command failed after %v: %v\nstderr: %s", duration, err, res.Stderr)
		return Output{}, fmt.Errorf("whisper-cli failed: %w", err)
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return Output{}, fmt.Errorf("read whisper output: %w", err)
	}
	out, err := parseWhisperJSON(data, req.Words)
	if err != nil {
		return Output{}, err
	}
	log.Printf("whisper-cpp: transcribed %s in %v (%d segments)", req.Path, duration, len(out.Segments))
	return out, nil
}

func buildWhisperArgs(modelPath, wavPath, outBase, language string, threads int, words bool) []string {
	if language == "" {
		language = "auto"
	}
	args := []string{
		"-m", modelPath,
		"-l", language,
		"-np",
		"-oj",
		"-of", outBase,
		"-f", wavPath,
	}
	if words {
		args = append(args, "-ojf")
	}
	if threads > 0 {
		args = append(args, "-t", strconv.Itoa(threads))
	}
	return args
}

type whisperOffsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type whisperToken struct {
	Text    string         `json:"text"`
	Offsets whisperOffsets `json:"offsets"`
}

type whisperDocument struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets whisperOffsets `json:"offsets"`
		Text    string         `json:"text"`
		Tokens  []whisperToken `json:"tokens"`
	} `json:"transcription"`
}

func parseWhisperJSON(data []byte, words bool) (Output, error) {
	var doc whisperDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Output{}, fmt.Errorf("parse whisper output: %w", err)
	}

	out := Output{Language: doc.Result.Language}
	texts := make([]string, 0, len(doc.Transcription))
	for _, t := range doc.Transcription {
		text := strings.TrimSpace(t.Text)
		seg := Segment{
			Start: msToSeconds(t.Offsets.From),
			End:   msToSeconds(t.Offsets.To),
			Text:  text,
		}
		if words {
			seg.Words = mergeTokens(t.Tokens)
		}
		out.Segments = append(out.Segments, seg)
		if text != "" {
			texts = append(texts, text)
		}
	}
	out.Text = strings.Join(texts, " ")
	return out, nil
}

// mergeTokens joins sub-word tokens into words. A token starting with a space
// begins a new word; special tokens like [_BEG_] are dropped.
func mergeTokens(tokens []whisperToken) []Word {
	var words []Word
	for _, tok := range tokens {
		if strings.HasPrefix(tok.Text, "[_") || tok.Text == "" {
			continue
		}
		startsWord := strings.HasPrefix(tok.Text, " ") || len(words) == 0
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		if startsWord {
			words = append(words, Word{
				Text:  text,
				Start: msToSeconds(tok.Offsets.From),
				End:   msToSeconds(tok.Offsets.To),
			})
			continue
		}
		last := &words[len(words)-1]
		last.Text += text
		last.End = msToSeconds(tok.Offsets.To)
	}
	return words
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
