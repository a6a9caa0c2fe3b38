package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leonardotrapani/scribe/internal/media"
)

const whisperFullJSON = `{
  "result": {"language": "en"},
  "transcription": [
    {
      "offsets": {"from": 0, "to": 2500},
      "text": " Hello world",
      "tokens": [
        {"text": "[_BEG_]", "offsets": {"from": 0, "to": 0}},
        {"text": " Hel", "offsets": {"from": 0, "to": 400}},
        {"text": "lo", "offsets": {"from": 400, "to": 900}},
        {"text": " world", "offsets": {"from": 1000, "to": 2400}},
        {"text": "[_TT_125]", "offsets": {"from": 2500, "to": 2500}}
      ]
    },
    {
      "offsets": {"from": 2500, "to": 4000},
      "text": " Again.",
      "tokens": [
        {"text": " Again", "offsets": {"from": 2600, "to": 3500}},
        {"text": ".", "offsets": {"from": 3500, "to": 3600}}
      ]
    }
  ]
}`

type scriptedRunner struct {
	calls [][]string
	run   func(name string, args []string) (media.CommandResult, error)
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.run == nil {
		return media.CommandResult{}, nil
	}
	return r.run(name, args)
}

type copyNormalizer struct{ inputs []string }

func (n *copyNormalizer) Normalize(ctx context.Context, in, out string) error {
	n.inputs = append(n.inputs, in)
	return os.WriteFile(out, []byte("RIFF"), 0o644)
}

func argAfter(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func TestParseWhisperJSON(t *testing.T) {
	out, err := parseWhisperJSON([]byte(whisperFullJSON), true)
	if err != nil {
		t.Fatalf("parseWhisperJSON() error = %v", err)
	}
	if out.Text != "Hello world Again." {
		t.Errorf("Text = %q", out.Text)
	}
	if out.Language != "en" {
		t.Errorf("Language = %q, want en", out.Language)
	}
	if len(out.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(out.Segments))
	}
	if out.Segments[0].Start != 0 || out.Segments[0].End != 2.5 {
		t.Errorf("segment 0 timing = %v-%v", out.Segments[0].Start, out.Segments[0].End)
	}

	words := out.Segments[0].Words
	if len(words) != 2 || words[0].Text != "Hello" || words[1].Text != "world" {
		t.Fatalf("segment 0 words = %+v", words)
	}
	if words[0].End != 0.9 {
		t.Errorf("merged word end = %v, want 0.9", words[0].End)
	}
	if got := out.Segments[1].Words; len(got) != 1 || got[0].Text != "Again." {
		t.Errorf("segment 1 words = %+v", got)
	}
}

func TestParseWhisperJSONWithoutWords(t *testing.T) {
	out, err := parseWhisperJSON([]byte(whisperFullJSON), false)
	if err != nil {
		t.Fatalf("parseWhisperJSON() error = %v", err)
	}
	for i, s := range out.Segments {
		if len(s.Words) != 0 {
			t.Errorf("segment %d carries words", i)
		}
	}
}

func TestParseWhisperJSONInvalid(t *testing.T) {
	if _, err := parseWhisperJSON([]byte("not json"), false); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestBuildWhisperArgs(t *testing.T) {
	args := buildWhisperArgs("/models/ggml-base.bin", "/tmp/in.wav", "/tmp/out", "", 4, true)

	checks := map[string]string{
		"-m":  "/models/ggml-base.bin",
		"-f":  "/tmp/in.wav",
		"-of": "/tmp/out",
		"-l":  "auto",
		"-t":  "4",
	}
	for key, want := range checks {
		if got := argAfter(args, key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	var hasFull bool
	for _, a := range args {
		if a == "-ojf" {
			hasFull = true
		}
	}
	if !hasFull {
		t.Error("word timing should request full json output")
	}

	args = buildWhisperArgs("m", "in", "out", "it", 0, false)
	if argAfter(args, "-l") != "it" {
		t.Error("explicit language should be passed through")
	}
	if argAfter(args, "-t") != "" {
		t.Error("threads should be omitted when zero")
	}
}

func TestWhisperCppEngineTranscribe(t *testing.T) {
	runner := &scriptedRunner{run: func(name string, args []string) (media.CommandResult, error) {
		base := argAfter(args, "-of")
		return media.CommandResult{}, os.WriteFile(base+".json", []byte(whisperFullJSON), 0o644)
	}}
	normalizer := &copyNormalizer{}
	engine, err := NewWhisperCppEngine("base", 2, WhisperCppDeps{
		CliPath:      "/usr/bin/whisper-cli",
		Runner:       runner,
		Normalizer:   normalizer,
		ResolveModel: func(string) (string, error) { return "/models/ggml-base.bin", nil },
	})
	if err != nil {
		t.Fatalf("NewWhisperCppEngine() error = %v", err)
	}

	input := filepath.Join(t.TempDir(), "talk.mp3")
	out, err := engine.Transcribe(context.Background(), Request{Path: input, Options: Options{Words: true}})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if len(normalizer.inputs) != 1 || normalizer.inputs[0] != input {
		t.Errorf("normalizer inputs = %v", normalizer.inputs)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "/usr/bin/whisper-cli" {
		t.Fatalf("runner calls = %v", runner.calls)
	}
	if len(out.Segments) != 2 || !(Timed{Segments: out.Segments}).HasWords() {
		t.Errorf("out = %+v", out)
	}

	tmp := filepath.Dir(argAfter(runner.calls[0][1:], "-f"))
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp dir %s should be removed", tmp)
	}
}

func TestWhisperCppEngineCommandFailure(t *testing.T) {
	runner := &scriptedRunner{run: func(name string, args []string) (media.CommandResult, error) {
		return media.CommandResult{Stderr: "failed to load model", ExitCode: 1}, errors.New("exit status 1")
	}}
	engine, err := NewWhisperCppEngine("base", 0, WhisperCppDeps{
		Runner:       runner,
		Normalizer:   &copyNormalizer{},
		ResolveModel: func(string) (string, error) { return "/models/ggml-base.bin", nil },
	})
	if err != nil {
		t.Fatalf("NewWhisperCppEngine() error = %v", err)
	}

	if _, err := engine.Transcribe(context.Background(), Request{Path: "in.mp3"}); err == nil {
		t.Fatal("expected error when whisper-cli fails")
	}
}

func TestResolveWhisperModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ggml-custom.bin")
	if err := os.WriteFile(path, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := resolveWhisperModel(path)
	if err != nil || got != path {
		t.Errorf("resolveWhisperModel(path) = %q, %v", got, err)
	}

	if _, err := resolveWhisperModel("definitely-not-a-model"); err == nil {
		t.Error("expected error for unknown model")
	}
}
