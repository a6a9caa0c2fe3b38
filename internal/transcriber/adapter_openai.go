package transcriber

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq's Whisper API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIEngine transcribes files through an OpenAI-compatible audio API.
type OpenAIEngine struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIEngine builds an engine for OpenAI, or for any compatible API when
// baseURL is set.
func NewOpenAIEngine(apiKey, model, baseURL string) *OpenAIEngine {
	clientConfig := openai.DefaultConfig(apiKey)
	name := ProviderOpenAI
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
		if baseURL == GroqBaseURL {
			name = ProviderGroq
		} else {
			name = "openai-compatible"
		}
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		name:   name,
	}
}

func (e *OpenAIEngine) Name() string { return e.name }

func (e *OpenAIEngine) Transcribe(ctx context.Context, req Request) (Output, error) {
	audioReq := openai.AudioRequest{
		Model:    e.model,
		FilePath: req.Path,
		Language: req.Language,
	}
	if req.Timestamps || req.Words {
		audioReq.Format = openai.AudioResponseFormatVerboseJSON
		audioReq.TimestampGranularities = []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		}
		if req.Words {
			audioReq.TimestampGranularities = append(audioReq.TimestampGranularities,
				openai.TranscriptionTimestampGranularityWord)
		}
	}

	start := time.Now()
	resp, err := e.client.CreateTranscription(ctx, audioReq)
	duration := time.Since(start)
	if err != nil {
		log.Printf("%s-engine: API call failed after %v: %v", e.name, duration, err)
		return Output{}, fmt.Errorf("%s transcription: %w", e.name, err)
	}
	log.Printf("%s-engine: transcribed %s in %v", e.name, req.Path, duration)

	out := Output{Text: strings.TrimSpace(resp.Text), Language: resp.Language}
	if len(resp.Segments) == 0 {
		return out, nil
	}

	out.Segments = make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	if req.Words && len(resp.Words) > 0 {
		words := make([]Word, 0, len(resp.Words))
		for _, w := range resp.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			words = append(words, Word{Text: text, Start: w.Start, End: w.End})
		}
		out.Segments = attachWords(out.Segments, words)
	}
	return out, nil
}
