package pipeline

import (
	"context"
	"log"
	"sync"

	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/diarizer"
	"github.com/leonardotrapani/scribe/internal/jobs"
	"github.com/leonardotrapani/scribe/internal/media"
	"github.com/leonardotrapani/scribe/internal/notify"
	"github.com/leonardotrapani/scribe/internal/processor"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

type Status string

const (
	Idle       Status = "idle"
	Processing Status = "processing"
)

type options struct {
	runner   media.Runner
	loader   transcriber.Loader
	notifier notify.Notifier
}

type Option func(*options)

// WithRunner routes every external command (ffmpeg, ffprobe, whisper-cli,
// the diarizer) through r.
func WithRunner(r media.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLoader replaces the provider-based engine loader.
func WithLoader(l transcriber.Loader) Option {
	return func(o *options) { o.loader = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// Pipeline wires the transcription stack from one configuration and keeps it
// in sync with configuration reloads.
type Pipeline struct {
	mu   sync.RWMutex
	cfg  *config.Config
	opts options

	gate    *jobs.Gate
	pending *swap

	normalizer *media.Normalizer
	splitter   *splitter
	service    *transcriber.Service
	diarizer   *diarizer.Pyannote
	processor  *processor.Processor
	sequencer  *jobs.Sequencer
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notify.New(cfg.NotifierType())
	}

	p := &Pipeline{cfg: cfg, opts: o, gate: jobs.NewGate()}
	p.normalizer = media.NewNormalizer(cfg.Segmentation.FFmpegPath, o.runner)
	p.splitter = &splitter{current: p.newSegmenter(cfg)}

	tc := cfg.ToTranscriberConfig()
	p.service = transcriber.NewService(tc.Model, tc.Language, p.newLoader(cfg))

	var dopts []diarizer.PyannoteOption
	if o.runner != nil {
		dopts = append(dopts, diarizer.WithRunner(o.runner))
	}
	p.diarizer = diarizer.NewPyannote(cfg.Diarization.Command, cfg.HFToken(), p.normalizer, dopts...)

	p.processor = processor.New(p.splitter, p.service, p.diarizer)
	p.sequencer = jobs.NewSequencer(p.gate, p.processor, p.service,
		jobs.WithUploadDir(cfg.General.UploadDir),
		jobs.WithNotifier(o.notifier),
	)

	log.Printf("Pipeline: %s/%s ready (language %s, chunks of %.0f min)",
		tc.Provider, tc.Model, tc.Language, cfg.Segmentation.MaxChunkMinutes)
	return p
}

func (p *Pipeline) newSegmenter(cfg *config.Config) *media.Segmenter {
	prober := media.NewProber(cfg.Segmentation.FFprobePath, p.opts.runner)
	return media.NewSegmenter(cfg.Segmentation.FFmpegPath, cfg.MaxChunkSeconds(), prober, p.opts.runner)
}

func (p *Pipeline) newLoader(cfg *config.Config) transcriber.Loader {
	if p.opts.loader != nil {
		return p.opts.loader
	}
	return transcriber.NewLoader(cfg.ToTranscriberConfig(), transcriber.WhisperCppDeps{
		Runner:     p.opts.runner,
		Normalizer: p.normalizer,
	})
}

func (p *Pipeline) Config() *config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *Pipeline) Service() *transcriber.Service { return p.service }
func (p *Pipeline) Sequencer() *jobs.Sequencer    { return p.sequencer }

// MaxChunkSeconds is the chunk length the next job will be split with.
func (p *Pipeline) MaxChunkSeconds() float64 { return p.splitter.maxChunkSeconds() }

func (p *Pipeline) Status() Status {
	if p.sequencer.Busy() {
		return Processing
	}
	return Idle
}

// prepare fills request fields left to configuration.
func (p *Pipeline) prepare(req jobs.Request) jobs.Request {
	cfg := p.Config()
	if req.OutputDir == "" {
		req.OutputDir = cfg.General.OutputDir
	}
	if req.Diarize && req.Speakers == 0 {
		req.Speakers = cfg.Diarization.Speakers
	}
	return req
}

// Submit queues a job and returns its initial record.
func (p *Pipeline) Submit(req jobs.Request) (jobs.Job, error) {
	return p.sequencer.Submit(p.prepare(req))
}

// Run processes a job synchronously.
func (p *Pipeline) Run(ctx context.Context, req jobs.Request) (jobs.Job, error) {
	return p.sequencer.Run(ctx, p.prepare(req))
}

// Drain waits for queued and running jobs.
func (p *Pipeline) Drain(ctx context.Context) error {
	return p.sequencer.Drain(ctx)
}

// Apply is a config.Subscriber. Settings captured at construction (upload
// directory, notifier, diarizer command) need a restart. Engine and
// segmentation changes wait for the running job, so every chunk of a job is
// transcribed with the same model.
func (p *Pipeline) Apply(old, next *config.Config) {
	p.mu.Lock()
	p.cfg = next
	p.mu.Unlock()

	if old.HFToken() != next.HFToken() {
		log.Printf("Pipeline: diarization token updated")
		p.diarizer.SetToken(next.HFToken())
	}

	var change swap
	if old.General.Language != next.General.Language {
		log.Printf("Pipeline: language change: %s -> %s", old.General.Language, next.General.Language)
		change.language = next.General.Language
	}
	oldTC, newTC := old.ToTranscriberConfig(), next.ToTranscriberConfig()
	if oldTC.Provider != newTC.Provider || oldTC.APIKey != newTC.APIKey || oldTC.Threads != newTC.Threads {
		log.Printf("Pipeline: provider change: %s -> %s", oldTC.Provider, newTC.Provider)
		change.loader = p.newLoader(next)
	}
	if oldTC.Model != newTC.Model {
		log.Printf("Pipeline: model change: %s -> %s", oldTC.Model, newTC.Model)
		change.model = newTC.Model
	}
	if old.Segmentation != next.Segmentation {
		log.Printf("Pipeline: segmentation change: %.0f min chunks", next.Segmentation.MaxChunkMinutes)
		change.segmenter = p.newSegmenter(next)
	}
	if !change.empty() {
		p.schedule(change)
	}

	if old.General.UploadDir != next.General.UploadDir ||
		old.Notifications != next.Notifications ||
		old.Diarization.Command != next.Diarization.Command {
		log.Printf("Pipeline: some changes take effect after restart")
	}
}

// swap collects engine and segmentation changes that wait for the gate.
type swap struct {
	language  string
	loader    transcriber.Loader
	model     string
	segmenter *media.Segmenter
}

func (s swap) empty() bool {
	return s.language == "" && s.loader == nil && s.model == "" && s.segmenter == nil
}

func (s *swap) merge(o swap) {
	if o.language != "" {
		s.language = o.language
	}
	if o.loader != nil {
		s.loader = o.loader
	}
	if o.model != "" {
		s.model = o.model
	}
	if o.segmenter != nil {
		s.segmenter = o.segmenter
	}
}

// schedule applies c now when no job holds the gate, otherwise once the
// running job releases it. Later changes merge into one already waiting.
func (p *Pipeline) schedule(c swap) {
	p.mu.Lock()
	waiting := p.pending != nil
	if !waiting {
		p.pending = &swap{}
	}
	p.pending.merge(c)
	p.mu.Unlock()
	if waiting {
		return
	}

	if p.gate.TryAcquire() {
		p.applyPending()
		return
	}
	log.Printf("Pipeline: job in progress, engine changes deferred until it finishes")
	go func() {
		if err := p.gate.Acquire(context.Background()); err != nil {
			log.Printf("Pipeline: deferred changes dropped: %v", err)
			return
		}
		p.applyPending()
	}()
}

// applyPending runs with the gate held and releases it.
func (p *Pipeline) applyPending() {
	defer p.gate.Release()
	p.mu.Lock()
	c := p.pending
	p.pending = nil
	p.mu.Unlock()
	if c == nil {
		return
	}

	if c.language != "" {
		p.service.SetLanguage(c.language)
	}
	if c.loader != nil {
		p.service.SetLoader(c.loader)
	}
	if c.model != "" {
		p.service.UseModel(c.model)
	}
	if c.segmenter != nil {
		p.splitter.set(c.segmenter)
	}
}

// splitter lets the segmenter be swapped between jobs.
type splitter struct {
	mu      sync.RWMutex
	current *media.Segmenter
}

func (s *splitter) set(seg *media.Segmenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = seg
}

func (s *splitter) Split(ctx context.Context, path, outputDir string) ([]media.Chunk, error) {
	s.mu.RLock()
	seg := s.current
	s.mu.RUnlock()
	return seg.Split(ctx, path, outputDir)
}

func (s *splitter) maxChunkSeconds() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.MaxChunkSeconds()
}
