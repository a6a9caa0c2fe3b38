package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leonardotrapani/scribe/internal/notify"
	"github.com/leonardotrapani/scribe/internal/processor"
)

// AllowedExtensions lists the accepted input containers.
var AllowedExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".wma", ".aac", ".mpeg"}

// ErrUnsupportedFormat is returned for files outside AllowedExtensions.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Processor runs the pipeline for one request.
type Processor interface {
	Process(ctx context.Context, req processor.Request) (processor.Result, error)
}

// Engine is the model holder swapped inside the gate.
type Engine interface {
	UseModel(model string) bool
	Ensure(ctx context.Context) error
}

// Sequencer runs each job on its own goroutine and funnels them through a
// single Gate.
type Sequencer struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
	done  map[string]chan struct{}

	gate      *Gate
	proc      Processor
	engine    Engine
	notifier  notify.Notifier
	uploadDir string
	remove    func(string) error
	wg        sync.WaitGroup
}

type Option func(*Sequencer)

// WithUploadDir stages every source as a copy inside dir so the caller's
// file survives the job.
func WithUploadDir(dir string) Option {
	return func(s *Sequencer) { s.uploadDir = dir }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Sequencer) { s.notifier = n }
}

// NewSequencer builds a sequencer. engine may be nil when the processor
// manages its own model.
func NewSequencer(gate *Gate, proc Processor, engine Engine, opts ...Option) *Sequencer {
	if gate == nil {
		gate = NewGate()
	}
	s := &Sequencer{
		jobs:     make(map[string]*Job),
		done:     make(map[string]chan struct{}),
		gate:     gate,
		proc:     proc,
		engine:   engine,
		notifier: notify.Nop{},
		remove:   os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a queued job and starts it in the background.
func (s *Sequencer) Submit(req Request) (Job, error) {
	job, req, err := s.create(req)
	if err != nil {
		return Job{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.execute(job.ID, req)
	}()
	return job, nil
}

// Run executes a job synchronously through the same gate.
func (s *Sequencer) Run(ctx context.Context, req Request) (Job, error) {
	job, req, err := s.create(req)
	if err != nil {
		return Job{}, err
	}
	if err := s.execute(job.ID, req); err != nil {
		final, _ := s.Get(job.ID)
		return final, err
	}
	return s.Get(job.ID)
}

func (s *Sequencer) create(req Request) (Job, Request, error) {
	if !IsAllowed(req.Path) {
		return Job{}, req, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(req.Path))
	}
	if req.OriginalFilename == "" {
		req.OriginalFilename = filepath.Base(req.Path)
	}
	if req.Filename == "" {
		req.Filename = req.OriginalFilename
	}

	id := uuid.NewString()
	if s.uploadDir != "" {
		staged, err := stage(req.Path, s.uploadDir, id)
		if err != nil {
			return Job{}, req, fmt.Errorf("stage upload: %w", err)
		}
		req.Path = staged
	}

	job := &Job{
		ID:        id,
		Filename:  req.Filename,
		Model:     req.Model,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.order = append(s.order, id)
	s.done[id] = make(chan struct{})
	snapshot := job.clone()
	s.mu.Unlock()

	log.Printf("Sequencer: job %s queued for %s", id, req.Filename)
	return snapshot, req, nil
}

// execute drives one job through the gate. Jobs are detached from any
// submitter context.
func (s *Sequencer) execute(id string, req Request) (err error) {
	ctx := context.Background()
	defer s.cleanup(req.Path)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.fail(id, err)
		}
		s.mu.Lock()
		close(s.done[id])
		s.mu.Unlock()
	}()

	s.update(id, func(j *Job) {
		j.Status = StatusProcessing
		j.Progress = ProgressWaiting
	})

	if err := s.gate.Acquire(ctx); err != nil {
		s.fail(id, err)
		return err
	}
	defer s.gate.Release()
	s.update(id, func(j *Job) { j.Progress = ProgressAdmitted })

	if s.engine != nil {
		if req.Model != "" && s.engine.UseModel(req.Model) {
			log.Printf("Sequencer: job %s changed model to %s", id, req.Model)
		}
		if err := s.engine.Ensure(ctx); err != nil {
			s.fail(id, err)
			return err
		}
	}
	s.update(id, func(j *Job) { j.Progress = ProgressModel })

	s.notifier.JobStarted(req.Filename)
	s.update(id, func(j *Job) { j.Progress = ProgressRunning })

	start := time.Now()
	res, err := s.proc.Process(ctx, req.Request)
	if err != nil {
		s.fail(id, err)
		return err
	}

	files := make([]string, len(res.OutputFiles))
	for i, f := range res.OutputFiles {
		files[i] = filepath.Base(f)
	}
	s.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = ProgressCompleted
		j.Result = &res
		j.OutputFiles = files
		j.OriginalFile = res.OriginalFile
		j.ChunkCount = res.ChunkCount
		j.FinishedAt = time.Now()
	})
	log.Printf("Sequencer: job %s completed in %v (%d file(s))", id, time.Since(start), len(files))
	s.notifier.JobCompleted(req.Filename, len(files))
	return nil
}

func (s *Sequencer) fail(id string, err error) {
	var filename string
	s.update(id, func(j *Job) {
		j.Status = StatusError
		j.Error = err.Error()
		j.FinishedAt = time.Now()
		filename = j.Filename
	})
	log.Printf("Sequencer: job %s failed: %v", id, err)
	s.notifier.Error(fmt.Sprintf("%s: %v", filename, err))
}

// update mutates a job unless it is already terminal.
func (s *Sequencer) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Terminal() {
		return
	}
	fn(job)
}

func (s *Sequencer) cleanup(path string) {
	if err := s.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Sequencer: failed to remove source %s: %v", path, err)
	}
}

// Get returns a snapshot of one job.
func (s *Sequencer) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.clone(), nil
}

// List returns snapshots of all jobs in submission order.
func (s *Sequencer) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].clone())
	}
	return out
}

// Wait blocks until the job is terminal or ctx is done.
func (s *Sequencer) Wait(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	done, ok := s.done[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	select {
	case <-done:
		return s.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Drain waits for every background job to finish or ctx to be done.
func (s *Sequencer) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a job currently holds the gate.
func (s *Sequencer) Busy() bool {
	return s.gate.Busy()
}

// Pending counts jobs that are not terminal yet.
func (s *Sequencer) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, j := range s.jobs {
		if !j.Terminal() {
			n++
		}
	}
	return n
}

// IsAllowed reports whether path has an accepted audio extension.
func IsAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	i := sort.SearchStrings(sortedExtensions, ext)
	return i < len(sortedExtensions) && sortedExtensions[i] == ext
}

var sortedExtensions = func() []string {
	out := append([]string(nil), AllowedExtensions...)
	sort.Strings(out)
	return out
}()

// stage copies src into dir as <id>_<name>.
func stage(src, dir, id string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(dir, id+"_"+filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}
