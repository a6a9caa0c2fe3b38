package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/leonardotrapani/scribe/internal/bus"
	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/jobs"
	"github.com/leonardotrapani/scribe/internal/language"
	"github.com/leonardotrapani/scribe/internal/pipeline"
	"github.com/leonardotrapani/scribe/internal/processor"
)

type Daemon struct {
	endpoint *bus.Endpoint
	manager  *config.Manager
	pipeline *pipeline.Pipeline
	version  string

	ctx    context.Context
	cancel context.CancelFunc
}

func New(manager *config.Manager, p *pipeline.Pipeline, endpoint *bus.Endpoint, version string) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		endpoint: endpoint,
		manager:  manager,
		pipeline: p,
		version:  version,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Stop asks a running daemon to shut down.
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) Run() error {
	if err := d.endpoint.CheckExisting(); err != nil {
		return err
	}

	ln, err := d.endpoint.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := d.endpoint.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer d.endpoint.RemovePidFile()

	d.manager.Subscribe(d.pipeline.Apply)
	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("Daemon: config hot reload disabled: %v", err)
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Daemon: received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon: listening on %s", d.endpoint.SockPath())

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				if n := d.pipeline.Sequencer().Pending(); n > 0 {
					log.Printf("Daemon: abandoning %d unfinished job(s)", n)
				}
				log.Printf("Daemon: shutdown complete")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	req, err := bus.ReadRequest(bufio.NewReader(c))
	if err != nil {
		log.Printf("Daemon: client read error: %v", err)
		bus.WriteError(c, err)
		return
	}

	switch req.Cmd {
	case bus.CmdSubmit:
		var sub bus.SubmitRequest
		if err := req.Decode(&sub); err != nil {
			bus.WriteError(c, fmt.Errorf("invalid submit payload: %w", err))
			return
		}
		job, err := d.submit(sub)
		if err != nil {
			bus.WriteError(c, err)
			return
		}
		bus.WriteOK(c, job)

	case bus.CmdStatus:
		var id string
		if err := req.Decode(&id); err != nil {
			bus.WriteError(c, fmt.Errorf("invalid job id: %w", err))
			return
		}
		job, err := d.pipeline.Sequencer().Get(id)
		if err != nil {
			bus.WriteError(c, err)
			return
		}
		bus.WriteOK(c, job)

	case bus.CmdList:
		bus.WriteOK(c, d.pipeline.Sequencer().List())

	case bus.CmdHealth:
		bus.WriteOK(c, d.health())

	case bus.CmdLanguage:
		var code string
		if err := req.Decode(&code); err != nil {
			bus.WriteError(c, fmt.Errorf("invalid language payload: %w", err))
			return
		}
		if err := d.setLanguage(code); err != nil {
			bus.WriteError(c, err)
			return
		}
		bus.WriteOK(c, map[string]string{"language": code})

	case bus.CmdVersion:
		bus.WriteOK(c, map[string]string{"proto": bus.ProtoVer, "version": d.version})

	case bus.CmdQuit:
		bus.WriteOK(c, map[string]string{"status": "quitting"})
		d.cancel()

	default:
		log.Printf("Daemon: unknown command: %q", req.Cmd)
		bus.WriteError(c, fmt.Errorf("unknown command %q", req.Cmd))
	}
}

func (d *Daemon) submit(sub bus.SubmitRequest) (jobs.Job, error) {
	if sub.Path == "" {
		return jobs.Job{}, fmt.Errorf("no file provided")
	}
	if _, err := os.Stat(sub.Path); err != nil {
		return jobs.Job{}, fmt.Errorf("cannot read %s: %w", sub.Path, err)
	}
	return d.pipeline.Submit(jobs.Request{
		Request: processor.Request{
			Path:              sub.Path,
			OutputDir:         sub.OutputDir,
			IncludeTimestamps: sub.IncludeTimestamps,
			Diarize:           sub.Diarize,
			Speakers:          sub.Speakers,
		},
		Model: sub.Model,
	})
}

func (d *Daemon) health() bus.Health {
	cfg := d.pipeline.Config()
	svc := d.pipeline.Service()
	return bus.Health{
		Status:      string(d.pipeline.Status()),
		Version:     d.version,
		Provider:    cfg.Transcription.Provider,
		Model:       svc.Model(),
		ModelLoaded: svc.Loaded(),
		Language:    svc.Language(),
		Busy:        d.pipeline.Sequencer().Busy(),
		Pending:     d.pipeline.Sequencer().Pending(),

		ChunkMinutes: d.pipeline.MaxChunkSeconds() / 60,
	}
}

// setLanguage persists the change; the config subscriber applies it.
func (d *Daemon) setLanguage(code string) error {
	if !language.IsValidCode(code) {
		return fmt.Errorf("unsupported language: %s", code)
	}
	return d.manager.Update(func(c *config.Config) {
		c.General.Language = code
	})
}
