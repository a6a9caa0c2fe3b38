package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/scribe/internal/bus"
	"github.com/leonardotrapani/scribe/internal/config"
	"github.com/leonardotrapani/scribe/internal/jobs"
	"github.com/leonardotrapani/scribe/internal/media"
	"github.com/leonardotrapani/scribe/internal/notify"
	"github.com/leonardotrapani/scribe/internal/pipeline"
	"github.com/leonardotrapani/scribe/internal/testutil"
	"github.com/leonardotrapani/scribe/internal/transcriber"
)

func toolRunner() *testutil.MockRunner {
	return &testutil.MockRunner{RunFunc: func(name string, args []string) (media.CommandResult, error) {
		if filepath.Base(name) == "ffprobe" {
			return media.CommandResult{Stdout: `{"format":{"duration":"42"}}`}, nil
		}
		return media.CommandResult{}, os.WriteFile(args[len(args)-1], []byte("audio"), 0644)
	}}
}

func startDaemon(t *testing.T) (*Daemon, *bus.Endpoint, *config.Manager) {
	t.Helper()

	sockDir, err := os.MkdirTemp("", "scd")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(sockDir) })
	endpoint := &bus.Endpoint{Dir: sockDir}

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.General.OutputDir = filepath.Join(dir, "out")
	cfg.General.UploadDir = filepath.Join(dir, "uploads")
	cfgPath := filepath.Join(dir, "config.toml")
	if err := config.SaveTo(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}
	manager, err := config.NewManagerAt(cfgPath)
	if err != nil {
		t.Fatal(err)
	}

	engine := &testutil.MockEngine{Output: transcriber.Output{Text: "daemon transcript"}}
	p := pipeline.New(manager.GetConfig(),
		pipeline.WithRunner(toolRunner()),
		pipeline.WithLoader(testutil.MockLoader(engine, nil)),
		pipeline.WithNotifier(notify.Nop{}),
	)

	d := New(manager, p, endpoint, "test")
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	testutil.WaitForCondition(t, func() bool {
		_, err := endpoint.Send(bus.CmdVersion, nil)
		return err == nil
	}, 3*time.Second)

	t.Cleanup(func() {
		endpoint.Send(bus.CmdQuit, nil)
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() returned %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("daemon did not exit within timeout")
		}
	})
	return d, endpoint, manager
}

func TestVersionAndHealth(t *testing.T) {
	_, endpoint, _ := startDaemon(t)

	resp, err := endpoint.Send(bus.CmdVersion, nil)
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := resp.Decode(&v); err != nil || v["proto"] != bus.ProtoVer || v["version"] != "test" {
		t.Errorf("version = %v, %v", v, err)
	}

	resp, err = endpoint.Send(bus.CmdHealth, nil)
	if err != nil {
		t.Fatal(err)
	}
	var h bus.Health
	if err := resp.Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "idle" || h.Model != config.DefaultModel || h.ModelLoaded || h.Language != "auto" {
		t.Errorf("health = %+v", h)
	}
	if h.ChunkMinutes != config.DefaultMaxChunkMinutes {
		t.Errorf("ChunkMinutes = %v, want %v", h.ChunkMinutes, config.DefaultMaxChunkMinutes)
	}
}

func TestSecondDaemonRefused(t *testing.T) {
	d, endpoint, manager := startDaemon(t)
	other := New(manager, d.pipeline, endpoint, "test")
	if err := other.Run(); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Run() = %v, want already running", err)
	}
}

func TestSubmitAndStatus(t *testing.T) {
	_, endpoint, manager := startDaemon(t)

	src := testutil.CreateAudioFile(t, t.TempDir(), "call.mp3")
	resp, err := endpoint.Send(bus.CmdSubmit, bus.SubmitRequest{Path: src})
	if err != nil {
		t.Fatal(err)
	}
	var job jobs.Job
	if err := resp.Decode(&job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.ID == "" || job.Filename != "call.mp3" {
		t.Fatalf("job = %+v", job)
	}

	var final jobs.Job
	testutil.WaitForCondition(t, func() bool {
		resp, err := endpoint.Send(bus.CmdStatus, job.ID)
		if err != nil || resp.Decode(&final) != nil {
			return false
		}
		return final.Terminal()
	}, 5*time.Second)

	if final.Status != jobs.StatusCompleted {
		t.Fatalf("final = %+v", final)
	}
	out := filepath.Join(manager.GetConfig().General.OutputDir, final.OutputFiles[0])
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "daemon transcript" {
		t.Errorf("transcript = %q, %v", data, err)
	}

	resp, err = endpoint.Send(bus.CmdList, nil)
	if err != nil {
		t.Fatal(err)
	}
	var list []jobs.Job
	if err := resp.Decode(&list); err != nil || len(list) != 1 {
		t.Errorf("list = %v, %v", list, err)
	}
}

func TestSubmitErrors(t *testing.T) {
	_, endpoint, _ := startDaemon(t)

	tests := []struct {
		name string
		sub  bus.SubmitRequest
		want string
	}{
		{"missing path", bus.SubmitRequest{}, "no file"},
		{"missing file", bus.SubmitRequest{Path: "/nonexistent/a.mp3"}, "cannot read"},
		{"bad extension", bus.SubmitRequest{Path: testutil.CreateAudioFile(t, t.TempDir(), "notes.txt")}, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := endpoint.Send(bus.CmdSubmit, tt.sub)
			if err != nil {
				t.Fatal(err)
			}
			if err := resp.Decode(nil); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestUnknownJob(t *testing.T) {
	_, endpoint, _ := startDaemon(t)
	resp, err := endpoint.Send(bus.CmdStatus, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if err := resp.Decode(nil); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLanguageSwitch(t *testing.T) {
	d, endpoint, manager := startDaemon(t)

	resp, err := endpoint.Send(bus.CmdLanguage, "es")
	if err != nil {
		t.Fatal(err)
	}
	if err := resp.Decode(nil); err != nil {
		t.Fatalf("language: %v", err)
	}
	if got := d.pipeline.Service().Language(); got != "es" {
		t.Errorf("service language = %q, want es", got)
	}

	saved, err := config.LoadFrom(manager.Path())
	if err != nil {
		t.Fatal(err)
	}
	if saved.General.Language != "es" {
		t.Errorf("saved language = %q, want es", saved.General.Language)
	}

	resp, err = endpoint.Send(bus.CmdLanguage, "klingon")
	if err != nil {
		t.Fatal(err)
	}
	if err := resp.Decode(nil); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestUnknownCommand(t *testing.T) {
	_, endpoint, _ := startDaemon(t)
	resp, err := endpoint.Send('z', nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.OK {
		t.Error("unknown command should fail")
	}
}
