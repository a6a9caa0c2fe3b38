package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/leonardotrapani/scribe/internal/models/whisper"
)

type downloadProgressMsg struct {
	downloaded, total int64
}

type downloadDoneMsg struct {
	err error
}

type downloadModel struct {
	modelID    string
	progress   progress.Model
	downloaded int64
	total      int64
	updates    chan tea.Msg
	start      func(onProgress whisper.ProgressFunc) error
	cancel     context.CancelFunc
	err        error
	done       bool
}

func newDownloadModel(modelID string, start func(whisper.ProgressFunc) error, cancel context.CancelFunc) downloadModel {
	return downloadModel{
		modelID:  modelID,
		progress: progress.New(progress.WithGradient(string(ColorPrimary), string(ColorSecondary))),
		updates:  make(chan tea.Msg, 16),
		start:    start,
		cancel:   cancel,
	}
}

func (m downloadModel) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), listenForDownload(m.updates))
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case downloadProgressMsg:
		m.downloaded = msg.downloaded
		m.total = msg.total
		return m, listenForDownload(m.updates)
	case downloadDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.progress.Width = max(20, min(msg.Width-8, 80))
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m downloadModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(1, float64(m.downloaded)/float64(m.total))
}

func (m downloadModel) View() string {
	header := StyleHeader.Render("Downloading " + m.modelID)
	if m.done {
		if m.err != nil {
			return header + "\n" + StyleError.Render(m.err.Error()) + "\n"
		}
		return header + "\n" + StyleSuccess.Render("Done") + "\n"
	}
	sizes := humanize.Bytes(uint64(m.downloaded))
	if m.total > 0 {
		sizes += " / " + humanize.Bytes(uint64(m.total))
	}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n",
		header, m.progress.ViewAs(m.percent()), StyleMuted.Render(sizes), StyleSubtle.Render("esc to cancel"))
}

func (m downloadModel) startCmd() tea.Cmd {
	ch := m.updates
	start := m.start
	return func() tea.Msg {
		err := start(func(downloaded, total int64) {
			select {
			case ch <- downloadProgressMsg{downloaded: downloaded, total: total}:
			default:
			}
		})
		ch <- downloadDoneMsg{err: err}
		return nil
	}
}

func listenForDownload(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// RunDownload fetches a whisper model with a progress bar
func RunDownload(ctx context.Context, store *whisper.Store, modelID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newDownloadModel(modelID, func(onProgress whisper.ProgressFunc) error {
		return store.Download(ctx, modelID, onProgress)
	}, cancel)

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	return final.(downloadModel).err
}
