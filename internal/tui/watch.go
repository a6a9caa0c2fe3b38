package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leonardotrapani/scribe/internal/jobs"
)

const pollInterval = time.Second

type jobMsg struct {
	job jobs.Job
	err error
}

type pollMsg struct{}

type watchModel struct {
	fetch    func() (jobs.Job, error)
	spinner  spinner.Model
	job      jobs.Job
	err      error
	finished bool
}

func newWatchModel(initial jobs.Job, fetch func() (jobs.Job, error)) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleHighlight
	return watchModel{fetch: fetch, spinner: s, job: initial}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m watchModel) fetchCmd() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		job, err := fetch()
		return jobMsg{job: job, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case jobMsg:
		if msg.err != nil {
			m.err = msg.err
			m.finished = true
			return m, tea.Quit
		}
		m.job = msg.job
		if m.job.Terminal() {
			m.finished = true
			return m, tea.Quit
		}
		return m, tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
	case pollMsg:
		return m, m.fetchCmd()
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" || s == "esc" {
			m.finished = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	switch {
	case m.err != nil:
		b.WriteString(StyleError.Render(m.err.Error()))
	case m.job.Status == jobs.StatusCompleted:
		b.WriteString(StyleSuccess.Render(fmt.Sprintf("✓ %s transcribed", m.job.Filename)))
		for _, f := range m.job.OutputFiles {
			b.WriteString("\n  " + StyleMuted.Render(f))
		}
	case m.job.Status == jobs.StatusError:
		b.WriteString(StyleError.Render(fmt.Sprintf("✗ %s failed: %s", m.job.Filename, m.job.Error)))
	default:
		b.WriteString(fmt.Sprintf("%s %s %s %s",
			m.spinner.View(), m.job.Filename, StyleMuted.Render(string(m.job.Status)), progressBar(m.job.Progress, 20)))
	}
	b.WriteString("\n")
	return b.String()
}

func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + fmt.Sprintf("] %3d%%", percent)
}

// WatchJob polls a job until it finishes or the user quits, and returns the
// last seen record.
func WatchJob(initial jobs.Job, fetch func() (jobs.Job, error)) (jobs.Job, error) {
	final, err := tea.NewProgram(newWatchModel(initial, fetch)).Run()
	if err != nil {
		return initial, err
	}
	m := final.(watchModel)
	return m.job, m.err
}
