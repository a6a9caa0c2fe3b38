package jobs

import (
	"errors"
	"time"

	"github.com/leonardotrapani/scribe/internal/processor"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Progress milestones.
const (
	ProgressWaiting   = 5
	ProgressAdmitted  = 10
	ProgressModel     = 20
	ProgressRunning   = 30
	ProgressCompleted = 100
)

// Job is the status record of one submitted recording.
type Job struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	Model        string            `json:"model,omitempty"`
	Status       Status            `json:"status"`
	Progress     int               `json:"progress"`
	Result       *processor.Result `json:"-"`
	OutputFiles  []string          `json:"output_files,omitempty"`
	OriginalFile string            `json:"original_file,omitempty"`
	ChunkCount   int               `json:"num_segments,omitempty"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

// Terminal reports whether the job reached completed or error.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// Request is one submission.
type Request struct {
	processor.Request
	// Filename is the name shown to the user; defaults to OriginalFilename.
	Filename string
	// Model overrides the configured model for this job.
	Model string
}

func (j Job) clone() Job {
	if j.OutputFiles != nil {
		files := make([]string, len(j.OutputFiles))
		copy(files, j.OutputFiles)
		j.OutputFiles = files
	}
	if j.Result != nil {
		res := *j.Result
		j.Result = &res
	}
	return j
}
