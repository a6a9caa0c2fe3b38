package diarizer

import (
	"context"
	"fmt"
	"sort"
)

// Interval is a span of audio attributed to one speaker. Speaker labels are
// only meaningful within a single diarization run.
type Interval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Diarizer labels who speaks when. speakers <= 0 lets the engine decide.
type Diarizer interface {
	Diarize(ctx context.Context, path string, speakers int) ([]Interval, error)
}

// Kind classifies a diarization failure.
type Kind string

const (
	KindCredential Kind = "credential"
	KindLoad       Kind = "load"
	KindInference  Kind = "inference"
)

// Error is a recoverable diarization failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "diarization error"
	}
	if e.Path == "" {
		return fmt.Sprintf("diarization %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("diarization %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SortIntervals orders intervals by start, keeping the engine order for ties.
func SortIntervals(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}
