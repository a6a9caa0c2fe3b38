package media

import "fmt"

// InspectionError is returned when the duration probe fails or its output
// cannot be parsed. It is fatal for the job.
type InspectionError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *InspectionError) Error() string {
	if e == nil {
		return "media inspection failed"
	}
	return fmt.Sprintf("media inspection failed for %s: %v", e.Path, e.Err)
}

func (e *InspectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SegmentationError is returned when both the stream-copy and the re-encode
// extraction of a chunk failed.
type SegmentationError struct {
	Path   string
	Chunk  int // 1-based
	Stderr string
	Err    error
}

func (e *SegmentationError) Error() string {
	if e == nil {
		return "segmentation failed"
	}
	return fmt.Sprintf("segmentation failed for %s (part %d): %v", e.Path, e.Chunk, e.Err)
}

func (e *SegmentationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
