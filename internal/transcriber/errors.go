package transcriber

import (
	"errors"
	"fmt"
)

// ErrEngineNotLoaded is returned when no engine could be produced for the configured model.
var ErrEngineNotLoaded = errors.New("transcription engine not loaded")

// Error is the fatal transcription failure: a missing source file, an engine
// that cannot be loaded, or an engine run that failed.
type Error struct {
	Op   string // "open", "load" or "transcribe"
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "transcription error"
	}
	if e.Path == "" {
		return fmt.Sprintf("transcription %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transcription %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTranscriptionError reports whether err carries a *Error.
func IsTranscriptionError(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr)
}
