package notify

import (
	"fmt"
	"log"
	"os/exec"
)

const appName = "Scribe"

type Notifier interface {
	JobStarted(filename string)
	JobCompleted(filename string, outputs int)
	Error(msg string)
	Notify(title, message string)
}

// New returns the notifier for a configured type: "desktop", "log" or "none".
func New(kind string) Notifier {
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

// Desktop sends notifications through notify-send.
type Desktop struct {
	// Command overrides the notify-send invocation, mostly for tests.
	Command func(args ...string) error
}

func (d Desktop) send(args ...string) {
	run := d.Command
	if run == nil {
		run = func(args ...string) error {
			return exec.Command("notify-send", args...).Run()
		}
	}
	if err := run(args...); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func (d Desktop) JobStarted(filename string) {
	d.send("-a", appName, fmt.Sprintf("%s: Transcribing", appName), filename)
}

func (d Desktop) JobCompleted(filename string, outputs int) {
	d.send("-a", appName, fmt.Sprintf("%s: Transcription Ready", appName),
		fmt.Sprintf("%s (%d file(s))", filename, outputs))
}

func (d Desktop) Error(msg string) {
	d.send("-a", appName, "-u", "critical", fmt.Sprintf("%s Error", appName), msg)
}

func (d Desktop) Notify(title, message string) {
	d.send("-a", appName, title, message)
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) JobStarted(filename string) {
	log.Printf("%s: Transcribing %s", appName, filename)
}

func (Log) JobCompleted(filename string, outputs int) {
	log.Printf("%s: Transcription Ready %s (%d file(s))", appName, filename, outputs)
}

func (Log) Error(msg string) {
	log.Printf("%s Error: %s", appName, msg)
}

func (Log) Notify(title, message string) {
	log.Printf("%s: %s", title, message)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) JobStarted(filename string)                {}
func (Nop) JobCompleted(filename string, outputs int) {}
func (Nop) Error(msg string)                          {}
func (Nop) Notify(title, message string)              {}
