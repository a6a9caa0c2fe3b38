package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	SockName = "control.sock"
	PidName  = "scribe.pid"
	ProtoVer = "1.0"
)

// Command bytes understood by the daemon
const (
	CmdSubmit   byte = 'j'
	CmdStatus   byte = 's'
	CmdList     byte = 'a'
	CmdHealth   byte = 'h'
	CmdLanguage byte = 'l'
	CmdVersion  byte = 'v'
	CmdQuit     byte = 'q'
)

// ErrDaemonNotRunning is returned when nothing listens on the socket
var ErrDaemonNotRunning = errors.New("daemon not running (start it with 'scribe serve')")

// Endpoint locates the socket and pid file of one daemon instance
type Endpoint struct {
	Dir string
}

// DefaultEndpoint lives in ~/.cache/scribe
func DefaultEndpoint() (*Endpoint, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return &Endpoint{Dir: filepath.Join(dir, "scribe")}, nil
}

func (e *Endpoint) SockPath() string { return filepath.Join(e.Dir, SockName) }
func (e *Endpoint) PidPath() string  { return filepath.Join(e.Dir, PidName) }

func (e *Endpoint) Listen() (net.Listener, error) {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(e.SockPath()) // stale socket from last run
	return net.Listen("unix", e.SockPath())
}

func (e *Endpoint) Dial() (net.Conn, error) {
	c, err := net.DialTimeout("unix", e.SockPath(), 2*time.Second)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	return c, nil
}

// Send writes one request and reads the single response line
func (e *Endpoint) Send(cmd byte, payload any) (Response, error) {
	c, err := e.Dial()
	if err != nil {
		return Response{}, err
	}
	defer c.Close()

	if err := WriteRequest(c, cmd, payload); err != nil {
		return Response{}, err
	}
	return ReadResponse(bufio.NewReader(c))
}

// CheckExisting fails when a live daemon owns the pid file. Stale or
// unreadable pid files are removed.
func (e *Endpoint) CheckExisting() error {
	data, err := os.ReadFile(e.PidPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !isProcessAlive(pid) {
		_ = os.Remove(e.PidPath())
		return nil
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (e *Endpoint) CreatePidFile() error {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(e.PidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (e *Endpoint) RemovePidFile() error {
	return os.Remove(e.PidPath())
}

func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
