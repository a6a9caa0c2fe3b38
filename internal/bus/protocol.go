package bus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Request is one decoded command line
type Request struct {
	Cmd     byte
	Payload json.RawMessage
}

// Decode unmarshals the payload into v
func (r Request) Decode(v any) error {
	if len(r.Payload) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(r.Payload, v)
}

// Response is "OK <json>" or "ERR <message>" on the wire
type Response struct {
	OK   bool
	Body string
}

// Decode unmarshals an OK body into v, or returns the daemon's error
func (r Response) Decode(v any) error {
	if !r.OK {
		return errors.New(r.Body)
	}
	if v == nil || r.Body == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.Body), v)
}

// SubmitRequest asks the daemon to queue a recording
type SubmitRequest struct {
	Path              string `json:"path"`
	OutputDir         string `json:"output_dir,omitempty"`
	Model             string `json:"model,omitempty"`
	IncludeTimestamps bool   `json:"include_timestamps"`
	Diarize           bool   `json:"diarize"`
	Speakers          int    `json:"speakers,omitempty"`
}

// Health is the daemon's self report
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	ModelLoaded bool   `json:"model_loaded"`
	Language    string `json:"language"`
	Busy        bool   `json:"busy"`
	Pending     int    `json:"pending"`

	ChunkMinutes float64 `json:"chunk_minutes"`
}

// WriteRequest encodes cmd and an optional payload as one line
func WriteRequest(w io.Writer, cmd byte, payload any) error {
	line := []byte{cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		line = append(line, data...)
	}
	line = append(line, '\n')
	_, err := w.Write(line)
	return err
}

// ReadRequest reads one request line
func ReadRequest(r *bufio.Reader) (Request, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return Request{}, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Request{}, errors.New("empty request")
	}
	req := Request{Cmd: line[0]}
	if rest := strings.TrimSpace(line[1:]); rest != "" {
		req.Payload = json.RawMessage(rest)
	}
	return req, nil
}

// WriteOK sends a JSON-encoded success body
func WriteOK(w io.Writer, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return WriteError(w, err)
	}
	_, err = fmt.Fprintf(w, "OK %s\n", data)
	return err
}

// WriteError sends a single-line error
func WriteError(w io.Writer, err error) error {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	_, werr := fmt.Fprintf(w, "ERR %s\n", msg)
	return werr
}

// ReadResponse reads one response line
func ReadResponse(r *bufio.Reader) (Response, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.HasPrefix(line, "OK"):
		return Response{OK: true, Body: strings.TrimSpace(line[2:])}, nil
	case strings.HasPrefix(line, "ERR"):
		return Response{Body: strings.TrimSpace(line[3:])}, nil
	}
	return Response{}, fmt.Errorf("malformed response: %q", line)
}
