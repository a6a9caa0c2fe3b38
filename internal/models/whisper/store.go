package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc receives bytes written so far and the expected total
type ProgressFunc func(downloaded, total int64)

// Store manages model files in a single directory
type Store struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

// DefaultDir is ~/.local/share/scribe/models/whisper
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "scribe", "models", "whisper"), nil
}

// NewStore returns a store rooted at the default directory
func NewStore() (*Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("resolve models directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *Store) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return DefaultBaseURL
}

// Path returns where the model file lives, installed or not
func (s *Store) Path(id string) (string, error) {
	m, err := Find(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, m.Filename), nil
}

// Installed reports whether a non-empty model file is present
func (s *Store) Installed(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// ListInstalled returns the IDs of downloaded models in catalog order
func (s *Store) ListInstalled() []string {
	var ids []string
	for _, m := range catalog {
		if s.Installed(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Resolve returns the path of an installed model
func (s *Store) Resolve(id string) (string, error) {
	path, err := s.Path(id)
	if err != nil {
		return "", err
	}
	if !s.Installed(id) {
		return "", fmt.Errorf("%w: %s (run 'scribe model download %s')", ErrNotInstalled, id, id)
	}
	return path, nil
}

type progressWriter struct {
	w          io.Writer
	downloaded int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.downloaded += int64(n)
	if p.onProgress != nil {
		p.onProgress(p.downloaded, p.total)
	}
	return n, err
}

// Download fetches a model into the store. The file only appears under its
// final name once fully written.
func (s *Store) Download(ctx context.Context, id string, onProgress ProgressFunc) error {
	m, err := Find(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create models directory: %w", err)
	}

	dest := filepath.Join(s.Dir, m.Filename)
	partial := dest + ".downloading"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL()+"/"+m.Filename, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", id, resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = m.SizeBytes
	}

	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create %s: %w", partial, err)
	}
	pw := &progressWriter{w: out, total: total, onProgress: onProgress}
	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(partial)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("write %s: %w", m.Filename, err)
	}

	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize %s: %w", m.Filename, err)
	}
	log.Printf("Models: downloaded %s (%d bytes)", id, pw.downloaded)
	return nil
}

// Remove deletes an installed model
func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if !s.Installed(id) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	log.Printf("Models: removed %s", id)
	return nil
}
