// Package covers manages externally sourced cover artwork: remote URLs are
// downloaded once and stored under a content-addressed local name, local
// filenames (assigned by the upload endpoint) pass through untouched.
package covers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Manager struct {
	Dir    string
	Client *http.Client
}

func NewManager(dir string) *Manager {
	return &Manager{
		Dir:    dir,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Resolve turns a cover reference into a local filename.
//
// Empty input stays empty. An http(s) URL is downloaded and persisted under
// a fresh uuid-based name; a download failure is logged and degraded to
// "no cover" so it never aborts the enclosing manga create. Anything else
// is treated as an already-local filename and returned unchanged.
func (m *Manager) Resolve(ctx context.Context, ref string) string {
	if ref == "" {
		return ""
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return ref
	}

	filename := uuid.NewString() + ".jpg"
	if err := m.download(ctx, ref, filename); err != nil {
		log.Printf("[covers] download failed for %s: %v", ref, err)
		return ""
	}
	return filename
}

func (m *Manager) download(ctx context.Context, url, filename string) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return fmt.Errorf("ensure image dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	f, err := os.Create(filepath.Join(m.Dir, filename))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("write body: %w", err)
	}
	return f.Close()
}

// Release removes the asset file behind a cover filename. Called when a
// manga's cover changes away from it or the manga is deleted. Missing files
// are not an error; a stale reference has nothing left to clean up.
func (m *Manager) Release(filename string) {
	if filename == "" {
		return
	}
	path := filepath.Join(m.Dir, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[covers] remove %s: %v", filename, err)
	}
}

// Exists reports whether a cover file is present in the asset store.
func (m *Manager) Exists(filename string) bool {
	if filename == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(m.Dir, filename))
	return err == nil
}
