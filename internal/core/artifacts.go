package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrArtifactNotFound is returned for an unknown or malformed artifact name.
var ErrArtifactNotFound = errors.New("output file not found")

// ArtifactStore writes created files under one directory and serves them
// back by name. Names are generated, so callers never choose paths.
type ArtifactStore struct {
	dir string
	ttl time.Duration
}

// NewArtifactStore creates dir if needed. Files older than ttl are removed
// by Sweep; ttl <= 0 keeps files forever.
func NewArtifactStore(dir string, ttl time.Duration) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &ArtifactStore{dir: dir, ttl: ttl}, nil
}

// Dir returns the storage directory.
func (a *ArtifactStore) Dir() string { return a.dir }

// Save writes a new file named <prefix>-<uuid>.<ext> and returns the name.
// A failed write leaves nothing behind.
func (a *ArtifactStore) Save(prefix, ext string, write func(io.Writer) error) (string, error) {
	name := fmt.Sprintf("%s-%s.%s", prefix, uuid.NewString(), ext)

	tmp, err := os.CreateTemp(a.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(a.dir, name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return name, nil
}

// Path returns the location of a stored file.
func (a *ArtifactStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrArtifactNotFound
	}
	p := filepath.Join(a.dir, name)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrArtifactNotFound
	}
	return p, nil
}

// Sweep deletes files older than the store's ttl and returns how many.
func (a *ArtifactStore) Sweep(now time.Time) (int, error) {
	if a.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("list output dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < a.ttl {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
