// Package cache stores zstd-compressed JSON snapshots of built
// documentation models, keyed by project name. A snapshot survives a
// round-trip losslessly: load gives back exactly the model that was
// saved.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/model"
)

// Dir returns the snapshot directory path.
func Dir() string {
	return config.SnapshotDir()
}

// path is the snapshot location for a project name.
func path(name string) string {
	return filepath.Join(Dir(), sanitize(name)+".json.zst")
}

// sanitize keeps project names filesystem-safe.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

// Save writes a snapshot for the model's project, returning the
// SHA-256 digest of the uncompressed JSON.
func Save(m *model.DocModel) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	digest := fmt.Sprintf("%x", sha256.Sum256(data))

	p := path(m.Metadata.Name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return digest, nil
}

// Load reads the snapshot for a project name.
func Load(name string) (*model.DocModel, error) {
	f, err := os.Open(path(name))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot %s: %w", name, err)
	}
	var m model.DocModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}
	return &m, nil
}

// Clear removes the snapshot for a project name. Missing snapshots are
// not an error.
func Clear(name string) error {
	if err := os.Remove(path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot %s: %w", name, err)
	}
	return nil
}

// Entry describes one stored snapshot.
type Entry struct {
	Name     string
	Size     int64
	Modified time.Time
}

// List enumerates stored snapshots.
func List() ([]Entry, error) {
	dirents, err := os.ReadDir(Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	var entries []Entry
	for _, d := range dirents {
		name, ok := strings.CutSuffix(d.Name(), ".json.zst")
		if !ok {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: name, Size: info.Size(), Modified: info.ModTime()})
	}
	return entries, nil
}
