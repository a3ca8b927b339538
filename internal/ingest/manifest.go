package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/ragd/internal/document"
)

// Manifest records the content hash of every ingested document, keyed by
// source id. It lets re-ingestion skip work when nothing changed.
type Manifest struct {
	Hashes map[string]string `json:"hashes"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Hashes: make(map[string]string)}
}

// FromDocuments builds the manifest describing the given document set.
func FromDocuments(docs []document.Document) *Manifest {
	m := NewManifest()
	for _, doc := range docs {
		m.Hashes[doc.SourceID] = doc.ContentHash()
	}
	return m
}

// Equal reports whether both manifests describe the same document set.
func (m *Manifest) Equal(other *Manifest) bool {
	if other == nil || len(m.Hashes) != len(other.Hashes) {
		return false
	}
	for id, hash := range m.Hashes {
		if other.Hashes[id] != hash {
			return false
		}
	}
	return true
}

// LoadManifest reads a manifest from disk. A missing file yields an
// empty manifest, not an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Hashes == nil {
		m.Hashes = make(map[string]string)
	}
	return &m, nil
}

// Save writes the manifest atomically beside the index.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}
