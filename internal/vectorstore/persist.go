package vectorstore

import (
	"context"
	"crypto/rand"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	fileMagic   = "ragd-index"
	fileVersion = 1
)

// fileHeader is the versioned preamble of a persisted index. Loads fail
// fast on an unknown version, a foreign metric, or a dimension that does
// not match the stored vectors, rather than returning wrong results.
type fileHeader struct {
	Magic     string
	Version   int
	Dimension int
	Metric    string
	NextID    uint64
}

// indexFile is the full persisted layout.
type indexFile struct {
	Header  fileHeader
	Entries []Entry
}

// Persist flushes the committed entry set to the configured path. The
// write goes to a temp file which is fsynced and renamed into place, so a
// crash mid-persist leaves the previous file intact. After a successful
// Persist no entry exists only in memory.
func (idx *Index) Persist(ctx context.Context) error {
	_, span := indexTracer.Start(ctx, "Index.Persist")
	defer span.End()

	idx.mu.Lock()
	file := indexFile{
		Header: fileHeader{
			Magic:     fileMagic,
			Version:   fileVersion,
			Dimension: idx.config.Dimension,
			Metric:    MetricCosine,
			NextID:    idx.nextID,
		},
		Entries: idx.snap.Load().entries,
	}
	idx.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(idx.config.Path), 0o700); err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmpPath := idx.config.Path + ".tmp." + randomSuffix()
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating temp index file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(file); err != nil {
		f.Close()
		os.Remove(tmpPath)
		span.RecordError(err)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		span.RecordError(err)
		return fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()

	// Atomic rename: readers never observe a partially written index.
	if err := os.Rename(tmpPath, idx.config.Path); err != nil {
		os.Remove(tmpPath)
		span.RecordError(err)
		return fmt.Errorf("finalizing index file: %w", err)
	}

	span.SetAttributes(attribute.Int("entries", len(file.Entries)))
	span.SetStatus(codes.Ok, "success")

	idx.logger.Info("index persisted",
		zap.String("path", idx.config.Path),
		zap.Int("entries", len(file.Entries)),
	)
	return nil
}

// Load reconstructs an index from a persisted file. Query results against
// the loaded index are identical to the source index's state at its last
// successful Persist. Returns fs.ErrNotExist (wrapped) when no file exists.
func Load(path string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("index file %s: %w", path, err)
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrIncompatibleFormat, path, err)
	}
	if err := validateHeader(file.Header); err != nil {
		return nil, err
	}
	for i, e := range file.Entries {
		if len(e.Vector) != file.Header.Dimension {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, header says %d",
				ErrIncompatibleFormat, i, len(e.Vector), file.Header.Dimension)
		}
		if e.ID >= file.Header.NextID {
			return nil, fmt.Errorf("%w: entry id %d >= next id %d",
				ErrIncompatibleFormat, e.ID, file.Header.NextID)
		}
	}

	idx, err := New(Config{Dimension: file.Header.Dimension, Path: path}, logger)
	if err != nil {
		return nil, err
	}
	idx.mu.Lock()
	idx.nextID = file.Header.NextID
	idx.snap.Store(&snapshot{entries: file.Entries})
	idx.mu.Unlock()

	logger.Info("index loaded",
		zap.String("path", path),
		zap.Int("entries", len(file.Entries)),
		zap.Int("dimension", file.Header.Dimension),
	)
	return idx, nil
}

// validateHeader rejects persisted state this build cannot interpret.
func validateHeader(h fileHeader) error {
	if h.Magic != fileMagic {
		return fmt.Errorf("%w: bad magic %q", ErrIncompatibleFormat, h.Magic)
	}
	if h.Version != fileVersion {
		return fmt.Errorf("%w: version %d, this build reads %d", ErrIncompatibleFormat, h.Version, fileVersion)
	}
	if h.Metric != MetricCosine {
		return fmt.Errorf("%w: metric %q, this build computes %q", ErrIncompatibleFormat, h.Metric, MetricCosine)
	}
	if h.Dimension <= 0 {
		return fmt.Errorf("%w: non-positive dimension %d", ErrIncompatibleFormat, h.Dimension)
	}
	if h.NextID == 0 {
		return fmt.Errorf("%w: zero next id", ErrIncompatibleFormat)
	}
	return nil
}

// randomSuffix generates a random suffix for temp files.
func randomSuffix() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
