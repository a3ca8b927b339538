package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// defaultSkipDirs are directories that are never part of a knowledge base.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
}

// FSConfig holds configuration for a filesystem document source.
type FSConfig struct {
	// Root is the knowledge-base directory. Its first-level subdirectories
	// become the doc_type of the documents they contain.
	Root string

	// Glob filters file basenames. Default: "*.md".
	Glob string

	// MaxFileSize skips files larger than this many bytes. Default: 1MB.
	MaxFileSize int64
}

// ApplyDefaults sets default values for unset fields.
func (c *FSConfig) ApplyDefaults() {
	if c.Glob == "" {
		c.Glob = "*.md"
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 1024 * 1024
	}
}

// FSSource loads documents from a knowledge-base directory tree.
//
// Layout convention: root/{doc_type}/**/{file}. Files directly under the
// root get doc_type "general". Binary files (invalid UTF-8) and oversized
// files are skipped.
type FSSource struct {
	config FSConfig
	logger *zap.Logger
}

// NewFSSource creates a filesystem source rooted at config.Root.
func NewFSSource(config FSConfig, logger *zap.Logger) (*FSSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()

	if config.Root == "" {
		return nil, fmt.Errorf("knowledge-base root required")
	}
	cleanRoot := filepath.Clean(config.Root)
	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("stat knowledge-base root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge-base root must be a directory: %s", cleanRoot)
	}
	if _, err := filepath.Match(config.Glob, "probe"); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", config.Glob, err)
	}

	config.Root = cleanRoot
	return &FSSource{config: config, logger: logger}, nil
}

// Load walks the knowledge base and returns one Document per matching file,
// sorted by SourceID so the result is stable across runs.
func (s *FSSource) Load(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := filepath.Walk(s.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if defaultSkipDirs[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if matched, _ := filepath.Match(s.config.Glob, filepath.Base(path)); !matched {
			return nil
		}
		if info.Size() > s.config.MaxFileSize {
			s.logger.Warn("skipping oversized file",
				zap.String("path", path),
				zap.Int64("size", info.Size()),
			)
			return nil
		}

		relPath, err := filepath.Rel(s.config.Root, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !utf8.Valid(content) {
			s.logger.Debug("skipping binary file", zap.String("path", path))
			return nil
		}

		docs = append(docs, Document{
			Text:     string(content),
			DocType:  docTypeFor(relPath),
			SourceID: filepath.ToSlash(relPath),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking knowledge base: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].SourceID < docs[j].SourceID })

	s.logger.Info("loaded knowledge base",
		zap.String("root", s.config.Root),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// docTypeFor derives the doc_type from the first path element.
func docTypeFor(relPath string) string {
	parts := strings.SplitN(filepath.ToSlash(relPath), "/", 2)
	if len(parts) < 2 {
		return "general"
	}
	return parts[0]
}

var _ Source = (*FSSource)(nil)
