package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root string, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestNewFSSourceValidation(t *testing.T) {
	_, err := NewFSSource(FSConfig{}, nil)
	assert.Error(t, err, "missing root")

	_, err = NewFSSource(FSConfig{Root: filepath.Join(t.TempDir(), "absent")}, nil)
	assert.Error(t, err, "nonexistent root")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFSSource(FSConfig{Root: file}, nil)
	assert.Error(t, err, "root is a file")
}

func TestLoadDocTypesAndOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "products/widget.md", []byte("widget details"))
	writeFile(t, root, "employees/alice.md", []byte("alice bio"))
	writeFile(t, root, "employees/nested/bob.md", []byte("bob bio"))
	writeFile(t, root, "readme.md", []byte("top level"))

	src, err := NewFSSource(FSConfig{Root: root}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 4)

	// Sorted by SourceID.
	assert.Equal(t, "employees/alice.md", docs[0].SourceID)
	assert.Equal(t, "employees/nested/bob.md", docs[1].SourceID)
	assert.Equal(t, "products/widget.md", docs[2].SourceID)
	assert.Equal(t, "readme.md", docs[3].SourceID)

	// doc_type comes from the first directory level; top-level files are
	// "general".
	assert.Equal(t, "employees", docs[0].DocType)
	assert.Equal(t, "employees", docs[1].DocType)
	assert.Equal(t, "products", docs[2].DocType)
	assert.Equal(t, "general", docs[3].DocType)

	assert.Equal(t, "alice bio", docs[0].Text)
}

func TestLoadGlobFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/a.md", []byte("kept"))
	writeFile(t, root, "guides/b.txt", []byte("filtered"))
	writeFile(t, root, "guides/c.md.bak", []byte("filtered"))

	src, err := NewFSSource(FSConfig{Root: root}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "guides/a.md", docs[0].SourceID)
}

func TestLoadSkipsBinaryAndOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/ok.md", []byte("fine"))
	writeFile(t, root, "guides/binary.md", []byte{0xff, 0xfe, 0x00, 0x80})
	writeFile(t, root, "guides/huge.md", []byte("this is too large"))

	src, err := NewFSSource(FSConfig{Root: root, MaxFileSize: 10}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "guides/ok.md", docs[0].SourceID)
}

func TestLoadSkipsVCSDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/a.md", []byte("kept"))
	writeFile(t, root, ".git/objects/x.md", []byte("never loaded"))

	src, err := NewFSSource(FSConfig{Root: root}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestLoadCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/a.md", []byte("x"))

	src, err := NewFSSource(FSConfig{Root: root}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContentHash(t *testing.T) {
	a := Document{Text: "same"}
	b := Document{Text: "same", DocType: "other", SourceID: "other.md"}
	c := Document{Text: "different"}

	// The hash covers the text only.
	assert.Equal(t, a.ContentHash(), b.ContentHash())
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
	assert.Len(t, a.ContentHash(), 64)
}
