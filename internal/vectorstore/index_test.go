package vectorstore

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
)

func testIndex(t *testing.T, dim int) *Index {
	t.Helper()
	idx, err := New(Config{Dimension: dim, Path: t.TempDir() + "/index.gob"}, nil)
	require.NoError(t, err)
	return idx
}

func testChunk(text string) chunker.Chunk {
	return chunker.Chunk{Text: text, DocType: "guides", SourceID: "guides/a.md"}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Dimension: 0, Path: "x"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{Dimension: 3, Path: ""}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	id1, err := idx.Insert(ctx, testChunk("a"), []float32{1, 0})
	require.NoError(t, err)
	id2, err := idx.Insert(ctx, testChunk("b"), []float32{0, 1})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)
	assert.Equal(t, 2, idx.Len())
}

func TestInsertDimensionMismatch(t *testing.T) {
	idx := testIndex(t, 3)

	_, err := idx.Insert(context.Background(), testChunk("a"), []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Len())
}

func TestBulkInsertAllOrNothing(t *testing.T) {
	idx := testIndex(t, 2)

	_, err := idx.BulkInsert(context.Background(), []Pair{
		{Chunk: testChunk("a"), Vector: []float32{1, 0}},
		{Chunk: testChunk("b"), Vector: []float32{1, 0, 0}},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Len(), "failed batch must not partially apply")
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := testIndex(t, 2)

	_, err := idx.Query(context.Background(), []float32{1, 0}, 4)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestQueryInvalidK(t *testing.T) {
	idx := testIndex(t, 2)
	_, err := idx.Insert(context.Background(), testChunk("a"), []float32{1, 0})
	require.NoError(t, err)

	_, err = idx.Query(context.Background(), []float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestQueryRanking(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	idA, err := idx.Insert(ctx, testChunk("aligned with x"), []float32{1, 0})
	require.NoError(t, err)
	_, err = idx.Insert(ctx, testChunk("aligned with y"), []float32{0, 1})
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{0.9, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, idA, results[0].Entry.ID, "vector closest to the query ranks first")
	assert.Greater(t, results[0].Score, results[1].Score)

	// float32 storage rounds the components, so compare loosely.
	wantTop := 0.9 / math.Sqrt(0.81+0.01)
	assert.InDelta(t, wantTop, results[0].Score, 1e-6)
}

func TestQueryExcludesDissimilarEntry(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	_, err := idx.Insert(ctx, testChunk("exact match"), []float32{1, 0})
	require.NoError(t, err)
	_, err = idx.Insert(ctx, testChunk("orthogonal"), []float32{0, 1})
	require.NoError(t, err)
	_, err = idx.Insert(ctx, testChunk("near match"), []float32{0.9, 0.1})
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The exact and near matches win; the orthogonal entry is excluded.
	assert.Equal(t, uint64(1), results[0].Entry.ID)
	assert.Equal(t, uint64(3), results[1].Entry.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-12)
	assert.InDelta(t, 0.9/math.Sqrt(0.82), results[1].Score, 1e-6)
}

func TestQueryTieBreakByID(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	// Identical vectors yield identical scores; ascending id breaks the tie.
	for i := 0; i < 3; i++ {
		_, err := idx.Insert(ctx, testChunk("same"), []float32{1, 1})
		require.NoError(t, err)
	}

	results, err := idx.Query(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, uint64(1), results[0].Entry.ID)
	assert.Equal(t, uint64(2), results[1].Entry.ID)
	assert.Equal(t, uint64(3), results[2].Entry.ID)
}

func TestQueryKLargerThanIndex(t *testing.T) {
	idx := testIndex(t, 2)
	_, err := idx.Insert(context.Background(), testChunk("only"), []float32{1, 0})
	require.NoError(t, err)

	results, err := idx.Query(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryZeroVector(t *testing.T) {
	idx := testIndex(t, 2)
	_, err := idx.Insert(context.Background(), testChunk("a"), []float32{1, 0})
	require.NoError(t, err)

	results, err := idx.Query(context.Background(), []float32{0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestRebuildRestartsIDs(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	_, err := idx.BulkInsert(ctx, []Pair{
		{Chunk: testChunk("a"), Vector: []float32{1, 0}},
		{Chunk: testChunk("b"), Vector: []float32{0, 1}},
	})
	require.NoError(t, err)

	err = idx.Rebuild(ctx, []Pair{
		{Chunk: testChunk("c"), Vector: []float32{1, 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Len())
	results, err := idx.Query(ctx, []float32{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), results[0].Entry.ID)
	assert.Equal(t, "c", results[0].Entry.Chunk.Text)
}

func TestRebuildToEmpty(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	_, err := idx.Insert(ctx, testChunk("a"), []float32{1, 0})
	require.NoError(t, err)

	require.NoError(t, idx.Rebuild(ctx, nil))
	_, err = idx.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestConcurrentQueriesDuringRebuild(t *testing.T) {
	idx := testIndex(t, 2)
	ctx := context.Background()

	oldGen := []Pair{
		{Chunk: testChunk("old-1"), Vector: []float32{1, 0}},
		{Chunk: testChunk("old-2"), Vector: []float32{0, 1}},
	}
	newGen := []Pair{
		{Chunk: testChunk("new-1"), Vector: []float32{1, 0}},
		{Chunk: testChunk("new-2"), Vector: []float32{0, 1}},
		{Chunk: testChunk("new-3"), Vector: []float32{1, 1}},
	}
	require.NoError(t, idx.Rebuild(ctx, oldGen))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers must observe a complete generation: either 2 old entries
	// or 3 new ones, never a mix.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results, err := idx.Query(ctx, []float32{1, 1}, 10)
				if err != nil {
					t.Errorf("Query() error = %v", err)
					return
				}
				switch len(results) {
				case 2:
					for _, r := range results {
						if r.Entry.Chunk.Text[:3] != "old" {
							t.Errorf("mixed generations: %q in old snapshot", r.Entry.Chunk.Text)
						}
					}
				case 3:
					for _, r := range results {
						if r.Entry.Chunk.Text[:3] != "new" {
							t.Errorf("mixed generations: %q in new snapshot", r.Entry.Chunk.Text)
						}
					}
				default:
					t.Errorf("snapshot with %d entries", len(results))
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, idx.Rebuild(ctx, newGen))
		require.NoError(t, idx.Rebuild(ctx, oldGen))
	}
	require.NoError(t, idx.Rebuild(ctx, newGen))
	close(stop)
	wg.Wait()
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-12)
		})
	}
}
