package semindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/embedding"
)

func TestBuilder_Build(t *testing.T) {
	entries := []catalog.Entry{
		{ID: 1, Make: "Toyota", Model: "Camry", Year: 2022},
		{ID: 2, Make: "Honda", Model: "Accord", Year: 2021},
		{ID: 3, Make: "Nissan", Model: "Patrol", Year: 2020},
	}

	embedder := embedding.NewMockClient(16)
	builder := NewBuilder(embedder, embedder.Model(), embedder.Dimension(), 2)

	var calls []int
	builder.Progress = func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 3, total)
	}

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, builder.Build(context.Background(), entries, path))

	assert.Equal(t, []int{2, 3}, calls, "progress fires once per batch")

	idx := NewIndex(path)
	model, dimension, size, err := idx.Stat()
	require.NoError(t, err)
	assert.Equal(t, "mock-embedding-model", model)
	assert.Equal(t, 16, dimension)
	assert.Equal(t, 3, size)

	// The same text embeds to the same vector, so its own rendering is its
	// best match.
	vec, err := embedder.EmbedSingle(context.Background(), "Toyota Camry 2022")
	require.NoError(t, err)
	matches, err := idx.Search(vec, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.01)
}

func TestBuilder_EmptyCatalog(t *testing.T) {
	embedder := embedding.NewMockClient(8)
	builder := NewBuilder(embedder, embedder.Model(), embedder.Dimension(), 10)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, builder.Build(context.Background(), nil, path))

	_, _, size, err := NewIndex(path).Stat()
	require.NoError(t, err)
	assert.Zero(t, size)
}
