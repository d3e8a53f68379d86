package semindex

import (
	"context"
	"fmt"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/embedding"
)

// Builder produces the semantic index artifact from catalog entries.
type Builder struct {
	embedder  embedding.Embedder
	model     string
	dimension int
	batchSize int

	// Progress, if set, is invoked after every embedded batch.
	Progress func(done, total int)
}

// NewBuilder creates an index builder.
func NewBuilder(embedder embedding.Embedder, model string, dimension, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Builder{embedder: embedder, model: model, dimension: dimension, batchSize: batchSize}
}

// Build embeds every entry and writes the artifact to path.
func (b *Builder) Build(ctx context.Context, entries []catalog.Entry, path string) error {
	vectors := make(map[int64][]float32, len(entries))

	for start := 0; start < len(entries); start += b.batchSize {
		end := start + b.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		texts := make([]string, len(batch))
		for i, e := range batch {
			texts[i] = renderEntry(e)
		}

		embs, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(embs) != len(batch) {
			return fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts",
				start, end, len(embs), len(batch))
		}

		for i, e := range batch {
			vectors[e.ID] = embs[i]
		}
		if b.Progress != nil {
			b.Progress(end, len(entries))
		}
	}

	return Write(path, b.model, b.dimension, vectors)
}

// renderEntry flattens an entry into the text that gets embedded. The same
// rendering must be used at build and query time for comparable vectors.
func renderEntry(e catalog.Entry) string {
	text := fmt.Sprintf("%s %d", e.DisplayName(), e.Year)
	if s := e.Specs; !s.IsZero() {
		if s.BodyStyle != "" {
			text += " " + s.BodyStyle
		}
		if s.Engine != "" {
			text += " " + s.Engine
		}
		if s.Transmission != "" {
			text += " " + s.Transmission
		}
		if s.FuelEconomy != "" {
			text += " " + s.FuelEconomy
		}
	}
	return text
}
