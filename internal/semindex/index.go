// Package semindex holds the offline-built embedding index used for
// semantic catalog search. The index is a flat JSON artifact loaded
// wholesale into memory; it is read-only after load.
package semindex

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// Match is one ranked index hit.
type Match struct {
	ID    int64
	Score float64
}

type artifact struct {
	Model     string          `json:"model"`
	Dimension int             `json:"dimension"`
	Entries   []artifactEntry `json:"entries"`
}

type artifactEntry struct {
	ID     int64     `json:"id"`
	Vector []float32 `json:"vector"`
}

// Index is an in-memory cosine similarity index over catalog entry
// embeddings. Loading is deferred to first use and happens exactly once.
type Index struct {
	path string

	once    sync.Once
	loadErr error

	model     string
	dimension int
	ids       []int64
	vectors   [][]float32 // normalized at load
}

// NewIndex creates an index backed by the artifact at path. The file is
// not touched until the first Search or Stat call.
func NewIndex(path string) *Index {
	return &Index{path: path}
}

// NewFromEntries creates a ready index from in-memory vectors, mainly for
// tests and the builder.
func NewFromEntries(model string, dimension int, entries map[int64][]float32) *Index {
	idx := &Index{model: model, dimension: dimension}
	idx.once.Do(func() {})

	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		idx.ids = append(idx.ids, id)
		idx.vectors = append(idx.vectors, normalize(entries[id]))
	}
	return idx
}

// load reads and normalizes the artifact. Called at most once.
func (idx *Index) load() error {
	idx.once.Do(func() {
		data, err := os.ReadFile(idx.path)
		if err != nil {
			idx.loadErr = fmt.Errorf("read semantic index: %w", err)
			return
		}

		var art artifact
		if err := json.Unmarshal(data, &art); err != nil {
			idx.loadErr = fmt.Errorf("decode semantic index: %w", err)
			return
		}

		idx.model = art.Model
		idx.dimension = art.Dimension
		for _, e := range art.Entries {
			if art.Dimension > 0 && len(e.Vector) != art.Dimension {
				idx.loadErr = fmt.Errorf("semantic index entry %d: dimension %d, want %d",
					e.ID, len(e.Vector), art.Dimension)
				return
			}
			idx.ids = append(idx.ids, e.ID)
			idx.vectors = append(idx.vectors, normalize(e.Vector))
		}
	})
	return idx.loadErr
}

// Search returns up to limit matches ranked by cosine similarity, scores
// clamped to [0, 1].
func (idx *Index) Search(query []float32, limit int) ([]Match, error) {
	if err := idx.load(); err != nil {
		return nil, err
	}
	if limit <= 0 || len(query) == 0 {
		return nil, nil
	}

	q := normalize(query)
	matches := make([]Match, 0, len(idx.ids))
	for i, vec := range idx.vectors {
		if len(vec) != len(q) {
			continue
		}
		score := dot(q, vec)
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		matches = append(matches, Match{ID: idx.ids[i], Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Stat returns the index model name, dimension, and entry count.
func (idx *Index) Stat() (model string, dimension, size int, err error) {
	if err := idx.load(); err != nil {
		return "", 0, 0, err
	}
	return idx.model, idx.dimension, len(idx.ids), nil
}

// Write serializes the index to its JSON artifact form.
func Write(path, model string, dimension int, entries map[int64][]float32) error {
	art := artifact{Model: model, Dimension: dimension}

	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		art.Entries = append(art.Entries, artifactEntry{ID: id, Vector: entries[id]})
	}

	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("encode semantic index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write semantic index: %w", err)
	}
	return nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
