package retrieval

import (
	"context"
	"strings"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/nlp"
	"github.com/carsouq/assistant/internal/observability"
	"github.com/carsouq/assistant/internal/semindex"
)

// Encoder turns a query into the embedding space the semantic index was
// built in. Satisfied by embedding.Embedder.
type Encoder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the read side of the semantic index.
type VectorIndex interface {
	Search(query []float32, limit int) ([]semindex.Match, error)
}

// SemanticSearcher runs an explicit ordered strategy list: vector search
// when an index and encoder are available, keyword text search otherwise,
// and finally an empty result. It never synthesizes entries and never
// returns an error; each tier's failure is logged and the next tier runs.
type SemanticSearcher struct {
	store   catalog.Store
	index   VectorIndex
	encoder Encoder
	logger  *observability.Logger
}

// NewSemanticSearcher creates a searcher. Index and encoder may be nil,
// which disables the vector tier.
func NewSemanticSearcher(store catalog.Store, index VectorIndex, encoder Encoder, logger *observability.Logger) *SemanticSearcher {
	if logger == nil {
		logger = observability.Nop()
	}
	return &SemanticSearcher{store: store, index: index, encoder: encoder, logger: logger}
}

// Search returns up to limit candidates tagged with the strategy that
// produced them.
func (s *SemanticSearcher) Search(ctx context.Context, query string, limit int) []Candidate {
	if limit <= 0 {
		return nil
	}

	if cands := s.vectorTier(ctx, query, limit); len(cands) > 0 {
		return cands
	}
	if cands := s.keywordTier(ctx, query, limit); len(cands) > 0 {
		return cands
	}
	// Sample tier: nothing matched anywhere, return empty rather than
	// inventing relevance.
	return nil
}

func (s *SemanticSearcher) vectorTier(ctx context.Context, query string, limit int) []Candidate {
	if s.index == nil || s.encoder == nil {
		return nil
	}

	vec, err := s.encoder.EmbedSingle(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("query embedding failed, falling back to keyword tier")
		return nil
	}

	matches, err := s.index.Search(vec, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vector index search failed, falling back to keyword tier")
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(matches))
	scores := make(map[int64]float64, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
		scores[m.ID] = clamp01(m.Score)
	}

	entries, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vector match resolution failed, falling back to keyword tier")
		return nil
	}

	cands := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		cands = append(cands, Candidate{Entry: entry, Score: scores[entry.ID], Strategy: StrategyVector})
	}
	sortCandidates(cands)
	return cands
}

func (s *SemanticSearcher) keywordTier(ctx context.Context, query string, limit int) []Candidate {
	tokens := nlp.SearchTokens(query, 0)
	if len(tokens) == 0 {
		return s.recentTier(ctx, limit)
	}

	entries, err := s.store.SearchText(ctx, tokens, 2*limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("keyword text search failed")
		return nil
	}

	cands := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		text := entry.SearchText()
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		// Raw hit fraction, not the matched band: these candidates backfill
		// a weak keyword tier and must not outrank its genuine matches.
		score := float64(hits) / float64(len(tokens))
		cands = append(cands, Candidate{Entry: entry, Score: score, Strategy: StrategyKeyword})
	}

	sortCandidates(cands)
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

func (s *SemanticSearcher) recentTier(ctx context.Context, limit int) []Candidate {
	entries, err := s.store.Recent(ctx, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("recent fallback failed")
		return nil
	}
	cands := make([]Candidate, 0, len(entries))
	for i, entry := range entries {
		cands = append(cands, Candidate{Entry: entry, Score: ordinalScore(i), Strategy: StrategyKeyword})
	}
	return cands
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
