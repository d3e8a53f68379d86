package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/carsouq/assistant/internal/cache"
	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/config"
	"github.com/carsouq/assistant/internal/nlp"
	"github.com/carsouq/assistant/internal/observability"
)

// ErrStoreUnavailable is returned only when every retrieval tier failed
// against the catalog store.
var ErrStoreUnavailable = errors.New("catalog store unavailable")

// RetrieveRequest carries one retrieval turn. Intent and Currency are
// pre-classified by the caller. Currency is a filter: empty means the
// query carried no locale signal and no currency constraint is applied.
type RetrieveRequest struct {
	Query    string
	Intent   nlp.Intent
	Currency string
}

// Engine grounds queries against the catalog. It filters by the query's
// tokens and hints, pads thin result sets with samples, and never returns
// an error unless the store is entirely unreachable.
type Engine struct {
	store    catalog.Store
	cache    cache.Client
	cacheTTL time.Duration
	cfg      config.RetrievalConfig
	logger   *observability.Logger
}

// NewEngine creates a retrieval engine. The cache client is optional; pass
// nil to disable result caching regardless of config.
func NewEngine(store catalog.Store, c cache.Client, cacheTTL time.Duration, cfg config.RetrievalConfig, logger *observability.Logger) *Engine {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Engine{store: store, cache: c, cacheTTL: cacheTTL, cfg: cfg, logger: logger}
}

// Retrieve returns up to MaxCandidates scored candidates for the request.
func (e *Engine) Retrieve(ctx context.Context, req RetrieveRequest) ([]Candidate, error) {
	if key, ok := e.cacheKey(req); ok {
		if cands, err := e.cacheGet(ctx, key); err == nil {
			return cands, nil
		}
	}

	tokens := nlp.SearchTokens(req.Query, e.cfg.MaxQueryTokens)
	filter := catalog.SearchFilter{Tokens: tokens, Currency: req.Currency}
	if year, ok := nlp.ExtractYear(req.Query); ok {
		filter.Year = year
	}
	if ceiling, ok := nlp.ExtractPriceCeiling(req.Query); ok {
		filter.MaxPrice = ceiling
	}

	var (
		cands      []Candidate
		storeFails int
	)

	matches, err := e.store.Search(ctx, filter, orderForIntent(req.Intent), e.cfg.MaxCandidates)
	if err != nil {
		storeFails++
		e.logger.Warn().Err(err).Str("query", req.Query).Msg("catalog search failed, skipping tier")
	}
	cands = scoreMatches(matches, tokens)

	if len(cands) < e.cfg.MinUsefulResults {
		padded, err := e.pad(ctx, cands)
		if err != nil {
			storeFails++
		} else {
			cands = padded
		}
	}

	if len(cands) == 0 {
		recent, err := e.store.Recent(ctx, e.cfg.MaxCandidates)
		if err != nil {
			storeFails++
			e.logger.Warn().Err(err).Msg("recent fallback failed")
		}
		for j, entry := range recent {
			cands = append(cands, Candidate{Entry: entry, Score: paddingScore(j), Strategy: StrategySample})
		}
	}

	if len(cands) == 0 && storeFails > 0 {
		return nil, ErrStoreUnavailable
	}

	sortCandidates(cands)
	if len(cands) > e.cfg.MaxCandidates {
		cands = cands[:e.cfg.MaxCandidates]
	}

	e.logger.Debug().
		Str("intent", string(req.Intent)).
		Int("tokens", len(tokens)).
		Int("candidates", len(cands)).
		Msg("retrieval complete")

	if key, ok := e.cacheKey(req); ok {
		e.cacheSet(ctx, key, cands)
	}
	return cands, nil
}

// scoreMatches places store matches in the matched band. With no tokens the
// store's own ordering stands and scores decay by position.
func scoreMatches(matches []catalog.Entry, tokens []string) []Candidate {
	cands := make([]Candidate, 0, len(matches))
	for i, entry := range matches {
		score := ordinalScore(i)
		if len(tokens) > 0 {
			text := entry.SearchText()
			hits := 0
			for _, tok := range tokens {
				if strings.Contains(text, tok) {
					hits++
				}
			}
			score = matchedScore(hits, len(tokens))
		}
		cands = append(cands, Candidate{Entry: entry, Score: score, Strategy: StrategyKeyword})
	}
	return cands
}

// pad tops a thin result set up with random catalog samples.
func (e *Engine) pad(ctx context.Context, cands []Candidate) ([]Candidate, error) {
	exclude := make([]int64, 0, len(cands))
	for _, c := range cands {
		exclude = append(exclude, c.Entry.ID)
	}

	samples, err := e.store.Sample(ctx, e.cfg.MaxCandidates-len(cands), exclude)
	if err != nil {
		e.logger.Warn().Err(err).Msg("sample padding failed")
		return nil, err
	}
	for j, entry := range samples {
		cands = append(cands, Candidate{Entry: entry, Score: paddingScore(j), Strategy: StrategySample})
	}
	return cands, nil
}

func orderForIntent(intent nlp.Intent) catalog.OrderBy {
	switch intent {
	case nlp.IntentPriceInquiry, nlp.IntentNegotiating:
		return catalog.OrderPriceAsc
	case nlp.IntentRecommendation:
		return catalog.OrderRatingReviews
	default:
		return catalog.OrderYearRating
	}
}

func (e *Engine) cacheKey(req RetrieveRequest) (string, bool) {
	if e.cache == nil || !e.cfg.CacheResults {
		return "", false
	}
	return cache.CacheKey("retrieval", strings.ToLower(req.Query), string(req.Intent), req.Currency), true
}

func (e *Engine) cacheGet(ctx context.Context, key string) ([]Candidate, error) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var cands []Candidate
	if err := json.Unmarshal(data, &cands); err != nil {
		return nil, err
	}
	return cands, nil
}

func (e *Engine) cacheSet(ctx context.Context, key string, cands []Candidate) {
	data, err := json.Marshal(cands)
	if err != nil {
		return
	}
	// Cache failures never affect the response.
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Debug().Err(err).Msg("retrieval cache write failed")
	}
}
