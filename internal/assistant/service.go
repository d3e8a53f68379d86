// Package assistant wires the retrieval, prompt, and gateway layers into
// the conversational pipeline behind the converse endpoint.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carsouq/assistant/internal/config"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/nlp"
	"github.com/carsouq/assistant/internal/observability"
	"github.com/carsouq/assistant/internal/prompt"
	"github.com/carsouq/assistant/internal/retrieval"
)

// Validation errors, surfaced to the transport layer as bad requests.
var (
	ErrMissingQuery     = errors.New("query or image is required")
	ErrImageTooLarge    = errors.New("image exceeds the maximum allowed size")
	ErrUnsupportedImage = errors.New("image type is not supported")
)

// defaultCurrency applies when the query carries no locale signal.
const defaultCurrency = "AED"

// weakKeywordThreshold: below this score no keyword candidate counts as a
// real match and the semantic searcher backfills. The matched band floors
// at 0.55, so this fires only when the keyword tier came back empty.
const weakKeywordThreshold = 0.5

// Retriever is the catalog retrieval dependency.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.RetrieveRequest) ([]retrieval.Candidate, error)
}

// SemanticSearcher is the fallback searcher used when keyword retrieval is
// weak.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, limit int) []retrieval.Candidate
}

// ConverseRequest is one user turn.
type ConverseRequest struct {
	Query     string
	SessionID string
	// History lets stateless callers supply prior turns; it is merged
	// ahead of the stored session history.
	History []conversation.Turn
	Image   *gateway.InlineImage
}

// ConverseResponse is the pipeline result.
type ConverseResponse struct {
	ResponseText       string
	Intent             nlp.Intent
	Currency           string
	ReferencedEntryIDs []int64
	MessageID          string
	SessionID          string
	Strategy           retrieval.Strategy
}

// Service runs the conversational pipeline.
type Service struct {
	retriever Retriever
	semantic  SemanticSearcher
	sessions  conversation.Store
	model     gateway.Model

	retrievalCfg config.RetrievalConfig
	convCfg      config.ConversationConfig
	gatewayCfg   config.GatewayConfig

	logger *observability.Logger
	now    func() time.Time
}

// NewService creates the pipeline service. The semantic searcher is
// optional.
func NewService(
	retriever Retriever,
	semantic SemanticSearcher,
	sessions conversation.Store,
	model gateway.Model,
	cfg *config.Config,
	logger *observability.Logger,
) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		retriever:    retriever,
		semantic:     semantic,
		sessions:     sessions,
		model:        model,
		retrievalCfg: cfg.Retrieval,
		convCfg:      cfg.Conversation,
		gatewayCfg:   cfg.Gateway,
		logger:       logger,
		now:          time.Now,
	}
}

// Converse runs one turn end to end: validate, classify, retrieve, assemble,
// generate, post-process, persist. Session history is written only after a
// successful generation.
func (s *Service) Converse(ctx context.Context, req ConverseRequest) (*ConverseResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := s.logger.WithSession(sessionID)

	intent := nlp.ClassifyIntent(req.Query)
	// The retrieval filter only sees a currency when the locale detector
	// actually fired; the response currency still defaults to AED.
	currency := defaultCurrency
	region, detectedCurrency := "", ""
	if r, c, ok := nlp.DetectLocale(req.Query); ok {
		region, currency, detectedCurrency = r, c, c
	}

	candidates, err := s.retriever.Retrieve(ctx, retrieval.RetrieveRequest{
		Query:    req.Query,
		Intent:   intent,
		Currency: detectedCurrency,
	})
	if err != nil {
		// Grounding is best-effort: an unreachable catalog degrades to a
		// generic-knowledge answer rather than failing the turn.
		logger.Warn().Err(err).Msg("retrieval unavailable, continuing ungrounded")
		candidates = nil
	}

	if s.semantic != nil && keywordTierWeak(candidates) {
		if extra := s.semantic.Search(ctx, req.Query, s.retrievalCfg.MaxCandidates); len(extra) > 0 {
			candidates = mergeCandidates(candidates, extra, s.retrievalCfg.MaxCandidates)
		}
	}

	instructions := prompt.BuildContext(candidates, currency, s.retrievalCfg.DisplayLimit)

	history, err := s.sessions.Read(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("session read failed, continuing without stored history")
		history = nil
	}
	if len(req.History) > 0 {
		history = append(append([]conversation.Turn{}, req.History...), history...)
	}
	turns := prompt.BuildTurns(history, s.convCfg.HistoryWindow)

	text, err := s.model.Generate(ctx, gateway.Request{
		Instructions: instructions,
		Turns:        turns,
		Query:        req.Query,
		Image:        req.Image,
		Config: gateway.GenerationConfig{
			Temperature:     s.gatewayCfg.Temperature,
			TopP:            s.gatewayCfg.TopP,
			TopK:            s.gatewayCfg.TopK,
			MaxOutputTokens: s.gatewayCfg.MaxOutputTokens,
		},
	})
	if err != nil {
		logger.Error().Err(err).Str("intent", string(intent)).Msg("generation failed")
		return nil, fmt.Errorf("generate response: %w", err)
	}

	messageID := MessageID(s.now().UTC(), text)
	resp := &ConverseResponse{
		ResponseText:       text,
		Intent:             intent,
		Currency:           currency,
		ReferencedEntryIDs: ReferencedEntryIDs(text, candidates),
		MessageID:          messageID,
		SessionID:          sessionID,
		Strategy:           topStrategy(candidates),
	}

	if err := s.sessions.Append(ctx, sessionID,
		conversation.Turn{Role: conversation.RoleUser, Text: req.Query},
		conversation.Turn{Role: conversation.RoleAssistant, Text: text, MessageID: messageID},
	); err != nil {
		// The user already has their answer; losing a history write is
		// logged, not surfaced.
		logger.Warn().Err(err).Msg("session append failed")
	}

	logger.Info().
		Str("intent", string(intent)).
		Str("region", region).
		Str("currency", currency).
		Int("candidates", len(candidates)).
		Int("referenced", len(resp.ReferencedEntryIDs)).
		Msg("converse turn complete")

	return resp, nil
}

func (s *Service) validate(req ConverseRequest) error {
	if strings.TrimSpace(req.Query) == "" && req.Image == nil {
		return ErrMissingQuery
	}
	if req.Image != nil {
		if max := s.gatewayCfg.MaxImageBytes; max > 0 && len(req.Image.Data) > max {
			return ErrImageTooLarge
		}
		if !strings.HasPrefix(req.Image.MIMEType, "image/") {
			return ErrUnsupportedImage
		}
	}
	return nil
}

// keywordTierWeak reports whether no candidate is a confident keyword
// match.
func keywordTierWeak(candidates []retrieval.Candidate) bool {
	for _, c := range candidates {
		if c.Strategy == retrieval.StrategyKeyword && c.Score >= weakKeywordThreshold {
			return false
		}
	}
	return true
}

// mergeCandidates combines the keyword and semantic result sets, dropping
// duplicate entries and keeping the higher-scored copy.
func mergeCandidates(base, extra []retrieval.Candidate, limit int) []retrieval.Candidate {
	seen := make(map[int64]int, len(base))
	merged := make([]retrieval.Candidate, len(base))
	copy(merged, base)
	for i, c := range merged {
		seen[c.Entry.ID] = i
	}

	for _, c := range extra {
		if i, ok := seen[c.Entry.ID]; ok {
			if c.Score > merged[i].Score {
				merged[i] = c
			}
			continue
		}
		seen[c.Entry.ID] = len(merged)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func topStrategy(candidates []retrieval.Candidate) retrieval.Strategy {
	if len(candidates) == 0 {
		return retrieval.StrategySample
	}
	return candidates[0].Strategy
}
