package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/config"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/nlp"
	"github.com/carsouq/assistant/internal/observability"
	"github.com/carsouq/assistant/internal/retrieval"
)

type fakeRetriever struct {
	candidates []retrieval.Candidate
	err        error
	requests   []retrieval.RetrieveRequest
}

func (f *fakeRetriever) Retrieve(ctx context.Context, req retrieval.RetrieveRequest) ([]retrieval.Candidate, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeSemantic struct {
	candidates []retrieval.Candidate
	called     bool
}

func (f *fakeSemantic) Search(ctx context.Context, query string, limit int) []retrieval.Candidate {
	f.called = true
	return f.candidates
}

func price(v float64) *float64 { return &v }

func catalogCandidates() []retrieval.Candidate {
	return []retrieval.Candidate{
		{
			Entry: catalog.Entry{
				ID: 1, Make: "Toyota", Model: "Camry", Year: 2022,
				Price: price(85000), Currency: "AED", Rating: 4.2, ReviewCount: 12,
			},
			Score: 0.95, Strategy: retrieval.StrategyKeyword,
		},
		{
			Entry: catalog.Entry{
				ID: 2, Make: "Honda", Model: "Accord", Year: 2021,
				Price: price(78000), Currency: "AED", Rating: 4.0, ReviewCount: 9,
			},
			Score: 0.75, Strategy: retrieval.StrategyKeyword,
		},
	}
}

func newTestService(retriever Retriever, semantic SemanticSearcher, sessions conversation.Store, model gateway.Model) *Service {
	svc := NewService(retriever, semantic, sessions, model, config.DefaultConfig(), observability.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestConverse_EndToEnd(t *testing.T) {
	retriever := &fakeRetriever{candidates: catalogCandidates()}
	sessions := conversation.NewMemoryStore(20)
	model := &gateway.MockModel{Response: "The Toyota Camry is newer; the Honda Accord is cheaper at 78000 AED."}
	svc := newTestService(retriever, nil, sessions, model)

	resp, err := svc.Converse(context.Background(), ConverseRequest{
		Query:     "compare Camry and Accord prices in Dubai",
		SessionID: "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, nlp.IntentComparing, resp.Intent)
	assert.Equal(t, "AED", resp.Currency)
	assert.Equal(t, []int64{1, 2}, resp.ReferencedEntryIDs)
	assert.Equal(t, retrieval.StrategyKeyword, resp.Strategy)
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.MessageID)

	// The retrieval request carried the classified intent and currency.
	require.Len(t, retriever.requests, 1)
	assert.Equal(t, nlp.IntentComparing, retriever.requests[0].Intent)
	assert.Equal(t, "AED", retriever.requests[0].Currency)

	// The model saw both listings in its instructions.
	require.Len(t, model.Requests, 1)
	assert.Contains(t, model.Requests[0].Instructions, "Toyota Camry 2022 — 85000 AED")
	assert.Contains(t, model.Requests[0].Instructions, "Honda Accord 2021 — 78000 AED")
	assert.Equal(t, "compare Camry and Accord prices in Dubai", model.Requests[0].Query)

	// Both turns landed in the session.
	turns, err := sessions.Read(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, conversation.RoleUser, turns[0].Role)
	assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	assert.Equal(t, resp.MessageID, turns[1].MessageID)
}

func TestConverse_CurrencyFilterOnlyWhenDetected(t *testing.T) {
	retriever := &fakeRetriever{candidates: catalogCandidates()}
	svc := newTestService(retriever, nil, conversation.NewMemoryStore(20), &gateway.MockModel{Response: "ok"})

	// No locale marker: the response currency defaults to AED but the
	// retrieval filter carries no currency at all.
	resp, err := svc.Converse(context.Background(), ConverseRequest{Query: "toyota camry"})
	require.NoError(t, err)
	assert.Equal(t, "AED", resp.Currency)
	require.Len(t, retriever.requests, 1)
	assert.Empty(t, retriever.requests[0].Currency)

	// A detected locale flows into both.
	resp, err = svc.Converse(context.Background(), ConverseRequest{Query: "toyota camry in Riyadh"})
	require.NoError(t, err)
	assert.Equal(t, "SAR", resp.Currency)
	require.Len(t, retriever.requests, 2)
	assert.Equal(t, "SAR", retriever.requests[1].Currency)
}

func TestConverse_Deterministic(t *testing.T) {
	run := func() string {
		model := &gateway.MockModel{Response: "answer"}
		svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, nil, conversation.NewMemoryStore(20), model)
		_, err := svc.Converse(context.Background(), ConverseRequest{Query: "compare camry and accord", SessionID: "s"})
		require.NoError(t, err)
		return model.Requests[0].Instructions
	}
	assert.Equal(t, run(), run(), "identical turns assemble identical instructions")
}

func TestConverse_GatewayFailureWritesNoSession(t *testing.T) {
	sessions := conversation.NewMemoryStore(20)
	model := &gateway.MockModel{Err: gateway.ErrQuota}
	svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, nil, sessions, model)

	_, err := svc.Converse(context.Background(), ConverseRequest{Query: "any camry", SessionID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrQuota)

	turns, readErr := sessions.Read(context.Background(), "s1")
	require.NoError(t, readErr)
	assert.Empty(t, turns, "failed turns must not pollute history")
}

func TestConverse_Validation(t *testing.T) {
	svc := newTestService(&fakeRetriever{}, nil, conversation.NewMemoryStore(20), &gateway.MockModel{Response: "ok"})

	t.Run("missing query", func(t *testing.T) {
		_, err := svc.Converse(context.Background(), ConverseRequest{Query: "   "})
		assert.ErrorIs(t, err, ErrMissingQuery)
	})

	t.Run("image too large", func(t *testing.T) {
		big := make([]byte, config.DefaultConfig().Gateway.MaxImageBytes+1)
		_, err := svc.Converse(context.Background(), ConverseRequest{
			Query: "what car is this",
			Image: &gateway.InlineImage{MIMEType: "image/png", Data: big},
		})
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("unsupported mime type", func(t *testing.T) {
		_, err := svc.Converse(context.Background(), ConverseRequest{
			Query: "what car is this",
			Image: &gateway.InlineImage{MIMEType: "application/pdf", Data: []byte{1}},
		})
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})

	t.Run("image alone is enough", func(t *testing.T) {
		_, err := svc.Converse(context.Background(), ConverseRequest{
			Image: &gateway.InlineImage{MIMEType: "image/jpeg", Data: []byte{1, 2}},
		})
		assert.NoError(t, err)
	})
}

func TestConverse_DefaultsSessionID(t *testing.T) {
	svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, nil, conversation.NewMemoryStore(20), &gateway.MockModel{Response: "ok"})

	resp, err := svc.Converse(context.Background(), ConverseRequest{Query: "camry please"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
}

func TestConverse_SemanticBackfill(t *testing.T) {
	semanticHit := retrieval.Candidate{
		Entry:    catalog.Entry{ID: 9, Make: "Nissan", Model: "Patrol", Year: 2020, Price: price(79000), Currency: "AED"},
		Score:    0.88,
		Strategy: retrieval.StrategyVector,
	}

	t.Run("weak keyword tier triggers backfill", func(t *testing.T) {
		weak := []retrieval.Candidate{
			{Entry: catalog.Entry{ID: 5, Make: "Kia", Model: "Sorento"}, Score: 0.3, Strategy: retrieval.StrategySample},
		}
		semantic := &fakeSemantic{candidates: []retrieval.Candidate{semanticHit}}
		model := &gateway.MockModel{Response: "The Nissan Patrol fits."}
		svc := newTestService(&fakeRetriever{candidates: weak}, semantic, conversation.NewMemoryStore(20), model)

		resp, err := svc.Converse(context.Background(), ConverseRequest{Query: "rugged desert machine", SessionID: "s"})
		require.NoError(t, err)

		assert.True(t, semantic.called)
		assert.Equal(t, retrieval.StrategyVector, resp.Strategy, "the semantic hit outranks the weak sample")
		assert.Contains(t, model.Requests[0].Instructions, "Nissan Patrol")
	})

	t.Run("strong keyword tier skips backfill", func(t *testing.T) {
		semantic := &fakeSemantic{candidates: []retrieval.Candidate{semanticHit}}
		svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, semantic, conversation.NewMemoryStore(20), &gateway.MockModel{Response: "ok"})

		_, err := svc.Converse(context.Background(), ConverseRequest{Query: "camry", SessionID: "s"})
		require.NoError(t, err)
		assert.False(t, semantic.called)
	})
}

func TestConverse_RetrievalFailureDegrades(t *testing.T) {
	model := &gateway.MockModel{Response: "general advice only"}
	svc := newTestService(&fakeRetriever{err: retrieval.ErrStoreUnavailable}, nil, conversation.NewMemoryStore(20), model)

	resp, err := svc.Converse(context.Background(), ConverseRequest{Query: "any good sedans", SessionID: "s"})
	require.NoError(t, err, "an unreachable catalog degrades, not fails")
	assert.Empty(t, resp.ReferencedEntryIDs)
	assert.Contains(t, model.Requests[0].Instructions, "No matching listings were found")
}

func TestConverse_HistoryWindow(t *testing.T) {
	sessions := conversation.NewMemoryStore(40)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.NoError(t, sessions.Append(ctx, "s",
			conversation.Turn{Role: conversation.RoleUser, Text: "old question"},
		))
	}

	model := &gateway.MockModel{Response: "ok"}
	svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, nil, sessions, model)

	_, err := svc.Converse(ctx, ConverseRequest{Query: "camry", SessionID: "s"})
	require.NoError(t, err)

	window := config.DefaultConfig().Conversation.HistoryWindow
	assert.Len(t, model.Requests[0].Turns, window, "history is truncated to the window")
}

func TestConverse_CallerHistoryMergedFirst(t *testing.T) {
	model := &gateway.MockModel{Response: "ok"}
	svc := newTestService(&fakeRetriever{candidates: catalogCandidates()}, nil, conversation.NewMemoryStore(20), model)

	_, err := svc.Converse(context.Background(), ConverseRequest{
		Query:     "camry",
		SessionID: "fresh",
		History: []conversation.Turn{
			{Role: conversation.RoleUser, Text: "supplied by caller"},
			{Role: conversation.RoleAssistant, Text: "earlier answer"},
		},
	})
	require.NoError(t, err)

	require.Len(t, model.Requests[0].Turns, 2)
	assert.Equal(t, "supplied by caller", model.Requests[0].Turns[0].Text)
	assert.Equal(t, gateway.RoleAssistant, model.Requests[0].Turns[1].Role)
}
