package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/retrieval"
)

func price(v float64) *float64 { return &v }

func sampleCandidates() []retrieval.Candidate {
	return []retrieval.Candidate{
		{
			Entry: catalog.Entry{
				ID: 1, Make: "Toyota", Model: "Camry", Year: 2022,
				Price: price(85000), Currency: "AED",
				Rating: 4.2, ReviewCount: 12,
				Specs: catalog.Specs{BodyStyle: "sedan", Horsepower: "301", Engine: "3.5L V6", FuelEconomy: "10.2 L/100km"},
			},
			Score: 0.95, Strategy: retrieval.StrategyKeyword,
		},
		{
			Entry: catalog.Entry{
				ID: 2, Make: "Honda", Model: "Accord", Year: 2021,
				Price: price(78000), Currency: "AED",
			},
			Score: 0.75, Strategy: retrieval.StrategyKeyword,
		},
	}
}

func TestBuildContext_RendersCandidateLines(t *testing.T) {
	out := BuildContext(sampleCandidates(), "AED", 20)

	assert.Contains(t, out, "1. Toyota Camry 2022 — 85000 AED | rated 4.2/5 (12 reviews) | sedan | 301 hp | 3.5L V6 | 10.2 L/100km")
	assert.Contains(t, out, "2. Honda Accord 2021 — 78000 AED")
	assert.Contains(t, out, "Regional price guidance (AED):")
}

func TestBuildContext_OmitsMissingFields(t *testing.T) {
	out := BuildContext(sampleCandidates(), "AED", 20)

	// The Accord has no rating and no specs; its line carries no separators.
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "2. ") {
			assert.NotContains(t, line, "rated")
			assert.NotContains(t, line, "|")
		}
	}
}

func TestBuildContext_NilPrice(t *testing.T) {
	cands := []retrieval.Candidate{{
		Entry: catalog.Entry{ID: 3, Make: "Tesla", Model: "Model S", Year: 2023},
	}}
	out := BuildContext(cands, "AED", 20)
	assert.Contains(t, out, "Tesla Model S 2023 — price on request")
}

func TestBuildContext_DisplayLimit(t *testing.T) {
	var cands []retrieval.Candidate
	for i := 0; i < 30; i++ {
		cands = append(cands, retrieval.Candidate{
			Entry: catalog.Entry{ID: int64(i + 1), Make: "Make", Model: "Model", Year: 2020, Price: price(1000)},
		})
	}

	out := BuildContext(cands, "AED", 20)
	assert.Contains(t, out, "20. Make Model")
	assert.NotContains(t, out, "21. Make Model")
}

func TestBuildContext_EmptyCandidates(t *testing.T) {
	out := BuildContext(nil, "AED", 20)
	assert.Contains(t, out, "No matching listings were found")
	assert.Contains(t, out, "not quoting live listings")
	assert.NotContains(t, out, "Current listings:")
}

func TestBuildContext_CurrencyFallback(t *testing.T) {
	out := BuildContext(sampleCandidates(), "XXX", 20)
	assert.Contains(t, out, "Regional price guidance (AED):")

	out = BuildContext(sampleCandidates(), "SAR", 20)
	assert.Contains(t, out, "Regional price guidance (SAR):")
}

func TestBuildContext_Deterministic(t *testing.T) {
	a := BuildContext(sampleCandidates(), "AED", 20)
	b := BuildContext(sampleCandidates(), "AED", 20)
	assert.Equal(t, a, b, "same inputs must render byte-identical output")
}

func TestBuildTurns(t *testing.T) {
	history := []conversation.Turn{
		{Role: conversation.RoleUser, Text: "q1"},
		{Role: conversation.RoleAssistant, Text: "a1"},
		{Role: conversation.RoleUser, Text: "q2"},
		{Role: conversation.RoleAssistant, Text: "a2"},
	}

	t.Run("role mapping", func(t *testing.T) {
		turns := BuildTurns(history, 10)
		require.Len(t, turns, 4)
		assert.Equal(t, gateway.RoleUser, turns[0].Role)
		assert.Equal(t, gateway.RoleAssistant, turns[1].Role)
		assert.Equal(t, "q1", turns[0].Text)
	})

	t.Run("window truncates oldest first", func(t *testing.T) {
		turns := BuildTurns(history, 2)
		require.Len(t, turns, 2)
		assert.Equal(t, "q2", turns[0].Text)
		assert.Equal(t, "a2", turns[1].Text)
	})

	t.Run("zero window keeps everything", func(t *testing.T) {
		assert.Len(t, BuildTurns(history, 0), 4)
	})
}
