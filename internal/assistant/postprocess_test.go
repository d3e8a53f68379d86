package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/retrieval"
)

func candidatesFor(entries ...catalog.Entry) []retrieval.Candidate {
	out := make([]retrieval.Candidate, len(entries))
	for i, e := range entries {
		out[i] = retrieval.Candidate{Entry: e, Strategy: retrieval.StrategyKeyword}
	}
	return out
}

func TestReferencedEntryIDs(t *testing.T) {
	cands := candidatesFor(
		catalog.Entry{ID: 1, Make: "Toyota", Model: "Camry"},
		catalog.Entry{ID: 2, Make: "Honda", Model: "Accord"},
		catalog.Entry{ID: 3, Make: "Nissan", Model: "Patrol"},
	)

	t.Run("both make and model must appear", func(t *testing.T) {
		text := "The Toyota Camry beats the Accord on price, but Nissan builds tougher frames."
		ids := ReferencedEntryIDs(text, cands)
		// Honda never appears; Patrol never appears.
		assert.Equal(t, []int64{1}, ids)
	})

	t.Run("case insensitive", func(t *testing.T) {
		ids := ReferencedEntryIDs("the TOYOTA camry and the honda ACCORD", cands)
		assert.Equal(t, []int64{1, 2}, ids)
	})

	t.Run("candidate order preserved", func(t *testing.T) {
		ids := ReferencedEntryIDs("Nissan Patrol first in text, Toyota Camry second", cands)
		assert.Equal(t, []int64{1, 3}, ids)
	})

	t.Run("capped at five", func(t *testing.T) {
		var many []retrieval.Candidate
		var mentions []string
		makes := []string{"Audi", "BMW", "Kia", "Ford", "Mazda", "Lexus", "Jeep"}
		for i, mk := range makes {
			many = append(many, retrieval.Candidate{Entry: catalog.Entry{ID: int64(i + 1), Make: mk, Model: "GT"}})
			mentions = append(mentions, mk+" GT")
		}
		ids := ReferencedEntryIDs(strings.Join(mentions, ", "), many)
		assert.Len(t, ids, 5)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, ReferencedEntryIDs("nothing relevant here", cands))
	})

	t.Run("duplicate ids counted once", func(t *testing.T) {
		dup := append(cands, cands[0])
		ids := ReferencedEntryIDs("Toyota Camry again and again: Toyota Camry", dup)
		assert.Equal(t, []int64{1}, ids)
	})
}

func TestMessageID(t *testing.T) {
	ts := time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC)

	id := MessageID(ts, "hello")
	assert.True(t, strings.HasPrefix(id, "msg_20260829T143005_"), id)

	require.Equal(t, id, MessageID(ts, "hello"), "same inputs, same id")
	assert.NotEqual(t, id, MessageID(ts, "different text"))
	assert.NotEqual(t, id, MessageID(ts.Add(time.Second), "hello"))
}
