// Package prompt renders retrieval candidates and session history into the
// instruction text handed to the language model. Rendering is deterministic:
// the same inputs always produce byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/retrieval"
)

const systemPreamble = `You are a knowledgeable car marketplace assistant for Gulf-region buyers.
Answer using ONLY the listings below when they are relevant. Quote prices
with their currency. If the listings do not cover the question, say so
before answering from general knowledge.`

const emptyCatalogPreamble = `You are a knowledgeable car marketplace assistant for Gulf-region buyers.
No matching listings were found for this query. Answer from general
automotive knowledge, state clearly that you are not quoting live listings,
and invite the user to refine their search.`

// BuildContext renders scored candidates into the model instruction block.
// At most displayLimit candidates are rendered; fields missing from an
// entry are omitted rather than rendered empty.
func BuildContext(candidates []retrieval.Candidate, currency string, displayLimit int) string {
	var b strings.Builder

	if len(candidates) == 0 {
		b.WriteString(emptyCatalogPreamble)
		b.WriteString("\n\n")
		writePriceGuidance(&b, currency)
		return b.String()
	}

	b.WriteString(systemPreamble)
	b.WriteString("\n\nCurrent listings:\n")

	n := len(candidates)
	if displayLimit > 0 && n > displayLimit {
		n = displayLimit
	}
	for i := 0; i < n; i++ {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, renderCandidate(candidates[i])))
	}

	b.WriteString("\n")
	writePriceGuidance(&b, currency)
	return b.String()
}

// renderCandidate flattens one entry to a single line.
func renderCandidate(c retrieval.Candidate) string {
	e := c.Entry

	var parts []string
	if e.Price != nil {
		currency := e.Currency
		if currency == "" {
			currency = "AED"
		}
		parts = append(parts, fmt.Sprintf("%s %s %d — %s %s",
			e.Make, e.Model, e.Year, formatPrice(*e.Price), currency))
	} else {
		parts = append(parts, fmt.Sprintf("%s %s %d — price on request", e.Make, e.Model, e.Year))
	}

	if e.Rating > 0 {
		parts = append(parts, fmt.Sprintf("rated %.1f/5 (%d reviews)", e.Rating, e.ReviewCount))
	}
	if s := e.Specs; !s.IsZero() {
		if s.BodyStyle != "" {
			parts = append(parts, s.BodyStyle)
		}
		if s.Horsepower != "" {
			parts = append(parts, s.Horsepower+" hp")
		}
		if s.Engine != "" {
			parts = append(parts, s.Engine)
		}
		if s.FuelEconomy != "" {
			parts = append(parts, s.FuelEconomy)
		}
	}

	return strings.Join(parts, " | ")
}

// formatPrice drops a meaningless fractional part.
func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}

// BuildTurns converts stored session history into model-ready turns,
// truncated to the most recent window turns. User turns keep the user
// role; everything else maps to the assistant role.
func BuildTurns(history []conversation.Turn, window int) []gateway.Turn {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	turns := make([]gateway.Turn, 0, len(history))
	for _, t := range history {
		role := gateway.RoleAssistant
		if t.Role == conversation.RoleUser {
			role = gateway.RoleUser
		}
		turns = append(turns, gateway.Turn{Role: role, Text: t.Text})
	}
	return turns
}
