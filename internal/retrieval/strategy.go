package retrieval

import (
	"sort"

	"github.com/carsouq/assistant/internal/catalog"
)

// Strategy names the producer of a candidate.
type Strategy string

const (
	// StrategyVector marks candidates ranked by embedding similarity.
	StrategyVector Strategy = "vector"
	// StrategyKeyword marks candidates matched by catalog filters or text.
	StrategyKeyword Strategy = "keyword"
	// StrategySample marks padding drawn from the catalog, not matched.
	StrategySample Strategy = "sample"
)

// Candidate is a scored catalog entry. Scores are comparable across
// strategies: matched entries occupy [0.55, 0.95], padding stays at or
// below 0.45, vector scores are cosine similarity in [0, 1].
type Candidate struct {
	Entry    catalog.Entry
	Score    float64
	Strategy Strategy
}

// Score bands. Keyword matches decay inside the matched band; padding
// decays below it so genuine matches always sort first.
const (
	matchedBandFloor = 0.55
	matchedBandSpan  = 0.40
	matchedBandCeil  = 0.95
	matchedDecayStep = 0.012

	paddingBandCeil  = 0.45
	paddingDecayStep = 0.01
	paddingBandFloor = 0.05
)

// matchedScore places a keyword match inside the matched band by the
// fraction of query tokens its text contains.
func matchedScore(hits, totalTokens int) float64 {
	if totalTokens <= 0 {
		return matchedBandFloor
	}
	frac := float64(hits) / float64(totalTokens)
	if frac > 1 {
		frac = 1
	}
	return matchedBandFloor + matchedBandSpan*frac
}

// ordinalScore decays from the top of the matched band by result position.
// Used when the store already ranked the results and no per-token scoring
// applies.
func ordinalScore(i int) float64 {
	s := matchedBandCeil - matchedDecayStep*float64(i)
	if s < matchedBandFloor {
		return matchedBandFloor
	}
	return s
}

// paddingScore decays inside the padding band by position.
func paddingScore(j int) float64 {
	s := paddingBandCeil - paddingDecayStep*float64(j)
	if s < paddingBandFloor {
		return paddingBandFloor
	}
	return s
}

// sortCandidates orders by score desc; keyword and sample ties break on
// UpdatedAt desc. Vector ties keep their similarity order, which the
// stable sort preserves.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].Strategy == StrategyVector && cands[j].Strategy == StrategyVector {
			return false
		}
		return cands[i].Entry.UpdatedAt.After(cands[j].Entry.UpdatedAt)
	})
}
