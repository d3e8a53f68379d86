// Package nlp provides the query-understanding heuristics of the assistant:
// tokenization, locale/currency detection, intent classification, and
// numeric hint extraction. Everything here is a pure function over the raw
// query text; no package state is mutated.
package nlp

import (
	"strings"
	"unicode"
)

// Tokenize splits raw text into normalized search tokens. A token is a run
// of Latin alphanumeric or Arabic-script runes, lower-cased, at least two
// runes long. Insertion order is preserved and duplicates are retained;
// callers that need uniqueness deduplicate themselves. Never fails: empty
// or unusable input yields an empty slice.
func Tokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) >= 2 {
			tokens = append(tokens, strings.ToLower(string(current)))
		}
		current = current[:0]
	}

	for _, r := range text {
		if isTokenRune(r) {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// SearchTokens returns up to limit non-stop-word tokens for catalog
// retrieval, preserving query order.
func SearchTokens(text string, limit int) []string {
	tokens := Tokenize(text)
	out := make([]string, 0, limit)
	for _, tok := range tokens {
		if stopWords[tok] {
			continue
		}
		out = append(out, tok)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func isTokenRune(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	return isArabicRune(r)
}

// isArabicRune covers the base Arabic block plus the Arabic Supplement.
func isArabicRune(r rune) bool {
	if r >= 0x0600 && r <= 0x06FF {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return r >= 0x0750 && r <= 0x077F
}

// stopWords are excluded from retrieval tokens. Generic marketplace words
// like "car" would match almost every row, so they are filtered too.
var stopWords = map[string]bool{
	"the": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true, "under": true,
	"below": true, "above": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"should": true, "could": true, "can": true, "what": true, "which": true,
	"who": true, "where": true, "when": true, "why": true, "how": true,
	"about": true, "tell": true, "me": true, "my": true, "your": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "want": true, "need": true, "looking": true, "show": true,
	"car": true, "cars": true, "vehicle": true, "vehicles": true,
	"سيارة": true, "سيارات": true,
}
