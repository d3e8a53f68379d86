package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// A number followed by a thousand/million qualifier: "80k", "1.2 million",
	// "٨٠ ألف" (after digit normalization the Arabic qualifier still matches).
	qualifiedPriceRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(k|thousand|m|million|ألف|الف|مليون)`)

	// Bare figures of at least four digits, with or without thousands
	// separators: "85000", "85,000", "5000". Values inside the plausible
	// model-year range are left to ExtractYear.
	groupedPriceRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+`)
	barePriceRe    = regexp.MustCompile(`\d{4,9}`)

	// A year must stand alone: digits on either side mean the match is the
	// inside of a larger number, like the leading "2000" of "200000".
	yearRe = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
)

// ExtractPriceCeiling scans the query for a price ceiling: a number followed
// by a thousand/million qualifier, or a bare figure of at least 1000 that
// does not read as a model year. Returns false when no ceiling is present.
func ExtractPriceCeiling(text string) (float64, bool) {
	normalized := normalizeDigits(text)

	if m := qualifiedPriceRe.FindStringSubmatch(normalized); m != nil {
		base, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil {
			switch strings.ToLower(m[2]) {
			case "k", "thousand", "ألف", "الف":
				return base * 1_000, true
			default:
				return base * 1_000_000, true
			}
		}
	}

	if m := groupedPriceRe.FindString(normalized); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil && v >= 1_000 {
			return v, true
		}
	}

	for _, m := range barePriceRe.FindAllString(normalized, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < 1_000 {
			continue
		}
		// "Camry 2022" is a model year, not a 2,022 ceiling.
		if len(m) == 4 && isPlausibleYear(int(v)) {
			continue
		}
		return v, true
	}

	return 0, false
}

// ExtractYear returns the first standalone four-digit number that is a
// plausible model year. The accepted range is 1950-2035: the catalog carries
// classics but nothing older, and listings are created at most a model-year
// ahead.
func ExtractYear(text string) (int, bool) {
	for _, m := range yearRe.FindAllStringSubmatch(normalizeDigits(text), -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if isPlausibleYear(y) {
			return y, true
		}
	}
	return 0, false
}

func isPlausibleYear(y int) bool {
	return y >= 1950 && y <= 2035
}

// normalizeDigits maps Arabic-Indic digits to ASCII so the numeric regexes
// see one digit alphabet.
func normalizeDigits(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩': // U+0660..U+0669
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹': // U+06F0..U+06F9
			return '0' + (r - '۰')
		}
		return r
	}, text)
}
