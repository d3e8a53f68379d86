package nlp

import "strings"

// localeEntry maps a region/city keyword to its region key and currency.
type localeEntry struct {
	keyword  string
	region   string
	currency string
}

// localeTable is scanned in declaration order: the first entry whose
// keyword appears anywhere in the lower-cased query wins. Order is a
// priority contract; reordering changes detection results.
var localeTable = []localeEntry{
	{"dubai", "uae", "AED"},
	{"abu dhabi", "uae", "AED"},
	{"sharjah", "uae", "AED"},
	{"uae", "uae", "AED"},
	{"emirates", "uae", "AED"},
	{"دبي", "uae", "AED"},
	{"أبوظبي", "uae", "AED"},
	{"الإمارات", "uae", "AED"},
	{"riyadh", "ksa", "SAR"},
	{"jeddah", "ksa", "SAR"},
	{"ksa", "ksa", "SAR"},
	{"saudi", "ksa", "SAR"},
	{"الرياض", "ksa", "SAR"},
	{"السعودية", "ksa", "SAR"},
	{"doha", "qatar", "QAR"},
	{"qatar", "qatar", "QAR"},
	{"قطر", "qatar", "QAR"},
	{"kuwait", "kuwait", "KWD"},
	{"الكويت", "kuwait", "KWD"},
	{"manama", "bahrain", "BHD"},
	{"bahrain", "bahrain", "BHD"},
	{"البحرين", "bahrain", "BHD"},
	{"muscat", "oman", "OMR"},
	{"oman", "oman", "OMR"},
	{"عمان", "oman", "OMR"},
	{"cairo", "egypt", "EGP"},
	{"egypt", "egypt", "EGP"},
	{"مصر", "egypt", "EGP"},
}

// DetectLocale scans the query for a known region or city keyword and
// returns the region key and its currency code. When nothing matches, both
// strings are empty and ok is false; callers fall back to a default
// currency.
func DetectLocale(text string) (region, currency string, ok bool) {
	q := strings.ToLower(text)
	for _, e := range localeTable {
		if strings.Contains(q, e.keyword) {
			return e.region, e.currency, true
		}
	}
	return "", "", false
}
