package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		query    string
		region   string
		currency string
	}{
		{"best SUV in Dubai", "uae", "AED"},
		{"cars for sale in Abu Dhabi", "uae", "AED"},
		{"Sharjah used cars", "uae", "AED"},
		{"shipping to the Emirates", "uae", "AED"},
		{"سيارات في دبي", "uae", "AED"},
		{"Camry price in Riyadh", "ksa", "SAR"},
		{"Jeddah dealerships", "ksa", "SAR"},
		{"سيارات الرياض", "ksa", "SAR"},
		{"Doha showrooms", "qatar", "QAR"},
		{"buying in Qatar", "qatar", "QAR"},
		{"Kuwait city listings", "kuwait", "KWD"},
		{"Manama market", "bahrain", "BHD"},
		{"Muscat prices", "oman", "OMR"},
		{"cars in Oman", "oman", "OMR"},
		{"Cairo second hand", "egypt", "EGP"},
		{"Egypt import rules", "egypt", "EGP"},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			region, currency, ok := DetectLocale(tc.query)
			assert.True(t, ok)
			assert.Equal(t, tc.region, region)
			assert.Equal(t, tc.currency, currency)
		})
	}
}

func TestDetectLocale_NoMatch(t *testing.T) {
	region, currency, ok := DetectLocale("what is the cheapest hatchback")
	assert.False(t, ok)
	assert.Empty(t, region)
	assert.Empty(t, currency)
}

// When two regions appear, the earlier table entry wins.
func TestDetectLocale_FirstEntryWins(t *testing.T) {
	region, currency, ok := DetectLocale("shipping from Riyadh to Dubai")
	assert.True(t, ok)
	assert.Equal(t, "uae", region)
	assert.Equal(t, "AED", currency)
}

func TestDetectLocale_CaseInsensitive(t *testing.T) {
	_, currency, ok := DetectLocale("DUBAI deals")
	assert.True(t, ok)
	assert.Equal(t, "AED", currency)
}
