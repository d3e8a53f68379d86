package prompt

import (
	"fmt"
	"strings"
)

// priceBand describes a market segment in one currency.
type priceBand struct {
	Label       string
	Range       string
	Description string
}

// priceBands holds static regional price guidance per currency. The bands
// are rough market segments, not live data.
var priceBands = map[string][]priceBand{
	"AED": {
		{"Budget", "under 50,000 AED", "older sedans and compact cars"},
		{"Mid-range", "50,000–150,000 AED", "recent sedans, compact SUVs"},
		{"Premium", "150,000–400,000 AED", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 400,000 AED", "sports and ultra-luxury cars"},
	},
	"SAR": {
		{"Budget", "under 50,000 SAR", "older sedans and compact cars"},
		{"Mid-range", "50,000–150,000 SAR", "recent sedans, compact SUVs"},
		{"Premium", "150,000–400,000 SAR", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 400,000 SAR", "sports and ultra-luxury cars"},
	},
	"QAR": {
		{"Budget", "under 45,000 QAR", "older sedans and compact cars"},
		{"Mid-range", "45,000–140,000 QAR", "recent sedans, compact SUVs"},
		{"Premium", "140,000–380,000 QAR", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 380,000 QAR", "sports and ultra-luxury cars"},
	},
	"KWD": {
		{"Budget", "under 4,000 KWD", "older sedans and compact cars"},
		{"Mid-range", "4,000–12,000 KWD", "recent sedans, compact SUVs"},
		{"Premium", "12,000–35,000 KWD", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 35,000 KWD", "sports and ultra-luxury cars"},
	},
	"BHD": {
		{"Budget", "under 5,000 BHD", "older sedans and compact cars"},
		{"Mid-range", "5,000–15,000 BHD", "recent sedans, compact SUVs"},
		{"Premium", "15,000–40,000 BHD", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 40,000 BHD", "sports and ultra-luxury cars"},
	},
	"OMR": {
		{"Budget", "under 5,000 OMR", "older sedans and compact cars"},
		{"Mid-range", "5,000–15,000 OMR", "recent sedans, compact SUVs"},
		{"Premium", "15,000–40,000 OMR", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 40,000 OMR", "sports and ultra-luxury cars"},
	},
	"EGP": {
		{"Budget", "under 800,000 EGP", "older sedans and compact cars"},
		{"Mid-range", "800,000–2,500,000 EGP", "recent sedans, compact SUVs"},
		{"Premium", "2,500,000–7,000,000 EGP", "luxury sedans, full-size SUVs"},
		{"Exotic", "above 7,000,000 EGP", "sports and ultra-luxury cars"},
	},
}

// writePriceGuidance appends the regional price band block. Unknown or
// empty currency falls back to AED bands.
func writePriceGuidance(b *strings.Builder, currency string) {
	bands, ok := priceBands[currency]
	if !ok {
		currency = "AED"
		bands = priceBands["AED"]
	}

	b.WriteString(fmt.Sprintf("Regional price guidance (%s):\n", currency))
	for _, band := range bands {
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", band.Label, band.Range, band.Description))
	}
}
