// Package catalog provides the vehicle catalog data model and its
// relational store. Catalog entries are created by the listing-management
// side of the marketplace; this package only reads them.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry is one vehicle listing record. Immutable once stored from the
// retrieval pipeline's perspective.
type Entry struct {
	ID          int64
	Make        string
	Model       string
	Year        int
	Price       *float64 // nil when the seller did not publish a price
	Currency    string
	Rating      float64 // 0.0-5.0; 0 means unrated
	ReviewCount int
	Specs       Specs
	Provenance  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Specs is the semantically-typed view of the free-form listing blobs.
// Recognized keys are lifted into fields; everything else lands in Extra so
// no seller-provided data is dropped.
type Specs struct {
	BodyStyle    string
	Horsepower   string
	Engine       string
	FuelEconomy  string
	Transmission string
	Seats        string
	Extra        map[string]string
}

// IsZero reports whether no spec information is present at all.
func (s Specs) IsZero() bool {
	return s.BodyStyle == "" && s.Horsepower == "" && s.Engine == "" &&
		s.FuelEconomy == "" && s.Transmission == "" && s.Seats == "" &&
		len(s.Extra) == 0
}

// ParseSpecs merges one or more JSON-encoded blobs (the specs, engines and
// statistics columns) into a Specs record. Blobs are opaque seller data:
// unparseable input is skipped, never an error.
func ParseSpecs(blobs ...string) Specs {
	out := Specs{}
	for _, blob := range blobs {
		blob = strings.TrimSpace(blob)
		if blob == "" {
			continue
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(blob), &raw); err != nil {
			continue
		}

		for key, val := range raw {
			text := coerceString(val)
			if text == "" {
				continue
			}
			switch normalizeSpecKey(key) {
			case "bodystyle", "body", "bodytype":
				out.BodyStyle = text
			case "horsepower", "hp", "power":
				out.Horsepower = text
			case "engine", "enginedescription":
				out.Engine = text
			case "fueleconomy", "fuel", "fuelconsumption", "mileage":
				out.FuelEconomy = text
			case "transmission", "gearbox":
				out.Transmission = text
			case "seats", "seating":
				out.Seats = text
			default:
				if out.Extra == nil {
					out.Extra = make(map[string]string)
				}
				out.Extra[key] = text
			}
		}
	}
	return out
}

// normalizeSpecKey lowers a blob key and strips separators so that
// "body_style", "bodyStyle" and "Body Style" all collapse to "bodystyle".
func normalizeSpecKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

// coerceString renders a JSON scalar (string, number, bool) as text.
// Arrays and objects are rendered as their compact JSON form.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%g", f)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprintf("%t", b)
	}
	return strings.TrimSpace(string(raw))
}

// SearchText returns the lower-cased concatenation of every text field of
// the entry. Used by the keyword fallback tier to compute token hit ratios.
func (e Entry) SearchText() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(e.Make))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(e.Model))
	for _, part := range []string{
		e.Specs.BodyStyle, e.Specs.Horsepower, e.Specs.Engine,
		e.Specs.FuelEconomy, e.Specs.Transmission, e.Specs.Seats,
	} {
		if part != "" {
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(part))
		}
	}
	for key, val := range e.Specs.Extra {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(key))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(val))
	}
	return b.String()
}

// DisplayName renders "Make Model" for reference matching and logs.
func (e Entry) DisplayName() string {
	return strings.TrimSpace(e.Make + " " + e.Model)
}
