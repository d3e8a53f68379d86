package nlp

import "strings"

// Intent classifies what the user is trying to do with a query.
type Intent string

const (
	IntentBuying         Intent = "buying"
	IntentComparing      Intent = "comparing"
	IntentNegotiating    Intent = "negotiating"
	IntentPriceInquiry   Intent = "price_inquiry"
	IntentFeatureInquiry Intent = "feature_inquiry"
	IntentRecommendation Intent = "recommendation"
	IntentGeneral        Intent = "general"
)

// intentFamily groups the keywords that signal one intent.
type intentFamily struct {
	intent   Intent
	keywords []string
}

// intentFamilies is checked in declaration order; the first family with any
// keyword present as a substring of the lower-cased query wins. The order
// is a tie-break contract: a query containing both a buying and a price
// keyword classifies as buying. "best price" sits in the negotiating
// family so that it outranks plain price inquiries.
var intentFamilies = []intentFamily{
	{IntentBuying, []string{
		"buy", "purchase", "want to get", "shopping for", "in the market for",
		"take it", "i'll take", "شراء", "اشتري",
	}},
	{IntentComparing, []string{
		"compare", "comparison", " vs ", " vs.", "versus", "difference between",
		"which is better", "مقارنة",
	}},
	{IntentNegotiating, []string{
		"negotiate", "best price", "final price", "discount", "deal",
		"offer", "bargain", "lower the price", "last price", "تفاوض", "خصم",
	}},
	{IntentPriceInquiry, []string{
		"price", "cost", "how much", "expensive", "cheap", "afford",
		"budget", "سعر", "كم",
	}},
	{IntentFeatureInquiry, []string{
		"feature", "spec", "horsepower", "engine", "fuel", "mileage",
		"safety", "interior", "transmission", "seats", "color", "colour",
		"مواصفات", "محرك",
	}},
	{IntentRecommendation, []string{
		"recommend", "suggest", "best car", "which car", "good car",
		"advice", "help me choose", "what should i", "انصح", "اقترح",
	}},
}

// ClassifyIntent maps a query to exactly one intent from the closed set.
// Queries matching no family are classified as general.
func ClassifyIntent(text string) Intent {
	q := strings.ToLower(text)
	for _, fam := range intentFamilies {
		for _, kw := range fam.keywords {
			if strings.Contains(q, kw) {
				return fam.intent
			}
		}
	}
	return IntentGeneral
}
