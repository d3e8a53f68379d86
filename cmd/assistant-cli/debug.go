package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carsouq/assistant/internal/nlp"
)

// newIntentCmd creates the intent debug subcommand.
func newIntentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent [query]",
		Short: "Classify a query's intent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			intent := nlp.ClassifyIntent(query)
			tokens := nlp.SearchTokens(query, cfg.Retrieval.MaxQueryTokens)

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"query":  query,
					"intent": intent,
					"tokens": tokens,
				})
			}

			fmt.Printf("intent: %s\n", intent)
			fmt.Printf("tokens: %v\n", tokens)
			if year, ok := nlp.ExtractYear(query); ok {
				fmt.Printf("year:   %d\n", year)
			}
			if ceiling, ok := nlp.ExtractPriceCeiling(query); ok {
				fmt.Printf("price:  <= %.0f\n", ceiling)
			}
			return nil
		},
	}
}

// newLocaleCmd creates the locale debug subcommand.
func newLocaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locale [query]",
		Short: "Detect a query's region and currency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			region, currency, ok := nlp.DetectLocale(query)
			if !ok {
				region, currency = "unknown", "AED"
			}

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"query":    query,
					"region":   region,
					"currency": currency,
					"detected": ok,
				})
			}

			fmt.Printf("region:   %s\n", region)
			fmt.Printf("currency: %s\n", currency)
			return nil
		},
	}
}
