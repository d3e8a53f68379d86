package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carsouq/assistant/internal/assistant"
	"github.com/carsouq/assistant/internal/cache"
	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/embedding"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/retrieval"
	"github.com/carsouq/assistant/internal/semindex"
)

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a one-shot question against the local catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			query := strings.Join(args, " ")

			db, err := catalog.Open(cfg.Database.Driver, cfg.DatabaseDSN())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer db.Close()
			store := catalog.NewRepository(db)

			model, err := gateway.NewGoogleClient(gateway.GoogleConfig{
				APIKey:  cfg.Gateway.APIKey,
				Model:   cfg.Gateway.Model,
				BaseURL: cfg.Gateway.BaseURL,
				Timeout: cfg.Gateway.Timeout,
			})
			if err != nil {
				return fmt.Errorf("gateway: %w", err)
			}

			engine := retrieval.NewEngine(store, cache.NewMemoryClient(cfg.Cache.MaxEntries),
				cfg.Cache.TTL, cfg.Retrieval, logger)

			var index retrieval.VectorIndex
			if cfg.SemanticIndex.Path != "" {
				if _, err := os.Stat(cfg.SemanticIndex.Path); err == nil {
					index = semindex.NewIndex(cfg.SemanticIndex.Path)
				}
			}
			var encoder retrieval.Encoder
			if cfg.Embedding.APIKey != "" {
				if embedder, err := embedding.NewClient(embedding.Config{
					APIKey:    cfg.Embedding.APIKey,
					Model:     cfg.Embedding.Model,
					BaseURL:   cfg.Embedding.BaseURL,
					Dimension: cfg.Embedding.Dimension,
					Timeout:   cfg.Embedding.Timeout,
				}); err == nil {
					encoder = embedder
				}
			}
			semantic := retrieval.NewSemanticSearcher(store, index, encoder, logger)

			sessions := conversation.NewMemoryStore(cfg.Conversation.MaxSessionTurns)
			service := assistant.NewService(engine, semantic, sessions, model, cfg, logger)

			sp := newSpinner("Thinking...")
			if !outputJSON {
				sp.Start()
			}
			resp, err := service.Converse(ctx, assistant.ConverseRequest{
				Query:     query,
				SessionID: sessionID,
			})
			if !outputJSON {
				sp.Stop()
			}
			if err != nil {
				printError("%s", gateway.UserMessage(err))
				return err
			}

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(resp)
			}

			printHeading("Assistant")
			fmt.Println(resp.ResponseText)
			fmt.Println()
			printSuccess("intent=%s currency=%s strategy=%s referenced=%v",
				resp.Intent, resp.Currency, resp.Strategy, resp.ReferencedEntryIDs)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id to continue a conversation")
	return cmd
}
