package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/embedding"
	"github.com/carsouq/assistant/internal/semindex"
)

// newIndexCmd creates the index subcommand group.
func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the semantic index artifact",
	}
	cmd.AddCommand(newIndexBuildCmd())
	cmd.AddCommand(newIndexStatCmd())
	return cmd
}

// newIndexBuildCmd creates the index build subcommand.
func newIndexBuildCmd() *cobra.Command {
	var (
		output string
		mock   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed every catalog entry and write the semantic index artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			if output == "" {
				output = cfg.SemanticIndex.Path
			}
			if output == "" {
				return fmt.Errorf("no output path: set --output or semantic_index.path")
			}

			db, err := catalog.Open(cfg.Database.Driver, cfg.DatabaseDSN())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer db.Close()
			store := catalog.NewRepository(db)

			total, err := store.Count(ctx)
			if err != nil {
				return fmt.Errorf("count catalog entries: %w", err)
			}
			entries, err := store.Recent(ctx, int(total))
			if err != nil {
				return fmt.Errorf("load catalog entries: %w", err)
			}

			var embedder embedding.Embedder
			if mock {
				embedder = embedding.NewMockClient(cfg.Embedding.Dimension)
			} else {
				embedder, err = embedding.NewClient(embedding.Config{
					APIKey:    cfg.Embedding.APIKey,
					Model:     cfg.Embedding.Model,
					BaseURL:   cfg.Embedding.BaseURL,
					Dimension: cfg.Embedding.Dimension,
					Timeout:   cfg.Embedding.Timeout,
				})
				if err != nil {
					return fmt.Errorf("embedding client: %w", err)
				}
			}

			builder := semindex.NewBuilder(embedder, embedder.Model(), embedder.Dimension(), cfg.Embedding.BatchSize)
			if !outputJSON {
				bar := newProgressBar(int64(len(entries)), "Embedding catalog")
				builder.Progress = func(done, total int) {
					_ = bar.Set(done)
				}
			}

			if err := builder.Build(ctx, entries, output); err != nil {
				printError("index build failed: %v", err)
				return err
			}

			printSuccess("wrote %d entries to %s", len(entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "artifact output path (default: semantic_index.path)")
	cmd.Flags().BoolVar(&mock, "mock", false, "use the deterministic mock embedder (no API calls)")
	return cmd
}

// newIndexStatCmd creates the index stat subcommand.
func newIndexStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show the semantic index artifact metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.SemanticIndex.Path == "" {
				return fmt.Errorf("semantic_index.path is not configured")
			}

			model, dimension, size, err := semindex.NewIndex(cfg.SemanticIndex.Path).Stat()
			if err != nil {
				return err
			}

			fmt.Printf("path:      %s\n", cfg.SemanticIndex.Path)
			fmt.Printf("model:     %s\n", model)
			fmt.Printf("dimension: %d\n", dimension)
			fmt.Printf("entries:   %d\n", size)
			return nil
		},
	}
}
