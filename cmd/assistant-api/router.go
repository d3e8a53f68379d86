// Package main provides the API router setup.
package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/carsouq/assistant/cmd/assistant-api/handlers"
	"github.com/carsouq/assistant/cmd/assistant-api/middleware"
	"github.com/carsouq/assistant/internal/assistant"
	"github.com/carsouq/assistant/internal/cache"
	"github.com/carsouq/assistant/internal/catalog"
	"github.com/carsouq/assistant/internal/config"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/embedding"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/observability"
	"github.com/carsouq/assistant/internal/retrieval"
	"github.com/carsouq/assistant/internal/semindex"
)

// NewRouter wires every service and returns the HTTP handler plus a cleanup
// function for the resources it opened.
func NewRouter(logger *observability.Logger, cfg *config.Config) (http.Handler, func(), error) {
	db, err := catalog.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	store := catalog.NewRepository(db)

	cacheClient := newCacheClient(cfg, logger)

	sessions, err := newSessionStore(cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("session store: %w", err)
	}

	model, err := gateway.NewGoogleClient(gateway.GoogleConfig{
		APIKey:  cfg.Gateway.APIKey,
		Model:   cfg.Gateway.Model,
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("gateway: %w", err)
	}

	engine := retrieval.NewEngine(store, cacheClient, cfg.Cache.TTL, cfg.Retrieval, logger)

	// The vector tier is optional: without an index artifact or an
	// embedding key the semantic searcher falls straight to keywords.
	var index retrieval.VectorIndex
	if cfg.SemanticIndex.Path != "" {
		index = semindex.NewIndex(cfg.SemanticIndex.Path)
	}
	var encoder retrieval.Encoder
	if cfg.Embedding.APIKey != "" {
		embedder, err := embedding.NewClient(embedding.Config{
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			BaseURL:   cfg.Embedding.BaseURL,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("embedding client unavailable, vector tier disabled")
		} else {
			encoder = embedder
		}
	}
	semantic := retrieval.NewSemanticSearcher(store, index, encoder, logger)

	service := assistant.NewService(engine, semantic, sessions, model, cfg, logger)
	converseHandler := handlers.NewConverseHandler(logger, service, cfg.Gateway.MaxImageBytes)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"assistant-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/converse", converseHandler.Converse)
	})

	cleanup := func() {
		if err := cacheClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("cache close failed")
		}
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("database close failed")
		}
	}

	return r, cleanup, nil
}

// newCacheClient prefers Redis when configured, falling back to the
// in-process cache so a cache outage never blocks startup.
func newCacheClient(cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err == nil {
			return client
		}
		logger.Warn().Err(err).Msg("redis cache unavailable, using memory cache")
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries)
}

func newSessionStore(cfg *config.Config) (conversation.Store, error) {
	if cfg.Conversation.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		return conversation.NewRedisStore(client, cfg.Conversation.MaxSessionTurns)
	}
	return conversation.NewMemoryStore(cfg.Conversation.MaxSessionTurns), nil
}
