// Package server provides the public entry point for initializing the
// ShopShot production backend.
//
// It lives in pkg/ (not internal/) so embedding deployments can import
// it and compose the handler with their own outer middleware.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shopshot/shopshot/internal/api"
	"github.com/shopshot/shopshot/internal/api/handlers"
	"github.com/shopshot/shopshot/internal/capability"
	"github.com/shopshot/shopshot/internal/catalog"
	"github.com/shopshot/shopshot/internal/config"
	"github.com/shopshot/shopshot/internal/export"
	"github.com/shopshot/shopshot/internal/ledger"
	"github.com/shopshot/shopshot/internal/orchestrator"
	"github.com/shopshot/shopshot/internal/store"
	"github.com/shopshot/shopshot/internal/telemetry"
	"github.com/shopshot/shopshot/pkg/models"
)

// Server holds the initialized ShopShot backend.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the in-memory working state, exposed for embedding
	// deployments and tests.
	Store store.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration and
// returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the backend with an explicit configuration.
func NewWithConfig(_ context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore := store.NewMemoryStore()
	log.Info().Msg("✅ In-memory store initialized")

	client := capability.NewGeminiClient(
		func() string { return cfg.Gemini.APIKey },
		capability.WithModels(cfg.Gemini.AnalysisModel, cfg.Gemini.ImageModel),
		capability.WithVideoModel(cfg.Gemini.VideoModel),
	)
	log.Info().Msg("✅ Gemini capability client initialized")

	cat := catalog.New()
	tokens := ledger.New(cfg.Tokens.InitialBalance)
	orch := orchestrator.New(dataStore, tokens, client, cat, nil)
	packager := export.New()
	log.Info().Int("balance", tokens.Balance()).Msg("✅ Production orchestrator initialized")

	h := handlers.New(dataStore, orch, tokens, cat, packager, models.PlanID(cfg.Tokens.Plan))
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
