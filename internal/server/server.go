// Package server assembles the HTTP routes and runs the server.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/opsdesk/internal/activity"
	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/handler"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Feed     *activity.Feed
	Recorder *audit.Recorder
	Logger   *zap.Logger
}

// Run starts the HTTP server with all routes registered and shuts it down
// when the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	r := chi.NewRouter()
	r.Use(handler.Recovery(cfg.Logger))
	r.Use(handler.Logging(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	ah := handler.NewActivityHandler(cfg.Feed, cfg.Logger)
	r.Get("/v1/tenants/{tenant_id}/activity", ah.HandleTenantActivity)
	r.Get("/v1/tenants/{tenant_id}/activity/{entity_type}/{entity_id}", ah.HandleEntityActivity)

	ih := handler.NewIngestHandler(cfg.Recorder, cfg.Logger)
	r.Post("/v1/tenants/{tenant_id}/audit-events", ih.HandleRecord)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	cfg.Logger.Info("starting server", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
