// Package serve exposes the meTasking status surface over HTTP: a small web
// page plus JSON endpoints proxying the upstream server, with the standard
// middleware chain (request IDs, rate limiting, access logs, recovery, CORS).
package serve

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/config"
)

const baseTitle = "meTasking TUI"

// App encapsulates the serve-mode dependencies and HTTP server.
type App struct {
	client  *api.Client
	handler *Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the serve application from the provided configuration.
func New(cfg config.Config, client *api.Client, logger *zap.Logger) *App {
	handler := NewHandler(client, DisplayTitle(cfg.Serve.Title), cfg.Serve.PublicURL)
	router := NewRouter(handler, logger,
		WithLogging(cfg.Serve.EnableRequestLogging),
		WithRateLimit(cfg.Serve.RateLimitRPS, cfg.Serve.RateLimitBurst),
	)

	server := &http.Server{
		Addr:              cfg.Serve.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Serve.ReadHeaderTimeout,
		WriteTimeout:      cfg.Serve.WriteTimeout,
		IdleTimeout:       cfg.Serve.IdleTimeout,
	}

	return &App{
		client:  client,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  server,
	}
}

// DisplayTitle renders the page title, appending the configured suffix when
// one is set.
func DisplayTitle(suffix string) string {
	if suffix == "" {
		return baseTitle
	}
	return baseTitle + " - " + suffix
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("upstream", a.client.BaseURL()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
