package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vokinneberg/research-assistant/internal/config"
	"github.com/vokinneberg/research-assistant/internal/search"
	"github.com/vokinneberg/research-assistant/internal/session"

	httphandler "github.com/vokinneberg/research-assistant/internal/http"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize backend client; no timeout, requests end with their session or submission
	searchClient := search.NewClient(cfg.APIURL, &http.Client{})
	slog.Info("Initialized search client", "api_url", cfg.APIURL)

	// Initialize session store
	store := session.NewStore(searchClient, cfg.SessionTTL, cfg.SessionSweepInterval)
	if err := store.Start(); err != nil {
		slog.Error("Failed to start session store", "error", err)
		os.Exit(1)
	}
	slog.Info("Initialized session store", "ttl", cfg.SessionTTL, "sweep_interval", cfg.SessionSweepInterval)

	// Initialize HTTP handlers
	handler := httphandler.NewHandlers(httphandler.FromStore(store))

	// Create router
	r := httphandler.NewRouter(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server running", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		store.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
