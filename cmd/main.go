package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Justparthi/meeting-backend/config"
	"github.com/Justparthi/meeting-backend/internal/postgres"
	"github.com/Justparthi/meeting-backend/internal/service"
	"github.com/Justparthi/meeting-backend/internal/store"
	httpx "github.com/Justparthi/meeting-backend/internal/transport/http"
	"github.com/Justparthi/meeting-backend/internal/transport/ws"
	"github.com/Justparthi/meeting-backend/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting meeting-backend",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- stores ---
	// Авторитетный store опционален: без него (или при его падении)
	// сервис живёт на волатильном fallback.
	ctx := context.Background()
	var primary store.MeetingStore
	if cfg.Postgres.DSN != "" {
		db, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			slog.Warn("postgres unavailable, running on fallback store only", "err", err)
		} else {
			defer db.Close()
			primary = postgres.NewMeetingRepository(db.Pool)
		}
	} else {
		slog.Warn("postgres.dsn is not set, running on fallback store only")
	}
	fallback := store.NewMemoryStore()

	// --- services ---
	meetingSvc := service.NewMeetingService(primary, fallback, cfg.PrimaryTimeout())
	summarizer := service.NewSummarizer(cfg.AI.Provider, cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AITimeout())

	// --- WS registry & server ---
	registry := ws.NewRegistry()
	wsServer := ws.NewServer(registry, cfg.PingEvery(), cfg.WS.ReadLimit)

	// --- HTTP ---
	handler := httpx.NewHandler(meetingSvc, summarizer)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
