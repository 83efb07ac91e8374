package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/text-rpg/internal/config"
	"github.com/jwebster45206/text-rpg/internal/handlers"
	"github.com/jwebster45206/text-rpg/internal/logger"
	"github.com/jwebster45206/text-rpg/internal/middleware"
	"github.com/jwebster45206/text-rpg/internal/sessions"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting text RPG API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"save_backend", cfg.SaveBackend)

	// Redis and the model can take a while to come up in containers.
	setupCtx, setupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	manager, cleanup, err := sessions.Setup(setupCtx, cfg, log)
	setupCancel()
	if err != nil {
		log.Error("Failed to initialize game services", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(manager, log))

	streamHandler := handlers.NewStreamHandler(manager, log)
	sessionsHandler := handlers.NewSessionsHandler(manager, streamHandler, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	savesHandler := handlers.NewSavesHandler(manager.Store(), log)
	mux.Handle("/v1/saves", savesHandler)
	mux.Handle("/v1/saves/", savesHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(manager, log))

	handler := middleware.CORS(middleware.LoggerWith(log, mux))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE and websocket streams manage their own deadlines.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SessionIdleTimeout > 0 {
		go pruneSessions(ctx, manager, cfg.SessionIdleTimeout, log)
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}

// pruneSessions drops idle sessions until ctx is done.
func pruneSessions(ctx context.Context, manager *sessions.Manager, maxIdle time.Duration, log *slog.Logger) {
	interval := min(maxIdle/4, 10*time.Minute)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.Prune(maxIdle); n > 0 {
				log.Info("Pruned idle sessions", "count", n, "remaining", manager.Len())
			}
		}
	}
}
