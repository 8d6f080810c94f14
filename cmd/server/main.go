package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourname/macrotracker/internal"
	api "github.com/yourname/macrotracker/internal/api"
	"github.com/yourname/macrotracker/internal/auth"
	"github.com/yourname/macrotracker/internal/config"
	"github.com/yourname/macrotracker/internal/llm"
	"github.com/yourname/macrotracker/internal/service"
	"github.com/yourname/macrotracker/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSessionRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init %s storage: %v", cfg.StorageBackend, err)
	}
	go storage.RunJanitor(ctx, repo, cfg.PurgeInterval, logger)

	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY is not set; food submissions will fail")
	}
	estimator, err := llm.New(llm.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		Timeout:  cfg.LLMTimeout,
	}, logger)
	if err != nil {
		logger.Fatalf("failed to init llm client: %v", err)
	}

	tracker := service.NewTracker(repo, estimator, service.TrackerOptions{
		Goals:      cfg.Goals,
		TokenLimit: cfg.TokenLimit,
		Parse:      service.ParseOptions{StrictLabels: cfg.StrictReplyLabels},
	}, logger)

	app := api.NewApp(logger, tracker, api.NewHub(logger))
	provider := auth.NewJWTProvider(cfg.SessionSecret, cfg.SessionTTL, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app, provider, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on :%s (storage=%s, llm=%s)", cfg.Port, cfg.StorageBackend, cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Errorf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	if err := repo.Close(); err != nil {
		logger.Errorf("failed to close storage: %v", err)
		os.Exit(1)
	}
}
