// Command server starts the AI mock-interview HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/local"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/redisstore"
	tikaext "github.com/fairyhunter13/ai-interviewer/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interviewer/internal/app"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	// Snapshot store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisstore.New(rdb, cfg.SnapshotKey)
	if err := store.Ping(ctx); err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Question bank: built-in pool, optionally overridden from YAML.
	bank := local.DefaultBank()
	if cfg.QuestionBankFile != "" {
		bank, err = local.LoadBankFile(cfg.QuestionBankFile)
		if err != nil {
			slog.Error("question bank load failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("question bank loaded", slog.String("file", cfg.QuestionBankFile))
	}

	// AI provider: nil chat completer keeps the engine fully offline on the
	// local analyzer and bank.
	var chat domain.ChatCompleter
	if cfg.ProviderEnabled() {
		chat = openrouter.New(cfg)
		slog.Info("ai provider enabled", slog.String("model", cfg.OpenRouterModel))
	} else {
		slog.Info("no ai provider configured; running on local analyzer and question bank")
	}
	evalDelay, summaryDelay := cfg.GetCourtesyDelays()
	provider := ai.NewProvider(chat, bank, ai.WithCourtesyDelays(evalDelay, summaryDelay))

	// Orchestrator
	engine := usecase.NewOrchestrator(store, provider)
	if err := engine.Hydrate(ctx); err != nil {
		slog.Error("state hydration failed", slog.Any("error", err))
		os.Exit(1)
	}

	// External text extractor (Apache Tika)
	ext := tikaext.New(cfg.TikaURL)

	srv := httpserver.NewServer(cfg, engine, ext, store.Ping)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
