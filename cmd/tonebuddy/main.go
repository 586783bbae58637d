package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/bot"
	"github.com/xaenox/tonebuddy/internal/metrics"
	"github.com/xaenox/tonebuddy/internal/persona"
	"github.com/xaenox/tonebuddy/internal/server"
	"github.com/xaenox/tonebuddy/internal/storage"
	"github.com/xaenox/tonebuddy/pkg/config"
)

const shutdownTimeout = 10 * time.Second

type closableStorage interface {
	storage.Storage
	Close() error
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, analyses will fail")
	}

	location, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		logger.Fatal("Invalid quota timezone", zap.Error(err), zap.String("timezone", cfg.Quota.Timezone))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, "tonebuddy")

	gpt := analyzer.NewGPTAnalyzer(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		logger,
	)
	picker := persona.NewPicker(time.Now().UnixNano())

	srv := server.New(server.Options{
		Analyzer:       gpt,
		Logger:         logger,
		Metrics:        m,
		Gatherer:       registry,
		DailyAllowance: cfg.Quota.DailyAllowance,
		Location:       location,
		Picker:         picker,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.Token != "" {
		store, err := openStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
		defer store.Close()

		b, err := bot.New(cfg.Telegram.Token, bot.Options{
			Analyzer:       gpt,
			Store:          store,
			Metrics:        m,
			Logger:         logger,
			DailyAllowance: cfg.Quota.DailyAllowance,
			Location:       location,
			Picker:         picker,
			WebAppURL:      cfg.Telegram.WebAppURL,
		})
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		g.Go(func() error {
			return b.Start(ctx)
		})
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, bot disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		return
	}
	logger.Info("Service stopped")
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStorage picks the backend holding per-chat coins
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (closableStorage, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		logger.Info("Using PostgreSQL storage", zap.String("host", cfg.Database.Host))
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
	case config.BackendRedis:
		logger.Info("Using Redis storage")
		return storage.NewRedisStorage(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix)
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}
