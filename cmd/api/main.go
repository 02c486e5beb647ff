package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cuido-app/care-assistant/internal/api/router"
	"github.com/cuido-app/care-assistant/internal/assistant"
	appconfig "github.com/cuido-app/care-assistant/internal/config"
	appmetrics "github.com/cuido-app/care-assistant/internal/observability/metrics"
	"github.com/cuido-app/care-assistant/internal/ocr"
	"github.com/cuido-app/care-assistant/internal/records"
	"github.com/cuido-app/care-assistant/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting care-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}
	cancelPing()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	assistantMetrics := appmetrics.NewAssistantMetrics(registry)

	primary, err := assistant.NewOpenAIClient(assistant.OpenAIConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})
	if err != nil {
		logger.Error("failed to configure LLM client", "error", err)
		os.Exit(1)
	}
	var llm assistant.LLMClient = primary
	if cfg.LLMFallbackBaseURL != "" {
		fallback, err := assistant.NewOpenAIClient(assistant.OpenAIConfig{
			BaseURL: cfg.LLMFallbackBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		})
		if err != nil {
			logger.Error("failed to configure fallback LLM client", "error", err)
			os.Exit(1)
		}
		llm = assistant.NewFallbackLLMClient(primary, fallback, logger.Logger)
	}

	ocrClient, err := ocr.NewClient(ocr.Config{
		BaseURL:  cfg.OCRBaseURL,
		Language: cfg.OCRLanguage,
		Timeout:  cfg.OCRTimeout,
	})
	if err != nil {
		logger.Error("failed to configure OCR client", "error", err)
		os.Exit(1)
	}

	recordsStore := records.NewStore(db)
	turnStore := assistant.NewTurnStore(db)
	historyCache := assistant.NewHistoryCache(redisClient, cfg.HistoryCacheTTL)

	svc := assistant.NewService(recordsStore, turnStore, llm, logger, assistant.Options{
		Model:                 cfg.LLMModel,
		Temperature:           float32(cfg.LLMTemperature),
		MaxTokens:             cfg.LLMMaxTokens,
		PromptBudget:          cfg.PromptBudget(),
		HistoryLimit:          cfg.MaxConversationHistory,
		ExtractionConcurrency: cfg.ExtractionConcurrency,
	}).
		WithCache(historyCache).
		WithExtractor(ocrClient).
		WithMetrics(assistantMetrics)

	handler := assistant.NewHandler(svc, logger)

	r := router.New(&router.Config{
		Logger:           logger,
		AssistantHandler: handler,
		JWTSecret:        cfg.JWTSecret,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSOrigins:      cfg.CORSAllowedOrigins,
		RateLimit:        cfg.ChatRateLimit,
		RateLimitBurst:   cfg.ChatRateLimitBurst,
		DB:               db,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// generous write timeout: a turn can wait on OCR plus the LLM
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
