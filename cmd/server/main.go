package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/callsight/insights/internal/api"
	"github.com/callsight/insights/internal/auth"
	"github.com/callsight/insights/internal/chat"
	"github.com/callsight/insights/internal/config"
	"github.com/callsight/insights/internal/feed"
	"github.com/callsight/insights/internal/governor"
	"github.com/callsight/insights/internal/llm"
	"github.com/callsight/insights/internal/metrics"
	"github.com/callsight/insights/internal/prompt"
	"github.com/callsight/insights/internal/records"
	"github.com/callsight/insights/internal/storage"
	"github.com/callsight/insights/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting callsight insights server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up the record store
	store, err := buildStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record store")
	}
	fetcher := records.NewFetcher(store, log.Logger)

	// Exact token counts for response metadata; the pipeline itself
	// works on estimates, so a missing encoding is not fatal.
	counter, err := prompt.NewCounter(cfg.LLMModelLarge)
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, metadata will omit exact counts")
	}

	completer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout, cfg.LLMConcurrency, llm.RetryConfig{
		MaxAttempts: cfg.LLMMaxAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}, log.Logger)

	chatService := chat.NewService(fetcher, completer, counter, chat.Options{
		ModelSmall:       cfg.LLMModelSmall,
		ModelLarge:       cfg.LLMModelLarge,
		TokenBudget:      cfg.TokenBudget,
		HardTokenCeiling: cfg.HardTokenCeiling,
		CacheTTL:         cfg.CacheTTL,
	}, log.Logger)

	gov := governor.New(cfg.RateLimitMax, cfg.RateLimitWindow, cfg.QueueLimit, cfg.QueueDrainDelay, log.Logger)

	chatHandler := api.NewChatHandler(chatService, gov, log.Logger)
	callsHandler := api.NewCallsHandler(fetcher, log.Logger)

	// Live summary feed
	hub := feed.NewHub(log.Logger)
	go hub.Run()

	broadcaster := feed.NewBroadcaster(hub, fetcher, cfg.FeedInterval, log.Logger)
	go broadcaster.Start(ctx)

	feedHandler := feed.NewHandler(hub, cfg, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.With(middleware.Metrics("chat")).Post("/api/chat", chatHandler.HandleChat)
		r.With(middleware.Metrics("qa_review"), auth.RequireRole("supervisor", "admin")).Post("/api/qa/review", chatHandler.HandleQAReview)
		r.With(middleware.Metrics("calls")).Get("/api/calls", callsHandler.ListCalls)
		r.Get("/ws/summary", feedHandler.ServeHTTP)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute, // chat requests wait on queue drain plus LLM latency
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the feed broadcaster
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildStore selects the record store backend from STORE_MODE.
func buildStore(ctx context.Context, logger zerolog.Logger) (storage.Store, error) {
	storeCfg := storage.LoadDynamoConfig()
	if storeCfg.Mode == storage.ModeMemory {
		logger.Info().Msg("using in-memory record store")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewDynamoDBStore(ctx, storeCfg, logger)
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"callsight-insights"}`)
}
