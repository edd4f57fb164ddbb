package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/eras-engine/internal/api"
	"github.com/snarg/eras-engine/internal/config"
	"github.com/snarg/eras-engine/internal/llm"
	"github.com/snarg/eras-engine/internal/pipeline"
	"github.com/snarg/eras-engine/internal/session"
)

// version, commit, and buildTime are injected at build time via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var overrides config.Overrides
	var showVersion bool
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s (commit=%s, built=%s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", buildTime).
		Str("log_level", level.String()).
		Msg("eras-engine starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.SessionTTL, log)
	go store.Run()
	defer store.Stop()

	var provider llm.Provider
	switch cfg.LLMProvider {
	case "openai":
		provider = llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		log.Info().Str("model", cfg.LLMModel).Msg("openai naming provider configured")
	case "anthropic":
		provider = llm.NewAnthropicProvider(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		log.Info().Str("model", cfg.LLMModel).Msg("anthropic naming provider configured")
	case "":
		log.Warn().Msg("LLM_PROVIDER not set — eras will be named by the deterministic fallback")
	default:
		log.Fatal().Str("provider", cfg.LLMProvider).Msg("unknown LLM_PROVIDER (valid: openai, anthropic, empty)")
	}

	namer := llm.NewClient(provider, llm.ChatOpts{
		Model:       cfg.LLMModel,
		Temperature: 0.7,
		MaxTokens:   200,
		Timeout:     cfg.LLMTimeout.Seconds(),
	}, log)

	segOpts := pipeline.SegmentOptions{
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinWeeks:            cfg.MinEraWeeks,
		MinMs:               cfg.MinEraMs,
	}
	driver := pipeline.NewDriver(store, namer, segOpts, log)

	srv := api.NewServer(store, driver, cfg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Info().
		Str("listen", cfg.HTTPAddr).
		Str("version", version).
		Dur("startup_ms", time.Since(startTime)).
		Msg("eras-engine ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("eras-engine stopped")
}
