package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/seohyun-lab/maum-counsel/backend/internal/config"
	"github.com/seohyun-lab/maum-counsel/backend/internal/handler"
	"github.com/seohyun-lab/maum-counsel/backend/internal/persona"
	"github.com/seohyun-lab/maum-counsel/backend/internal/service/ai"
	"github.com/seohyun-lab/maum-counsel/backend/internal/service/chat"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Credential gate: without a usable API key nothing else may start.
	// When stdin is a terminal the key can be entered once, echo off;
	// otherwise the process exits.
	if !cfg.AI.Enabled() {
		key, err := promptAPIKey()
		if err != nil {
			log.Fatal().Err(err).Msg("ark credential missing: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and CHAT_MODELS")
		}
		cfg.AI.APIKey = key
		if !cfg.AI.Enabled() {
			log.Fatal().Msg("ark credential missing: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and CHAT_MODELS")
		}
	}

	counselor := persona.Default()

	aiService, err := ai.NewFromConfig(ctx, cfg.AI, counselor.SystemPrompt,
		ai.WithOnRetry(func(attempt int, err error) {
			log.Warn().Err(err).Msgf("API 호출 제한 발생. %d회차 재시도 중...", attempt+1)
		}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat model client")
	}
	log.Info().Strs("models", cfg.AI.Models).Str("default", cfg.AI.DefaultModel()).Msg("AI service initialized")

	chatService := chat.NewService(cfg.AI.Models)

	router := handler.NewRouter(chatService, aiService, counselor)

	if err := serve(ctx, cfg.Server, router); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// promptAPIKey reads the key from the terminal with echo disabled.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "ARK API Key: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", errors.New("no API key entered")
	}
	return key, nil
}

// serve runs the HTTP server until ctx is canceled, then drains in-flight
// requests within the configured shutdown timeout.
func serve(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", serverCfg.Addr).Msg("counseling backend listening")

	var err error
	select {
	case <-ctx.Done():
		log.Info().Dur("timeout", serverCfg.ShutdownTimeout).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("shutdown did not drain cleanly")
		}
		err = <-errCh
	case err = <-errCh:
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
