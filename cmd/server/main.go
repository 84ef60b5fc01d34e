// Package main is the entry point for the conversation store server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jdmnt1999/line-claude-viewer/internal/config"
	httpapi "github.com/jdmnt1999/line-claude-viewer/internal/http"
	"github.com/jdmnt1999/line-claude-viewer/internal/llm"
	"github.com/jdmnt1999/line-claude-viewer/internal/logbuf"
	"github.com/jdmnt1999/line-claude-viewer/internal/observability"
	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
	"github.com/jdmnt1999/line-claude-viewer/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	ring := logbuf.New(cfg.LogBufferSize)
	sysutil.InitLogging(cfg.LogLevel, cfg.LogPretty, ring)

	log.Info().Str("version", version).Msg("starting server")

	ctx := context.Background()
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("opentelemetry setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("opentelemetry shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	defer func() {
		if h, err := db.DB(); err == nil {
			_ = h.Close()
		}
	}()

	var client llm.Client = llm.Unconfigured{}
	if cfg.Anthropic.APIKey != "" {
		ac, err := llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("anthropic client setup failed")
		}
		client = ac
		log.Info().Str("provider", ac.Name()).Str("model", cfg.Anthropic.Model).Msg("model provider configured")
	} else {
		log.Warn().Msg("no API key set, chat endpoint will return provider errors")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{DB: db, LLM: client, LogBuf: ring}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
