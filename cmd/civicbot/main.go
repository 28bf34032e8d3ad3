// Command civicbot runs the Do'stlik district assistant: the Telegram bot
// and the admin HTTP API share one process, one SQLite database, and one
// lifecycle. Both run under an errgroup and shut down together on SIGINT or
// SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dustlik/civicbot/internal/ai"
	"github.com/dustlik/civicbot/internal/bot"
	"github.com/dustlik/civicbot/internal/config"
	httpapi "github.com/dustlik/civicbot/internal/http"
	"github.com/dustlik/civicbot/internal/observability"
	"github.com/dustlik/civicbot/internal/repo"
	"github.com/dustlik/civicbot/internal/services"
	"github.com/dustlik/civicbot/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// Best effort; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Str("db_path", cfg.DBPath).Msg("database ready")

	convSvc := services.NewConversationService(db)
	knowSvc := services.NewKnowledgeService(db)
	aiClient := ai.New(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	if aiClient.Enabled() {
		log.Info().Str("model", cfg.AI.Model).Msg("ai completions enabled")
	} else {
		log.Info().Msg("ai completions disabled, static fallback in use")
	}

	tg, err := bot.New(cfg.Telegram, convSvc, knowSvc, aiClient, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram setup failed")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tg.Start(gCtx)
		if gCtx.Err() == nil {
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("admin api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(c)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("stopped gracefully")
}

// setupLogging configures the global zerolog logger from config: level,
// timestamp format, and optional pretty console output for development.
func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
