// Command server runs the SmartSynth backend: an authenticated HTTP API
// that synthesizes placeholder datasets (tabular records, chat transcripts,
// emails), persists them per user, and serves them for download.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	authpkg "github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/config"
	"github.com/sakif/smartsynth/internal/handler"
	"github.com/sakif/smartsynth/internal/repository/sqlite"
	"github.com/sakif/smartsynth/internal/server"
	"github.com/sakif/smartsynth/internal/service"
	"github.com/sakif/smartsynth/internal/storage"
	"github.com/sakif/smartsynth/internal/synth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "smartsynth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tokens, err := authpkg.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return fmt.Errorf("configuring tokens: %w", err)
	}
	passwords := authpkg.NewPasswordService()

	var github *authpkg.GitHubProvider
	if cfg.Auth.GitHubEnabled() {
		github = authpkg.NewGitHubProvider(
			cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret, cfg.Auth.GitHubCallbackURL)
		logger.Info("github oauth enabled")
	}

	writer := storage.NewWriter(cfg.Storage.DataDir)
	tabularGen := synth.NewTabularGenerator(cfg.Generation.MaxSamples)
	chatGen := synth.NewChatGenerator(cfg.Generation.MaxSamples)

	authSvc := service.NewAuthService(db, passwords, tokens, logger)
	generationSvc := service.NewGenerationService(tabularGen, chatGen, writer, db, db, logger)
	fileSvc := service.NewFileService(db, db, logger)

	router := server.NewRouter(server.Deps{
		Auth:       handler.NewAuthHandler(authSvc, github, cfg.Auth.TokenTTL(), logger),
		Generation: handler.NewGenerationHandler(generationSvc, logger),
		Files:      handler.NewFileHandler(fileSvc, logger),
		Tokens:     tokens,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server.Port, router, logger).Run(ctx)
}
