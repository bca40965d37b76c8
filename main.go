package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pocketnote/pkg/cli"
	"pocketnote/pkg/config"
)

func main() {
	// A local .env can override config values; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.LogLevel)

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}

	banner := app.Startup()

	frontend := cli.New(app, os.Stdout)
	if banner != "" {
		frontend.ShowStorageError(banner)
	}

	if err := frontend.Run(); err != nil {
		log.Error().Err(err).Msg("frontend exited with error")
	}

	if err := app.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete")
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
