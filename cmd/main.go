package main

import (
	"context"
	"os"

	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var catalog services.Catalog
	if config.Credentials.Spotify.AccessToken != "" {
		if svc, err := services.NewSpotifyService(
			config.Credentials.Spotify.AccessToken,
			config.Credentials.Spotify.Market,
			config.Matcher.RequestDelay(),
		); err == nil {
			catalog = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "tarhil",
		Usage:    "Migrate Anghami playlists to Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
