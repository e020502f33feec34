package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a config file from the embedded template and verifies the
// configured credentials against the catalog service.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
		r.writePlain("Set credentials.spotify.access_token, then run 'tarhil setup' again to verify.\n")
		return nil
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	r.config = config

	if config.Credentials.Spotify.AccessToken != "" {
		catalog, err := services.NewSpotifyService(
			config.Credentials.Spotify.AccessToken,
			config.Credentials.Spotify.Market,
			config.Matcher.RequestDelay(),
		)
		if err != nil {
			return fmt.Errorf("failed to configure catalog service: %w", err)
		}
		r.catalog = catalog
	}

	catalog, err := r.requireCatalog()
	if err != nil {
		return err
	}

	user, err := catalog.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	r.writePlain("✓ Authenticated with %s as %s\n", catalog.Name(), user.DisplayName)
	return nil
}
