package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/sfawaz/tarhil/internal/matcher"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/playlist"
	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, matchCommand, migrateCommand, sessionsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireCatalog returns the configured catalog service or a credentials error.
func (r *Runner) requireCatalog() (services.Catalog, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: set credentials.spotify.access_token in config.toml", shared.ErrMissingCredentials)
	}
	return r.catalog, nil
}

func (r *Runner) newMatcher() (*matcher.Matcher, error) {
	catalog, err := r.requireCatalog()
	if err != nil {
		return nil, err
	}
	return matcher.New(catalog, r.config.Matcher, r.logger), nil
}

func (r *Runner) newCreator() (*playlist.Creator, error) {
	catalog, err := r.requireCatalog()
	if err != nil {
		return nil, err
	}
	return playlist.NewCreator(catalog, r.config.Creator, r.logger), nil
}

// loadPlaylists reads harvested playlist JSON from path. The file may hold a
// single playlist object or an array of playlists.
func loadPlaylists(path string) ([]models.SourcePlaylist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlists file: %w", err)
	}

	var playlists []models.SourcePlaylist
	if err := json.Unmarshal(data, &playlists); err == nil {
		return playlists, nil
	}

	var single models.SourcePlaylist
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid playlist JSON", shared.ErrInvalidInput, path)
	}
	return []models.SourcePlaylist{single}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
