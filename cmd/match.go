package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sfawaz/tarhil/internal/formatter"
	"github.com/sfawaz/tarhil/internal/matcher"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

// MatchTrack matches one ad-hoc track against the catalog and prints the
// result.
func (r *Runner) MatchTrack(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: track title is required", shared.ErrMissingArgument)
	}
	artists := cmd.StringSlice("artist")

	m, err := r.newMatcher()
	if err != nil {
		return err
	}

	result := m.Match(ctx, models.NewSourceTrack(title, artists))

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("%s\n", formatter.RenderMatch(result))
	if result.BestMatch != nil {
		r.writePlain("  %s - %s (%s)\n", result.BestMatch.PrimaryArtist(), result.BestMatch.Title, result.BestMatch.Album)
		r.writePlain("  %s\n", result.BestMatch.ExternalURL)
		r.writePlain("  strategy: %s\n", result.BestMatch.Strategy)
	}
	return nil
}

// MatchPlaylist matches every track of a harvested playlist file and prints
// one status line per track plus a summary.
func (r *Runner) MatchPlaylist(ctx context.Context, cmd *cli.Command) error {
	file := cmd.StringArg("file")
	if file == "" {
		return fmt.Errorf("%w: playlist file is required", shared.ErrMissingArgument)
	}

	playlists, err := loadPlaylists(file)
	if err != nil {
		return err
	}

	m, err := r.newMatcher()
	if err != nil {
		return err
	}

	var all []models.MatchResult
	for _, p := range playlists {
		r.logger.Info("matching playlist", "name", p.Name, "tracks", len(p.Tracks))

		results, err := m.MatchPlaylist(ctx, p, func(pr matcher.Progress) {
			r.logger.Info("matching progress", "processed", pr.Processed, "total", pr.Total, "found", pr.Found, "confident", pr.Confident)
		})
		if err != nil {
			return fmt.Errorf("matching failed: %w", err)
		}

		if !cmd.Bool("json") {
			for _, res := range results {
				r.writePlain("%s\n", formatter.RenderMatch(res))
			}
		}
		all = append(all, results...)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(all, true); err != nil {
			return err
		}
	}

	if output := cmd.String("output"); output != "" {
		data, err := shared.MarshalJSON(all, true)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write results file: %w", err)
		}
		r.writePlain("Results written to %s\n", output)
	}

	stats := m.Stats()
	r.writePlain("\n%d searched, %d matched, %d confident, %d need review (%d cache hits, %d API calls)\n",
		stats.TotalSearches, stats.SuccessfulMatches, stats.HighConfidenceMatches, stats.TracksRequiringReview, stats.CacheHits, stats.APICalls)
	return nil
}
