// package playlist implements target playlist creation from match results.
//
// Creation is deliberately tolerant of partial failure: a failed batch of
// track additions or a broken cover image never aborts the playlist, and a
// failed playlist never aborts a multi-playlist migration. Only the playlist
// shell creation itself is fatal for its playlist.
package playlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
)

// PlaylistWithMatches pairs a source playlist with its match results for
// batch migration.
type PlaylistWithMatches struct {
	Playlist models.SourcePlaylist
	Matches  []models.MatchResult
}

// Creator builds target playlists out of match results.
type Creator struct {
	catalog services.Catalog
	logger  *log.Logger
	cfg     shared.CreatorConfig
	cover   *coverArtProcessor
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// NewCreator creates a Creator. Zero-valued config fields fall back to
// defaults.
func NewCreator(catalog services.Catalog, cfg shared.CreatorConfig, logger *log.Logger) *Creator {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		cfg.BatchSize = 100
	}
	if cfg.CoverArtMaxBytes <= 0 {
		cfg.CoverArtMaxBytes = 256000
	}
	if cfg.CoverArtMaxPixels <= 0 {
		cfg.CoverArtMaxPixels = 300
	}
	if cfg.PlaylistPauseMS <= 0 {
		cfg.PlaylistPauseMS = 1000
	}
	if cfg.DownloadTimeoutSec <= 0 {
		cfg.DownloadTimeoutSec = 30
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Creator{
		catalog: catalog,
		logger:  logger.With("component", "creator"),
		cfg:     cfg,
		cover:   newCoverArtProcessor(cfg.CoverArtMaxBytes, cfg.CoverArtMaxPixels, time.Duration(cfg.DownloadTimeoutSec)*time.Second),
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CreateFromMatches creates one target playlist and populates it with the
// confident matches. Review-pending tracks are recorded but never added
// unless skipReview is set.
func (c *Creator) CreateFromMatches(ctx context.Context, source models.SourcePlaylist, matches []models.MatchResult, skipReview bool) models.PlaylistCreationResult {
	start := c.now()
	result := models.PlaylistCreationResult{SourcePlaylist: source}

	c.logger.Info("creating playlist", "name", source.Name, "tracks", source.Count())

	user, err := c.catalog.CurrentUser(ctx)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to resolve current user: %v", err)
		result.CreationTimeMS = time.Since(start).Milliseconds()
		return result
	}

	created, err := c.catalog.CreatePlaylist(ctx, user.ID, source.Name, c.description(source), source.Public)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to create playlist: %v", err)
		result.CreationTimeMS = time.Since(start).Milliseconds()
		return result
	}

	result.PlaylistID = created.ID
	result.PlaylistURL = created.ExternalURLs.Spotify
	c.logger.Info("playlist created", "id", created.ID, "url", result.PlaylistURL)

	uris, reviewTracks := partitionMatches(matches, skipReview)
	result.ReviewTracks = reviewTracks
	result.TracksSkippedReview = len(reviewTracks)

	if len(uris) > 0 {
		added, failed := c.addTracks(ctx, created.ID, uris)
		result.TracksAdded = added
		result.TracksFailed = len(failed)
		result.FailedTracks = failed
	} else {
		c.logger.Warn("no confident matches to add", "playlist", source.Name)
	}

	if source.CoverArtURL != "" {
		result.CoverArtUploaded = c.uploadCoverArt(ctx, created.ID, source.CoverArtURL)
	}

	result.CreationTimeMS = time.Since(start).Milliseconds()
	return result
}

// description assembles the target playlist description from the source
// description, a migration stamp, and the original track count.
func (c *Creator) description(source models.SourcePlaylist) string {
	var parts []string

	if source.Description != "" {
		parts = append(parts, source.Description)
	}

	parts = append(parts, fmt.Sprintf("Migrated from Anghami on %s", c.now().Format("2006-01-02")))
	parts = append(parts, fmt.Sprintf("Original playlist had %d tracks", source.Count()))

	return strings.Join(parts, " | ")
}

// partitionMatches splits results into track URIs to add now and entries
// deferred to manual review.
func partitionMatches(matches []models.MatchResult, skipReview bool) ([]string, []models.ReviewTrack) {
	var uris []string
	var review []models.ReviewTrack

	for _, m := range matches {
		if m.RequiresReview && !skipReview {
			reason := "Low confidence match requiring user approval"
			if !m.HasMatch() {
				reason = "No match found in target catalog"
			}
			review = append(review, models.ReviewTrack{
				Track:      m.SourceTrack,
				Candidate:  m.BestMatch,
				Confidence: m.Confidence(),
				IsArabic:   m.IsArabic,
				Reason:     reason,
			})
			continue
		}

		if m.BestMatch != nil {
			uris = append(uris, m.BestMatch.URI())
		}
	}

	return uris, review
}

// addTracks uploads URIs in batches. A failed batch records every URI in it
// and moves on; partial playlist population beats all-or-nothing failure.
func (c *Creator) addTracks(ctx context.Context, playlistID string, uris []string) (int, []models.FailedTrack) {
	added := 0
	var failed []models.FailedTrack

	totalBatches := (len(uris) + c.cfg.BatchSize - 1) / c.cfg.BatchSize

	for i := 0; i < len(uris); i += c.cfg.BatchSize {
		end := i + c.cfg.BatchSize
		if end > len(uris) {
			end = len(uris)
		}
		batch := uris[i:end]
		batchNumber := i/c.cfg.BatchSize + 1

		c.logger.Info("adding batch", "batch", batchNumber, "total", totalBatches, "tracks", len(batch))

		if err := c.catalog.AddTracks(ctx, playlistID, batch); err != nil {
			c.logger.Error("batch add failed", "batch", batchNumber, "err", err)
			for _, uri := range batch {
				failed = append(failed, models.FailedTrack{URI: uri, Error: err.Error(), Batch: batchNumber})
			}
			continue
		}

		added += len(batch)
	}

	return added, failed
}

// uploadCoverArt downloads, converts and uploads the source cover image.
// Every failure is logged and reported as false; cover art never fails the
// playlist.
func (c *Creator) uploadCoverArt(ctx context.Context, playlistID, coverURL string) bool {
	data, err := c.cover.Download(ctx, coverURL)
	if err != nil {
		c.logger.Warn("cover art download failed", "err", err)
		return false
	}

	encoded, err := c.cover.Process(data)
	if err != nil {
		c.logger.Warn("cover art processing failed", "err", err)
		return false
	}

	if err := c.catalog.UploadCoverImage(ctx, playlistID, encoded); err != nil {
		c.logger.Warn("cover art upload failed", "err", err)
		return false
	}

	c.logger.Info("cover art uploaded", "playlist", playlistID)
	return true
}

// MigrateAll creates every playlist sequentially, pausing between playlists
// to avoid bursty load on the target API.
func (c *Creator) MigrateAll(ctx context.Context, items []PlaylistWithMatches, skipReview bool) models.MigrationReport {
	report := models.MigrationReport{
		SessionID: shared.GenerateID(),
		StartTime: c.now(),
	}

	c.logger.Info("starting migration", "session", report.SessionID, "playlists", len(items))

	for i, item := range items {
		select {
		case <-ctx.Done():
			c.logger.Warn("migration cancelled", "session", report.SessionID)
			report.EndTime = c.now()
			return report
		default:
		}

		result := c.CreateFromMatches(ctx, item.Playlist, item.Matches, skipReview)
		AddToReport(&report, result, item.Matches)

		if result.Success() {
			c.logger.Info("playlist migrated", "name", item.Playlist.Name, "url", result.PlaylistURL)
		} else {
			c.logger.Error("playlist migration failed", "name", item.Playlist.Name, "err", result.ErrorMessage)
		}

		if i < len(items)-1 {
			if err := c.sleep(ctx, c.cfg.PlaylistPause()); err != nil {
				report.EndTime = c.now()
				return report
			}
		}
	}

	report.EndTime = c.now()
	return report
}

// AddToReport folds one playlist result and its match results into a
// session report, including the Arabic-specific sub-totals.
func AddToReport(report *models.MigrationReport, result models.PlaylistCreationResult, matches []models.MatchResult) {
	report.PlaylistResults = append(report.PlaylistResults, result)
	report.PlaylistsProcessed++

	if result.Success() {
		report.PlaylistsCreated++
	} else {
		report.PlaylistsFailed++
	}

	report.TotalTracksProcessed += result.TotalProcessed()
	report.TotalTracksAdded += result.TracksAdded
	report.TotalTracksFailed += result.TracksFailed
	report.TotalTracksReview += result.TracksSkippedReview

	for _, m := range matches {
		if !m.IsArabic {
			continue
		}
		report.ArabicTracksProcessed++
		if m.HasMatch() && !m.RequiresReview {
			report.ArabicTracksAdded++
		}
	}

	if result.CoverArtUploaded {
		report.CoverArtUploads++
	}
}
