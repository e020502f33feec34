// package orchestrator drives migration sessions through the extracting,
// matching and creating phases.
//
// Each session runs as one goroutine holding exclusive write access to its
// own state; consumers observe it through polled snapshots. Cancellation is
// cooperative: Stop flips the stored state and the running phase exits at
// its next iteration boundary. Already-created target playlists are never
// rolled back.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sfawaz/tarhil/internal/matcher"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/playlist"
	"github.com/sfawaz/tarhil/internal/shared"
)

// Phase progress boundaries. Extraction fills [0,25), matching [25,75),
// creation [75,100].
const (
	extractingEnd = 25.0
	matchingSpan  = 50.0
	creatingSpan  = 25.0
)

// Options configures one migration session.
type Options struct {
	// SkipReview adds low-confidence matches instead of deferring them.
	SkipReview bool
}

// Orchestrator starts and supervises migration sessions.
type Orchestrator struct {
	registry *Registry
	matcher  *matcher.Matcher
	creator  *playlist.Creator
	logger   *log.Logger
}

// New creates an Orchestrator around the given registry, matcher and
// creator.
func New(registry *Registry, m *matcher.Matcher, c *playlist.Creator, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Orchestrator{
		registry: registry,
		matcher:  m,
		creator:  c,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Registry exposes the session registry for snapshot consumers.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Start launches a migration session for the given playlists and returns
// its opaque session id immediately.
func (o *Orchestrator) Start(ctx context.Context, playlists []models.SourcePlaylist, opts Options) (string, error) {
	if len(playlists) == 0 {
		return "", fmt.Errorf("%w: no playlists to migrate", shared.ErrInvalidInput)
	}

	sessionID := shared.GenerateID()

	totalTracks := 0
	for _, p := range playlists {
		totalTracks += p.Count()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		cancel: cancel,
		status: models.MigrationStatus{
			SessionID:      sessionID,
			Status:         models.StatusExtracting,
			TotalPlaylists: len(playlists),
			TotalTracks:    totalTracks,
			Errors:         []string{},
			Message:        "Starting playlist extraction...",
		},
	}
	o.registry.add(sessionID, s)

	o.logger.Info("session started", "session", sessionID, "playlists", len(playlists), "tracks", totalTracks)

	go o.run(sctx, s, playlists, opts)

	return sessionID, nil
}

// Stop transitions a session to stopped. The running phase notices at its
// next iteration boundary; nothing already created is rolled back.
func (o *Orchestrator) Stop(sessionID string) error {
	s, ok := o.registry.get(sessionID)
	if !ok {
		return shared.ErrSessionNotFound
	}

	s.update(func(st *models.MigrationStatus) {
		if st.Status.Terminal() {
			return
		}
		st.Status = models.StatusStopped
		st.Message = "Migration stopped by user"
		st.CurrentPlaylist = ""
	})
	s.cancel()

	o.logger.Info("session stopped", "session", sessionID)
	return nil
}

// Report returns the final migration report for a completed session, or nil
// while the session is still running.
func (o *Orchestrator) Report(sessionID string) (*models.MigrationReport, error) {
	s, ok := o.registry.get(sessionID)
	if !ok {
		return nil, shared.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, nil
}

// Watch polls the session's snapshot at the given interval, sending each
// snapshot on the returned channel until the session reaches a terminal
// state, then closes the channel.
func (o *Orchestrator) Watch(ctx context.Context, sessionID string, interval time.Duration) <-chan models.MigrationStatus {
	if interval <= 0 {
		interval = time.Second
	}

	ch := make(chan models.MigrationStatus, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			snapshot, err := o.registry.Snapshot(sessionID)
			if err != nil {
				return
			}

			select {
			case ch <- snapshot:
			case <-ctx.Done():
				return
			}

			if snapshot.Status.Terminal() {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// run executes the session phases. Any escaped failure transitions the
// session to error and halts further phases.
func (o *Orchestrator) run(ctx context.Context, s *session, playlists []models.SourcePlaylist, opts Options) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(s, fmt.Sprintf("migration panic: %v", r))
		}
	}()

	if !o.extract(s, playlists) {
		return
	}

	matchesByPlaylist, ok := o.matchAll(ctx, s, playlists)
	if !ok {
		return
	}

	report, ok := o.createAll(ctx, s, playlists, matchesByPlaylist, opts)
	if !ok {
		return
	}

	s.update(func(st *models.MigrationStatus) {
		st.Status = models.StatusCompleted
		st.Progress = 100
		st.CurrentPlaylist = ""
		st.Message = fmt.Sprintf("Successfully migrated %d playlists!", len(playlists))
	})
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	o.logger.Info("session completed", "session", report.SessionID)
}

// extract walks the supplied playlists, advancing progress across [0,25).
// The scraper has already harvested the data; this phase validates it and
// surfaces per-playlist progress.
func (o *Orchestrator) extract(s *session, playlists []models.SourcePlaylist) bool {
	s.update(func(st *models.MigrationStatus) {
		st.Status = models.StatusExtracting
		st.Message = "Extracting playlists from Anghami..."
	})

	for i, p := range playlists {
		if s.stopped() {
			return false
		}

		if p.Name == "" || len(p.Tracks) == 0 {
			o.fail(s, fmt.Sprintf("playlist %q has no tracks to migrate", p.ID))
			return false
		}

		progress := float64(i) / float64(len(playlists)) * extractingEnd
		name := p.Name
		s.update(func(st *models.MigrationStatus) {
			st.Progress = progress
			st.CurrentPlaylist = name
			st.Message = "Extracting: " + name
		})
	}

	return true
}

// matchAll matches every track across all playlists, advancing progress
// across [25,75). MatchedTracks counts processed tracks, matched or not.
func (o *Orchestrator) matchAll(ctx context.Context, s *session, playlists []models.SourcePlaylist) ([][]models.MatchResult, bool) {
	s.update(func(st *models.MigrationStatus) {
		st.Status = models.StatusMatching
		st.Progress = extractingEnd
		st.Message = "Matching tracks with Spotify..."
	})

	totalTracks := 0
	for _, p := range playlists {
		totalTracks += len(p.Tracks)
	}

	matchesByPlaylist := make([][]models.MatchResult, len(playlists))
	processed := 0

	for pi, p := range playlists {
		name := p.Name
		s.update(func(st *models.MigrationStatus) { st.CurrentPlaylist = name })

		results := make([]models.MatchResult, 0, len(p.Tracks))
		for ti, track := range p.Tracks {
			if s.stopped() {
				return nil, false
			}

			results = append(results, o.matcher.Match(ctx, track))
			processed++

			progress := extractingEnd + float64(processed)/float64(totalTracks)*matchingSpan
			message := fmt.Sprintf("Matching tracks in: %s (%d/%d)", name, ti+1, len(p.Tracks))
			s.update(func(st *models.MigrationStatus) {
				st.MatchedTracks = processed
				st.Progress = progress
				st.Message = message
			})
		}
		matchesByPlaylist[pi] = results
	}

	return matchesByPlaylist, true
}

// createAll creates the target playlists, advancing progress across
// [75,100]. A failed playlist shell is fatal to the session; per-track and
// cover-art failures inside a playlist are not.
func (o *Orchestrator) createAll(ctx context.Context, s *session, playlists []models.SourcePlaylist, matchesByPlaylist [][]models.MatchResult, opts Options) (*models.MigrationReport, bool) {
	s.update(func(st *models.MigrationStatus) {
		st.Status = models.StatusCreating
		st.Progress = extractingEnd + matchingSpan
		st.Message = "Creating playlists in Spotify..."
	})

	report := &models.MigrationReport{
		SessionID: s.status.SessionID,
		StartTime: time.Now(),
	}

	for i, p := range playlists {
		if s.stopped() {
			return nil, false
		}

		name := p.Name
		s.update(func(st *models.MigrationStatus) {
			st.CurrentPlaylist = name
			st.Message = "Creating Spotify playlist: " + name
		})

		result := o.creator.CreateFromMatches(ctx, p, matchesByPlaylist[i], opts.SkipReview)
		playlist.AddToReport(report, result, matchesByPlaylist[i])

		if !result.Success() {
			o.fail(s, fmt.Sprintf("failed to create playlist %q: %s", p.Name, result.ErrorMessage))
			return nil, false
		}

		progress := extractingEnd + matchingSpan + float64(i+1)/float64(len(playlists))*creatingSpan
		completed := i + 1
		s.update(func(st *models.MigrationStatus) {
			st.Progress = progress
			st.CompletedPlaylists = completed
			st.CreatedPlaylists = completed
		})
	}

	report.EndTime = time.Now()
	return report, true
}

// fail transitions the session to error unless it is already terminal.
func (o *Orchestrator) fail(s *session, message string) {
	s.update(func(st *models.MigrationStatus) {
		if st.Status.Terminal() {
			return
		}
		st.Status = models.StatusError
		st.Errors = append(st.Errors, message)
		st.Message = "Migration failed: " + message
		st.CurrentPlaylist = ""
	})

	o.logger.Error("session failed", "err", message)
}
