package reports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sfawaz/tarhil/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	start_time TIMESTAMP NOT NULL,
	end_time TIMESTAMP,
	playlists_processed INTEGER NOT NULL DEFAULT 0,
	playlists_created INTEGER NOT NULL DEFAULT 0,
	playlists_failed INTEGER NOT NULL DEFAULT 0,
	tracks_processed INTEGER NOT NULL DEFAULT 0,
	tracks_added INTEGER NOT NULL DEFAULT 0,
	tracks_failed INTEGER NOT NULL DEFAULT 0,
	tracks_review INTEGER NOT NULL DEFAULT 0,
	arabic_processed INTEGER NOT NULL DEFAULT 0,
	arabic_added INTEGER NOT NULL DEFAULT 0,
	cover_art_uploads INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_results (
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	position INTEGER NOT NULL,
	source_playlist_id TEXT NOT NULL,
	source_name TEXT NOT NULL,
	target_playlist_id TEXT,
	target_playlist_url TEXT,
	tracks_added INTEGER NOT NULL DEFAULT 0,
	tracks_failed INTEGER NOT NULL DEFAULT 0,
	tracks_review INTEGER NOT NULL DEFAULT 0,
	cover_art_uploaded INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	detail TEXT NOT NULL,
	PRIMARY KEY (session_id, position)
);
`

// SQLiteSink stores session reports in SQLite. Summary counters live in
// their own columns for querying; the full per-playlist result is kept as a
// JSON detail blob.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink creates the schema if needed and returns a sink over db.
// The caller owns the connection.
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create report schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Save upserts the session row and rewrites its playlist results inside one
// transaction.
func (s *SQLiteSink) Save(report *models.MigrationReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var endTime any
	if !report.EndTime.IsZero() {
		endTime = report.EndTime
	}

	_, err = tx.Exec(`
		INSERT INTO sessions (
			session_id, start_time, end_time,
			playlists_processed, playlists_created, playlists_failed,
			tracks_processed, tracks_added, tracks_failed, tracks_review,
			arabic_processed, arabic_added, cover_art_uploads, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			end_time = excluded.end_time,
			playlists_processed = excluded.playlists_processed,
			playlists_created = excluded.playlists_created,
			playlists_failed = excluded.playlists_failed,
			tracks_processed = excluded.tracks_processed,
			tracks_added = excluded.tracks_added,
			tracks_failed = excluded.tracks_failed,
			tracks_review = excluded.tracks_review,
			arabic_processed = excluded.arabic_processed,
			arabic_added = excluded.arabic_added,
			cover_art_uploads = excluded.cover_art_uploads
	`,
		report.SessionID,
		report.StartTime,
		endTime,
		report.PlaylistsProcessed,
		report.PlaylistsCreated,
		report.PlaylistsFailed,
		report.TotalTracksProcessed,
		report.TotalTracksAdded,
		report.TotalTracksFailed,
		report.TotalTracksReview,
		report.ArabicTracksProcessed,
		report.ArabicTracksAdded,
		report.CoverArtUploads,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM playlist_results WHERE session_id = ?", report.SessionID); err != nil {
		return fmt.Errorf("failed to clear playlist results: %w", err)
	}

	for i, pr := range report.PlaylistResults {
		detail, err := json.Marshal(pr)
		if err != nil {
			return fmt.Errorf("failed to marshal playlist result: %w", err)
		}

		var errorMessage any = pr.ErrorMessage
		if pr.ErrorMessage == "" {
			errorMessage = nil
		}

		_, err = tx.Exec(`
			INSERT INTO playlist_results (
				session_id, position, source_playlist_id, source_name,
				target_playlist_id, target_playlist_url,
				tracks_added, tracks_failed, tracks_review,
				cover_art_uploaded, error_message, detail
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.SessionID,
			i,
			pr.SourcePlaylist.ID,
			pr.SourcePlaylist.Name,
			pr.PlaylistID,
			pr.PlaylistURL,
			pr.TracksAdded,
			pr.TracksFailed,
			pr.TracksSkippedReview,
			pr.CoverArtUploaded,
			errorMessage,
			string(detail),
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// Get retrieves one stored session report, rebuilt from the summary row and
// its playlist detail blobs.
func (s *SQLiteSink) Get(sessionID string) (*models.MigrationReport, error) {
	row := s.db.QueryRow(`
		SELECT session_id, start_time, end_time,
			playlists_processed, playlists_created, playlists_failed,
			tracks_processed, tracks_added, tracks_failed, tracks_review,
			arabic_processed, arabic_added, cover_art_uploads
		FROM sessions
		WHERE session_id = ?
	`, sessionID)

	var report models.MigrationReport
	var endTime sql.NullTime
	err := row.Scan(
		&report.SessionID,
		&report.StartTime,
		&endTime,
		&report.PlaylistsProcessed,
		&report.PlaylistsCreated,
		&report.PlaylistsFailed,
		&report.TotalTracksProcessed,
		&report.TotalTracksAdded,
		&report.TotalTracksFailed,
		&report.TotalTracksReview,
		&report.ArabicTracksProcessed,
		&report.ArabicTracksAdded,
		&report.CoverArtUploads,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if endTime.Valid {
		report.EndTime = endTime.Time
	}

	rows, err := s.db.Query(`
		SELECT detail FROM playlist_results
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan playlist result: %w", err)
		}
		var pr models.PlaylistCreationResult
		if err := json.Unmarshal([]byte(detail), &pr); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist result: %w", err)
		}
		report.PlaylistResults = append(report.PlaylistResults, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &report, nil
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	SessionID          string    `json:"session_id"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	PlaylistsProcessed int       `json:"playlists_processed"`
	PlaylistsCreated   int       `json:"playlists_created"`
	TracksAdded        int       `json:"tracks_added"`
}

// List returns summaries for every stored session, most recent first.
func (s *SQLiteSink) List() ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session_id, start_time, end_time,
			playlists_processed, playlists_created, tracks_added
		FROM sessions
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var endTime sql.NullTime
		if err := rows.Scan(&sum.SessionID, &sum.StartTime, &endTime, &sum.PlaylistsProcessed, &sum.PlaylistsCreated, &sum.TracksAdded); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if endTime.Valid {
			sum.EndTime = endTime.Time
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return summaries, nil
}
