package models

import (
	"strings"
	"time"
)

// SourceTrack represents a single track harvested from the source service.
// Only title and artist strings are available; no stable identifiers.
type SourceTrack struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// NewSourceTrack builds a SourceTrack with trimmed fields and empty artists
// filtered out.
func NewSourceTrack(title string, artists []string) SourceTrack {
	cleaned := make([]string, 0, len(artists))
	for _, a := range artists {
		if s := strings.TrimSpace(a); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return SourceTrack{Title: strings.TrimSpace(title), Artists: cleaned}
}

// PrimaryArtist returns the first (primary) artist, or "" when none exist.
func (t SourceTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// AllArtists returns every artist joined by a comma.
func (t SourceTrack) AllArtists() string {
	return strings.Join(t.Artists, ", ")
}

// SourcePlaylist represents a playlist harvested from the source service.
type SourcePlaylist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	CoverArtURL string        `json:"cover_art_url,omitempty"`
	Public      bool          `json:"is_public"`
	TrackCount  int           `json:"track_count"`
	Tracks      []SourceTrack `json:"tracks"`
}

// Count returns the number of tracks, preferring the actual track list over
// the scraped track_count field when tracks are present.
func (p SourcePlaylist) Count() int {
	if len(p.Tracks) > 0 {
		return len(p.Tracks)
	}
	return p.TrackCount
}

// CatalogMatch represents a candidate track from the target catalog with its
// confidence score. Instances are created fresh per search and never mutated
// after scoring.
type CatalogMatch struct {
	CatalogID   string   `json:"catalog_id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	DurationMS  int      `json:"duration_ms"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	ExternalURL string   `json:"external_url"`
	Confidence  float64  `json:"confidence_score"`
	Strategy    string   `json:"match_strategy"`
	Reasons     []string `json:"match_reasons,omitempty"`
}

// PrimaryArtist returns the first artist on the candidate, or "".
func (m CatalogMatch) PrimaryArtist() string {
	if len(m.Artists) == 0 {
		return ""
	}
	return m.Artists[0]
}

// DurationSeconds returns the candidate duration in whole seconds.
func (m CatalogMatch) DurationSeconds() int {
	return m.DurationMS / 1000
}

// URI returns the Spotify track URI used by the playlist add endpoint.
func (m CatalogMatch) URI() string {
	return "spotify:track:" + m.CatalogID
}

// MatchResult is the outcome of matching one source track against the
// target catalog.
type MatchResult struct {
	SourceTrack         SourceTrack    `json:"source_track"`
	Candidates          []CatalogMatch `json:"candidates,omitempty"`
	BestMatch           *CatalogMatch  `json:"best_match,omitempty"`
	QueriesTried        []string       `json:"queries_tried,omitempty"`
	ArtistVariantsTried []string       `json:"artist_variants_tried,omitempty"`
	IsArabic            bool           `json:"is_arabic_track"`
	RequiresReview      bool           `json:"requires_review"`
	DiscographySearched bool           `json:"discography_searched"`
	SearchTimeMS        int64          `json:"search_time_ms"`
	ErrorMessage        string         `json:"error_message,omitempty"`
}

// HasMatch reports whether any candidate was found.
func (r MatchResult) HasMatch() bool {
	return len(r.Candidates) > 0
}

// Confidence returns the best match's confidence, or 0 when there is none.
func (r MatchResult) Confidence() float64 {
	if r.BestMatch == nil {
		return 0
	}
	return r.BestMatch.Confidence
}

// ConfidentAt reports whether the best match meets the given threshold.
func (r MatchResult) ConfidentAt(threshold float64) bool {
	return r.BestMatch != nil && r.BestMatch.Confidence >= threshold
}

// ReviewTrack records a track deferred to manual review, with enough context
// for a human to resolve it.
type ReviewTrack struct {
	Track      SourceTrack   `json:"source_track"`
	Candidate  *CatalogMatch `json:"best_candidate,omitempty"`
	Confidence float64       `json:"confidence"`
	IsArabic   bool          `json:"is_arabic"`
	Reason     string        `json:"reason"`
}

// FailedTrack records a track URI that could not be added to the target
// playlist, with the batch it belonged to.
type FailedTrack struct {
	URI   string `json:"uri"`
	Error string `json:"error"`
	Batch int    `json:"batch"`
}

// PlaylistCreationResult is the outcome of creating one target playlist.
type PlaylistCreationResult struct {
	SourcePlaylist      SourcePlaylist `json:"source_playlist"`
	PlaylistID          string         `json:"target_playlist_id,omitempty"`
	PlaylistURL         string         `json:"target_playlist_url,omitempty"`
	TracksAdded         int            `json:"tracks_added"`
	TracksFailed        int            `json:"tracks_failed"`
	TracksSkippedReview int            `json:"tracks_skipped_review"`
	CoverArtUploaded    bool           `json:"cover_art_uploaded"`
	CreationTimeMS      int64          `json:"creation_time_ms"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	FailedTracks        []FailedTrack  `json:"failed_tracks,omitempty"`
	ReviewTracks        []ReviewTrack  `json:"review_tracks,omitempty"`
}

// Success reports whether the playlist shell was created. Per-track and
// cover-art failures are non-fatal.
func (r PlaylistCreationResult) Success() bool {
	return r.PlaylistID != ""
}

// TotalProcessed returns the number of tracks accounted for in this result.
func (r PlaylistCreationResult) TotalProcessed() int {
	return r.TracksAdded + r.TracksFailed + r.TracksSkippedReview
}

// SessionStatus enumerates the migration session state machine.
type SessionStatus string

const (
	StatusExtracting SessionStatus = "extracting"
	StatusMatching   SessionStatus = "matching"
	StatusCreating   SessionStatus = "creating"
	StatusCompleted  SessionStatus = "completed"
	StatusError      SessionStatus = "error"
	StatusStopped    SessionStatus = "stopped"
)

// Terminal reports whether the status is a terminal state.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusStopped
}

// MigrationStatus is a point-in-time snapshot of a migration session,
// exposed to progress consumers.
type MigrationStatus struct {
	SessionID          string        `json:"session_id"`
	Status             SessionStatus `json:"status"`
	Progress           float64       `json:"progress"`
	CurrentPlaylist    string        `json:"current_playlist,omitempty"`
	TotalPlaylists     int           `json:"total_playlists"`
	CompletedPlaylists int           `json:"completed_playlists"`
	TotalTracks        int           `json:"total_tracks"`
	MatchedTracks      int           `json:"matched_tracks"`
	CreatedPlaylists   int           `json:"created_playlists"`
	Errors             []string      `json:"errors"`
	Message            string        `json:"message,omitempty"`
}

// MigrationReport aggregates the outcome of a full migration session.
type MigrationReport struct {
	SessionID             string                   `json:"session_id"`
	StartTime             time.Time                `json:"start_time"`
	EndTime               time.Time                `json:"end_time"`
	PlaylistsProcessed    int                      `json:"playlists_processed"`
	PlaylistsCreated      int                      `json:"playlists_created"`
	PlaylistsFailed       int                      `json:"playlists_failed"`
	TotalTracksProcessed  int                      `json:"total_tracks_processed"`
	TotalTracksAdded      int                      `json:"total_tracks_added"`
	TotalTracksFailed     int                      `json:"total_tracks_failed"`
	TotalTracksReview     int                      `json:"total_tracks_requiring_review"`
	ArabicTracksProcessed int                      `json:"arabic_tracks_processed"`
	ArabicTracksAdded     int                      `json:"arabic_tracks_added"`
	CoverArtUploads       int                      `json:"cover_art_uploads"`
	PlaylistResults       []PlaylistCreationResult `json:"playlist_results"`
}

// DurationSeconds returns the session duration in whole seconds.
func (r MigrationReport) DurationSeconds() int {
	if r.EndTime.IsZero() {
		return 0
	}
	return int(r.EndTime.Sub(r.StartTime).Seconds())
}

// SuccessRate returns created/processed as a percentage.
func (r MigrationReport) SuccessRate() float64 {
	if r.PlaylistsProcessed == 0 {
		return 0
	}
	return float64(r.PlaylistsCreated) / float64(r.PlaylistsProcessed) * 100
}
