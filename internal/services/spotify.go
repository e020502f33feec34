// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sfawaz/tarhil/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	maxRetries     = 3
	initialBackoff = 250 * time.Millisecond
	requestTimeout = 30 * time.Second
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
}

// SpotifyTrack represents a Spotify track.
//
// Album is empty on tracks returned by the album-tracks endpoint; callers
// that need it carry the album context themselves.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Every outbound call is paced by a shared rate limiter, carries a per-call
// timeout, and is retried with exponential backoff on transient failures. A
// 429 response waits for the server-specified interval without consuming a
// retry attempt.
type SpotifyService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	market     string
	baseURL    string
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewSpotifyService creates a Spotify client from a caller-supplied bearer
// token. requestDelay is the minimum spacing between outbound calls.
func NewSpotifyService(accessToken, market string, requestDelay time.Duration) (*SpotifyService, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", shared.ErrMissingCredentials)
	}
	if market == "" {
		market = "US"
	}
	if requestDelay <= 0 {
		requestDelay = 100 * time.Millisecond
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	return &SpotifyService{
		httpClient: oauth2.NewClient(context.Background(), src),
		limiter:    rate.NewLimiter(rate.Every(requestDelay), 1),
		market:     market,
		baseURL:    spotifyBaseURL,
		sleep:      sleepCtx,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
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

// doRequest performs one authenticated HTTP request with pacing, timeout,
// retry and 429 handling, decoding the JSON response into result when
// non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body []byte, contentType string, result any) error {
	apiURL := s.baseURL + endpoint

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		retryAfter, err := s.attempt(reqCtx, method, apiURL, body, contentType, result)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if retryAfter > 0 {
			// Server-specified wait, not counted against the backoff schedule.
			if werr := s.sleep(ctx, retryAfter); werr != nil {
				return fmt.Errorf("%w: %v", shared.ErrRateLimited, werr)
			}
			attempt--
			continue
		}

		if !isTransient(err) || attempt == maxRetries-1 {
			return lastErr
		}

		if werr := s.sleep(ctx, backoff); werr != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, werr)
		}
		backoff *= 2
	}

	return lastErr
}

// transientError marks failures worth retrying.
type transientError struct{ err error }

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// attempt executes a single request. A positive retryAfter signals a 429
// with the server's requested wait.
func (s *SpotifyService) attempt(ctx context.Context, method, apiURL string, body []byte, contentType string, result any) (retryAfter time.Duration, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &transientError{fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, perr := strconv.Atoi(v); perr == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		return wait, fmt.Errorf("%w: status 429", shared.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, fmt.Errorf("%w: status 401", shared.ErrNotAuthenticated)
	case resp.StatusCode >= 500:
		return 0, &transientError{fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return 0, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return 0, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.market)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, "", &response); err != nil {
		return nil, err
	}

	return response.Tracks.Items, nil
}

// SearchArtists searches the catalog for artists matching the name.
func (s *SpotifyService) SearchArtists(ctx context.Context, name string, limit int) ([]SpotifyArtist, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("artist:%q", name))
	params.Set("type", "artist")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.market)

	var response struct {
		Artists struct {
			Items []SpotifyArtist `json:"items"`
		} `json:"artists"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, "", &response); err != nil {
		return nil, err
	}

	return response.Artists.Items, nil
}

// ArtistAlbums lists an artist's albums and singles.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]SpotifyAlbum, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	params := url.Values{}
	params.Set("include_groups", "album,single")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.market)

	var response struct {
		Items []SpotifyAlbum `json:"items"`
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?%s", artistID, params.Encode())
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, "", &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// AlbumTracks lists the tracks on an album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error) {
	params := url.Values{}
	params.Set("market", s.market)

	var response struct {
		Items []SpotifyTrack `json:"items"`
	}

	endpoint := fmt.Sprintf("/albums/%s/tracks?%s", albumID, params.Encode())
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, "", &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist creates an empty playlist owned by the given user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*SpotifyPlaylist, error) {
	payload, err := json.Marshal(map[string]any{
		"name":          name,
		"description":   description,
		"public":        public,
		"collaborative": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist payload: %w", err)
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, payload, "application/json", &playlist); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreate, err)
	}

	return &playlist, nil
}

// AddTracks adds up to 100 track URIs to a playlist in one call.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrInvalidInput)
	}
	if len(uris) > 100 {
		return fmt.Errorf("%w: maximum 100 track URIs allowed per call", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(map[string]any{"uris": uris})
	if err != nil {
		return fmt.Errorf("failed to encode track payload: %w", err)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return s.doRequest(ctx, http.MethodPost, endpoint, payload, "application/json", nil)
}

// UploadCoverImage uploads base64-encoded JPEG cover art to a playlist.
func (s *SpotifyService) UploadCoverImage(ctx context.Context, playlistID string, base64JPEG []byte) error {
	if len(base64JPEG) == 0 {
		return fmt.Errorf("%w: empty cover image", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/images", playlistID)
	return s.doRequest(ctx, http.MethodPut, endpoint, base64JPEG, "image/jpeg", nil)
}
