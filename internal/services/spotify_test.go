package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sfawaz/tarhil/internal/shared"
)

// newTestService points a SpotifyService at a test server with sleeps
// recorded instead of waited out.
func newTestService(t *testing.T, handler http.HandlerFunc) (*SpotifyService, *httptest.Server, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSpotifyService("test-token", "US", time.Microsecond)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc.baseURL = server.URL

	var sleeps []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	return svc, server, &sleeps
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires an access token", func(t *testing.T) {
		if _, err := NewSpotifyService("", "US", 0); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("err = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("defaults market and delay", func(t *testing.T) {
		svc, err := NewSpotifyService("token", "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.market != "US" {
			t.Errorf("market = %q, want US", svc.market)
		}
	})
}

func TestSearchTracks(t *testing.T) {
	t.Run("parses results and sends query params", func(t *testing.T) {
		var gotQuery, gotMarket, gotAuth string
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotMarket = r.URL.Query().Get("market")
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"tracks":{"items":[{"id":"t1","name":"Nikes","artists":[{"id":"a1","name":"Frank Ocean"}],"duration_ms":314000}]}}`)
		})

		tracks, err := svc.SearchTracks(context.Background(), `track:"Nikes"`, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "t1" {
			t.Fatalf("unexpected tracks: %+v", tracks)
		}
		if tracks[0].Artists[0].Name != "Frank Ocean" {
			t.Errorf("artist = %q", tracks[0].Artists[0].Name)
		}
		if gotQuery != `track:"Nikes"` {
			t.Errorf("query = %q", gotQuery)
		}
		if gotMarket != "US" {
			t.Errorf("market = %q, want US", gotMarket)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("authorization = %q", gotAuth)
		}
	})

	t.Run("retries transient failures with exponential backoff", func(t *testing.T) {
		calls := 0
		svc, _, sleeps := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})

		if _, err := svc.SearchTracks(context.Background(), "q", 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
		want := []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}
		if len(*sleeps) != len(want) {
			t.Fatalf("sleeps = %v, want %v", *sleeps, want)
		}
		for i := range want {
			if (*sleeps)[i] != want[i] {
				t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
			}
		}
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		calls := 0
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := svc.SearchTracks(context.Background(), "q", 10)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("err = %v, want ErrAPIRequest", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("rate limiting honors Retry-After without consuming attempts", func(t *testing.T) {
		calls := 0
		svc, _, sleeps := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls <= 3 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})

		if _, err := svc.SearchTracks(context.Background(), "q", 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Three 429s exceed maxRetries, so success proves they are not
		// counted as attempts.
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
		for i, d := range *sleeps {
			if d != 2*time.Second {
				t.Errorf("sleep[%d] = %v, want 2s", i, d)
			}
		}
	})

	t.Run("unauthorized fails immediately", func(t *testing.T) {
		calls := 0
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := svc.SearchTracks(context.Background(), "q", 10)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("err = %v, want ErrNotAuthenticated", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		calls := 0
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := svc.SearchTracks(context.Background(), "q", 10)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("err = %v, want ErrAPIRequest", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestArtistEndpoints(t *testing.T) {
	t.Run("SearchArtists quotes the artist field", func(t *testing.T) {
		var gotQuery string
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			fmt.Fprint(w, `{"artists":{"items":[{"id":"a1","name":"Moussa"}]}}`)
		})

		artists, err := svc.SearchArtists(context.Background(), "Moussa", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artists) != 1 || artists[0].ID != "a1" {
			t.Fatalf("unexpected artists: %+v", artists)
		}
		if gotQuery != `artist:"Moussa"` {
			t.Errorf("query = %q", gotQuery)
		}
	})

	t.Run("ArtistAlbums requests albums and singles", func(t *testing.T) {
		var gotGroups, gotPath string
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotGroups = r.URL.Query().Get("include_groups")
			gotPath = r.URL.Path
			fmt.Fprint(w, `{"items":[{"id":"al1","name":"Blonde"}]}`)
		})

		albums, err := svc.ArtistAlbums(context.Background(), "a1", 20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(albums) != 1 || albums[0].Name != "Blonde" {
			t.Fatalf("unexpected albums: %+v", albums)
		}
		if gotGroups != "album,single" {
			t.Errorf("include_groups = %q", gotGroups)
		}
		if gotPath != "/artists/a1/albums" {
			t.Errorf("path = %q", gotPath)
		}
	})
}

func TestPlaylistEndpoints(t *testing.T) {
	t.Run("CreatePlaylist posts to the user endpoint", func(t *testing.T) {
		var gotPath, gotMethod string
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			fmt.Fprint(w, `{"id":"pl1","name":"Summer Mix","external_urls":{"spotify":"https://open.spotify.com/playlist/pl1"}}`)
		})

		created, err := svc.CreatePlaylist(context.Background(), "user1", "Summer Mix", "desc", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.ID != "pl1" {
			t.Errorf("playlist id = %q", created.ID)
		}
		if created.ExternalURLs.Spotify == "" {
			t.Error("expected external url")
		}
		if gotPath != "/users/user1/playlists" || gotMethod != http.MethodPost {
			t.Errorf("request = %s %s", gotMethod, gotPath)
		}
	})

	t.Run("CreatePlaylist wraps failures", func(t *testing.T) {
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := svc.CreatePlaylist(context.Background(), "user1", "x", "", false)
		if !errors.Is(err, shared.ErrPlaylistCreate) {
			t.Errorf("err = %v, want ErrPlaylistCreate", err)
		}
	})

	t.Run("AddTracks rejects empty and oversized batches locally", func(t *testing.T) {
		calls := 0
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			fmt.Fprint(w, `{}`)
		})

		if err := svc.AddTracks(context.Background(), "pl1", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("empty err = %v, want ErrInvalidInput", err)
		}

		uris := make([]string, 101)
		for i := range uris {
			uris[i] = fmt.Sprintf("spotify:track:t%d", i)
		}
		if err := svc.AddTracks(context.Background(), "pl1", uris); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("oversized err = %v, want ErrInvalidInput", err)
		}
		if calls != 0 {
			t.Errorf("calls = %d, want 0 for local validation failures", calls)
		}

		if err := svc.AddTracks(context.Background(), "pl1", uris[:100]); err != nil {
			t.Errorf("full batch err = %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("UploadCoverImage sends JPEG content type", func(t *testing.T) {
		var gotContentType, gotMethod string
		svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			gotMethod = r.Method
			w.WriteHeader(http.StatusAccepted)
		})

		if err := svc.UploadCoverImage(context.Background(), "pl1", []byte("aGVsbG8=")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotContentType != "image/jpeg" || gotMethod != http.MethodPut {
			t.Errorf("request = %s %s", gotMethod, gotContentType)
		}

		if err := svc.UploadCoverImage(context.Background(), "pl1", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("empty err = %v, want ErrInvalidInput", err)
		}
	})
}

func TestCurrentUser(t *testing.T) {
	svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"id":"user1","display_name":"Test User","country":"US"}`)
	})

	user, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user1" || user.DisplayName != "Test User" {
		t.Errorf("unexpected user: %+v", user)
	}
}
