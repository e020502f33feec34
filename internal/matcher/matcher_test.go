package matcher

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
)

type mockCatalog struct {
	tracks      []services.SpotifyTrack
	artists     []services.SpotifyArtist
	albums      []services.SpotifyAlbum
	albumTracks map[string][]services.SpotifyTrack

	trackSearches  int
	artistSearches int
	albumLists     int

	searchTracksErr  error
	searchArtistsErr error
}

func (m *mockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]services.SpotifyTrack, error) {
	m.trackSearches++
	if m.searchTracksErr != nil {
		return nil, m.searchTracksErr
	}
	return m.tracks, nil
}

func (m *mockCatalog) SearchArtists(ctx context.Context, name string, limit int) ([]services.SpotifyArtist, error) {
	m.artistSearches++
	if m.searchArtistsErr != nil {
		return nil, m.searchArtistsErr
	}
	return m.artists, nil
}

func (m *mockCatalog) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]services.SpotifyAlbum, error) {
	m.albumLists++
	return m.albums, nil
}

func (m *mockCatalog) AlbumTracks(ctx context.Context, albumID string) ([]services.SpotifyTrack, error) {
	return m.albumTracks[albumID], nil
}

func (m *mockCatalog) CurrentUser(ctx context.Context) (*services.SpotifyUser, error) {
	return &services.SpotifyUser{ID: "user1"}, nil
}

func (m *mockCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*services.SpotifyPlaylist, error) {
	return nil, errors.New("not supported")
}

func (m *mockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	return errors.New("not supported")
}

func (m *mockCatalog) UploadCoverImage(ctx context.Context, playlistID string, base64JPEG []byte) error {
	return errors.New("not supported")
}

func (m *mockCatalog) Name() string { return "mock" }

func spotifyTrack(id, title string, artists ...string) services.SpotifyTrack {
	track := services.SpotifyTrack{ID: id, Name: title}
	for _, a := range artists {
		track.Artists = append(track.Artists, services.SpotifyArtist{Name: a})
	}
	return track
}

func newTestMatcher(catalog services.Catalog) *Matcher {
	return New(catalog, shared.MatcherConfig{}, shared.NewLogger(io.Discard))
}

func TestMatch(t *testing.T) {
	t.Run("exact match is confident", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Pink + White", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("Pink + White", []string{"Frank Ocean"}))

		if !result.HasMatch() {
			t.Fatal("expected a match")
		}
		if result.BestMatch.CatalogID != "t1" {
			t.Errorf("best match = %q, want t1", result.BestMatch.CatalogID)
		}
		if result.Confidence() < 0.75 {
			t.Errorf("confidence = %v, want >= 0.75", result.Confidence())
		}
		if result.RequiresReview {
			t.Error("confident match should not require review")
		}
		if result.IsArabic {
			t.Error("latin track flagged as arabic")
		}
		if result.BestMatch.Strategy != "exact_fields" {
			t.Errorf("strategy = %q, want exact_fields", result.BestMatch.Strategy)
		}
	})

	t.Run("cascade stops at first confident strategy", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		m.Match(context.Background(), models.NewSourceTrack("Nikes", []string{"Frank Ocean"}))

		if catalog.trackSearches != 1 {
			t.Errorf("trackSearches = %d, want 1", catalog.trackSearches)
		}
	})

	t.Run("no results requires review", func(t *testing.T) {
		catalog := &mockCatalog{}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("Nonexistent Song", []string{"Nobody"}))

		if result.HasMatch() {
			t.Error("expected no match")
		}
		if result.BestMatch != nil {
			t.Error("expected nil best match")
		}
		if !result.RequiresReview {
			t.Error("no-match outcome must require review")
		}
		if len(result.QueriesTried) == 0 {
			t.Error("expected queries to be recorded")
		}
	})

	t.Run("low confidence match requires review", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Hotel", "Somebody Else")},
		}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("Hotel California", []string{"Eagles"}))

		if !result.HasMatch() {
			t.Fatal("expected a candidate")
		}
		if result.Confidence() >= 0.75 {
			t.Fatalf("confidence = %v, want < 0.75", result.Confidence())
		}
		if !result.RequiresReview {
			t.Error("low confidence match must require review")
		}
	})

	t.Run("search errors degrade to review, not failure", func(t *testing.T) {
		catalog := &mockCatalog{searchTracksErr: errors.New("boom")}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("Nikes", []string{"Frank Ocean"}))

		if result.HasMatch() {
			t.Error("expected no match")
		}
		if !result.RequiresReview {
			t.Error("expected review classification")
		}
	})

	t.Run("repeated queries hit the cache", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)
		track := models.NewSourceTrack("Nikes", []string{"Frank Ocean"})

		m.Match(context.Background(), track)
		calls := catalog.trackSearches
		m.Match(context.Background(), track)

		if catalog.trackSearches != calls {
			t.Errorf("trackSearches grew from %d to %d, expected cache hit", calls, catalog.trackSearches)
		}
		if m.Stats().CacheHits == 0 {
			t.Error("expected cache hits to be counted")
		}
	})

	t.Run("candidates sorted by confidence", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{
				spotifyTrack("weak", "Nikes Remix Cover", "Tribute Band"),
				spotifyTrack("strong", "Nikes", "Frank Ocean"),
			},
		}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("Nikes", []string{"Frank Ocean"}))

		if result.BestMatch.CatalogID != "strong" {
			t.Errorf("best match = %q, want strong", result.BestMatch.CatalogID)
		}
		for i := 1; i < len(result.Candidates); i++ {
			if result.Candidates[i].Confidence > result.Candidates[i-1].Confidence {
				t.Error("candidates not sorted by confidence descending")
			}
		}
	})

	t.Run("stats counters advance", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		m.Match(context.Background(), models.NewSourceTrack("Nikes", []string{"Frank Ocean"}))

		stats := m.Stats()
		if stats.TotalSearches != 1 {
			t.Errorf("TotalSearches = %d, want 1", stats.TotalSearches)
		}
		if stats.SuccessfulMatches != 1 {
			t.Errorf("SuccessfulMatches = %d, want 1", stats.SuccessfulMatches)
		}
		if stats.HighConfidenceMatches != 1 {
			t.Errorf("HighConfidenceMatches = %d, want 1", stats.HighConfidenceMatches)
		}
		if stats.APICalls == 0 {
			t.Error("expected API calls to be counted")
		}
	})
}

func TestMatchArabic(t *testing.T) {
	t.Run("artist first path finds discography match", func(t *testing.T) {
		catalog := &mockCatalog{
			artists: []services.SpotifyArtist{{ID: "a1", Name: "Moussa"}},
			albums:  []services.SpotifyAlbum{{ID: "al1", Name: "Album One"}},
			albumTracks: map[string][]services.SpotifyTrack{
				"al1": {spotifyTrack("t1", "يا ليل", "Moussa")},
			},
		}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("يا ليل", []string{"موسى"}))

		if !result.IsArabic {
			t.Fatal("expected arabic classification")
		}
		if !result.DiscographySearched {
			t.Error("expected discography search")
		}
		if !result.HasMatch() {
			t.Fatal("expected a match")
		}
		if !strings.HasPrefix(result.BestMatch.Strategy, "discography_") {
			t.Errorf("strategy = %q, want discography_ prefix", result.BestMatch.Strategy)
		}
		if len(result.ArtistVariantsTried) == 0 {
			t.Error("expected artist variants to be recorded")
		}
		if len(result.QueriesTried) == 0 {
			t.Error("expected artist searches in queries tried")
		}
		if result.Confidence() < 0.75 {
			t.Errorf("confidence = %v, want >= 0.75", result.Confidence())
		}
		if result.RequiresReview {
			t.Error("strong discography match should not require review")
		}
		// No track search needed when the discography short-circuits.
		if catalog.trackSearches != 0 {
			t.Errorf("trackSearches = %d, want 0", catalog.trackSearches)
		}
	})

	t.Run("falls back to general cascade when artist unknown", func(t *testing.T) {
		catalog := &mockCatalog{}
		m := newTestMatcher(catalog)

		result := m.Match(context.Background(), models.NewSourceTrack("يا ليل", []string{"موسى"}))

		if result.DiscographySearched {
			t.Error("expected no discography search without identified artists")
		}
		if catalog.trackSearches == 0 {
			t.Error("expected fallback to general cascade")
		}
		if !result.RequiresReview {
			t.Error("expected review classification")
		}
	})

	t.Run("arabic stats counted", func(t *testing.T) {
		catalog := &mockCatalog{
			artists: []services.SpotifyArtist{{ID: "a1", Name: "Moussa"}},
			albums:  []services.SpotifyAlbum{{ID: "al1", Name: "Album One"}},
			albumTracks: map[string][]services.SpotifyTrack{
				"al1": {spotifyTrack("t1", "يا ليل", "Moussa")},
			},
		}
		m := newTestMatcher(catalog)

		m.Match(context.Background(), models.NewSourceTrack("يا ليل", []string{"موسى"}))

		stats := m.Stats()
		if stats.ArabicTracksProcessed != 1 {
			t.Errorf("ArabicTracksProcessed = %d, want 1", stats.ArabicTracksProcessed)
		}
		if stats.ArabicTracksMatched != 1 {
			t.Errorf("ArabicTracksMatched = %d, want 1", stats.ArabicTracksMatched)
		}
		if stats.ArabicDiscographySearches != 1 {
			t.Errorf("ArabicDiscographySearches = %d, want 1", stats.ArabicDiscographySearches)
		}
	})
}

func TestMatchPlaylist(t *testing.T) {
	makePlaylist := func(n int) models.SourcePlaylist {
		p := models.SourcePlaylist{Name: "Test"}
		for i := 0; i < n; i++ {
			p.Tracks = append(p.Tracks, models.NewSourceTrack("Nikes", []string{"Frank Ocean"}))
		}
		return p
	}

	t.Run("matches every track in order", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		results, err := m.MatchPlaylist(context.Background(), makePlaylist(5), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 5 {
			t.Errorf("got %d results, want 5", len(results))
		}
	})

	t.Run("reports progress every ten tracks and at the end", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		var updates []Progress
		_, err := m.MatchPlaylist(context.Background(), makePlaylist(25), func(p Progress) {
			updates = append(updates, p)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(updates) != 3 {
			t.Fatalf("got %d progress updates, want 3", len(updates))
		}
		wantProcessed := []int{10, 20, 25}
		for i, p := range updates {
			if p.Processed != wantProcessed[i] {
				t.Errorf("update %d processed = %d, want %d", i, p.Processed, wantProcessed[i])
			}
			if p.Total != 25 {
				t.Errorf("update %d total = %d, want 25", i, p.Total)
			}
		}
		last := updates[len(updates)-1]
		if last.Found != 25 || last.Confident != 25 {
			t.Errorf("final tally found=%d confident=%d, want 25/25", last.Found, last.Confident)
		}
	})

	t.Run("cancellation returns partial results", func(t *testing.T) {
		catalog := &mockCatalog{
			tracks: []services.SpotifyTrack{spotifyTrack("t1", "Nikes", "Frank Ocean")},
		}
		m := newTestMatcher(catalog)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := m.MatchPlaylist(ctx, makePlaylist(5), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results before first track, want 0", len(results))
		}
	})
}
