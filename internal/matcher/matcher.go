// package matcher implements the track matching engine.
//
// Matching one source track runs a cascade of catalog query strategies, from
// exact field-qualified search down to broad free-text search, scoring every
// candidate on title and artist similarity. Tracks written in Arabic script
// take an artist-first path: transliteration variants of the artist name are
// searched, the best-scoring artists' discographies are enumerated, and
// title similarity picks candidates out of the album tracks. No-match and
// low-confidence outcomes are classifications, not errors; they flag the
// track for manual review.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/services"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/sfawaz/tarhil/internal/textutil"
)

const (
	// artistSimilarityFloor gates which searched artists count as identified.
	artistSimilarityFloor = 0.5
	// discographyTitleFloor gates which album tracks count as candidates.
	discographyTitleFloor = 0.4
	// discographyConfidence short-circuits the Arabic path when met.
	discographyConfidence = 0.6
	// strongArtistSimilarity earns the Arabic artist-identification bonus.
	strongArtistSimilarity = 0.6
	// maxIdentifiedArtists bounds the artist candidate list.
	maxIdentifiedArtists = 5
)

// Stats counts matcher activity across a session.
type Stats struct {
	TotalSearches             int `json:"total_searches"`
	CacheHits                 int `json:"cache_hits"`
	APICalls                  int `json:"api_calls"`
	SuccessfulMatches         int `json:"successful_matches"`
	HighConfidenceMatches     int `json:"high_confidence_matches"`
	TracksRequiringReview     int `json:"tracks_requiring_review"`
	ArabicTracksProcessed     int `json:"arabic_tracks_processed"`
	ArabicTracksMatched       int `json:"arabic_tracks_matched"`
	ArabicHighConfidence      int `json:"arabic_high_confidence"`
	ArabicDiscographySearches int `json:"arabic_discography_searches"`
}

// Progress is the running tally reported while matching a playlist.
type Progress struct {
	Processed int
	Total     int
	Found     int
	Confident int
}

// Matcher matches source tracks against the target catalog.
type Matcher struct {
	catalog     services.Catalog
	logger      *log.Logger
	cfg         shared.MatcherConfig
	trackCache  *ttlCache[[]services.SpotifyTrack]
	artistCache *ttlCache[[]services.SpotifyArtist]

	mu    sync.Mutex
	stats Stats
}

// New creates a Matcher. Zero-valued config fields fall back to defaults.
func New(catalog services.Catalog, cfg shared.MatcherConfig, logger *log.Logger) *Matcher {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.75
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 10
	}
	if cfg.CacheTTLHours <= 0 {
		cfg.CacheTTLHours = 24
	}
	if cfg.MaxArtistVariants <= 0 {
		cfg.MaxArtistVariants = 8
	}
	if cfg.MaxArtistCandidates <= 0 {
		cfg.MaxArtistCandidates = 3
	}
	if cfg.MaxDiscographyAlbum <= 0 {
		cfg.MaxDiscographyAlbum = 20
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Matcher{
		catalog:     catalog,
		logger:      logger.With("component", "matcher"),
		cfg:         cfg,
		trackCache:  newTTLCache[[]services.SpotifyTrack](cfg.CacheTTL()),
		artistCache: newTTLCache[[]services.SpotifyArtist](cfg.CacheTTL()),
	}
}

// Stats returns a copy of the matcher's counters.
func (m *Matcher) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Matcher) count(fn func(*Stats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}

// Match matches one source track and classifies the outcome.
func (m *Matcher) Match(ctx context.Context, track models.SourceTrack) models.MatchResult {
	start := time.Now()
	result := models.MatchResult{SourceTrack: track}

	result.IsArabic = textutil.IsArabicText(track.Title)
	for _, artist := range track.Artists {
		if textutil.IsArabicText(artist) {
			result.IsArabic = true
			break
		}
	}

	m.logger.Info("matching track", "title", track.Title, "artist", track.PrimaryArtist(), "arabic", result.IsArabic)

	if result.IsArabic {
		if !m.matchArabic(ctx, track, &result) {
			m.logger.Debug("artist-first matching inconclusive, falling back to general cascade")
			m.matchGeneral(ctx, track, &result)
		}
	} else {
		m.matchGeneral(ctx, track, &result)
	}

	m.finalize(&result)
	result.SearchTimeMS = time.Since(start).Milliseconds()
	m.count(func(s *Stats) { s.TotalSearches++ })

	return result
}

// MatchPlaylist matches every track in order, reporting progress every 10
// tracks. Cancellation is cooperative: the context is checked between
// tracks and already-computed results are returned alongside the error.
func (m *Matcher) MatchPlaylist(ctx context.Context, playlist models.SourcePlaylist, progress func(Progress)) ([]models.MatchResult, error) {
	total := len(playlist.Tracks)
	results := make([]models.MatchResult, 0, total)

	m.logger.Info("matching playlist", "name", playlist.Name, "tracks", total)

	for i, track := range playlist.Tracks {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		results = append(results, m.Match(ctx, track))

		if progress != nil && ((i+1)%10 == 0 || i+1 == total) {
			found, confident := 0, 0
			for _, r := range results {
				if r.HasMatch() {
					found++
				}
				if r.ConfidentAt(m.cfg.ConfidenceThreshold) {
					confident++
				}
			}
			progress(Progress{Processed: i + 1, Total: total, Found: found, Confident: confident})
		}
	}

	return results, nil
}

// matchArabic runs the artist-first path. Returns true when a discography
// match is good enough to skip the general cascade.
func (m *Matcher) matchArabic(ctx context.Context, track models.SourceTrack, result *models.MatchResult) bool {
	identified := m.identifyArtist(ctx, result, track.PrimaryArtist())
	if len(identified) == 0 {
		return false
	}

	limit := m.cfg.MaxArtistCandidates
	if limit > len(identified) {
		limit = len(identified)
	}
	for _, candidate := range identified[:limit] {
		result.ArtistVariantsTried = append(result.ArtistVariantsTried, candidate.name)
	}

	for _, candidate := range identified[:limit] {
		m.logger.Debug("searching discography", "artist", candidate.name, "similarity", candidate.score)

		tracks := m.searchDiscography(ctx, candidate.name, track.Title)
		if len(tracks) == 0 {
			continue
		}

		result.DiscographySearched = true
		scored := m.scoreMatches(track, true, tracks, "discography_"+candidate.name)
		result.Candidates = append(result.Candidates, scored...)

		if len(scored) > 0 && scored[0].Confidence >= discographyConfidence {
			m.logger.Info("discography match found", "artist", candidate.name, "confidence", scored[0].Confidence)
			return true
		}
	}

	return false
}

type identifiedArtist struct {
	name  string
	score float64
}

// identifyArtist searches the catalog for transliteration variants of an
// Arabic artist name and returns the best-scoring unique artists.
func (m *Matcher) identifyArtist(ctx context.Context, result *models.MatchResult, arabicName string) []identifiedArtist {
	if arabicName == "" {
		return nil
	}

	variants := textutil.TransliterationVariants(arabicName)
	if len(variants) > m.cfg.MaxArtistVariants {
		variants = variants[:m.cfg.MaxArtistVariants]
	}

	best := make(map[string]float64)
	for _, variant := range variants {
		result.QueriesTried = append(result.QueriesTried, fmt.Sprintf("artist_search: artist:%q", variant))

		artists, err := m.cachedArtistSearch(ctx, variant)
		if err != nil {
			m.logger.Warn("artist search failed", "variant", variant, "err", err)
			continue
		}

		for _, artist := range artists {
			similarity := textutil.PhoneticSimilarity(arabicName, artist.Name)
			if similarity > artistSimilarityFloor && similarity > best[artist.Name] {
				best[artist.Name] = similarity
			}
		}
	}

	identified := make([]identifiedArtist, 0, len(best))
	for name, score := range best {
		identified = append(identified, identifiedArtist{name: name, score: score})
	}
	sort.Slice(identified, func(i, j int) bool {
		if identified[i].score != identified[j].score {
			return identified[i].score > identified[j].score
		}
		return identified[i].name < identified[j].name
	})

	if len(identified) > maxIdentifiedArtists {
		identified = identified[:maxIdentifiedArtists]
	}
	return identified
}

// searchDiscography enumerates an artist's albums and keeps tracks whose
// title resembles the source title.
func (m *Matcher) searchDiscography(ctx context.Context, artistName, title string) []services.SpotifyTrack {
	artists, err := m.cachedArtistSearch(ctx, artistName)
	if err != nil || len(artists) == 0 {
		return nil
	}

	albums, err := m.catalog.ArtistAlbums(ctx, artists[0].ID, m.cfg.MaxDiscographyAlbum)
	if err != nil {
		m.logger.Warn("album listing failed", "artist", artistName, "err", err)
		return nil
	}
	m.count(func(s *Stats) { s.APICalls++ })

	var matching []services.SpotifyTrack
	for _, album := range albums {
		tracks, err := m.catalog.AlbumTracks(ctx, album.ID)
		if err != nil {
			m.logger.Warn("album tracks fetch failed", "album", album.Name, "err", err)
			continue
		}
		m.count(func(s *Stats) { s.APICalls++ })

		for _, track := range tracks {
			if textutil.Similarity(title, track.Name) > discographyTitleFloor {
				track.Album = album
				matching = append(matching, track)
			}
		}
	}

	return matching
}

// matchGeneral runs the strategy cascade until a candidate meets the
// confidence threshold or the strategies are exhausted.
func (m *Matcher) matchGeneral(ctx context.Context, track models.SourceTrack, result *models.MatchResult) {
	for _, st := range searchStrategies(track) {
		result.QueriesTried = append(result.QueriesTried, st.name+": "+st.query)

		items, err := m.cachedTrackSearch(ctx, st.query)
		if err != nil {
			m.logger.Warn("catalog search failed", "strategy", st.name, "err", err)
			continue
		}
		if len(items) == 0 {
			continue
		}

		scored := m.scoreMatches(track, result.IsArabic, items, st.name)
		result.Candidates = append(result.Candidates, scored...)

		if len(scored) > 0 && scored[0].Confidence >= m.cfg.ConfidenceThreshold {
			m.logger.Info("high confidence match", "strategy", st.name, "confidence", scored[0].Confidence)
			break
		}
	}
}

func (m *Matcher) cachedTrackSearch(ctx context.Context, query string) ([]services.SpotifyTrack, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if items, ok := m.trackCache.Get("track:" + query); ok {
		m.count(func(s *Stats) { s.CacheHits++ })
		return items, nil
	}

	items, err := m.catalog.SearchTracks(ctx, query, m.cfg.MaxSearchResults)
	if err != nil {
		return nil, err
	}
	m.count(func(s *Stats) { s.APICalls++ })

	m.trackCache.Set("track:"+query, items)
	return items, nil
}

func (m *Matcher) cachedArtistSearch(ctx context.Context, name string) ([]services.SpotifyArtist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	if items, ok := m.artistCache.Get("artist:" + name); ok {
		m.count(func(s *Stats) { s.CacheHits++ })
		return items, nil
	}

	items, err := m.catalog.SearchArtists(ctx, name, 5)
	if err != nil {
		return nil, err
	}
	m.count(func(s *Stats) { s.APICalls++ })

	m.artistCache.Set("artist:"+name, items)
	return items, nil
}

// scoreMatches converts raw catalog tracks into scored candidates, sorted by
// confidence descending.
func (m *Matcher) scoreMatches(src models.SourceTrack, isArabic bool, items []services.SpotifyTrack, strategyName string) []models.CatalogMatch {
	matches := make([]models.CatalogMatch, 0, len(items))

	for _, item := range items {
		artists := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}

		confidence, reasons := m.confidence(src, isArabic, item.Name, artists, strategyName)

		matches = append(matches, models.CatalogMatch{
			CatalogID:   item.ID,
			Title:       item.Name,
			Artists:     artists,
			Album:       item.Album.Name,
			DurationMS:  item.DurationMS,
			PreviewURL:  item.PreviewURL,
			ExternalURL: item.ExternalURLs.Spotify,
			Confidence:  confidence,
			Strategy:    strategyName,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}

// confidence computes the weighted similarity score for one candidate.
//
// Arabic tracks weight artist identity over the title, since transliterated
// titles are less reliable than a correctly identified artist.
func (m *Matcher) confidence(src models.SourceTrack, isArabic bool, candTitle string, candArtists []string, strategyName string) (float64, []string) {
	var reasons []string
	var score float64

	titleSim := textutil.Similarity(src.Title, candTitle)
	if isArabic {
		translitSim := 0.0
		for _, variant := range textutil.TransliterationVariants(src.Title) {
			if s := textutil.Similarity(variant, candTitle); s > translitSim {
				translitSim = s
			}
		}
		if translitSim > titleSim {
			titleSim = translitSim
			reasons = append(reasons, "Arabic transliteration title match")
		}
	}

	titleWeight, artistWeight := 0.5, 0.4
	if isArabic {
		titleWeight, artistWeight = 0.4, 0.5
	}

	score += titleSim * titleWeight

	switch {
	case titleSim > 0.9:
		reasons = append(reasons, "Excellent title match")
	case titleSim > 0.7:
		reasons = append(reasons, "Good title match")
	case titleSim > 0.5:
		reasons = append(reasons, "Partial title match")
	}

	bestArtistSim := 0.0
	bestArtistName := ""
	for _, srcArtist := range src.Artists {
		for _, candArtist := range candArtists {
			var similarity float64
			if isArabic && textutil.IsArabicText(srcArtist) {
				similarity = textutil.PhoneticSimilarity(srcArtist, candArtist)
				if s := textutil.Similarity(srcArtist, candArtist); s > similarity {
					similarity = s
				}
			} else {
				similarity = textutil.Similarity(srcArtist, candArtist)
			}

			if similarity > bestArtistSim {
				bestArtistSim = similarity
				bestArtistName = candArtist
			}
		}
	}

	score += bestArtistSim * artistWeight

	switch {
	case bestArtistSim > 0.9:
		reasons = append(reasons, "Excellent artist match: "+bestArtistName)
	case bestArtistSim > 0.7:
		reasons = append(reasons, "Good artist match: "+bestArtistName)
	case bestArtistSim > 0.5:
		reasons = append(reasons, "Partial artist match: "+bestArtistName)
	}

	if isArabic {
		if bestArtistSim > strongArtistSimilarity {
			score += 0.1
			reasons = append(reasons, "Arabic artist successfully identified")
		}
		if strings.HasPrefix(strategyName, "discography_") {
			score += 0.1
			reasons = append(reasons, "Found via artist discography search")
		}
	}

	if titleSim == 1.0 {
		score += 0.05
		reasons = append(reasons, "Exact title match")
	}
	if bestArtistSim == 1.0 {
		score += 0.05
		reasons = append(reasons, "Exact artist match")
	}

	if score > 1.0 {
		score = 1.0
	}

	return score, reasons
}

// finalize selects the best candidate and sets the review classification.
func (m *Matcher) finalize(result *models.MatchResult) {
	if result.IsArabic {
		m.count(func(s *Stats) {
			s.ArabicTracksProcessed++
			if result.DiscographySearched {
				s.ArabicDiscographySearches++
			}
		})
	}

	if len(result.Candidates) == 0 {
		result.RequiresReview = true
		m.count(func(s *Stats) { s.TracksRequiringReview++ })
		m.logger.Warn("no matches found", "title", result.SourceTrack.Title)
		return
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Confidence > result.Candidates[j].Confidence
	})

	best := result.Candidates[0]
	result.BestMatch = &best

	confident := best.Confidence >= m.cfg.ConfidenceThreshold
	result.RequiresReview = !confident

	m.count(func(s *Stats) {
		s.SuccessfulMatches++
		if result.IsArabic {
			s.ArabicTracksMatched++
		}
		if confident {
			s.HighConfidenceMatches++
			if result.IsArabic {
				s.ArabicHighConfidence++
			}
		} else {
			s.TracksRequiringReview++
		}
	})

	if !confident {
		m.logger.Warn("low confidence match, requires review",
			"title", result.SourceTrack.Title, "confidence", best.Confidence)
	}
}
