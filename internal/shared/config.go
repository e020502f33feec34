package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Matcher     MatcherConfig     `toml:"matcher"`
	Creator     CreatorConfig     `toml:"creator"`
	Archive     ArchiveConfig     `toml:"archive"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// The engine only consumes a bearer token; obtaining and refreshing it is the
// caller's concern.
type SpotifyConfig struct {
	AccessToken string `toml:"access_token"`
	Market      string `toml:"market"`
}

// MatcherConfig contains track matching tunables.
//
// The variant/artist/album caps bound the number of outbound calls the
// Arabic artist-first path may issue per track. They are heuristics carried
// over from field use, kept configurable rather than hard-coded.
type MatcherConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxSearchResults    int     `toml:"max_search_results"`
	RequestDelayMS      int     `toml:"request_delay_ms"`
	CacheTTLHours       int     `toml:"cache_ttl_hours"`
	MaxArtistVariants   int     `toml:"max_artist_variants"`
	MaxArtistCandidates int     `toml:"max_artist_candidates"`
	MaxDiscographyAlbum int     `toml:"max_discography_albums"`
}

// CreatorConfig contains playlist creation tunables.
type CreatorConfig struct {
	BatchSize          int `toml:"batch_size"`
	CoverArtMaxBytes   int `toml:"cover_art_max_bytes"`
	CoverArtMaxPixels  int `toml:"cover_art_max_pixels"`
	PlaylistPauseMS    int `toml:"playlist_pause_ms"`
	DownloadTimeoutSec int `toml:"download_timeout_sec"`
}

// ArchiveConfig contains migration report archival settings.
type ArchiveConfig struct {
	Path         string `toml:"path"`
	DatabasePath string `toml:"database_path"`
}

// RequestDelay returns the minimum delay between outbound catalog calls.
func (m MatcherConfig) RequestDelay() time.Duration {
	return time.Duration(m.RequestDelayMS) * time.Millisecond
}

// CacheTTL returns the search cache entry lifetime.
func (m MatcherConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLHours) * time.Hour
}

// PlaylistPause returns the pause inserted between playlist creations.
func (c CreatorConfig) PlaylistPause() time.Duration {
	return time.Duration(c.PlaylistPauseMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
