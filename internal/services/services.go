// package services defines interface Catalog for interacting with the
// target streaming service's HTTP API.
package services

import "context"

// Catalog defines the operations the migration engine needs from the target
// catalog. All calls require prior authentication; token acquisition and
// refresh are the caller's responsibility.
type Catalog interface {
	// SearchTracks searches the catalog for tracks matching the query.
	SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error)

	// SearchArtists searches the catalog for artists matching the name.
	SearchArtists(ctx context.Context, name string, limit int) ([]SpotifyArtist, error)

	// ArtistAlbums lists an artist's albums and singles, newest first.
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]SpotifyAlbum, error)

	// AlbumTracks lists the tracks on an album.
	AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error)

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// CreatePlaylist creates an empty playlist owned by the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*SpotifyPlaylist, error)

	// AddTracks adds up to 100 track URIs to a playlist in one call.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// UploadCoverImage uploads base64-encoded JPEG cover art to a playlist.
	UploadCoverImage(ctx context.Context, playlistID string, base64JPEG []byte) error

	// Name returns the name of the service (e.g., "Spotify").
	Name() string
}
