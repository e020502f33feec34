// package models defines the data model for the playlist migration engine.
//
// Source-side entities (SourceTrack, SourcePlaylist) are produced by an
// external scraper and treated as immutable input. Catalog-side entities
// (CatalogMatch, MatchResult) are produced by the matching engine, and
// PlaylistCreationResult/MigrationReport aggregate the outcome of a
// migration session. All types are JSON-serializable for archival.
package models
