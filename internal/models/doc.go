// Package models defines domain entities for the Discogs collection sync service.
//
// The package contains three categories of types:
//
// 1. Collection-side types describing the desired state:
//   - [Folder] : A Discogs collection folder (the unit of sync)
//   - [Release] : A Discogs release inside a folder or the wantlist
//   - [TrackDescriptor] : A single track on a release, with its version info
//
// 2. Platform-side types describing a streaming destination:
//   - [Platform] : The closed set of sync destinations (Spotify, SoundCloud)
//   - [Candidate] : A search result returned by a platform
//   - [PlaylistState] : Current remote playlist contents
//
// 3. Sync state produced and persisted by the engine:
//   - [MatchResult] : A scored track-to-candidate resolution
//   - [CacheEntry] : A persisted resolution, keyed by release/position/destination
//   - [FolderMapping] : The persisted folder-to-playlist link per destination
//   - [SyncPlan] : The add/remove diff computed for one folder
//   - [MissingTrack] : A track that resolved to no candidate in the last run
package models
