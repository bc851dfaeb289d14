// Package repositories implements sqlite-backed persistence for resolved
// track matches, folder-to-playlist mappings, and tracks that could not be
// matched on a platform.
package repositories
