// Package tasks implements the sync engine: resolving Discogs tracks to
// platform candidates, planning playlist changes, and applying them with
// bounded folder-level parallelism.
package tasks
