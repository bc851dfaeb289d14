package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthFailed       = fmt.Errorf("authentication failed")

	// Sync engine errors.
	//
	// ErrTransient marks a collaborator failure that survived the retry
	// policy. The engine marks the folder failed and moves on; it must never
	// be interpreted as "no match" (a failed lookup never removes a track).
	ErrTransient = fmt.Errorf("transient external error")

	// ErrCacheInconsistent marks a stored cache entry whose fields fall
	// outside the expected domain (e.g. an unknown destination). Always
	// fatal: it means the database was written by something else.
	ErrCacheInconsistent = fmt.Errorf("match cache inconsistent")

	// ErrReconcileConflict marks a reconcile precondition violation, such as
	// duplicate external ids in remote playlist state. Reported per folder,
	// never suppressed.
	ErrReconcileConflict = fmt.Errorf("reconciliation conflict")

	// API and service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
