package tasks

// Phase identifies where in the run a progress update was emitted.
type Phase string

const (
	PhaseListing     Phase = "listing"
	PhaseResolving   Phase = "resolving"
	PhaseReconciling Phase = "reconciling"
	PhaseApplying    Phase = "applying"
	PhaseCleanup     Phase = "cleanup"
	PhaseDone        Phase = "done"
)

// ProgressUpdate is a point-in-time view of the run for display. Updates
// are advisory; a slow consumer drops them rather than stalling the sync.
type ProgressUpdate struct {
	Phase      Phase
	FolderName string
	Completed  int
	Total      int
	Message    string
}
