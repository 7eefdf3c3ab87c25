package roundqueue

// ReconcileJob pushes every unsynced round to the remote store.
type ReconcileJob struct {
	Trigger string `json:"trigger"`
}

// Kind returns the job type identifier for River
func (ReconcileJob) Kind() string { return "round_reconcile" }

// JobInfo represents information about a queued job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Trigger     string `json:"trigger"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
