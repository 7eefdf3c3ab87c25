package roundqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/riverqueue/river"
)

// Reconciler is the part of the round service the worker drives.
type Reconciler interface {
	ReconcileUnsynced(ctx context.Context, trigger string) int
}

// ReconcileWorker runs a bulk reconcile pass. The pass never fails, so the job
// never retries; the next tick picks up whatever is still unsynced.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJob]
	reconciler Reconciler
	logger     *slog.Logger
}

func NewReconcileWorker(reconciler Reconciler, logger *slog.Logger) *ReconcileWorker {
	return &ReconcileWorker{reconciler: reconciler, logger: logger}
}

func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJob]) error {
	trigger := job.Args.Trigger
	if trigger == "" {
		trigger = "schedule"
	}
	synced := w.reconciler.ReconcileUnsynced(ctx, trigger)
	w.logger.InfoContext(ctx, "Reconcile job finished",
		attr.String("trigger", trigger),
		attr.Int("synced", synced),
	)
	return nil
}

// Timeout bounds one pass.
func (w *ReconcileWorker) Timeout(*river.Job[ReconcileJob]) time.Duration {
	return 2 * time.Minute
}
