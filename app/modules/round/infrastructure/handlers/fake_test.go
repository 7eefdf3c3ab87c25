package roundhandlers

import (
	"context"

	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
)

// FakeService records reconcile calls. Other methods are not used by the handlers.
type FakeService struct {
	roundservice.Service

	trace       []string
	ReconcileFn func(ctx context.Context, trigger string) bool
}

func (f *FakeService) ReconcileActiveRound(ctx context.Context, trigger string) bool {
	f.trace = append(f.trace, "ReconcileActiveRound:"+trigger)
	if f.ReconcileFn != nil {
		return f.ReconcileFn(ctx, trigger)
	}
	return false
}

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}
