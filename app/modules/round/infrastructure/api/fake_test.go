package roundapi

import (
	"context"
	"fmt"

	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
)

// FakeService serves rounds from a map and records calls.
type FakeService struct {
	roundservice.Service

	rounds map[string]*roundtypes.Round
	trace  []string

	UpdateHoleScoreFn func(ctx context.Context, round *roundtypes.Round, req roundservice.HoleScoreRequest) (*roundservice.MutationResult, error)
	RecordPickupFn    func(ctx context.Context, round *roundtypes.Round, req roundservice.PickupRequest) (*roundservice.MutationResult, error)
	SubmitRoundFn     func(ctx context.Context, round *roundtypes.Round, sigs roundservice.Signatures) (*roundtypes.Round, error)
	ReconcileActiveFn func(ctx context.Context, trigger string) bool
	ReconcileAllFn    func(ctx context.Context, trigger string) int
}

func NewFakeService(seed ...*roundtypes.Round) *FakeService {
	f := &FakeService{rounds: make(map[string]*roundtypes.Round)}
	for _, r := range seed {
		f.rounds[r.ID] = r
	}
	return f
}

func (f *FakeService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) GetRound(_ context.Context, id string) (*roundtypes.Round, error) {
	f.record("GetRound:" + id)
	r, ok := f.rounds[id]
	if !ok {
		return nil, rounddb.ErrNotFound
	}
	return r.Clone(), nil
}

func (f *FakeService) ListRounds(context.Context) ([]*roundtypes.Round, error) {
	f.record("ListRounds")
	out := make([]*roundtypes.Round, 0, len(f.rounds))
	for _, r := range f.rounds {
		out = append(out, r)
	}
	return out, nil
}

func (f *FakeService) UpdateHoleScore(ctx context.Context, round *roundtypes.Round, req roundservice.HoleScoreRequest) (*roundservice.MutationResult, error) {
	f.record(fmt.Sprintf("UpdateHoleScore:%d:%d:%s", req.HoleNumber, req.Strokes, req.Target))
	if f.UpdateHoleScoreFn != nil {
		return f.UpdateHoleScoreFn(ctx, round, req)
	}
	hole, err := round.Hole(req.Target, req.HoleNumber)
	if err != nil {
		return nil, err
	}
	hole.Strokes = req.Strokes
	return &roundservice.MutationResult{Round: round, Hole: hole}, nil
}

func (f *FakeService) RecordPickup(ctx context.Context, round *roundtypes.Round, req roundservice.PickupRequest) (*roundservice.MutationResult, error) {
	f.record(fmt.Sprintf("RecordPickup:%d", req.HoleNumber))
	if f.RecordPickupFn != nil {
		return f.RecordPickupFn(ctx, round, req)
	}
	return &roundservice.MutationResult{Round: round}, nil
}

func (f *FakeService) SubmitRound(ctx context.Context, round *roundtypes.Round, sigs roundservice.Signatures) (*roundtypes.Round, error) {
	f.record("SubmitRound:" + sigs.Golfer)
	if f.SubmitRoundFn != nil {
		return f.SubmitRoundFn(ctx, round, sigs)
	}
	out := round.Clone()
	out.IsSubmitted = true
	return out, nil
}

func (f *FakeService) ReconcileActiveRound(ctx context.Context, trigger string) bool {
	f.record("ReconcileActiveRound:" + trigger)
	if f.ReconcileActiveFn != nil {
		return f.ReconcileActiveFn(ctx, trigger)
	}
	return false
}

func (f *FakeService) ReconcileUnsynced(ctx context.Context, trigger string) int {
	f.record("ReconcileUnsynced:" + trigger)
	if f.ReconcileAllFn != nil {
		return f.ReconcileAllFn(ctx, trigger)
	}
	return 0
}

// FakeScheduler records enqueued reconcile jobs.
type FakeScheduler struct {
	Triggers []string
	Err      error
}

func (f *FakeScheduler) EnqueueReconcile(_ context.Context, trigger string) error {
	f.Triggers = append(f.Triggers, trigger)
	return f.Err
}
