package roundservice

import (
	"context"
	"sort"
	"sync"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Round Repo
// ------------------------

// FakeRoundRepo keeps rounds in memory unless a Func override is set.
type FakeRoundRepo struct {
	trace  []string
	rounds map[string]*roundtypes.Round

	GetActiveTodayRoundFunc func(ctx context.Context, db bun.IDB, date string) (*roundtypes.Round, error)
	SaveRoundFunc           func(ctx context.Context, db bun.IDB, round *roundtypes.Round) error
	GetRoundByIDFunc        func(ctx context.Context, db bun.IDB, id string) (*roundtypes.Round, error)
	GetUnsyncedRoundsFunc   func(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error)
	MarkAsSyncedFunc        func(ctx context.Context, db bun.IDB, id string, seenLastUpdated, syncedAt int64) error
}

func NewFakeRoundRepo(seed ...*roundtypes.Round) *FakeRoundRepo {
	f := &FakeRoundRepo{trace: []string{}, rounds: map[string]*roundtypes.Round{}}
	for _, r := range seed {
		f.rounds[r.ID] = r.Clone()
	}
	return f
}

func (f *FakeRoundRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRoundRepo) GetActiveTodayRound(ctx context.Context, db bun.IDB, date string) (*roundtypes.Round, error) {
	f.record("GetActiveTodayRound")
	if f.GetActiveTodayRoundFunc != nil {
		return f.GetActiveTodayRoundFunc(ctx, db, date)
	}
	var best *roundtypes.Round
	for _, r := range f.rounds {
		if r.IsActiveOn(date) && (best == nil || r.LastUpdated > best.LastUpdated) {
			best = r
		}
	}
	if best == nil {
		return nil, rounddb.ErrNotFound
	}
	return best.Clone(), nil
}

func (f *FakeRoundRepo) SaveRound(ctx context.Context, db bun.IDB, round *roundtypes.Round) error {
	f.record("SaveRound")
	if f.SaveRoundFunc != nil {
		return f.SaveRoundFunc(ctx, db, round)
	}
	f.rounds[round.ID] = round.Clone()
	return nil
}

func (f *FakeRoundRepo) GetRoundByID(ctx context.Context, db bun.IDB, id string) (*roundtypes.Round, error) {
	f.record("GetRoundByID")
	if f.GetRoundByIDFunc != nil {
		return f.GetRoundByIDFunc(ctx, db, id)
	}
	r, ok := f.rounds[id]
	if !ok {
		return nil, rounddb.ErrNotFound
	}
	return r.Clone(), nil
}

func (f *FakeRoundRepo) GetAllRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error) {
	f.record("GetAllRounds")
	out := make([]*roundtypes.Round, 0, len(f.rounds))
	for _, r := range f.rounds {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (f *FakeRoundRepo) DeleteRound(ctx context.Context, db bun.IDB, id string) error {
	f.record("DeleteRound")
	if _, ok := f.rounds[id]; !ok {
		return rounddb.ErrNotFound
	}
	delete(f.rounds, id)
	return nil
}

func (f *FakeRoundRepo) ClearAllRounds(ctx context.Context, db bun.IDB) error {
	f.record("ClearAllRounds")
	f.rounds = map[string]*roundtypes.Round{}
	return nil
}

func (f *FakeRoundRepo) GetUnsyncedRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error) {
	f.record("GetUnsyncedRounds")
	if f.GetUnsyncedRoundsFunc != nil {
		return f.GetUnsyncedRoundsFunc(ctx, db)
	}
	var out []*roundtypes.Round
	for _, r := range f.rounds {
		if !r.IsSynced {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated < out[j].LastUpdated })
	return out, nil
}

func (f *FakeRoundRepo) MarkAsSynced(ctx context.Context, db bun.IDB, id string, seenLastUpdated, syncedAt int64) error {
	f.record("MarkAsSynced")
	if f.MarkAsSyncedFunc != nil {
		return f.MarkAsSyncedFunc(ctx, db, id, seenLastUpdated, syncedAt)
	}
	r, ok := f.rounds[id]
	if !ok {
		return rounddb.ErrNotFound
	}
	if r.LastUpdated != seenLastUpdated {
		return rounddb.ErrStaleRound
	}
	r.IsSynced = true
	r.LastUpdated = syncedAt
	return nil
}

func (f *FakeRoundRepo) GetRoundCount(ctx context.Context, db bun.IDB) (int, error) {
	f.record("GetRoundCount")
	return len(f.rounds), nil
}

// Stored returns the persisted copy of id, or nil.
func (f *FakeRoundRepo) Stored(id string) *roundtypes.Round {
	if r, ok := f.rounds[id]; ok {
		return r.Clone()
	}
	return nil
}

func (f *FakeRoundRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ rounddb.Repository = (*FakeRoundRepo)(nil)

// ------------------------
// Fake Gateway
// ------------------------

type FakeGateway struct {
	trace []string

	UpdateHoleScoreFunc     func(ctx context.Context, roundID string, update roundremote.HoleScoreUpdate) error
	UpdateAllHoleScoresFunc func(ctx context.Context, roundID string, round *roundtypes.Round) error
	CreateRoundFunc         func(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error)
	UpdateRoundFunc         func(ctx context.Context, roundID string, round *roundtypes.Round) error
	DeleteRoundFunc         func(ctx context.Context, roundID string) error
	GetRoundsSummaryFunc    func(ctx context.Context, golfLinkNo string) ([]roundremote.RoundSummary, error)
	SubmitScoresFunc        func(ctx context.Context, payload roundremote.SubmissionPayload) error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{trace: []string{}}
}

func (f *FakeGateway) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGateway) UpdateHoleScore(ctx context.Context, roundID string, update roundremote.HoleScoreUpdate) error {
	f.record("UpdateHoleScore")
	if f.UpdateHoleScoreFunc != nil {
		return f.UpdateHoleScoreFunc(ctx, roundID, update)
	}
	return nil
}

func (f *FakeGateway) UpdateAllHoleScores(ctx context.Context, roundID string, round *roundtypes.Round) error {
	f.record("UpdateAllHoleScores")
	if f.UpdateAllHoleScoresFunc != nil {
		return f.UpdateAllHoleScoresFunc(ctx, roundID, round)
	}
	return nil
}

func (f *FakeGateway) CreateRound(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error) {
	f.record("CreateRound")
	if f.CreateRoundFunc != nil {
		return f.CreateRoundFunc(ctx, round)
	}
	return round.Clone(), nil
}

func (f *FakeGateway) UpdateRound(ctx context.Context, roundID string, round *roundtypes.Round) error {
	f.record("UpdateRound")
	if f.UpdateRoundFunc != nil {
		return f.UpdateRoundFunc(ctx, roundID, round)
	}
	return nil
}

func (f *FakeGateway) DeleteRound(ctx context.Context, roundID string) error {
	f.record("DeleteRound")
	if f.DeleteRoundFunc != nil {
		return f.DeleteRoundFunc(ctx, roundID)
	}
	return nil
}

func (f *FakeGateway) GetRoundDetail(ctx context.Context, roundID string) (*roundtypes.Round, error) {
	f.record("GetRoundDetail")
	return nil, &roundremote.Error{Kind: roundremote.KindServer, Operation: "GetRoundDetail", StatusCode: 404}
}

func (f *FakeGateway) GetRoundsSummary(ctx context.Context, golfLinkNo string) ([]roundremote.RoundSummary, error) {
	f.record("GetRoundsSummary")
	if f.GetRoundsSummaryFunc != nil {
		return f.GetRoundsSummaryFunc(ctx, golfLinkNo)
	}
	return nil, nil
}

func (f *FakeGateway) SubmitScores(ctx context.Context, payload roundremote.SubmissionPayload) error {
	f.record("SubmitScores")
	if f.SubmitScoresFunc != nil {
		return f.SubmitScoresFunc(ctx, payload)
	}
	return nil
}

func (f *FakeGateway) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Count returns how many times step was called.
func (f *FakeGateway) Count(step string) int {
	n := 0
	for _, s := range f.trace {
		if s == step {
			n++
		}
	}
	return n
}

var _ roundremote.Gateway = (*FakeGateway)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	topics []string
	Err    error
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.Err
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.topics))
	copy(out, p.topics)
	return out
}

var _ message.Publisher = (*FakePublisher)(nil)
