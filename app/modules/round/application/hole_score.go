package roundservice

import (
	"context"
	"fmt"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
	"github.com/uptrace/bun"
)

// holeEdit mutates a copy of one hole. round is the pre-edit state.
type holeEdit func(round *roundtypes.Round, hole *roundtypes.HoleScore) error

// UpdateHoleScore records a gross score, scored with the quick preview table.
func (s *RoundService) UpdateHoleScore(ctx context.Context, round *roundtypes.Round, req HoleScoreRequest) (*MutationResult, error) {
	if round == nil {
		return nil, ErrRoundRequired
	}

	edit := func(round *roundtypes.Round, hole *roundtypes.HoleScore) error {
		if req.Strokes < 0 {
			return ErrInvalidStrokes
		}
		score, err := s.preview.HolePoints(hole.ForCalcs(), round.DailyHandicapFor(req.Target), req.Strokes, nil)
		if err != nil {
			return err
		}
		hole.Strokes = req.Strokes
		hole.Score = score
		return nil
	}

	res, err := s.mutateHole(ctx, "UpdateHoleScore", round, req.Target, req.HoleNumber, edit)
	if err != nil {
		return nil, err
	}

	// The local commit is final. The remote copy is a mirror and may lag.
	if s.online(ctx, "UpdateHoleScore") {
		res.RemoteSynced = s.callRemote(ctx, "UpdateHoleScore", res.Round, func(ctx context.Context) error {
			update, err := holeUpdate(res.Round, req.HoleNumber)
			if err != nil {
				return err
			}
			return s.gateway.UpdateHoleScore(ctx, res.Round.RemoteID(), update)
		})
	}

	s.publish(ctx, roundevents.HoleScoreUpdatedV1, res.Round, holeChanged(res, req.Target))
	return res, nil
}

// MarkHoleNotPlayed flags a hole as not played and clears its result.
func (s *RoundService) MarkHoleNotPlayed(ctx context.Context, round *roundtypes.Round, holeNumber int, target roundtypes.Target) (*MutationResult, error) {
	if round == nil {
		return nil, ErrRoundRequired
	}

	res, err := s.mutateHole(ctx, "MarkHoleNotPlayed", round, target, holeNumber, func(_ *roundtypes.Round, hole *roundtypes.HoleScore) error {
		hole.IsHoleNotPlayed = true
		hole.IsBallPickedUp = false
		hole.Strokes = 0
		hole.Score = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, roundevents.HoleNotPlayedV1, res.Round, holeChanged(res, target))
	return res, nil
}

// mutateHole applies edit to a clone of round and persists it. Addressing and
// edit errors are domain failures; store errors are infrastructure errors.
func (s *RoundService) mutateHole(ctx context.Context, operation string, round *roundtypes.Round, target roundtypes.Target, holeNumber int, edit holeEdit) (*MutationResult, error) {
	mutateTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*MutationResult, error], error) {
		return s.mutateHoleLogic(ctx, db, round, target, holeNumber, edit)
	}

	result, err := withTelemetry(s, ctx, operation, round.ID, func(ctx context.Context) (results.OperationResult[*MutationResult, error], error) {
		return runInTx(s, ctx, mutateTx)
	})
	return unwrap(result, err)
}

func (s *RoundService) mutateHoleLogic(ctx context.Context, db bun.IDB, round *roundtypes.Round, target roundtypes.Target, holeNumber int, edit holeEdit) (results.OperationResult[*MutationResult, error], error) {
	hole, err := round.Hole(target, holeNumber)
	if err != nil {
		return results.FailureResult[*MutationResult, error](err), nil
	}
	if err := edit(round, &hole); err != nil {
		return results.FailureResult[*MutationResult, error](err), nil
	}

	next := round.Clone()
	if err := next.SetHole(target, hole); err != nil {
		return results.FailureResult[*MutationResult, error](err), nil
	}
	next.LastUpdated = s.now()
	next.IsSynced = false

	if err := s.repo.SaveRound(ctx, db, next); err != nil {
		return results.OperationResult[*MutationResult, error]{}, fmt.Errorf("failed to save round: %w", err)
	}

	return results.SuccessResult[*MutationResult, error](&MutationResult{Round: next, Hole: hole}), nil
}

// holeUpdate carries both players' values at holeNumber.
func holeUpdate(round *roundtypes.Round, holeNumber int) (roundremote.HoleScoreUpdate, error) {
	strokes, score, partnerStrokes, partnerScore, err := round.HoleAt(holeNumber)
	if err != nil {
		return roundremote.HoleScoreUpdate{}, err
	}
	return roundremote.HoleScoreUpdate{
		HoleNumber:     holeNumber,
		Strokes:        strokes,
		Score:          score,
		PartnerStrokes: partnerStrokes,
		PartnerScore:   partnerScore,
	}, nil
}

func holeChanged(res *MutationResult, target roundtypes.Target) roundevents.HoleScoreChangedPayloadV1 {
	return roundevents.HoleScoreChangedPayloadV1{
		RoundID:      res.Round.ID,
		ClubID:       res.Round.ClubID,
		Target:       target.String(),
		HoleScore:    res.Hole,
		RemoteSynced: res.RemoteSynced,
		LastUpdated:  res.Round.LastUpdated,
	}
}
