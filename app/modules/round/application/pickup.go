package roundservice

import (
	"context"
	"fmt"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/Black-And-White-Club/scorecard/app/modules/scoring"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
)

// RecordPickup concedes a hole. Gross strokes become floor(netPar)+2 and the
// score is left for whatever later reads strokes. Nothing is sent remotely.
func (s *RoundService) RecordPickup(ctx context.Context, round *roundtypes.Round, req PickupRequest) (*MutationResult, error) {
	if round == nil {
		return nil, ErrRoundRequired
	}

	res, err := s.mutateHole(ctx, "RecordPickup", round, req.Target, req.HoleNumber, func(round *roundtypes.Round, hole *roundtypes.HoleScore) error {
		strokes, err := scoring.PickupStrokes(hole.ForCalcs(), round.DailyHandicapFor(req.Target), req.ExtraStrokes)
		if err != nil {
			return err
		}
		hole.Strokes = strokes
		hole.IsBallPickedUp = true
		hole.IsHoleNotPlayed = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, roundevents.PickupRecordedV1, res.Round, holeChanged(res, req.Target))
	return res, nil
}

// SyncToRemote pushes the stored copy of the round with UpdateRound. The
// caller's copy may be older than what a later mutation committed. Remote
// failures, and edits that land while the push is in flight, report false
// with a nil error; only local store errors fail the call.
func (s *RoundService) SyncToRemote(ctx context.Context, round *roundtypes.Round) (bool, error) {
	if round == nil {
		return false, ErrRoundRequired
	}

	var pushed *roundtypes.Round
	result, err := withTelemetry(s, ctx, "SyncToRemote", round.ID, func(ctx context.Context) (results.OperationResult[bool, error], error) {
		if !s.online(ctx, "UpdateRound") {
			return results.SuccessResult[bool, error](false), nil
		}
		stored, err := s.repo.GetRoundByID(ctx, nil, round.ID)
		if err != nil {
			return results.OperationResult[bool, error]{}, fmt.Errorf("failed to load round for sync: %w", err)
		}
		if !s.callRemote(ctx, "UpdateRound", stored, func(ctx context.Context) error {
			return s.gateway.UpdateRound(ctx, stored.RemoteID(), stored)
		}) {
			return results.SuccessResult[bool, error](false), nil
		}

		next := stored.Clone()
		next.IsSynced = true
		next.LastUpdated = s.now()
		ok, err := s.markSynced(ctx, stored, next.LastUpdated)
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		if ok {
			pushed = next
		}
		return results.SuccessResult[bool, error](ok), nil
	})
	synced, err := unwrap(result, err)
	if err != nil {
		return false, err
	}

	if synced {
		s.publish(ctx, roundevents.RoundSyncedV1, pushed, roundevents.RoundSyncedPayloadV1{
			RoundID:     pushed.ID,
			ClubID:      pushed.ClubID,
			Trigger:     TriggerManual,
			LastUpdated: pushed.LastUpdated,
		})
	}
	return synced, nil
}
