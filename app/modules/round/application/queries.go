package roundservice

import (
	"context"
	"errors"
	"fmt"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
	"github.com/uptrace/bun"
)

// StartRound stores a new round. ID, RoundDate and timestamps are filled in
// when missing. Remote registration is best effort; on success the remote
// uuid is kept on the local record.
func (s *RoundService) StartRound(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error) {
	if round == nil {
		return nil, ErrRoundRequired
	}

	next := round.Clone()
	now := s.now()
	if next.ID == "" {
		next.ID = s.newID()
	}
	if next.RoundDate == "" {
		next.RoundDate = s.dates.TodayDateString()
	}
	if next.StartTime == 0 {
		next.StartTime = now
	}
	next.CreatedAt = now
	next.LastUpdated = now
	next.IsSynced = false

	startTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*roundtypes.Round, error], error) {
		return s.startRoundLogic(ctx, db, next)
	}
	result, err := withTelemetry(s, ctx, "StartRound", next.ID, func(ctx context.Context) (results.OperationResult[*roundtypes.Round, error], error) {
		return runInTx(s, ctx, startTx)
	})
	started, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	if !s.online(ctx, "CreateRound") {
		return started, nil
	}
	var created *roundtypes.Round
	ok := s.callRemote(ctx, "CreateRound", started, func(ctx context.Context) error {
		var err error
		created, err = s.gateway.CreateRound(ctx, started)
		return err
	})
	if !ok || created == nil || created.RemoteUUID == "" {
		return started, nil
	}

	linked := started.Clone()
	linked.RemoteUUID = created.RemoteUUID
	if err := s.repo.SaveRound(ctx, nil, linked); err != nil {
		s.logger.WarnContext(ctx, "Failed to store remote uuid", attr.RoundID(linked.ID), attr.Error(err))
		return started, nil
	}
	return linked, nil
}

func (s *RoundService) startRoundLogic(ctx context.Context, db bun.IDB, round *roundtypes.Round) (results.OperationResult[*roundtypes.Round, error], error) {
	if err := checkHoles(round.HoleScores); err != nil {
		return results.FailureResult[*roundtypes.Round, error](err), nil
	}
	if round.PlayingPartnerRound != nil {
		if err := checkHoles(round.PlayingPartnerRound.HoleScores); err != nil {
			return results.FailureResult[*roundtypes.Round, error](err), nil
		}
	}

	existing, err := s.repo.GetActiveTodayRound(ctx, db, round.RoundDate)
	if err != nil && !errors.Is(err, rounddb.ErrNotFound) {
		return results.OperationResult[*roundtypes.Round, error]{}, fmt.Errorf("failed to check active round: %w", err)
	}
	if existing != nil && existing.ID != round.ID {
		return results.FailureResult[*roundtypes.Round, error](ErrActiveRoundExists), nil
	}

	if err := s.repo.SaveRound(ctx, db, round); err != nil {
		return results.OperationResult[*roundtypes.Round, error]{}, fmt.Errorf("failed to save round: %w", err)
	}
	return results.SuccessResult[*roundtypes.Round, error](round), nil
}

func checkHoles(holes []roundtypes.HoleScore) error {
	for i, h := range holes {
		if h.HoleNumber != i+1 {
			return fmt.Errorf("%w: position %d holds hole %d", ErrMalformedHoles, i, h.HoleNumber)
		}
	}
	return nil
}

// DeleteRound removes the round locally, then remotely when reachable.
func (s *RoundService) DeleteRound(ctx context.Context, roundID string) error {
	result, err := withTelemetry(s, ctx, "DeleteRound", roundID, func(ctx context.Context) (results.OperationResult[*roundtypes.Round, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*roundtypes.Round, error], error) {
			round, err := s.repo.GetRoundByID(ctx, db, roundID)
			if err != nil {
				if errors.Is(err, rounddb.ErrNotFound) {
					return results.FailureResult[*roundtypes.Round, error](err), nil
				}
				return results.OperationResult[*roundtypes.Round, error]{}, err
			}
			if err := s.repo.DeleteRound(ctx, db, roundID); err != nil {
				return results.OperationResult[*roundtypes.Round, error]{}, err
			}
			return results.SuccessResult[*roundtypes.Round, error](round), nil
		})
	})
	deleted, err := unwrap(result, err)
	if err != nil {
		return err
	}

	if s.online(ctx, "DeleteRound") {
		s.callRemote(ctx, "DeleteRound", deleted, func(ctx context.Context) error {
			return s.gateway.DeleteRound(ctx, deleted.RemoteID())
		})
	}
	return nil
}

// GetRound returns the stored round or rounddb.ErrNotFound.
func (s *RoundService) GetRound(ctx context.Context, roundID string) (*roundtypes.Round, error) {
	result, err := withTelemetry(s, ctx, "GetRound", roundID, func(ctx context.Context) (results.OperationResult[*roundtypes.Round, error], error) {
		return s.lookup(s.repo.GetRoundByID(ctx, nil, roundID))
	})
	return unwrap(result, err)
}

// GetActiveRound returns today's active round or rounddb.ErrNotFound.
func (s *RoundService) GetActiveRound(ctx context.Context) (*roundtypes.Round, error) {
	today := s.dates.TodayDateString()
	result, err := withTelemetry(s, ctx, "GetActiveRound", today, func(ctx context.Context) (results.OperationResult[*roundtypes.Round, error], error) {
		return s.lookup(s.repo.GetActiveTodayRound(ctx, nil, today))
	})
	return unwrap(result, err)
}

func (s *RoundService) lookup(round *roundtypes.Round, err error) (results.OperationResult[*roundtypes.Round, error], error) {
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			return results.FailureResult[*roundtypes.Round, error](err), nil
		}
		return results.OperationResult[*roundtypes.Round, error]{}, err
	}
	return results.SuccessResult[*roundtypes.Round, error](round), nil
}

// ListRounds returns every stored round, newest first.
func (s *RoundService) ListRounds(ctx context.Context) ([]*roundtypes.Round, error) {
	result, err := withTelemetry(s, ctx, "ListRounds", "all", func(ctx context.Context) (results.OperationResult[[]*roundtypes.Round, error], error) {
		rounds, err := s.repo.GetAllRounds(ctx, nil)
		if err != nil {
			return results.OperationResult[[]*roundtypes.Round, error]{}, err
		}
		return results.SuccessResult[[]*roundtypes.Round, error](rounds), nil
	})
	return unwrap(result, err)
}

// RoundCount returns the number of stored rounds.
func (s *RoundService) RoundCount(ctx context.Context) (int, error) {
	return s.repo.GetRoundCount(ctx, nil)
}

// RoundHistory reads a golfer's round summaries from the remote store. Errors
// are returned as *roundremote.Error.
func (s *RoundService) RoundHistory(ctx context.Context, golfLinkNo string) ([]roundremote.RoundSummary, error) {
	result, err := withTelemetry(s, ctx, "RoundHistory", golfLinkNo, func(ctx context.Context) (results.OperationResult[[]roundremote.RoundSummary, error], error) {
		if s.gateway == nil {
			return results.OperationResult[[]roundremote.RoundSummary, error]{}, fmt.Errorf("remote gateway is not configured")
		}
		summaries, err := s.gateway.GetRoundsSummary(ctx, golfLinkNo)
		if err != nil {
			s.metrics.RecordRemoteCall(ctx, "GetRoundsSummary", roundremote.KindOf(err).String())
			return results.OperationResult[[]roundremote.RoundSummary, error]{}, err
		}
		s.metrics.RecordRemoteCall(ctx, "GetRoundsSummary", "success")
		return results.SuccessResult[[]roundremote.RoundSummary, error](summaries), nil
	})
	return unwrap(result, err)
}
