package roundservice

import (
	"context"
	"errors"
	"fmt"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
	"github.com/uptrace/bun"
)

// Reconcile outcomes recorded on the reconcile counter.
const (
	outcomeOffline       = "offline"
	outcomeNoActive      = "no_active_round"
	outcomeAlreadySynced = "already_synced"
	outcomeRemoteFailed  = "remote_failed"
	outcomeStoreFailed   = "store_failed"
	outcomeStale         = "changed_during_push"
	outcomeSynced        = "synced"
)

// ReconcileActiveRound pushes today's round in full if it has unsynced changes.
// It reports whether a push happened. Every failure, including a panic, is
// logged and reported as false.
func (s *RoundService) ReconcileActiveRound(ctx context.Context, trigger string) bool {
	result, err := withTelemetry(s, ctx, "ReconcileActiveRound", trigger, func(ctx context.Context) (results.OperationResult[bool, error], error) {
		return s.reconcileActiveLogic(ctx, trigger)
	})
	if err != nil || !result.IsSuccess() {
		return false
	}
	return *result.Success
}

func (s *RoundService) reconcileActiveLogic(ctx context.Context, trigger string) (results.OperationResult[bool, error], error) {
	if !s.network.IsNetworkAvailable(ctx) {
		s.metrics.RecordReconcile(ctx, outcomeOffline)
		return results.SuccessResult[bool, error](false), nil
	}

	round, err := s.repo.GetActiveTodayRound(ctx, nil, s.dates.TodayDateString())
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			s.metrics.RecordReconcile(ctx, outcomeNoActive)
			return results.SuccessResult[bool, error](false), nil
		}
		s.metrics.RecordReconcile(ctx, outcomeStoreFailed)
		return results.OperationResult[bool, error]{}, fmt.Errorf("failed to load active round: %w", err)
	}

	synced, err := s.reconcileRound(ctx, round, trigger)
	if err != nil {
		return results.OperationResult[bool, error]{}, err
	}
	return results.SuccessResult[bool, error](synced), nil
}

// ReconcileUnsynced pushes every unsynced round, oldest change first, and
// returns how many reached the remote store.
func (s *RoundService) ReconcileUnsynced(ctx context.Context, trigger string) int {
	result, err := withTelemetry(s, ctx, "ReconcileUnsynced", trigger, func(ctx context.Context) (results.OperationResult[int, error], error) {
		if !s.network.IsNetworkAvailable(ctx) {
			s.metrics.RecordReconcile(ctx, outcomeOffline)
			return results.SuccessResult[int, error](0), nil
		}

		rounds, err := s.repo.GetUnsyncedRounds(ctx, nil)
		if err != nil {
			s.metrics.RecordReconcile(ctx, outcomeStoreFailed)
			return results.OperationResult[int, error]{}, fmt.Errorf("failed to list unsynced rounds: %w", err)
		}

		synced := 0
		for _, round := range rounds {
			if ctx.Err() != nil {
				break
			}
			ok, err := s.reconcileRound(ctx, round, trigger)
			if err != nil {
				s.logger.WarnContext(ctx, "Round reconcile failed",
					attr.ExtractCorrelationID(ctx),
					attr.RoundID(round.ID),
					attr.Error(err),
				)
				continue
			}
			if ok {
				synced++
			}
		}
		return results.SuccessResult[int, error](synced), nil
	})
	if err != nil || !result.IsSuccess() {
		return 0
	}
	return *result.Success
}

// reconcileRound sends the full round with UpdateAllHoleScores and then
// persists the synced flag. A remote failure is not an error.
func (s *RoundService) reconcileRound(ctx context.Context, round *roundtypes.Round, trigger string) (bool, error) {
	if round.IsSynced {
		s.metrics.RecordReconcile(ctx, outcomeAlreadySynced)
		return false, nil
	}

	pushed := s.callRemote(ctx, "UpdateAllHoleScores", round, func(ctx context.Context) error {
		return s.gateway.UpdateAllHoleScores(ctx, round.RemoteID(), round)
	})
	if !pushed {
		s.metrics.RecordReconcile(ctx, outcomeRemoteFailed)
		return false, nil
	}

	next := round.Clone()
	next.IsSynced = true
	next.LastUpdated = s.now()

	ok, err := s.markSynced(ctx, round, next.LastUpdated)
	if err != nil {
		s.metrics.RecordReconcile(ctx, outcomeStoreFailed)
		return false, err
	}
	if !ok {
		s.metrics.RecordReconcile(ctx, outcomeStale)
		return false, nil
	}

	s.metrics.RecordReconcile(ctx, outcomeSynced)
	s.publish(ctx, roundevents.RoundSyncedV1, next, roundevents.RoundSyncedPayloadV1{
		RoundID:     next.ID,
		ClubID:      next.ClubID,
		Trigger:     trigger,
		LastUpdated: next.LastUpdated,
	})
	return true, nil
}

// markSynced flags the round synced only if nothing was committed since seen
// was read. A newer edit keeps the round unsynced for the next pass.
func (s *RoundService) markSynced(ctx context.Context, seen *roundtypes.Round, syncedAt int64) (bool, error) {
	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		err := s.repo.MarkAsSynced(ctx, db, seen.ID, seen.LastUpdated, syncedAt)
		switch {
		case err == nil:
			return results.SuccessResult[bool, error](true), nil
		case errors.Is(err, rounddb.ErrStaleRound):
			s.logger.InfoContext(ctx, "Round changed while it was pushed, leaving it unsynced",
				attr.ExtractCorrelationID(ctx),
				attr.RoundID(seen.ID),
			)
			return results.SuccessResult[bool, error](false), nil
		default:
			return results.OperationResult[bool, error]{}, fmt.Errorf("failed to mark round synced: %w", err)
		}
	})
	if err != nil {
		return false, err
	}
	return result.IsSuccess() && *result.Success, nil
}
