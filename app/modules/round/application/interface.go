package roundservice

import (
	"context"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
)

// Service is the round scoring and sync engine.
type Service interface {
	// StartRound stores a new round and registers it remotely when possible.
	StartRound(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error)

	// UpdateHoleScore commits a gross score locally, then mirrors the hole remotely
	// on a best-effort basis. Remote failures never reach the caller.
	UpdateHoleScore(ctx context.Context, round *roundtypes.Round, req HoleScoreRequest) (*MutationResult, error)

	// RecordPickup commits a picked-up hole locally. Remote sync is left to SyncToRemote.
	RecordPickup(ctx context.Context, round *roundtypes.Round, req PickupRequest) (*MutationResult, error)

	MarkHoleNotPlayed(ctx context.Context, round *roundtypes.Round, holeNumber int, target roundtypes.Target) (*MutationResult, error)

	// SyncToRemote pushes the whole round and marks it synced on success.
	// Only local store errors are returned.
	SyncToRemote(ctx context.Context, round *roundtypes.Round) (bool, error)

	// ReconcileActiveRound pushes today's unsynced round once. It never fails.
	ReconcileActiveRound(ctx context.Context, trigger string) bool
	ReconcileUnsynced(ctx context.Context, trigger string) int

	// SubmitRound sends the signed cards and marks the round submitted on acceptance.
	SubmitRound(ctx context.Context, round *roundtypes.Round, sigs Signatures) (*roundtypes.Round, error)

	DeleteRound(ctx context.Context, roundID string) error
	GetRound(ctx context.Context, roundID string) (*roundtypes.Round, error)
	GetActiveRound(ctx context.Context) (*roundtypes.Round, error)
	ListRounds(ctx context.Context) ([]*roundtypes.Round, error)
	RoundCount(ctx context.Context) (int, error)
	RoundHistory(ctx context.Context, golfLinkNo string) ([]roundremote.RoundSummary, error)
}
