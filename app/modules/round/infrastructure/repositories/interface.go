package rounddb

import (
	"context"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/uptrace/bun"
)

// Repository is the local round store. A nil db uses the repository's own connection.
type Repository interface {
	// GetActiveTodayRound returns the unsubmitted, non-abandoned round dated date.
	GetActiveTodayRound(ctx context.Context, db bun.IDB, date string) (*roundtypes.Round, error)

	// SaveRound upserts the whole record keyed by id.
	SaveRound(ctx context.Context, db bun.IDB, round *roundtypes.Round) error

	GetRoundByID(ctx context.Context, db bun.IDB, id string) (*roundtypes.Round, error)

	// GetAllRounds returns every round, newest created first.
	GetAllRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error)

	DeleteRound(ctx context.Context, db bun.IDB, id string) error
	ClearAllRounds(ctx context.Context, db bun.IDB) error
	GetUnsyncedRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error)

	// MarkAsSynced flags the round synced and stamps syncedAt, but only while its
	// last_updated still equals seenLastUpdated. Otherwise it returns ErrStaleRound.
	MarkAsSynced(ctx context.Context, db bun.IDB, id string, seenLastUpdated, syncedAt int64) error
	GetRoundCount(ctx context.Context, db bun.IDB) (int, error)
}
