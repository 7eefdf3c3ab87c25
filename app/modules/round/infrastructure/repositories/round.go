package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when no round matches.
	ErrNotFound = errors.New("round not found")
	// ErrUnsupportedSchema is returned for rows written with a newer schema version.
	ErrUnsupportedSchema = errors.New("unsupported round schema version")
	// ErrStaleRound is returned by MarkAsSynced when the stored round changed after it was read.
	ErrStaleRound = errors.New("round changed since it was read")
)

// Impl implements Repository with bun.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a round repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetActiveTodayRound(ctx context.Context, db bun.IDB, date string) (*roundtypes.Round, error) {
	db = r.resolveDB(db)
	row := new(Round)
	err := db.NewSelect().
		Model(row).
		Where("r.round_date = ?", date).
		Where("(r.is_submitted IS NULL OR r.is_submitted = ?)", false).
		Where("(r.is_abandoned IS NULL OR r.is_abandoned = ?)", false).
		OrderExpr("r.last_updated DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active round for %s: %w", date, err)
	}
	return row.ToDomain()
}

func (r *Impl) SaveRound(ctx context.Context, db bun.IDB, round *roundtypes.Round) error {
	if round == nil || round.ID == "" {
		return errors.New("round id is required")
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(FromDomain(round)).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}
	return nil
}

func (r *Impl) GetRoundByID(ctx context.Context, db bun.IDB, id string) (*roundtypes.Round, error) {
	db = r.resolveDB(db)
	row := new(Round)
	err := db.NewSelect().
		Model(row).
		Where("r.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round by id: %w", err)
	}
	return row.ToDomain()
}

func (r *Impl) GetAllRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error) {
	db = r.resolveDB(db)
	var rows []Round
	err := db.NewSelect().
		Model(&rows).
		OrderExpr("r.created_at DESC, r.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return toDomainSlice(rows)
}

func (r *Impl) DeleteRound(ctx context.Context, db bun.IDB, id string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Round)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}
	return requireRows(result)
}

func (r *Impl) ClearAllRounds(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Round)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear rounds: %w", err)
	}
	return nil
}

func (r *Impl) GetUnsyncedRounds(ctx context.Context, db bun.IDB) ([]*roundtypes.Round, error) {
	db = r.resolveDB(db)
	var rows []Round
	err := db.NewSelect().
		Model(&rows).
		Where("r.is_synced = ?", false).
		OrderExpr("r.last_updated ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced rounds: %w", err)
	}
	return toDomainSlice(rows)
}

func (r *Impl) MarkAsSynced(ctx context.Context, db bun.IDB, id string, seenLastUpdated, syncedAt int64) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("is_synced = ?", true).
		Set("last_updated = ?", syncedAt).
		Where("id = ?", id).
		Where("last_updated = ?", seenLastUpdated).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark round synced: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	exists, err := db.NewSelect().Model((*Round)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check round: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleRound
}

func (r *Impl) GetRoundCount(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().Model((*Round)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return n, nil
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func toDomainSlice(rows []Round) ([]*roundtypes.Round, error) {
	out := make([]*roundtypes.Round, 0, len(rows))
	for i := range rows {
		r, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
