package rounddb

import (
	"context"
	"testing"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const today = "2026-10-16"

func TestSaveAndGetRoundByID(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewRepository(db)

	round := fakeRound("r-1", today, 1000)
	require.NoError(t, repo.SaveRound(ctx, nil, round))

	got, err := repo.GetRoundByID(ctx, nil, "r-1")
	require.NoError(t, err)
	if diff := cmp.Diff(round, got); diff != "" {
		t.Errorf("round mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.GetRoundByID(ctx, nil, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRoundIsWholeRecordUpsert(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewRepository(db)

	round := fakeRound("r-1", today, 1000)
	require.NoError(t, repo.SaveRound(ctx, nil, round))

	next := round.Clone()
	next.HoleScores[4].Strokes = 6
	next.HoleScores[4].Score = 1
	next.PlayingPartnerRound = nil
	next.IsSynced = true
	next.LastUpdated = 2000
	require.NoError(t, repo.SaveRound(ctx, nil, next))

	got, err := repo.GetRoundByID(ctx, nil, "r-1")
	require.NoError(t, err)
	assert.Equal(t, 6, got.HoleScores[4].Strokes)
	assert.Nil(t, got.PlayingPartnerRound)
	assert.True(t, got.IsSynced)
	assert.Equal(t, int64(2000), got.LastUpdated)

	count, err := repo.GetRoundCount(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Error(t, repo.SaveRound(ctx, nil, &roundtypes.Round{}))
}

func TestGetActiveTodayRound(t *testing.T) {
	tests := []struct {
		name    string
		seed    []*roundtypes.Round
		wantID  string
		wantErr error
	}{
		{
			name: "single active among noise",
			seed: func() []*roundtypes.Round {
				active := fakeRound("active", today, 10)
				yesterday := fakeRound("yesterday", "2026-10-15", 5)
				submitted := fakeRound("submitted", today, 20)
				submitted.IsSubmitted = true
				abandoned := fakeRound("abandoned", today, 30)
				abandoned.IsAbandoned = true
				tomorrow := fakeRound("tomorrow", "2026-10-17", 40)
				return []*roundtypes.Round{yesterday, submitted, active, abandoned, tomorrow}
			}(),
			wantID: "active",
		},
		{
			name: "only submitted and abandoned today",
			seed: func() []*roundtypes.Round {
				submitted := fakeRound("submitted", today, 20)
				submitted.IsSubmitted = true
				abandoned := fakeRound("abandoned", today, 30)
				abandoned.IsAbandoned = true
				return []*roundtypes.Round{submitted, abandoned}
			}(),
			wantErr: ErrNotFound,
		},
		{
			name:    "empty store",
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(newSQLiteDB(t))
			for _, r := range tt.seed {
				require.NoError(t, repo.SaveRound(ctx, nil, r))
			}

			got, err := repo.GetActiveTodayRound(ctx, nil, today)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestActiveRoundLookupUsesExactDateString(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newSQLiteDB(t))
	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("r-1", today, 1)))

	_, err := repo.GetActiveTodayRound(ctx, nil, "2026-10-16T00:00:00Z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllRoundsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newSQLiteDB(t))

	for _, r := range []*roundtypes.Round{
		fakeRound("old", "2026-10-01", 100),
		fakeRound("new", "2026-10-16", 300),
		fakeRound("mid", "2026-10-08", 200),
	} {
		require.NoError(t, repo.SaveRound(ctx, nil, r))
	}

	all, err := repo.GetAllRounds(ctx, nil)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestUnsyncedAndMarkAsSynced(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newSQLiteDB(t))

	synced := fakeRound("synced", today, 1)
	synced.IsSynced = true
	require.NoError(t, repo.SaveRound(ctx, nil, synced))
	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("pending-a", today, 2)))
	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("pending-b", "2026-10-15", 3)))

	unsynced, err := repo.GetUnsyncedRounds(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, unsynced, 2)

	require.NoError(t, repo.MarkAsSynced(ctx, nil, "pending-a", 2, 50))
	unsynced, err = repo.GetUnsyncedRounds(ctx, nil)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "pending-b", unsynced[0].ID)

	got, err := repo.GetRoundByID(ctx, nil, "pending-a")
	require.NoError(t, err)
	assert.True(t, got.IsSynced)
	assert.Equal(t, int64(50), got.LastUpdated)

	assert.ErrorIs(t, repo.MarkAsSynced(ctx, nil, "missing", 0, 50), ErrNotFound)
}

func TestMarkAsSyncedRefusesNewerEdits(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newSQLiteDB(t))

	read := fakeRound("round-1", today, 5)
	require.NoError(t, repo.SaveRound(ctx, nil, read))

	edited := read.Clone()
	edited.HoleScores[4].Strokes = 3
	edited.LastUpdated = 9
	require.NoError(t, repo.SaveRound(ctx, nil, edited))

	assert.ErrorIs(t, repo.MarkAsSynced(ctx, nil, "round-1", read.LastUpdated, 20), ErrStaleRound)

	got, err := repo.GetRoundByID(ctx, nil, "round-1")
	require.NoError(t, err)
	assert.False(t, got.IsSynced)
	assert.Equal(t, int64(9), got.LastUpdated)
	assert.Equal(t, 3, got.HoleScores[4].Strokes)

	unsynced, err := repo.GetUnsyncedRounds(ctx, nil)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "round-1", unsynced[0].ID)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newSQLiteDB(t))

	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("a", today, 1)))
	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("b", today, 2)))

	require.NoError(t, repo.DeleteRound(ctx, nil, "a"))
	assert.ErrorIs(t, repo.DeleteRound(ctx, nil, "a"), ErrNotFound)

	count, err := repo.GetRoundCount(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.ClearAllRounds(ctx, nil))
	count, err = repo.GetRoundCount(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunsInsideTransaction(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewRepository(db)

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.SaveRound(ctx, tx, fakeRound("tx", today, 1))
	})
	require.NoError(t, err)

	got, err := repo.GetRoundByID(ctx, nil, "tx")
	require.NoError(t, err)
	assert.Equal(t, "tx", got.ID)
}

func TestSchemaVersioning(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewRepository(db)

	legacy := FromDomain(fakeRound("legacy", today, 1))
	legacy.SchemaVersion = 0
	_, err := db.NewInsert().Model(legacy).Exec(ctx)
	require.NoError(t, err)

	got, err := repo.GetRoundByID(ctx, nil, "legacy")
	require.NoError(t, err)
	assert.Len(t, got.HoleScores, 18)

	future := FromDomain(fakeRound("future", "2026-10-15", 2))
	future.SchemaVersion = CurrentSchemaVersion + 1
	_, err = db.NewInsert().Model(future).Exec(ctx)
	require.NoError(t, err)

	_, err = repo.GetRoundByID(ctx, nil, "future")
	assert.ErrorIs(t, err, ErrUnsupportedSchema)

	_, err = repo.GetAllRounds(ctx, nil)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestStoredRowCarriesCurrentVersion(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewRepository(db)
	require.NoError(t, repo.SaveRound(ctx, nil, fakeRound("r-1", today, 1)))

	var version int
	err := db.NewSelect().Model((*Round)(nil)).Column("schema_version").Where("id = ?", "r-1").Scan(ctx, &version)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
