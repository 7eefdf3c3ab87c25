package rounddb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundmigrations "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories/migrations"
	"github.com/brianvoe/gofakeit/v7"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/migrate"
)

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	migrateUp(t, db)
	return db
}

func migrateUp(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	migrator := migrate.NewMigrator(db, roundmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)
}

func fakeHoles(n int) []roundtypes.HoleScore {
	out := make([]roundtypes.HoleScore, n)
	for i := range out {
		out[i] = roundtypes.HoleScore{
			HoleNumber: i + 1,
			Par:        gofakeit.IntRange(3, 5),
			Index1:     i + 1,
			Index2:     i + 1 + n,
			Meters:     gofakeit.IntRange(90, 480),
		}
	}
	return out
}

func fakeRound(id, date string, createdAt int64) *roundtypes.Round {
	return &roundtypes.Round{
		ID:              id,
		GolferID:        gofakeit.UUID(),
		GolferName:      gofakeit.Name(),
		GolfLinkNo:      gofakeit.Numerify("##########"),
		Gender:          "F",
		DailyHandicap:   float64(gofakeit.IntRange(0, 36)),
		HandicapIndex:   gofakeit.Float64Range(0, 36),
		TeeColor:        "blue",
		ScratchRating:   71,
		SlopeRating:     128,
		ClubID:          "club-1",
		ClubName:        gofakeit.Company(),
		ClubState:       "NSW",
		CompetitionType: "stableford",
		RoundType:       "competition",
		CourseID:        "course-1",
		HoleScores:      fakeHoles(18),
		PlayingPartnerRound: &roundtypes.PlayingPartnerRound{
			GolferID:      gofakeit.UUID(),
			GolferName:    gofakeit.Name(),
			GolfLinkNo:    gofakeit.Numerify("##########"),
			DailyHandicap: 12,
			HoleScores:    fakeHoles(18),
		},
		RoundDate:   date,
		StartTime:   createdAt,
		LastUpdated: createdAt,
		CreatedAt:   createdAt,
	}
}
