package roundmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rounds table...")

		jsonType := "TEXT"
		if db.Dialect().Name() == dialect.PG {
			jsonType = "JSONB"
		}

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS rounds (
					id VARCHAR(64) PRIMARY KEY,
					schema_version INTEGER NOT NULL DEFAULT 1,
					remote_uuid VARCHAR(64),
					golfer_id VARCHAR(64),
					golfer_name VARCHAR(255),
					golf_link_no VARCHAR(32),
					gender VARCHAR(16),
					daily_handicap DOUBLE PRECISION,
					handicap_index DOUBLE PRECISION,
					tee_color VARCHAR(32),
					scratch_rating DOUBLE PRECISION,
					slope_rating DOUBLE PRECISION,
					club_id VARCHAR(64),
					club_name VARCHAR(255),
					club_state VARCHAR(32),
					competition_type VARCHAR(32),
					round_type VARCHAR(32),
					course_id VARCHAR(64),
					hole_scores %[1]s,
					playing_partner %[1]s,
					is_submitted BOOLEAN NOT NULL DEFAULT FALSE,
					is_abandoned BOOLEAN NOT NULL DEFAULT FALSE,
					is_club_submitted BOOLEAN NOT NULL DEFAULT FALSE,
					is_marked_for_review BOOLEAN NOT NULL DEFAULT FALSE,
					is_synced BOOLEAN NOT NULL DEFAULT FALSE,
					last_updated BIGINT NOT NULL DEFAULT 0,
					round_date VARCHAR(10) NOT NULL,
					start_time BIGINT,
					finish_time BIGINT,
					submitted_time BIGINT,
					created_at BIGINT NOT NULL DEFAULT 0
				)`, jsonType)); err != nil {
				return fmt.Errorf("failed to create rounds table: %w", err)
			}

			for _, stmt := range []string{
				`CREATE INDEX IF NOT EXISTS idx_rounds_active ON rounds (round_date, is_submitted, is_abandoned)`,
				`CREATE INDEX IF NOT EXISTS idx_rounds_is_synced ON rounds (is_synced)`,
				`CREATE INDEX IF NOT EXISTS idx_rounds_created_at ON rounds (created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_rounds_golfer_id ON rounds (golfer_id)`,
			} {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create rounds index: %w", err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rounds table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS rounds`); err != nil {
				return fmt.Errorf("failed to drop rounds table: %w", err)
			}
			return nil
		})
	})
}
