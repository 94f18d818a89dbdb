package ledgermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ledger tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS games (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create games table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS user_cycles (
				id BIGSERIAL PRIMARY KEY,
				username TEXT NOT NULL,
				game_id BIGINT NOT NULL REFERENCES games (id),
				cycle INT NOT NULL DEFAULT 1,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(username, game_id, cycle)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create user_cycles table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS records (
				id BIGSERIAL PRIMARY KEY,
				user_cycle_id BIGINT NOT NULL REFERENCES user_cycles (id),
				record_date TEXT NOT NULL,
				count INT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create records table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_records_user_cycle_id ON records (user_cycle_id);
		`)
		if err != nil {
			return fmt.Errorf("failed to create records index: %w", err)
		}

		fmt.Println("Ledger tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ledger tables...")

		for _, table := range []string{"records", "user_cycles", "games"} {
			if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, table)); err != nil {
				return fmt.Errorf("failed to drop %s table: %w", table, err)
			}
		}

		fmt.Println("Ledger tables dropped successfully!")
		return nil
	})
}
