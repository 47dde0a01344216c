package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS rubrics (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    body JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS submissions (
    id TEXT PRIMARY KEY,
    learner_id TEXT NOT NULL,
    exercise_id TEXT NOT NULL,
    markup TEXT NOT NULL DEFAULT '',
    style TEXT NOT NULL DEFAULT '',
    passed BOOLEAN NOT NULL,
    score INTEGER NOT NULL,
    error_type TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    findings JSONB NOT NULL DEFAULT '[]',
    used_hints INTEGER NOT NULL DEFAULT 0,
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS submissions_learner_idx
    ON submissions (learner_id, exercise_id, submitted_at DESC);
`

// Migrate создаёт таблицы, если их ещё нет. Повторный вызов безопасен.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
