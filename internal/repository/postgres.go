// Package repository provides PostgreSQL persistence for deployments that
// outgrow the embedded SQLite store. The repositories implement the same
// store interfaces the services consume, so the daemon picks a backend at
// startup and nothing above the store layer changes.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// schema is applied idempotently at startup. Deployments that manage the
// schema externally can skip EnsureSchema.
const schema = `
CREATE TABLE IF NOT EXISTS ability_records (
    learner_id     UUID NOT NULL,
    dimension      TEXT NOT NULL,
    theta          DOUBLE PRECISION NOT NULL DEFAULT 0,
    standard_error DOUBLE PRECISION NOT NULL DEFAULT 1.5,
    observations   INTEGER NOT NULL DEFAULT 0,
    updated_at     TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (learner_id, dimension)
);

CREATE TABLE IF NOT EXISTS items (
    id           TEXT PRIMARY KEY,
    mcq          BOOLEAN NOT NULL DEFAULT FALSE,
    option_count INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS item_parameters (
    item_id        TEXT PRIMARY KEY REFERENCES items(id),
    difficulty     DOUBLE PRECISION NOT NULL DEFAULT 0,
    discrimination DOUBLE PRECISION NOT NULL DEFAULT 1,
    guessing       DOUBLE PRECISION NOT NULL DEFAULT 0,
    calibrated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS responses (
    id          BIGSERIAL PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id),
    learner_id  UUID NOT NULL,
    ability     DOUBLE PRECISION NOT NULL DEFAULT 0,
    correct     BOOLEAN NOT NULL,
    answered_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_item ON responses(item_id, answered_at DESC);

CREATE TABLE IF NOT EXISTS mastery_records (
    learner_id             UUID NOT NULL,
    command                TEXT NOT NULL,
    score                  DOUBLE PRECISION NOT NULL DEFAULT 0,
    stability              DOUBLE PRECISION NOT NULL DEFAULT 7,
    consecutive_successes  INTEGER NOT NULL DEFAULT 0,
    consecutive_failures   INTEGER NOT NULL DEFAULT 0,
    total_attempts         INTEGER NOT NULL DEFAULT 0,
    successful_attempts    INTEGER NOT NULL DEFAULT 0,
    last_used_at           TIMESTAMPTZ,
    chapters_since_mastery INTEGER NOT NULL DEFAULT 0,
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (learner_id, command)
);

CREATE TABLE IF NOT EXISTS attempts (
    id              UUID PRIMARY KEY,
    learner_id      UUID NOT NULL,
    dimension       TEXT NOT NULL,
    command         TEXT NOT NULL,
    item_id         TEXT,
    item_difficulty DOUBLE PRECISION NOT NULL DEFAULT 0,
    correct         BOOLEAN NOT NULL,
    context         JSONB,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_learner ON attempts(learner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS review_states (
    learner_id            UUID NOT NULL,
    item_id               TEXT NOT NULL,
    difficulty            DOUBLE PRECISION NOT NULL DEFAULT 5,
    stability             DOUBLE PRECISION NOT NULL DEFAULT 2.4,
    reps                  INTEGER NOT NULL DEFAULT 0,
    lapses                INTEGER NOT NULL DEFAULT 0,
    interval_days         DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_review_at        TIMESTAMPTZ,
    next_review_at        TIMESTAMPTZ,
    last_grade            INTEGER NOT NULL DEFAULT 0,
    retention_probability DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (learner_id, item_id)
);
`

// EnsureSchema creates the tables the repositories need if they do not
// already exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
