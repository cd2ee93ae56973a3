package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Options tunes the connection pool.
type Options struct {
	MaxConnections  int
	ConnMaxLifetime time.Duration
}

// Connect initializes the database connection and runs migrations.
func Connect(dsn string, opts Options, log *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if opts.MaxConnections > 0 {
		db.SetMaxOpenConns(opts.MaxConnections)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS lounges (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            parent_type TEXT NOT NULL CHECK (parent_type IN ('community', 'event')),
            parent_id TEXT NOT NULL,
            created_by TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(parent_type, parent_id)
        );`,
	`CREATE TABLE IF NOT EXISTS lounge_members (
            lounge_id UUID NOT NULL REFERENCES lounges(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL,
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(lounge_id, user_id)
        );`,
	`CREATE INDEX IF NOT EXISTS lounge_members_user_idx ON lounge_members(user_id);`,
	`CREATE TABLE IF NOT EXISTS lounge_messages (
            id BIGSERIAL PRIMARY KEY,
            lounge_id UUID NOT NULL REFERENCES lounges(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            ciphertext TEXT,
            iv TEXT,
            image_url TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((ciphertext IS NOT NULL AND iv IS NOT NULL) OR image_url IS NOT NULL)
        );`,
	`CREATE INDEX IF NOT EXISTS lounge_messages_order_idx ON lounge_messages(lounge_id, created_at, id);`,
	`CREATE TABLE IF NOT EXISTS matches (
            id UUID PRIMARY KEY,
            user1_id TEXT NOT NULL,
            user2_id TEXT NOT NULL,
            via TEXT NOT NULL CHECK (via IN ('askout', 'mutual_secret', 'daily')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (user1_id < user2_id),
            UNIQUE(user1_id, user2_id)
        );`,
	`CREATE TABLE IF NOT EXISTS private_messages (
            id BIGSERIAL PRIMARY KEY,
            match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            recipient_id TEXT NOT NULL,
            ciphertext TEXT,
            iv TEXT,
            image_url TEXT,
            delivered BOOLEAN NOT NULL DEFAULT FALSE,
            seen BOOLEAN NOT NULL DEFAULT FALSE,
            seen_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((ciphertext IS NOT NULL AND iv IS NOT NULL) OR image_url IS NOT NULL)
        );`,
	`CREATE INDEX IF NOT EXISTS private_messages_order_idx ON private_messages(match_id, created_at, id);`,
	`CREATE INDEX IF NOT EXISTS private_messages_unseen_idx ON private_messages(match_id, recipient_id) WHERE seen = FALSE;`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
