package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugaemi/mergeboss-server/internal/account"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT UNIQUE,
    nickname TEXT NOT NULL DEFAULT '',
    is_guest BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);

CREATE TABLE IF NOT EXISTS leaderboard_records (
    game_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    nickname TEXT NOT NULL DEFAULT '',
    score BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, field_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_leaderboard_score ON leaderboard_records(game_id, field_id, score DESC);
`

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// FindByUserID looks up an account by leaderboard user ID.
func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (*account.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, nickname, is_guest, created_at, last_login_at
		 FROM accounts WHERE user_id = $1`, userID)

	acc, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acc, err
}

// FindByID looks up an account by internal ID.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*account.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, nickname, is_guest, created_at, last_login_at
		 FROM accounts WHERE id = $1`, id)

	acc, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acc, err
}

// Create inserts a new account.
func (s *PostgresStore) Create(ctx context.Context, acc *account.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, user_id, nickname, is_guest, created_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		acc.ID, acc.UserID, acc.Nickname, acc.IsGuest, acc.CreatedAt, acc.LastLoginAt)
	return err
}

// UpdateLastLogin updates the last login timestamp.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET last_login_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// UpdateNickname updates the account nickname.
func (s *PostgresStore) UpdateNickname(ctx context.Context, id string, nickname string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET nickname = $1 WHERE id = $2`, nickname, id)
	return err
}

// Upsert writes a record, keeping the higher score.
func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard_records (game_id, field_id, user_id, nickname, score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (game_id, field_id, user_id) DO UPDATE
		 SET nickname = EXCLUDED.nickname,
		     score = GREATEST(leaderboard_records.score, EXCLUDED.score),
		     updated_at = EXCLUDED.updated_at`,
		rec.GameID, rec.FieldID, rec.UserID, rec.Nickname, rec.Score, now)
	return err
}

// Find returns the user's record with its current rank.
func (s *PostgresStore) Find(ctx context.Context, gameID, userID, fieldID string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT r.game_id, r.field_id, r.user_id, r.nickname, r.score, r.created_at, r.updated_at,
		        (SELECT COUNT(*) FROM leaderboard_records o
		         WHERE o.game_id = r.game_id AND o.field_id = r.field_id AND o.score > r.score) + 1
		 FROM leaderboard_records r
		 WHERE r.game_id = $1 AND r.field_id = $2 AND r.user_id = $3`,
		gameID, fieldID, userID)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Top lists the best records in a field.
func (s *PostgresStore) Top(ctx context.Context, gameID, fieldID string, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT game_id, field_id, user_id, nickname, score, created_at, updated_at,
		        RANK() OVER (ORDER BY score DESC)
		 FROM leaderboard_records
		 WHERE game_id = $1 AND field_id = $2
		 ORDER BY score DESC, updated_at ASC
		 LIMIT $3`,
		gameID, fieldID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Nickname, &acc.IsGuest, &acc.CreatedAt, &acc.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var rank int64
	err := row.Scan(&rec.GameID, &rec.FieldID, &rec.UserID, &rec.Nickname, &rec.Score,
		&rec.CreatedAt, &rec.UpdatedAt, &rank)
	if err != nil {
		return nil, err
	}
	rec.Rank = int(rank)
	return &rec, nil
}
