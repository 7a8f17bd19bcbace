package store

import (
	"context"
	"errors"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/account"
)

// ErrNotFound is returned when a leaderboard record does not exist.
var ErrNotFound = errors.New("record not found")

// Leaderboard fields.
const (
	FieldMain      = "main"
	FieldClearTime = "clear_time"
)

// Record is one leaderboard entry. Rank is computed on read: one plus the
// number of records in the same field with a strictly higher score.
type Record struct {
	GameID    string    `json:"game_id"`
	FieldID   string    `json:"field_id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Score     int64     `json:"score"`
	Rank      int       `json:"rank,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountStore defines the interface for persistent account storage.
type AccountStore interface {
	// FindByUserID looks up an account by leaderboard user ID.
	FindByUserID(ctx context.Context, userID string) (*account.Account, error)
	// FindByID looks up an account by internal ID.
	FindByID(ctx context.Context, id string) (*account.Account, error)
	// Create inserts a new account.
	Create(ctx context.Context, acc *account.Account) error
	// UpdateLastLogin updates the last login timestamp.
	UpdateLastLogin(ctx context.Context, id string) error
	// UpdateNickname updates the account nickname.
	UpdateNickname(ctx context.Context, id string, nickname string) error
}

// RecordStore defines the interface for leaderboard records.
type RecordStore interface {
	// Upsert writes a record, keeping the higher score when one exists.
	Upsert(ctx context.Context, rec Record) error
	// Find returns the user's record in a field, or ErrNotFound.
	Find(ctx context.Context, gameID, userID, fieldID string) (*Record, error)
	// Top lists the best records in a field, highest score first.
	Top(ctx context.Context, gameID, fieldID string, limit int) ([]Record, error)
}

// Store is everything the server persists.
type Store interface {
	AccountStore
	RecordStore
	// Close releases database resources.
	Close() error
}
