package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxNicknameLength is the longest nickname kept, in runes.
const MaxNicknameLength = 20

// Account represents a player known to the server.
type Account struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Nickname    string    `json:"nickname"`
	IsGuest     bool      `json:"is_guest"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// NewPlayerAccount creates an account linked to a leaderboard user ID.
func NewPlayerAccount(userID, nickname string) *Account {
	now := time.Now()
	return &Account{
		ID:          uuid.New().String(),
		UserID:      &userID,
		Nickname:    NormalizeNickname(nickname),
		IsGuest:     false,
		CreatedAt:   now,
		LastLoginAt: now,
	}
}

// NewGuestAccount creates an anonymous account. Guests play normally but
// never reach the leaderboard.
func NewGuestAccount(nickname string) *Account {
	now := time.Now()
	return &Account{
		ID:          uuid.New().String(),
		Nickname:    NormalizeNickname(nickname),
		IsGuest:     true,
		CreatedAt:   now,
		LastLoginAt: now,
	}
}

// LeaderboardID returns the user ID records are filed under, or "" for guests.
func (a *Account) LeaderboardID() string {
	if a == nil || a.IsGuest || a.UserID == nil {
		return ""
	}
	return *a.UserID
}

// NormalizeNickname trims whitespace and caps the length.
func NormalizeNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "player"
	}
	runes := []rune(nickname)
	if len(runes) > MaxNicknameLength {
		nickname = string(runes[:MaxNicknameLength])
	}
	return nickname
}
