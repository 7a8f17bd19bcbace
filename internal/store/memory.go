package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/account"
)

type recordKey struct {
	gameID, fieldID, userID string
}

// MemoryStore implements Store in process memory. Data is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	records  map[recordKey]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*account.Account),
		records:  make(map[recordKey]Record),
	}
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.UserID != nil && *acc.UserID == userID {
			return cloneAccount(acc), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return cloneAccount(acc), nil
}

func (s *MemoryStore) Create(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.LastLoginAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) UpdateNickname(_ context.Context, id string, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.Nickname = nickname
	}
	return nil
}

// Upsert writes a record, keeping the higher score.
func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := recordKey{rec.GameID, rec.FieldID, rec.UserID}
	rec.Rank = 0
	rec.UpdatedAt = now
	if old, ok := s.records[key]; ok {
		rec.CreatedAt = old.CreatedAt
		rec.Score = max(rec.Score, old.Score)
	} else {
		rec.CreatedAt = now
	}
	s.records[key] = rec
	return nil
}

// Find returns the user's record with its current rank.
func (s *MemoryStore) Find(_ context.Context, gameID, userID, fieldID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{gameID, fieldID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Rank = 1
	for k, other := range s.records {
		if k.gameID == gameID && k.fieldID == fieldID && other.Score > rec.Score {
			rec.Rank++
		}
	}
	return &rec, nil
}

// Top lists the best records in a field.
func (s *MemoryStore) Top(_ context.Context, gameID, fieldID string, limit int) ([]Record, error) {
	s.mu.RLock()
	var out []Record
	for k, rec := range s.records {
		if k.gameID == gameID && k.fieldID == fieldID {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneAccount(acc *account.Account) *account.Account {
	c := *acc
	if acc.UserID != nil {
		id := *acc.UserID
		c.UserID = &id
	}
	return &c
}
