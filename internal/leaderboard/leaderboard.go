package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/account"
	"github.com/ugaemi/mergeboss-server/internal/store"
)

// DefaultTimeout bounds one background report.
const DefaultTimeout = 5 * time.Second

// Service files wins on the leaderboard. Reports run in the background and
// never block or fail the caller.
type Service struct {
	records store.RecordStore
	gameID  string
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewService creates a Service for one game.
func NewService(records store.RecordStore, gameID string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{records: records, gameID: gameID, timeout: timeout}
}

// GameID returns the game records are filed under.
func (s *Service) GameID() string {
	return s.gameID
}

// CheckExistingRecord returns the player's clear record, or nil if the
// player has never cleared the game.
func (s *Service) CheckExistingRecord(ctx context.Context, userID string) (*store.Record, error) {
	rec, err := s.records.Find(ctx, s.gameID, userID, store.FieldClearTime)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Top lists the best records in a field.
func (s *Service) Top(ctx context.Context, fieldID string, limit int) ([]store.Record, error) {
	return s.records.Top(ctx, s.gameID, fieldID, limit)
}

// ReportWin writes the clear marker and the final score in the background.
func (s *Service) ReportWin(userID, nickname string, score int) {
	if userID == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		entries := []store.Record{
			{GameID: s.gameID, FieldID: store.FieldClearTime, UserID: userID, Nickname: nickname, Score: 1},
			{GameID: s.gameID, FieldID: store.FieldMain, UserID: userID, Nickname: nickname, Score: int64(score)},
		}
		for _, rec := range entries {
			if err := s.records.Upsert(ctx, rec); err != nil {
				slog.Error("failed to record score", "user_id", userID, "field", rec.FieldID, "error", err)
				return
			}
		}
		slog.Info("score recorded", "user_id", userID, "score", score)
	}()
}

// Wait blocks until in-flight reports finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Reporter reports at most one win for a single player.
type Reporter struct {
	svc      *Service
	userID   string
	nickname string
	existing *store.Record
	done     atomic.Bool
}

// NewReporter prepares a reporter for acc. Guests get a reporter that never
// reports. A player who already cleared the game is never re-reported; if
// the lookup fails the player is treated as new.
func (s *Service) NewReporter(ctx context.Context, acc *account.Account) *Reporter {
	r := &Reporter{svc: s, userID: acc.LeaderboardID(), nickname: acc.Nickname}
	if r.userID == "" {
		return r
	}
	rec, err := s.CheckExistingRecord(ctx, r.userID)
	if err != nil {
		slog.Error("failed to check leaderboard record", "user_id", r.userID, "error", err)
		return r
	}
	r.existing = rec
	return r
}

// Existing returns the record found when the reporter was created.
func (r *Reporter) Existing() *store.Record {
	return r.existing
}

// ReportWin implements game.WinReporter.
func (r *Reporter) ReportWin(score int) {
	if r.userID == "" || r.existing != nil {
		return
	}
	if !r.done.CompareAndSwap(false, true) {
		return
	}
	r.svc.ReportWin(r.userID, r.nickname, score)
}
