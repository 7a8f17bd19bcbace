package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/mergeboss-server/internal/account"
	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/rank"
	"github.com/ugaemi/mergeboss-server/internal/store"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

// Settings are shared by every session a Manager creates.
type Settings struct {
	Ranks        *rank.Table
	Width        float64
	TickRate     int
	BurnDuration time.Duration
}

func (s Settings) tick() time.Duration {
	if s.TickRate <= 0 {
		return game.TickInterval
	}
	return time.Second / time.Duration(s.TickRate)
}

// Manager manages all active sessions, one per connected client.
type Manager struct {
	settings Settings
	sessions map[string]*Session // client ID -> session
	mu       sync.RWMutex
}

// NewManager creates a new session manager.
func NewManager(settings Settings) *Manager {
	if settings.Ranks == nil {
		settings.Ranks = rank.Default()
	}
	return &Manager{
		settings: settings,
		sessions: make(map[string]*Session),
	}
}

type rankEntry struct {
	Index  int     `json:"index"`
	Name   string  `json:"name"`
	Radius float64 `json:"radius"`
	Score  int     `json:"score"`
}

type sessionInfoMessage struct {
	SessionID string           `json:"session_id"`
	Account   *account.Account `json:"account"`
	Ranks     []rankEntry      `json:"ranks"`
	Arena     game.Arena       `json:"arena"`
	TickRate  int              `json:"tick_rate"`
	Record    *store.Record    `json:"record,omitempty"`
}

// Create starts a session for client, replacing any session it already has.
// reporter may be nil; record is the player's existing clear record, if any.
func (m *Manager) Create(client *ws.Client, acc *account.Account, reporter game.WinReporter, record *store.Record) *Session {
	m.Remove(client.ID)

	opts := game.Options{
		Ranks:        m.settings.Ranks,
		Width:        m.settings.Width,
		Tick:         m.settings.tick(),
		BurnDuration: m.settings.BurnDuration,
		Reporter:     reporter,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s := newSession(uuid.New().String(), acc, client, opts, m.settings.tick())

	m.mu.Lock()
	m.sessions[client.ID] = s
	m.mu.Unlock()

	ranks := make([]rankEntry, 0, m.settings.Ranks.Len())
	for _, r := range m.settings.Ranks.Ranks() {
		ranks = append(ranks, rankEntry{Index: r.Index, Name: r.Name, Radius: r.Radius, Score: r.Score})
	}
	msg, _ := ws.NewMessage(ws.TypeSessionInfo, sessionInfoMessage{
		SessionID: s.ID,
		Account:   acc,
		Ranks:     ranks,
		Arena:     game.NewArena(m.settings.Width),
		TickRate:  int(time.Second / m.settings.tick()),
		Record:    record,
	})
	client.SendMessage(msg)

	s.start()
	slog.Info("session created", "session", s.ID, "client", client.ID, "account", acc.ID)
	return s
}

// Get returns the session of a client.
func (m *Manager) Get(clientID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[clientID]
}

// Remove stops and forgets the session of a client.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	delete(m.sessions, clientID)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Stop()
	slog.Info("session removed", "session", s.ID, "client", clientID)
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll stops every session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Stop()
	}
}
