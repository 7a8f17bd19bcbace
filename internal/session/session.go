package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/account"
	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

const inputBuffer = 64

// ErrClosed is returned when input arrives after the session stopped.
var ErrClosed = errors.New("session closed")

// ErrBusy is returned when the input queue is full.
var ErrBusy = errors.New("session input queue full")

// Session is one player's game. A single loop goroutine owns the Game; every
// input is queued onto it so the Game never sees concurrent calls.
type Session struct {
	ID      string
	Account *account.Account

	client *ws.Client
	game   *game.Game
	events *eventLog
	tick   time.Duration
	seq    uint64

	inputs   chan func()
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type gameOverMessage struct {
	Result      string `json:"result"`
	Score       int    `json:"score"`
	MaxRankSeen int    `json:"max_rank_seen"`
}

// newSession wires a game to a client. The loop is not running yet.
func newSession(id string, acc *account.Account, client *ws.Client, opts game.Options, tick time.Duration) *Session {
	events := &eventLog{}
	opts.Feedback = events
	return &Session{
		ID:      id,
		Account: acc,
		client:  client,
		game:    game.New(opts),
		events:  events,
		tick:    tick,
		inputs:  make(chan func(), inputBuffer),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *Session) start() {
	go s.loop()
}

// Stop ends the loop and tears the world down. Safe to call more than once.
// When Stop returns nothing will send to the client again.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.done
}

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) loop() {
	ticker := time.NewTicker(s.tick)
	defer func() {
		ticker.Stop()
		s.game.Close()
		close(s.done)
	}()

	for {
		select {
		case <-s.stopCh:
			return
		case fn := <-s.inputs:
			prev := s.game.State()
			fn()
			s.flush(prev, true)
		case <-ticker.C:
			prev := s.game.State()
			s.game.Step()
			s.flush(prev, false)
		}
	}
}

// flush sends a frame when there is something to show and announces the end
// of a game exactly once per transition.
func (s *Session) flush(prev game.State, force bool) {
	cur := s.game.State()
	events := s.events.take()
	if force || cur == game.StatePlaying || cur != prev || len(events) > 0 {
		s.sendFrame(events)
	}
	if cur.IsTerminal() && !prev.IsTerminal() {
		msg, _ := ws.NewMessage(ws.TypeGameOver, gameOverMessage{
			Result:      cur.String(),
			Score:       s.game.Score(),
			MaxRankSeen: s.game.MaxRankSeen(),
		})
		s.client.SendMessage(msg)
		slog.Info("session game over", "session", s.ID, "result", cur, "score", s.game.Score())
	}
}

func (s *Session) sendFrame(events []Event) {
	s.seq++
	snap := s.game.Snapshot()
	data, err := EncodeFrame(Frame{
		Seq:      s.seq,
		State:    snap.State.String(),
		Snapshot: snap,
		Events:   events,
	})
	if err != nil {
		slog.Error("failed to encode frame", "session", s.ID, "error", err)
		return
	}
	s.client.SendBinary(data)
}

// Do queues fn to run on the loop with exclusive access to the game.
func (s *Session) Do(fn func(g *game.Game)) error {
	select {
	case <-s.stopCh:
		return ErrClosed
	default:
	}
	select {
	case s.inputs <- func() { fn(s.game) }:
		return nil
	case <-s.stopCh:
		return ErrClosed
	default:
		slog.Warn("dropping input, queue full", "session", s.ID)
		return ErrBusy
	}
}

func (s *Session) Start() error {
	return s.Do(func(g *game.Game) { g.Start() })
}

func (s *Session) PointerEngage(x float64) error {
	return s.Do(func(g *game.Game) { g.PointerEngage(x) })
}

func (s *Session) PointerMove(x float64) error {
	return s.Do(func(g *game.Game) { g.PointerMove(x) })
}

func (s *Session) PointerRelease() error {
	return s.Do(func(g *game.Game) { g.PointerRelease() })
}

func (s *Session) Restart() error {
	return s.Do(func(g *game.Game) { g.Restart() })
}

func (s *Session) Resize(width float64) error {
	return s.Do(func(g *game.Game) { g.Resize(width) })
}

func (s *Session) ForceWin() error {
	return s.Do(func(g *game.Game) { g.ForceWin() })
}

func (s *Session) ForceLose() error {
	return s.Do(func(g *game.Game) { g.ForceLose() })
}

// SpawnAt drops a token for testing. Failures are reported to the client.
func (s *Session) SpawnAt(rank int, x, y float64) error {
	return s.Do(func(g *game.Game) {
		if _, err := g.SpawnAt(rank, physics.Vec2{X: x, Y: y}); err != nil {
			s.client.SendMessage(ws.NewErrorMessage(err.Error()))
		}
	})
}
