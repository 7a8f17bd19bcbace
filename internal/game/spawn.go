package game

import (
	"math/rand"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

// SpawnController owns the current/next rank queue and the held token. A
// held token is static and hovers at the drop height until released.
type SpawnController struct {
	ranks    *rank.Table
	rng      *rand.Rand
	cooldown time.Duration

	current int
	next    int

	held     physics.Handle
	heldRank int
	holding  bool

	readyAt time.Time
}

// NewSpawnController creates a controller with a freshly dealt queue.
func NewSpawnController(ranks *rank.Table, rng *rand.Rand, cooldown time.Duration) *SpawnController {
	s := &SpawnController{
		ranks:    ranks,
		rng:      rng,
		cooldown: cooldown,
	}
	s.Reset()
	return s
}

// Sample draws a rank uniformly from [0, max(MinRollPool, maxRankSeen-RollLag)),
// never past the table.
func (s *SpawnController) Sample(maxRankSeen int) int {
	pool := max(MinRollPool, maxRankSeen-RollLag)
	pool = min(pool, s.ranks.Len())
	if pool <= 1 {
		return 0
	}
	return s.rng.Intn(pool)
}

// Roll shifts the queue: current takes next, next is freshly sampled.
func (s *SpawnController) Roll(maxRankSeen int) {
	s.current = s.next
	s.next = s.Sample(maxRankSeen)
}

// Engage creates a static token of the current rank at x and rolls the queue
// right away, so the preview already shows what comes after the held token.
// It is ignored while a token is held or during the release cooldown.
func (s *SpawnController) Engage(w World, arena Arena, x float64, maxRankSeen int, now time.Time) (physics.Handle, bool) {
	if s.holding || now.Before(s.readyAt) {
		return 0, false
	}
	radius, err := s.ranks.Radius(s.current)
	if err != nil {
		return 0, false
	}
	radius *= arena.Scale
	h := w.CreateBody(physics.BodySpec{
		Position: physics.Vec2{X: arena.ClampX(x, radius), Y: arena.DropY()},
		Radius:   radius,
		Static:   true,
		Rank:     s.current,
	})
	s.held = h
	s.heldRank = s.current
	s.holding = true
	s.Roll(maxRankSeen)
	return h, true
}

// Move repositions the held token horizontally, clamped to the walls.
func (s *SpawnController) Move(w World, arena Arena, x float64) bool {
	if !s.holding {
		return false
	}
	b, ok := w.Body(s.held)
	if !ok {
		s.drop()
		return false
	}
	w.SetPosition(s.held, physics.Vec2{X: arena.ClampX(x, b.Radius), Y: b.Position.Y})
	return true
}

// Release hands the held token to the simulation and starts the cooldown.
func (s *SpawnController) Release(w World, now time.Time) (physics.Handle, int, bool) {
	if !s.holding {
		return 0, 0, false
	}
	h, r := s.held, s.heldRank
	s.drop()
	if _, ok := w.Body(h); !ok {
		return 0, 0, false
	}
	w.SetStatic(h, false)
	s.readyAt = now.Add(s.cooldown)
	return h, r, true
}

// Rehold points the controller at a replacement for the held token.
func (s *SpawnController) Rehold(h physics.Handle) {
	if s.holding {
		s.held = h
	}
}

// Reset deals a fresh queue, drops any held reference and clears the cooldown.
func (s *SpawnController) Reset() {
	s.current = s.Sample(0)
	s.next = s.Sample(0)
	s.readyAt = time.Time{}
	s.drop()
}

func (s *SpawnController) drop() {
	s.held = 0
	s.heldRank = 0
	s.holding = false
}

func (s *SpawnController) Current() int { return s.current }
func (s *SpawnController) Next() int    { return s.next }

// Held returns the held token handle, if any.
func (s *SpawnController) Held() (physics.Handle, bool) {
	return s.held, s.holding
}
