package game

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

// fakeWorld is an inert World: bodies never move on their own and contacts
// are only reported when a test queues or delivers them.
type fakeWorld struct {
	next    physics.Handle
	bodies  map[physics.Handle]physics.Body
	subs    map[int]func([]physics.Pair)
	nextSub int
	pending [][]physics.Pair

	running bool
	closed  bool
	steps   int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		bodies:  make(map[physics.Handle]physics.Body),
		subs:    make(map[int]func([]physics.Pair)),
		running: true,
	}
}

func (w *fakeWorld) CreateBody(spec physics.BodySpec) physics.Handle {
	w.next++
	b := physics.Body{
		Handle:   w.next,
		Position: spec.Position,
		Velocity: spec.Velocity,
		Radius:   spec.Radius,
		Static:   spec.Static,
		Rank:     spec.Rank,
	}
	if b.Static {
		b.Velocity = physics.Vec2{}
	}
	w.bodies[b.Handle] = b
	return b.Handle
}

func (w *fakeWorld) RemoveBodies(handles ...physics.Handle) {
	for _, h := range handles {
		delete(w.bodies, h)
	}
}

func (w *fakeWorld) SetStatic(h physics.Handle, static bool) {
	if b, ok := w.bodies[h]; ok {
		b.Static = static
		w.bodies[h] = b
	}
}

func (w *fakeWorld) SetPosition(h physics.Handle, pos physics.Vec2) {
	if b, ok := w.bodies[h]; ok {
		b.Position = pos
		w.bodies[h] = b
	}
}

func (w *fakeWorld) SetVelocity(h physics.Handle, vel physics.Vec2) {
	if b, ok := w.bodies[h]; ok && !b.Static {
		b.Velocity = vel
		w.bodies[h] = b
	}
}

func (w *fakeWorld) Body(h physics.Handle) (physics.Body, bool) {
	b, ok := w.bodies[h]
	return b, ok
}

func (w *fakeWorld) Bodies() []physics.Body {
	out := make([]physics.Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b physics.Body) int { return int(a.Handle) - int(b.Handle) })
	return out
}

func (w *fakeWorld) OnCollisionStart(fn func([]physics.Pair)) func() {
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	return func() { delete(w.subs, id) }
}

// queue schedules pairs for delivery during the next Step.
func (w *fakeWorld) queue(pairs ...physics.Pair) {
	w.pending = append(w.pending, pairs)
}

// deliver reports pairs to subscribers immediately.
func (w *fakeWorld) deliver(pairs ...physics.Pair) {
	for _, fn := range w.subs {
		fn(pairs)
	}
}

func (w *fakeWorld) Step(time.Duration) {
	if !w.running {
		return
	}
	w.steps++
	pending := w.pending
	w.pending = nil
	for _, pairs := range pending {
		w.deliver(pairs...)
	}
}

func (w *fakeWorld) Start() { w.running = true }
func (w *fakeWorld) Stop()  { w.running = false }

func (w *fakeWorld) Close() {
	w.closed = true
	w.running = false
	clear(w.bodies)
	w.pending = nil
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingFeedback struct {
	bursts   []int
	dropped  []int
	warnings []bool
}

func (f *recordingFeedback) MergeBurst(_ physics.Vec2, r int) { f.bursts = append(f.bursts, r) }
func (f *recordingFeedback) Dropped(r int)                    { f.dropped = append(f.dropped, r) }
func (f *recordingFeedback) Warning(active bool)              { f.warnings = append(f.warnings, active) }

type harness struct {
	g      *Game
	clock  *fakeClock
	fb     *recordingFeedback
	worlds []*fakeWorld
	wins   []int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: newFakeClock(), fb: &recordingFeedback{}}
	h.g = New(Options{
		Ranks: rank.Default(),
		NewWorld: func(Arena) World {
			w := newFakeWorld()
			h.worlds = append(h.worlds, w)
			return w
		},
		Feedback: h.fb,
		Reporter: WinReporterFunc(func(score int) { h.wins = append(h.wins, score) }),
		Clock:    h.clock.Now,
		Rand:     rand.New(rand.NewSource(1)),
	})
	return h
}

func (h *harness) world() *fakeWorld {
	return h.worlds[len(h.worlds)-1]
}

// token places a resting mobile token of rank r.
func (h *harness) token(r int, x, y float64) physics.Handle {
	radius, err := h.g.Ranks().Radius(r)
	if err != nil {
		radius = 10
	}
	return h.world().CreateBody(physics.BodySpec{
		Position: physics.Vec2{X: x, Y: y},
		Radius:   radius * h.g.Arena().Scale,
		Rank:     r,
	})
}

func (h *harness) collide(a, b physics.Handle) {
	h.world().deliver(physics.NewPair(a, b))
}

// tick advances the clock by one tick interval and steps the game.
func (h *harness) tick() {
	h.clock.Advance(TickInterval)
	h.g.Step()
}

// forge builds one token of rank r by merging pairs of lower tokens, and
// returns the handle of the result.
func (h *harness) forge(r int) physics.Handle {
	if r == 0 {
		return h.token(0, 250, 700)
	}
	a := h.forge(r - 1)
	b := h.forge(r - 1)
	h.collide(a, b)
	return h.world().next
}
