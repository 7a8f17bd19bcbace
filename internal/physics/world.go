package physics

import (
	"math"
	"slices"
	"time"
)

// Config tunes a World. Units are arena units and seconds.
type Config struct {
	Width  float64
	Height float64

	Gravity     float64 // units/s^2, positive is down
	AirFriction float64 // fraction of velocity lost per step
	Restitution float64 // bounciness in [0, 1]
	Iterations  int     // contact solver passes per step
	Slop        float64 // overlap tolerated before correction
}

// DefaultConfig returns tuning for a width x height arena at the given scale.
func DefaultConfig(width, height, scale float64) Config {
	return Config{
		Width:       width,
		Height:      height,
		Gravity:     1500 * scale,
		AirFriction: 0.015,
		Restitution: 0.3,
		Iterations:  10,
		Slop:        0.01 * scale,
	}
}

// contactTolerance widens contact detection so resting bodies keep touching
// between steps instead of flickering in and out of contact.
const contactTolerance = 0.5

// World is a small circle-only rigid body simulation. It is not safe for
// concurrent use; the owning tick loop is the only caller.
type World struct {
	cfg Config

	nextHandle Handle
	bodies     []*body // ordered by handle
	index      map[Handle]*body

	// contacts holds pairs touching at the end of the previous step.
	contacts map[Pair]struct{}

	subs    map[int]func([]Pair)
	nextSub int

	running bool
	steps   int64
}

// NewWorld creates a running World.
func NewWorld(cfg Config) *World {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	return &World{
		cfg:      cfg,
		index:    make(map[Handle]*body),
		contacts: make(map[Pair]struct{}),
		subs:     make(map[int]func([]Pair)),
		running:  true,
	}
}

// Config returns the world tuning.
func (w *World) Config() Config {
	return w.cfg
}

// CreateBody adds a circle and returns its handle.
func (w *World) CreateBody(spec BodySpec) Handle {
	w.nextHandle++
	b := &body{Body: Body{
		Handle:   w.nextHandle,
		Position: spec.Position,
		Velocity: spec.Velocity,
		Radius:   spec.Radius,
		Static:   spec.Static,
		Rank:     spec.Rank,
	}}
	if b.Static {
		b.Velocity = Vec2{}
	}
	b.refreshMass()
	w.bodies = append(w.bodies, b)
	w.index[b.Handle] = b
	return b.Handle
}

// RemoveBodies removes the given bodies. Unknown handles are ignored.
func (w *World) RemoveBodies(handles ...Handle) {
	removed := false
	for _, h := range handles {
		if _, ok := w.index[h]; !ok {
			continue
		}
		delete(w.index, h)
		removed = true
		for p := range w.contacts {
			if p.A == h || p.B == h {
				delete(w.contacts, p)
			}
		}
	}
	if !removed {
		return
	}
	w.bodies = slices.DeleteFunc(w.bodies, func(b *body) bool {
		_, ok := w.index[b.Handle]
		return !ok
	})
}

// SetStatic pins or releases a body. Pinning clears its velocity.
func (w *World) SetStatic(h Handle, static bool) {
	b, ok := w.index[h]
	if !ok {
		return
	}
	b.Static = static
	if static {
		b.Velocity = Vec2{}
	}
	b.refreshMass()
}

// SetPosition teleports a body.
func (w *World) SetPosition(h Handle, pos Vec2) {
	if b, ok := w.index[h]; ok {
		b.Position = pos
	}
}

// SetVelocity overrides a body's velocity. Static bodies ignore it.
func (w *World) SetVelocity(h Handle, vel Vec2) {
	if b, ok := w.index[h]; ok && !b.Static {
		b.Velocity = vel
	}
}

// Body returns a snapshot of one body.
func (w *World) Body(h Handle) (Body, bool) {
	b, ok := w.index[h]
	if !ok {
		return Body{}, false
	}
	return b.Body, true
}

// Bodies returns snapshots of all bodies ordered by handle.
func (w *World) Bodies() []Body {
	out := make([]Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b.Body)
	}
	return out
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// OnCollisionStart subscribes fn to contacts that begin during a step.
// The returned function removes the subscription.
func (w *World) OnCollisionStart(fn func(pairs []Pair)) (unsubscribe func()) {
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	return func() {
		delete(w.subs, id)
	}
}

// Start resumes stepping.
func (w *World) Start() { w.running = true }

// Stop freezes the simulation; Step becomes a no-op.
func (w *World) Stop() { w.running = false }

// Running reports whether Step advances the simulation.
func (w *World) Running() bool { return w.running }

// Steps returns how many steps have been integrated.
func (w *World) Steps() int64 { return w.steps }

// Close stops the world and drops every body and subscription.
func (w *World) Close() {
	w.running = false
	w.bodies = nil
	w.index = make(map[Handle]*body)
	w.contacts = make(map[Pair]struct{})
	w.subs = make(map[int]func([]Pair))
}

// Step integrates dt, resolves contacts, then delivers collision-start pairs
// to subscribers. Subscribers may add or remove bodies.
func (w *World) Step(dt time.Duration) {
	if !w.running || dt <= 0 {
		return
	}
	w.steps++
	s := dt.Seconds()

	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.integrate(s, w.cfg)
	}

	for i := 0; i < w.cfg.Iterations; i++ {
		for _, b := range w.bodies {
			if !b.Static {
				w.constrain(b)
			}
		}
		w.solveContacts()
	}

	started := w.updateContacts()
	if len(started) == 0 || len(w.subs) == 0 {
		return
	}

	ids := make([]int, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := w.subs[id]; ok {
			fn(started)
		}
	}
}

func (b *body) integrate(s float64, cfg Config) {
	b.Velocity.Y += cfg.Gravity * s
	b.Velocity = b.Velocity.Scale(1 - cfg.AirFriction)
	b.Position = b.Position.Add(b.Velocity.Scale(s))
	// Rolling without slipping.
	b.Angle += b.Velocity.X / b.Radius * s
}

// constrain keeps b inside the floor and side walls.
func (w *World) constrain(b *body) {
	r := b.Radius
	e := w.cfg.Restitution

	if b.Position.X-r < 0 {
		b.Position.X = r
		if b.Velocity.X < 0 {
			b.Velocity.X = -b.Velocity.X * e
		}
	} else if w.cfg.Width > 0 && b.Position.X+r > w.cfg.Width {
		b.Position.X = w.cfg.Width - r
		if b.Velocity.X > 0 {
			b.Velocity.X = -b.Velocity.X * e
		}
	}

	if w.cfg.Height > 0 && b.Position.Y+r > w.cfg.Height {
		b.Position.Y = w.cfg.Height - r
		if b.Velocity.Y > 0 {
			b.Velocity.Y = -b.Velocity.Y * e
		}
	}
}

func (w *World) solveContacts() {
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			resolve(w.bodies[i], w.bodies[j], w.cfg)
		}
	}
}

// resolve separates two overlapping circles and applies a restitution impulse.
func resolve(a, b *body, cfg Config) {
	invSum := a.invMass + b.invMass
	if invSum == 0 {
		return
	}

	d := b.Position.Sub(a.Position)
	dist := d.Len()
	pen := a.Radius + b.Radius - dist
	if pen <= 0 {
		return
	}

	n := Vec2{X: 0, Y: 1}
	if dist > 0 {
		n = d.Scale(1 / dist)
	}

	const percent = 0.8
	corr := n.Scale(math.Max(pen-cfg.Slop, 0) / invSum * percent)
	a.Position = a.Position.Sub(corr.Scale(a.invMass))
	b.Position = b.Position.Add(corr.Scale(b.invMass))

	rv := b.Velocity.Sub(a.Velocity)
	along := rv.Dot(n)
	if along > 0 {
		return
	}
	j := -(1 + cfg.Restitution) * along / invSum
	impulse := n.Scale(j)
	a.Velocity = a.Velocity.Sub(impulse.Scale(a.invMass))
	b.Velocity = b.Velocity.Add(impulse.Scale(b.invMass))
}

// updateContacts recomputes the touching set and returns pairs that were not
// touching at the end of the previous step.
func (w *World) updateContacts() []Pair {
	current := make(map[Pair]struct{}, len(w.contacts))
	var started []Pair

	for i := 0; i < len(w.bodies); i++ {
		a := w.bodies[i]
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			reach := a.Radius + b.Radius + contactTolerance
			d := b.Position.Sub(a.Position)
			if d.Dot(d) > reach*reach {
				continue
			}
			p := NewPair(a.Handle, b.Handle)
			current[p] = struct{}{}
			if _, ok := w.contacts[p]; !ok {
				started = append(started, p)
			}
		}
	}

	w.contacts = current
	return started
}
