package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// Start leaves the tutorial. It reports whether the transition happened.
func (g *Game) Start() bool {
	if g.state != StateTutorial {
		return false
	}
	g.state = StatePlaying
	g.world.Start()
	g.burn.Reset()
	slog.Info("game started", "width", g.arena.Width)
	return true
}

// Step advances the simulation by one tick, resolves the merges it produced
// and re-evaluates the burn meter. Outside Playing it does nothing.
func (g *Game) Step() {
	if g.state != StatePlaying {
		return
	}
	g.resolver.BeginTick(g.clock())
	g.world.Step(g.tick)
	if g.state != StatePlaying {
		return
	}

	over := StackOverLine(g.world.Bodies(), g.arena)
	if over != g.warning {
		g.warning = over
		g.feedback.Warning(over)
	}
	if g.burn.Evaluate(g.clock(), over) {
		g.finish(StateLost)
	}
}

// onCollisionStart receives newly touching pairs from the world.
func (g *Game) onCollisionStart(pairs []physics.Pair) {
	now := g.clock()
	for _, p := range pairs {
		res, ok, err := g.resolver.Resolve(g.world, g.state, p.A, p.B, now)
		switch {
		case errors.Is(err, ErrStaleCollision):
			slog.Debug("ignoring stale collision", "a", p.A, "b", p.B)
			continue
		case err != nil:
			slog.Warn("merge skipped", "a", p.A, "b", p.B, "error", err)
			continue
		case !ok:
			continue
		}

		g.feedback.MergeBurst(res.At, res.Rank)
		slog.Debug("tokens merged", "rank", res.Rank, "score", g.tally.Score)
		if res.Won {
			g.finish(StateWon)
		}
	}
}

// PointerEngage grabs a new token at x.
func (g *Game) PointerEngage(x float64) bool {
	if g.state != StatePlaying {
		return false
	}
	_, ok := g.spawn.Engage(g.world, g.arena, x, g.tally.MaxRankSeen, g.clock())
	return ok
}

// PointerMove slides the held token to x. With nothing held it behaves like
// PointerEngage so a drag that starts outside the arena still picks up.
func (g *Game) PointerMove(x float64) bool {
	if g.state != StatePlaying {
		return false
	}
	if _, holding := g.spawn.Held(); !holding {
		return g.PointerEngage(x)
	}
	return g.spawn.Move(g.world, g.arena, x)
}

// PointerRelease drops the held token.
func (g *Game) PointerRelease() bool {
	if g.state != StatePlaying {
		return false
	}
	_, r, ok := g.spawn.Release(g.world, g.clock())
	if ok {
		g.feedback.Dropped(r)
	}
	return ok
}

// ForceWin ends a running game as Won.
func (g *Game) ForceWin() bool {
	if g.state != StatePlaying {
		return false
	}
	g.finish(StateWon)
	return true
}

// ForceLose ends a running game as Lost.
func (g *Game) ForceLose() bool {
	if g.state != StatePlaying {
		return false
	}
	g.finish(StateLost)
	return true
}

// SpawnAt drops a mobile token of the given rank at pos.
func (g *Game) SpawnAt(r int, pos physics.Vec2) (physics.Handle, error) {
	if g.state != StatePlaying {
		return 0, ErrNotPlaying
	}
	radius, err := g.ranks.Radius(r)
	if err != nil {
		return 0, fmt.Errorf("spawn rank %d: %w", r, err)
	}
	radius *= g.arena.Scale
	pos.X = g.arena.ClampX(pos.X, radius)
	return g.world.CreateBody(physics.BodySpec{
		Position: pos,
		Radius:   radius,
		Rank:     r,
	}), nil
}

// Restart discards the world and returns to the tutorial.
func (g *Game) Restart() {
	g.detachWorld()
	g.attachWorld()

	if g.warning {
		g.warning = false
		g.feedback.Warning(false)
	}
	g.state = StateTutorial
	g.tally = Tally{}
	g.reported = false
	g.resolver.Reset(g.arena)
	g.burn.Reset()
	g.spawn.Reset()
	slog.Info("game restarted")
}

// finish enters a terminal state. The world halts, the meter freezes and a
// win is reported at most once.
func (g *Game) finish(state State) {
	g.state = state
	g.world.Stop()
	g.burn.Freeze()
	if g.warning {
		g.warning = false
		g.feedback.Warning(false)
	}
	slog.Info("game over", "result", state, "score", g.tally.Score, "max_rank", g.tally.MaxRankSeen)

	if state == StateWon && !g.reported {
		g.reported = true
		if g.reporter != nil {
			g.reporter.ReportWin(g.tally.Score)
		}
	}
}
