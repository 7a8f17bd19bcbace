package game

import (
	"fmt"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

// Tally is the score state a session accumulates.
type Tally struct {
	Score       int `json:"score"`
	MaxRankSeen int `json:"max_rank_seen"`
}

// MergeResult describes one executed merge.
type MergeResult struct {
	Consumed [2]physics.Handle
	Spawned  physics.Handle
	Rank     int
	At       physics.Vec2
	Gained   int
	Won      bool
}

// MergeResolver turns collision-start events between equal-rank tokens into
// merges. It owns the pair memo and the per-tick merging set.
type MergeResolver struct {
	ranks   *rank.Table
	arena   Arena
	memo    *PairMemo
	merging map[physics.Handle]struct{}
	tally   *Tally
}

// NewMergeResolver creates a resolver writing into tally.
func NewMergeResolver(ranks *rank.Table, arena Arena, ttl time.Duration, tally *Tally) *MergeResolver {
	return &MergeResolver{
		ranks:   ranks,
		arena:   arena,
		memo:    NewPairMemo(ttl),
		merging: make(map[physics.Handle]struct{}),
		tally:   tally,
	}
}

// BeginTick clears the per-tick merging set and drops expired memo entries.
func (r *MergeResolver) BeginTick(now time.Time) {
	clear(r.merging)
	r.memo.Sweep(now)
}

// Reset forgets every remembered pair and merging flag.
func (r *MergeResolver) Reset(arena Arena) {
	r.arena = arena
	r.memo.Reset()
	clear(r.merging)
}

// Memo exposes the dedupe memo.
func (r *MergeResolver) Memo() *PairMemo {
	return r.memo
}

// Resolve evaluates the contact between a and b. ok is false when the contact
// was filtered out. A non-nil error means the pair was skipped: either a body
// was already gone (ErrStaleCollision) or execution found inconsistent input
// (ErrInvariantViolation).
func (r *MergeResolver) Resolve(w World, state State, a, b physics.Handle, now time.Time) (MergeResult, bool, error) {
	if state != StatePlaying {
		return MergeResult{}, false, nil
	}
	if a == b {
		return MergeResult{}, false, nil
	}

	ba, okA := w.Body(a)
	bb, okB := w.Body(b)
	if !okA || !okB {
		return MergeResult{}, false, fmt.Errorf("%w: pair %d/%d", ErrStaleCollision, a, b)
	}
	if ba.Static || bb.Static {
		return MergeResult{}, false, nil
	}
	if ba.Rank != bb.Rank {
		return MergeResult{}, false, nil
	}
	if r.ranks.IsTerminal(ba.Rank) {
		return MergeResult{}, false, nil
	}
	if r.isMerging(a) || r.isMerging(b) {
		return MergeResult{}, false, nil
	}
	pair := physics.NewPair(a, b)
	if r.memo.Seen(pair, now) {
		return MergeResult{}, false, nil
	}

	res, err := r.Merge(w, ba, bb)
	if err != nil {
		return MergeResult{}, false, err
	}
	r.memo.Mark(pair, now)
	r.merging[a] = struct{}{}
	r.merging[b] = struct{}{}
	return res, true, nil
}

// Merge consumes two equal-rank tokens and spawns one of the next rank at
// their midpoint. Every check runs before the world is touched, so a failed
// merge leaves no trace.
func (r *MergeResolver) Merge(w World, a, b physics.Body) (MergeResult, error) {
	if a.Rank != b.Rank {
		return MergeResult{}, fmt.Errorf("%w: merging ranks %d and %d", ErrInvariantViolation, a.Rank, b.Rank)
	}
	if _, err := r.ranks.Get(a.Rank); err != nil {
		return MergeResult{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	next, err := r.ranks.Get(a.Rank + 1)
	if err != nil {
		return MergeResult{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	at := physics.Midpoint(a.Position, b.Position)
	w.RemoveBodies(a.Handle, b.Handle)
	spawned := w.CreateBody(physics.BodySpec{
		Position: at,
		Radius:   next.Radius * r.arena.Scale,
		Rank:     next.Index,
	})

	r.tally.Score += next.Score
	if next.Index > r.tally.MaxRankSeen {
		r.tally.MaxRankSeen = next.Index
	}

	return MergeResult{
		Consumed: [2]physics.Handle{a.Handle, b.Handle},
		Spawned:  spawned,
		Rank:     next.Index,
		At:       at,
		Gained:   next.Score,
		Won:      r.ranks.IsTerminal(next.Index),
	}, nil
}

func (r *MergeResolver) isMerging(h physics.Handle) bool {
	_, ok := r.merging[h]
	return ok
}
