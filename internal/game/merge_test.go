package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

func TestMerge_EqualRanksAdvanceByOne(t *testing.T) {
	table := rank.Default()
	for r := 0; r < table.Len()-1; r++ {
		h := newHarness(t)
		h.g.Start()
		a := h.token(r, 100, 600)
		b := h.token(r, 200, 700)

		h.collide(a, b)

		bodies := h.world().Bodies()
		require.Len(t, bodies, 1, "rank %d", r)
		assert.Equal(t, r+1, bodies[0].Rank)
		assert.InDelta(t, 150, bodies[0].Position.X, 1e-9)
		assert.InDelta(t, 650, bodies[0].Position.Y, 1e-9)
		assert.False(t, bodies[0].Static)

		want, err := table.Score(r + 1)
		require.NoError(t, err)
		assert.Equal(t, want, h.g.Score())
		assert.Equal(t, r+1, h.g.MaxRankSeen())
	}
}

func TestMerge_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness) (physics.Handle, physics.Handle)
	}{
		{"different ranks", func(h *harness) (physics.Handle, physics.Handle) {
			return h.token(1, 100, 700), h.token(2, 150, 700)
		}},
		{"terminal rank", func(h *harness) (physics.Handle, physics.Handle) {
			last := h.g.Ranks().Terminal()
			return h.token(last, 100, 500), h.token(last, 400, 500)
		}},
		{"held token", func(h *harness) (physics.Handle, physics.Handle) {
			held := h.token(0, 100, 100)
			h.world().SetStatic(held, true)
			return held, h.token(0, 120, 100)
		}},
		{"same handle", func(h *harness) (physics.Handle, physics.Handle) {
			a := h.token(0, 100, 700)
			return a, a
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.g.Start()
			a, b := tt.setup(h)
			before := h.world().Bodies()

			h.collide(a, b)

			assert.Equal(t, before, h.world().Bodies())
			assert.Zero(t, h.g.Score())
			assert.Zero(t, h.g.MaxRankSeen())
			assert.Empty(t, h.fb.bursts)
			assert.Equal(t, StatePlaying, h.g.State())
		})
	}
}

func TestMerge_IgnoredOutsidePlaying(t *testing.T) {
	h := newHarness(t)
	a := h.token(0, 100, 700)
	b := h.token(0, 120, 700)

	h.collide(a, b)

	assert.Len(t, h.world().Bodies(), 2)
	assert.Zero(t, h.g.Score())
}

func TestMerge_TokenMergesOncePerTick(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	a := h.token(0, 100, 700)
	b := h.token(0, 130, 700)
	c := h.token(0, 70, 700)

	h.world().deliver(physics.NewPair(a, b), physics.NewPair(a, c))

	bodies := h.world().Bodies()
	require.Len(t, bodies, 2)
	ranks := []int{bodies[0].Rank, bodies[1].Rank}
	assert.ElementsMatch(t, []int{0, 1}, ranks)
	_, cAlive := h.world().Body(c)
	assert.True(t, cAlive)
	assert.Len(t, h.fb.bursts, 1)
}

func TestMerge_DuplicateDeliveryResolvesOnce(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	a := h.token(0, 100, 700)
	b := h.token(0, 130, 700)

	h.world().deliver(physics.NewPair(a, b), physics.NewPair(b, a))
	h.collide(a, b)

	assert.Len(t, h.world().Bodies(), 1)
	assert.Len(t, h.fb.bursts, 1)
	one, _ := h.g.Ranks().Score(1)
	assert.Equal(t, one, h.g.Score())
}

func TestMerge_StaleCollision(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	a := h.token(0, 100, 700)

	_, ok, err := h.g.Resolver().Resolve(h.world(), StatePlaying, a, physics.Handle(999), h.clock.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStaleCollision)
}

func TestMerge_UnequalRanksAreInvariantViolation(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	a := h.token(1, 100, 700)
	b := h.token(2, 200, 700)
	ba, _ := h.world().Body(a)
	bb, _ := h.world().Body(b)

	_, err := h.g.Resolver().Merge(h.world(), ba, bb)

	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Len(t, h.world().Bodies(), 2)
	assert.Zero(t, h.g.Score())
}

func TestMerge_UnknownRankIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	a := h.token(42, 100, 700)
	b := h.token(42, 200, 700)

	_, ok, err := h.g.Resolver().Resolve(h.world(), StatePlaying, a, b, h.clock.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, err, rank.ErrIndexOutOfRange)

	// Through the game the pair is logged and skipped.
	h.collide(a, b)
	assert.Len(t, h.world().Bodies(), 2)
	assert.Equal(t, StatePlaying, h.g.State())
}

func TestMerge_FirstMergeScenario(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	require.Zero(t, h.g.Score())
	require.Zero(t, h.g.MaxRankSeen())

	a := h.token(0, 200, 760)
	b := h.token(0, 230, 760)
	h.collide(a, b)

	bodies := h.world().Bodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, 1, bodies[0].Rank)
	assert.InDelta(t, 215, bodies[0].Position.X, 1e-9)
	one, _ := h.g.Ranks().Score(1)
	assert.Equal(t, one, h.g.Score())
	assert.Equal(t, 1, h.g.MaxRankSeen())
	assert.Equal(t, []int{1}, h.fb.bursts)
}

func TestMerge_ReachingTerminalRankWins(t *testing.T) {
	h := newHarness(t)
	h.g.Start()
	table := h.g.Ranks()

	a := h.forge(table.Terminal() - 1)
	b := h.forge(table.Terminal() - 1)
	h.collide(a, b)

	require.Equal(t, StateWon, h.g.State())

	// Every level of the merge tree contributes the same total.
	want := 0
	for r := 1; r <= table.Terminal(); r++ {
		s, _ := table.Score(r)
		want += s * (1 << (table.Terminal() - r))
	}
	assert.Equal(t, want, h.g.Score())
	assert.Equal(t, table.Terminal(), h.g.MaxRankSeen())
	assert.Equal(t, []int{want}, h.wins)
	assert.False(t, h.world().running)

	// Nothing moves after the win.
	c := h.token(0, 100, 700)
	d := h.token(0, 120, 700)
	count := len(h.world().Bodies())
	h.collide(c, d)
	assert.Len(t, h.world().Bodies(), count)
	assert.Equal(t, want, h.g.Score())
	assert.False(t, h.g.PointerEngage(100))
	assert.Len(t, h.world().Bodies(), count)
}

func TestMerge_MaxRankSeenNeverDecreases(t *testing.T) {
	h := newHarness(t)
	h.g.Start()

	h.forge(3)
	assert.Equal(t, 3, h.g.MaxRankSeen())

	a := h.token(0, 100, 700)
	b := h.token(0, 120, 700)
	h.collide(a, b)
	assert.Equal(t, 3, h.g.MaxRankSeen())
	assert.LessOrEqual(t, h.g.MaxRankSeen(), h.g.Ranks().Terminal())
}
