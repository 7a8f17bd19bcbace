package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

// Options configures a Game. Zero values fall back to package defaults.
type Options struct {
	Ranks        *rank.Table
	Width        float64
	Tick         time.Duration
	BurnDuration time.Duration
	DedupeWindow time.Duration
	Cooldown     time.Duration

	NewWorld WorldFactory
	Feedback Feedback
	Reporter WinReporter

	Clock func() time.Time
	Rand  *rand.Rand
}

// Game is one play-through: the state machine plus the merge resolver, burn
// meter and spawn controller around a single physics world.
//
// Game is not safe for concurrent use. The owning session serializes input
// and ticks onto one goroutine.
type Game struct {
	ranks    *rank.Table
	tick     time.Duration
	clock    func() time.Time
	newWorld WorldFactory
	feedback Feedback
	reporter WinReporter

	arena       Arena
	world       World
	unsubscribe func()

	state    State
	tally    Tally
	resolver *MergeResolver
	burn     *BurnMeter
	spawn    *SpawnController

	warning  bool
	reported bool
}

// New creates a game in Tutorial with an empty arena.
func New(opts Options) *Game {
	if opts.Ranks == nil {
		opts.Ranks = rank.Default()
	}
	if opts.Tick <= 0 {
		opts.Tick = TickInterval
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = PairMemoTTL
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = ReleaseCooldown
	}
	if opts.NewWorld == nil {
		opts.NewWorld = NewPhysicsWorld
	}
	if opts.Feedback == nil {
		opts.Feedback = nopFeedback{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g := &Game{
		ranks:    opts.Ranks,
		tick:     opts.Tick,
		clock:    opts.Clock,
		newWorld: opts.NewWorld,
		feedback: opts.Feedback,
		reporter: opts.Reporter,
		arena:    NewArena(opts.Width),
		state:    StateTutorial,
		burn:     NewBurnMeter(opts.BurnDuration),
		spawn:    NewSpawnController(opts.Ranks, opts.Rand, opts.Cooldown),
	}
	g.resolver = NewMergeResolver(g.ranks, g.arena, opts.DedupeWindow, &g.tally)
	g.attachWorld()
	return g
}

func (g *Game) attachWorld() {
	g.world = g.newWorld(g.arena)
	g.unsubscribe = g.world.OnCollisionStart(g.onCollisionStart)
}

func (g *Game) detachWorld() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	if g.world != nil {
		g.world.Close()
	}
}

// Close releases the physics world. The game is unusable afterwards.
func (g *Game) Close() {
	g.detachWorld()
	g.world = nil
}

func (g *Game) State() State             { return g.state }
func (g *Game) Score() int               { return g.tally.Score }
func (g *Game) MaxRankSeen() int         { return g.tally.MaxRankSeen }
func (g *Game) Arena() Arena             { return g.arena }
func (g *Game) Ranks() *rank.Table       { return g.ranks }
func (g *Game) World() World             { return g.world }
func (g *Game) Burn() *BurnMeter         { return g.burn }
func (g *Game) Spawn() *SpawnController  { return g.spawn }
func (g *Game) Resolver() *MergeResolver { return g.resolver }

// TokenView is one token as presented to clients.
type TokenView struct {
	Handle physics.Handle `json:"id" msgpack:"id"`
	Rank   int            `json:"rank" msgpack:"rank"`
	X      float64        `json:"x" msgpack:"x"`
	Y      float64        `json:"y" msgpack:"y"`
	Angle  float64        `json:"angle" msgpack:"a"`
	Radius float64        `json:"radius" msgpack:"r"`
	Held   bool           `json:"held,omitempty" msgpack:"h,omitempty"`
}

// Snapshot is the full presentable game state for one tick.
type Snapshot struct {
	State         State       `json:"state" msgpack:"-"`
	Score         int         `json:"score" msgpack:"score"`
	MaxRankSeen   int         `json:"max_rank_seen" msgpack:"max_rank"`
	CurrentRank   int         `json:"current_rank" msgpack:"current"`
	NextRank      int         `json:"next_rank" msgpack:"next"`
	BurnProgress  float64     `json:"burn_progress" msgpack:"burn"`
	OverThreshold bool        `json:"over_threshold" msgpack:"over"`
	Width         float64     `json:"width" msgpack:"w"`
	Height        float64     `json:"height" msgpack:"ht"`
	DeathLineY    float64     `json:"death_line_y" msgpack:"line"`
	Tokens        []TokenView `json:"tokens" msgpack:"tokens"`
}

// Snapshot captures the current state.
func (g *Game) Snapshot() Snapshot {
	held, holding := g.spawn.Held()
	var bodies []physics.Body
	if g.world != nil {
		bodies = g.world.Bodies()
	}
	tokens := make([]TokenView, 0, len(bodies))
	for _, b := range bodies {
		tokens = append(tokens, TokenView{
			Handle: b.Handle,
			Rank:   b.Rank,
			X:      b.Position.X,
			Y:      b.Position.Y,
			Angle:  b.Angle,
			Radius: b.Radius,
			Held:   holding && b.Handle == held,
		})
	}
	return Snapshot{
		State:         g.state,
		Score:         g.tally.Score,
		MaxRankSeen:   g.tally.MaxRankSeen,
		CurrentRank:   g.spawn.Current(),
		NextRank:      g.spawn.Next(),
		BurnProgress:  g.burn.Progress(),
		OverThreshold: g.burn.Over(),
		Width:         g.arena.Width,
		Height:        g.arena.Height,
		DeathLineY:    g.arena.DeathLineY(),
		Tokens:        tokens,
	}
}

// Resize rebuilds the arena at a new width. Every token is re-created at its
// proportionally scaled position, the pair memo is cleared and the burn meter
// skips the time spent rebuilding. Terminal games stay halted.
func (g *Game) Resize(width float64) {
	next := NewArena(width)
	if next == g.arena {
		return
	}
	ratio := next.Scale / g.arena.Scale
	bodies := g.world.Bodies()
	held, holding := g.spawn.Held()

	g.detachWorld()
	g.arena = next
	g.attachWorld()

	for _, b := range bodies {
		radius, err := g.ranks.Radius(b.Rank)
		if err != nil {
			slog.Warn("dropping token with unknown rank on resize", "rank", b.Rank, "error", err)
			continue
		}
		h := g.world.CreateBody(physics.BodySpec{
			Position: b.Position.Scale(ratio),
			Velocity: b.Velocity.Scale(ratio),
			Radius:   radius * next.Scale,
			Static:   b.Static,
			Rank:     b.Rank,
		})
		if holding && b.Handle == held {
			g.spawn.Rehold(h)
		}
	}

	g.resolver.Reset(next)
	g.burn.Pause()
	if g.state.IsTerminal() {
		g.world.Stop()
	}
	slog.Debug("arena resized", "width", next.Width, "scale", next.Scale, "tokens", len(bodies))
}
