package game

import "time"

// Base arena dimensions. Everything else scales with width / BaseWidth.
const (
	BaseWidth  = 500.0
	BaseHeight = 800.0
)

// Arena geometry in base units (y grows downward)
const (
	DeathLineBase  = 150.0
	DropHeightBase = 100.0
	// RestingSpeedBase is 0.2 units per 60 Hz step, expressed per second.
	RestingSpeedBase = 0.2 * 60
)

// Loss timing
const (
	BurnDuration = 3 * time.Second
)

// Input
const (
	ReleaseCooldown = 100 * time.Millisecond
)

// Merge dedupe
const (
	PairMemoTTL = 100 * time.Millisecond
)

// Spawn pool: sample [0, max(MinRollPool, MaxRankSeen-RollLag))
const (
	MinRollPool = 3
	RollLag     = 2
)

// Game timing
const (
	TickRate     = 60 // ticks per second
	TickInterval = time.Second / TickRate
)
