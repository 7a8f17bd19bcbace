package game

import (
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// World is the physics capability set the core consumes. The core never
// integrates motion itself.
type World interface {
	CreateBody(spec physics.BodySpec) physics.Handle
	RemoveBodies(handles ...physics.Handle)
	SetStatic(h physics.Handle, static bool)
	SetPosition(h physics.Handle, pos physics.Vec2)
	SetVelocity(h physics.Handle, vel physics.Vec2)
	Body(h physics.Handle) (physics.Body, bool)
	Bodies() []physics.Body
	OnCollisionStart(fn func(pairs []physics.Pair)) (unsubscribe func())
	Step(dt time.Duration)
	Start()
	Stop()
	Close()
}

// WorldFactory constructs a fresh world for an arena.
type WorldFactory func(arena Arena) World

// NewPhysicsWorld is the default WorldFactory.
func NewPhysicsWorld(arena Arena) World {
	return physics.NewWorld(arena.PhysicsConfig())
}
