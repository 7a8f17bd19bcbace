package physics

import "math"

// Handle identifies a body inside one World. Handles are never reused.
type Handle uint64

// Vec2 is a 2D vector in arena units. Y grows downward.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{X: v.X * f, Y: v.Y * f} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Midpoint returns the arithmetic mean of a and b.
func Midpoint(a, b Vec2) Vec2 {
	return Vec2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// BodySpec describes a circle to create.
type BodySpec struct {
	Position Vec2
	Velocity Vec2
	Radius   float64
	Static   bool
	Rank     int
}

// Body is a read-only view of a body at query time.
type Body struct {
	Handle   Handle
	Position Vec2
	Velocity Vec2
	Angle    float64
	Radius   float64
	Static   bool
	Rank     int
}

// Pair is an unordered contact between two bodies, normalized so A < B.
type Pair struct {
	A, B Handle
}

// NewPair normalizes the order of a and b.
func NewPair(a, b Handle) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

type body struct {
	Body
	invMass float64
}

func (b *body) refreshMass() {
	if b.Static {
		b.invMass = 0
		return
	}
	// Mass scales with area.
	b.invMass = 1 / (b.Radius * b.Radius)
}
