package game

import (
	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// Arena is the playfield at one concrete size. All distance thresholds are
// derived from the base layout so they stay proportional across resizes.
type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// NewArena builds an arena of the given width keeping the base aspect ratio.
// Non-positive widths fall back to BaseWidth.
func NewArena(width float64) Arena {
	if width <= 0 {
		width = BaseWidth
	}
	scale := width / BaseWidth
	return Arena{
		Width:  width,
		Height: BaseHeight * scale,
		Scale:  scale,
	}
}

// DeathLineY is the line a resting token's top must stay below.
func (a Arena) DeathLineY() float64 {
	return DeathLineBase * a.Scale
}

// DropY is the height held tokens hover at.
func (a Arena) DropY() float64 {
	return DropHeightBase * a.Scale
}

// RestingSpeed is the vertical speed under which a token counts as stacked.
func (a Arena) RestingSpeed() float64 {
	return RestingSpeedBase * a.Scale
}

// ClampX keeps a circle of radius r inside the side walls.
func (a Arena) ClampX(x, r float64) float64 {
	minX := r
	maxX := a.Width - r
	if maxX < minX {
		return a.Width / 2
	}
	if x < minX {
		return minX
	}
	if x > maxX {
		return maxX
	}
	return x
}

// PhysicsConfig returns world tuning for this arena.
func (a Arena) PhysicsConfig() physics.Config {
	return physics.DefaultConfig(a.Width, a.Height, a.Scale)
}
