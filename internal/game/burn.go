package game

import (
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// BurnMeter tracks how long the stack has sat above the death line. It fills
// over duration while the stack is over and drains at the same rate
// otherwise, always clamped to [0, 1].
type BurnMeter struct {
	duration time.Duration
	progress float64
	over     bool
	last     time.Time
	frozen   bool
}

// NewBurnMeter creates an empty meter. Non-positive durations fall back to
// BurnDuration.
func NewBurnMeter(duration time.Duration) *BurnMeter {
	if duration <= 0 {
		duration = BurnDuration
	}
	return &BurnMeter{duration: duration}
}

// Evaluate advances the meter to now. It returns true exactly once, on the
// evaluation where progress first reaches 1.
func (m *BurnMeter) Evaluate(now time.Time, over bool) bool {
	if m.frozen {
		return false
	}
	var elapsed time.Duration
	if !m.last.IsZero() {
		elapsed = now.Sub(m.last)
		if elapsed < 0 {
			elapsed = 0
		}
	}
	m.last = now
	m.over = over

	delta := float64(elapsed) / float64(m.duration)
	wasFull := m.progress >= 1
	if over {
		m.progress += delta
	} else {
		m.progress -= delta
	}
	m.progress = clamp01(m.progress)

	return over && !wasFull && m.progress >= 1
}

// Pause makes the next evaluation use a zero delta.
func (m *BurnMeter) Pause() {
	m.last = time.Time{}
}

// Freeze stops the meter at its current value until Reset.
func (m *BurnMeter) Freeze() {
	m.frozen = true
}

// Reset empties and unfreezes the meter.
func (m *BurnMeter) Reset() {
	m.progress = 0
	m.over = false
	m.last = time.Time{}
	m.frozen = false
}

func (m *BurnMeter) Progress() float64 { return m.progress }
func (m *BurnMeter) Over() bool        { return m.over }
func (m *BurnMeter) Frozen() bool      { return m.frozen }

// StackOverLine reports whether any mobile token has settled with its top
// above the death line. Held tokens and falling tokens do not count.
func StackOverLine(bodies []physics.Body, arena Arena) bool {
	line := arena.DeathLineY()
	resting := arena.RestingSpeed()
	for _, b := range bodies {
		if b.Static {
			continue
		}
		if b.Position.Y-b.Radius < line && b.Velocity.Y < resting {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
