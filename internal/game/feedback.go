package game

import "github.com/ugaemi/mergeboss-server/internal/physics"

// Feedback receives cosmetic notifications from the core. Calls happen on the
// tick loop and must not block.
type Feedback interface {
	// MergeBurst fires at the spawn point of a merge result.
	MergeBurst(at physics.Vec2, rank int)
	// Dropped fires when a held token is released into the simulation.
	Dropped(rank int)
	// Warning toggles the "stack over the line" signal.
	Warning(active bool)
}

// WinReporter is told the final score once, on the Won transition.
// Implementations must return immediately.
type WinReporter interface {
	ReportWin(score int)
}

// WinReporterFunc adapts a function to WinReporter.
type WinReporterFunc func(score int)

func (f WinReporterFunc) ReportWin(score int) { f(score) }

type nopFeedback struct{}

func (nopFeedback) MergeBurst(physics.Vec2, int) {}
func (nopFeedback) Dropped(int)                  {}
func (nopFeedback) Warning(bool)                 {}
