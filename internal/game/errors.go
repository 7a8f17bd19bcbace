package game

import "errors"

var (
	// ErrInvariantViolation marks a merge that reached execution with
	// inconsistent input. The pair is skipped; the tick continues.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrStaleCollision marks a contact naming a body that is no longer in
	// the world. Callers ignore it.
	ErrStaleCollision = errors.New("stale collision")
	// ErrNotPlaying is returned by administrative actions outside Playing.
	ErrNotPlaying = errors.New("game is not in progress")
)
