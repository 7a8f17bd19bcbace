package game

import (
	"time"

	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// PairMemo remembers resolved unordered pairs for a short window so repeated
// delivery of one contact resolves at most once. Expiry is driven by the
// caller's clock; there are no timers.
type PairMemo struct {
	ttl     time.Duration
	expires map[physics.Pair]time.Time
}

// NewPairMemo creates a memo whose entries live for ttl.
func NewPairMemo(ttl time.Duration) *PairMemo {
	return &PairMemo{
		ttl:     ttl,
		expires: make(map[physics.Pair]time.Time),
	}
}

// Seen reports whether p was marked and has not expired at now.
func (m *PairMemo) Seen(p physics.Pair, now time.Time) bool {
	exp, ok := m.expires[p]
	return ok && now.Before(exp)
}

// Mark records p as resolved at now.
func (m *PairMemo) Mark(p physics.Pair, now time.Time) {
	m.expires[p] = now.Add(m.ttl)
}

// Sweep drops entries that expired at or before now.
func (m *PairMemo) Sweep(now time.Time) {
	for p, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, p)
		}
	}
}

// Len returns the number of remembered pairs, expired or not.
func (m *PairMemo) Len() int {
	return len(m.expires)
}

// Reset forgets everything.
func (m *PairMemo) Reset() {
	clear(m.expires)
}
