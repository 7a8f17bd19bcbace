package rank

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIndexOutOfRange is returned when a rank index falls outside the table.
	ErrIndexOutOfRange = errors.New("rank index out of range")
	// ErrInvalidTable is returned when a table fails construction checks.
	ErrInvalidTable = errors.New("invalid rank table")
)

// MinRanks is the smallest table that still has something to merge into.
const MinRanks = 2

// Rank is one merge tier. Radius is expressed in base arena units.
type Rank struct {
	Index  int     `yaml:"index" json:"index"`
	Radius float64 `yaml:"radius" json:"radius"`
	Score  int     `yaml:"score" json:"score"`
	Name   string  `yaml:"name" json:"name"`
}

// Table is the immutable, ordered list of ranks. Index 0 is the weakest rank
// and Len()-1 is the terminal "boss" rank.
type Table struct {
	ranks []Rank
}

// NewTable validates ranks and builds a Table. Indices must run contiguously
// from 0 and radii must strictly increase.
func NewTable(ranks []Rank) (*Table, error) {
	if len(ranks) < MinRanks {
		return nil, fmt.Errorf("%w: need at least %d ranks, got %d", ErrInvalidTable, MinRanks, len(ranks))
	}

	out := make([]Rank, len(ranks))
	for i, r := range ranks {
		if r.Index != i {
			return nil, fmt.Errorf("%w: rank at position %d has index %d", ErrInvalidTable, i, r.Index)
		}
		if r.Radius <= 0 || math.IsNaN(r.Radius) || math.IsInf(r.Radius, 0) {
			return nil, fmt.Errorf("%w: rank %d radius %v must be positive", ErrInvalidTable, i, r.Radius)
		}
		if r.Score < 0 {
			return nil, fmt.Errorf("%w: rank %d score %d is negative", ErrInvalidTable, i, r.Score)
		}
		if i > 0 && r.Radius <= ranks[i-1].Radius {
			return nil, fmt.Errorf("%w: rank %d radius %v does not exceed rank %d radius %v",
				ErrInvalidTable, i, r.Radius, i-1, ranks[i-1].Radius)
		}
		out[i] = r
	}
	return &Table{ranks: out}, nil
}

// Len returns the number of ranks.
func (t *Table) Len() int {
	return len(t.ranks)
}

// Terminal returns the index of the boss rank.
func (t *Table) Terminal() int {
	return len(t.ranks) - 1
}

// IsTerminal reports whether index is the boss rank.
func (t *Table) IsTerminal(index int) bool {
	return index == t.Terminal()
}

// Get returns the rank at index.
func (t *Table) Get(index int) (Rank, error) {
	if index < 0 || index >= len(t.ranks) {
		return Rank{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(t.ranks))
	}
	return t.ranks[index], nil
}

// Radius returns the base radius of index.
func (t *Table) Radius(index int) (float64, error) {
	r, err := t.Get(index)
	if err != nil {
		return 0, err
	}
	return r.Radius, nil
}

// Score returns the score value of index.
func (t *Table) Score(index int) (int, error) {
	r, err := t.Get(index)
	if err != nil {
		return 0, err
	}
	return r.Score, nil
}

// Ranks returns a copy of all ranks in order.
func (t *Table) Ranks() []Rank {
	out := make([]Rank, len(t.ranks))
	copy(out, t.ranks)
	return out
}

// WithNames returns a copy of the table with display names replaced.
// names must have exactly Len() entries.
func (t *Table) WithNames(names []string) (*Table, error) {
	if len(names) != len(t.ranks) {
		return nil, fmt.Errorf("%w: %d names for %d ranks", ErrInvalidTable, len(names), len(t.ranks))
	}
	ranks := t.Ranks()
	for i := range ranks {
		ranks[i].Name = names[i]
	}
	return &Table{ranks: ranks}, nil
}
