package rank

import "fmt"

// Built-in table dimensions (base arena units, 500 wide).
const (
	DefaultCount = 10
	BossName     = "boss"
)

// DefaultRadii grows quickly enough that each merge is visibly larger than
// its inputs. Ranks past the mapping grow linearly.
var DefaultRadii = []float64{15, 24, 34, 45, 56, 69, 84, 99, 115, 135, 157, 185, 230}

// Default returns the built-in table: DefaultCount ranks, score 2^i.
func Default() *Table {
	t, err := Build(DefaultCount)
	if err != nil {
		// DefaultCount and DefaultRadii are constants; this cannot fail.
		panic(err)
	}
	return t
}

// Build returns a table of n ranks using DefaultRadii and doubling scores.
func Build(n int) (*Table, error) {
	ranks := make([]Rank, n)
	for i := range ranks {
		name := fmt.Sprintf("mentor_%d", i)
		if i == n-1 {
			name = BossName
		}
		ranks[i] = Rank{
			Index:  i,
			Radius: defaultRadius(i),
			Score:  1 << i,
			Name:   name,
		}
	}
	return NewTable(ranks)
}

func defaultRadius(i int) float64 {
	if i < len(DefaultRadii) {
		return DefaultRadii[i]
	}
	return 180 + float64(i-10)*30
}
