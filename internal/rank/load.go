package rank

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk rank configuration.
//
//	ranks:
//	  - {index: 0, radius: 15, score: 1, name: intern}
//	  - {index: 1, radius: 24, score: 2, name: student}
//	mentors: [alice, bob, carol]
//	boss: dean
type File struct {
	Ranks   []Rank   `yaml:"ranks"`
	Mentors []string `yaml:"mentors"`
	Boss    string   `yaml:"boss"`
}

// Load reads a YAML rank file and validates the table it describes.
func Load(path string) (*Table, *File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rank file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML rank configuration.
func Parse(data []byte) (*Table, *File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("decode rank file: %w", err)
	}
	t, err := NewTable(f.Ranks)
	if err != nil {
		return nil, nil, err
	}
	return t, &f, nil
}

// AssignNames picks n-1 distinct names from pool in random order and pins
// boss at the terminal position. When the pool runs short the remaining
// slots fall back to "mentor_<i>".
func AssignNames(pool []string, boss string, n int, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	if boss == "" {
		boss = BossName
	}

	others := make([]string, 0, len(pool))
	for _, name := range pool {
		if name != "" && name != boss {
			others = append(others, name)
		}
	}
	rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	names := make([]string, n)
	for i := 0; i < n-1; i++ {
		if i < len(others) {
			names[i] = others[i]
		} else {
			names[i] = fmt.Sprintf("mentor_%d", i)
		}
	}
	names[n-1] = boss
	return names
}
