package game

import "encoding/json"

type State int

const (
	StateTutorial State = iota
	StatePlaying
	StateWon
	StateLost
)

func (s State) String() string {
	switch s {
	case StateTutorial:
		return "tutorial"
	case StatePlaying:
		return "playing"
	case StateWon:
		return "won"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateWon || s == StateLost
}

// MarshalJSON serializes State as a string.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes State from a string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "playing":
		*s = StatePlaying
	case "won":
		*s = StateWon
	case "lost":
		*s = StateLost
	default:
		*s = StateTutorial
	}
	return nil
}
