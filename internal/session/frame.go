package session

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/physics"
)

// Event kinds carried in a frame.
const (
	EventMerge   = "merge"
	EventDrop    = "drop"
	EventWarning = "warning"
)

// Event is one feedback notification raised since the previous frame.
type Event struct {
	Kind   string  `msgpack:"kind"`
	Rank   int     `msgpack:"rank,omitempty"`
	X      float64 `msgpack:"x,omitempty"`
	Y      float64 `msgpack:"y,omitempty"`
	Active bool    `msgpack:"active,omitempty"`
}

// Frame is the binary per-tick message: the full snapshot plus the events
// raised while producing it.
type Frame struct {
	Seq      uint64        `msgpack:"seq"`
	State    string        `msgpack:"state"`
	Snapshot game.Snapshot `msgpack:"snap"`
	Events   []Event       `msgpack:"events,omitempty"`
}

// EncodeFrame serializes a frame with msgpack.
func EncodeFrame(f Frame) ([]byte, error) {
	return msgpack.Marshal(&f)
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(data, &f)
	return f, err
}

// eventLog collects game feedback between frames. It is only touched from
// the session loop.
type eventLog struct {
	events []Event
}

func (l *eventLog) MergeBurst(at physics.Vec2, rank int) {
	l.events = append(l.events, Event{Kind: EventMerge, Rank: rank, X: at.X, Y: at.Y})
}

func (l *eventLog) Dropped(rank int) {
	l.events = append(l.events, Event{Kind: EventDrop, Rank: rank})
}

func (l *eventLog) Warning(active bool) {
	l.events = append(l.events, Event{Kind: EventWarning, Active: active})
}

func (l *eventLog) take() []Event {
	out := l.events
	l.events = nil
	return out
}
