package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/mergeboss-server/internal/account"
	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/rank"
	"github.com/ugaemi/mergeboss-server/internal/store"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

// mockClient creates a ws.Client with a buffered Send channel for testing.
func mockClient(id string) *ws.Client {
	return &ws.Client{
		ID:   id,
		Send: make(chan ws.Frame, 4096),
	}
}

// waitFor reads from the client until match accepts a message or frame.
func waitFor(t *testing.T, c *ws.Client, match func(msg *ws.Message, frame *Frame) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-c.Send:
			if f.Binary {
				frame, err := DecodeFrame(f.Data)
				require.NoError(t, err)
				if match(nil, &frame) {
					return
				}
				continue
			}
			var msg ws.Message
			require.NoError(t, json.Unmarshal(f.Data, &msg))
			if match(&msg, nil) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for message")
		}
	}
}

func waitForType(t *testing.T, c *ws.Client, msgType string) ws.Message {
	t.Helper()
	var found ws.Message
	waitFor(t, c, func(msg *ws.Message, _ *Frame) bool {
		if msg != nil && msg.Type == msgType {
			found = *msg
			return true
		}
		return false
	})
	return found
}

func waitForState(t *testing.T, c *ws.Client, state game.State) Frame {
	t.Helper()
	var found Frame
	waitFor(t, c, func(_ *ws.Message, frame *Frame) bool {
		if frame != nil && frame.State == state.String() {
			found = *frame
			return true
		}
		return false
	})
	return found
}

type recordingReporter struct {
	mu     sync.Mutex
	scores []int
}

func (r *recordingReporter) ReportWin(score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
}

func (r *recordingReporter) Scores() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.scores...)
}

func setupSession(t *testing.T) (*Manager, *Session, *ws.Client, *recordingReporter) {
	t.Helper()
	m := NewManager(Settings{TickRate: 200})
	c := mockClient("client1")
	rep := &recordingReporter{}
	s := m.Create(c, account.NewPlayerAccount("user-1", "tester"), rep, nil)
	t.Cleanup(m.StopAll)
	return m, s, c, rep
}

func TestManager_CreateSendsSessionInfo(t *testing.T) {
	m := NewManager(Settings{Width: 1000})
	defer m.StopAll()
	c := mockClient("client1")
	rec := &store.Record{UserID: "user-1", Rank: 3}

	s := m.Create(c, account.NewPlayerAccount("user-1", "tester"), nil, rec)

	msg := waitForType(t, c, ws.TypeSessionInfo)
	var info sessionInfoMessage
	require.NoError(t, json.Unmarshal(msg.Data, &info))
	assert.Equal(t, s.ID, info.SessionID)
	assert.Len(t, info.Ranks, rank.DefaultCount)
	assert.Equal(t, rank.BossName, info.Ranks[rank.DefaultCount-1].Name)
	assert.Equal(t, 2.0, info.Arena.Scale)
	assert.Equal(t, game.TickRate, info.TickRate)
	require.NotNil(t, info.Record)
	assert.Equal(t, 3, info.Record.Rank)
	assert.Equal(t, 1, m.Count())
}

func TestManager_CreateReplacesExistingSession(t *testing.T) {
	m := NewManager(Settings{})
	defer m.StopAll()
	c := mockClient("client1")

	first := m.Create(c, account.NewGuestAccount("a"), nil, nil)
	second := m.Create(c, account.NewGuestAccount("b"), nil, nil)

	<-first.Done()
	assert.Equal(t, 1, m.Count())
	assert.Same(t, second, m.Get("client1"))
}

func TestManager_RemoveStopsSession(t *testing.T) {
	m, s, _, _ := setupSession(t)

	m.Remove("client1")

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session loop did not stop")
	}
	assert.Zero(t, m.Count())
	assert.Nil(t, m.Get("client1"))
	assert.ErrorIs(t, s.Start(), ErrClosed)

	// Removing twice is harmless.
	m.Remove("client1")
}

func TestSession_StartStreamsFrames(t *testing.T) {
	_, s, c, _ := setupSession(t)

	require.NoError(t, s.Start())

	first := waitForState(t, c, game.StatePlaying)
	next := waitForState(t, c, game.StatePlaying)
	assert.Greater(t, next.Seq, first.Seq)
	assert.Equal(t, game.DeathLineBase, first.Snapshot.DeathLineY)
}

func TestSession_TutorialSendsFrameOnInput(t *testing.T) {
	_, s, c, _ := setupSession(t)

	require.NoError(t, s.PointerEngage(100), "ignored by the game but still answered")

	frame := waitForState(t, c, game.StateTutorial)
	assert.Empty(t, frame.Snapshot.Tokens)
}

func TestSession_ForceWinSendsGameOver(t *testing.T) {
	_, s, c, rep := setupSession(t)
	require.NoError(t, s.Start())
	waitForState(t, c, game.StatePlaying)

	require.NoError(t, s.ForceWin())

	msg := waitForType(t, c, ws.TypeGameOver)
	var over gameOverMessage
	require.NoError(t, json.Unmarshal(msg.Data, &over))
	assert.Equal(t, "won", over.Result)
	assert.Equal(t, []int{0}, rep.Scores())
}

func TestSession_ForceLoseDoesNotReport(t *testing.T) {
	_, s, c, rep := setupSession(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.ForceLose())

	msg := waitForType(t, c, ws.TypeGameOver)
	var over gameOverMessage
	require.NoError(t, json.Unmarshal(msg.Data, &over))
	assert.Equal(t, "lost", over.Result)
	assert.Empty(t, rep.Scores())
}

func TestSession_RestartReturnsToTutorial(t *testing.T) {
	_, s, c, _ := setupSession(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.ForceLose())
	waitForType(t, c, ws.TypeGameOver)

	require.NoError(t, s.Restart())

	frame := waitForState(t, c, game.StateTutorial)
	assert.Zero(t, frame.Snapshot.Score)
}

func TestSession_MergeEventsReachClient(t *testing.T) {
	_, s, c, _ := setupSession(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.SpawnAt(0, 240, 780))
	require.NoError(t, s.SpawnAt(0, 262, 780))

	var merge Event
	waitFor(t, c, func(_ *ws.Message, frame *Frame) bool {
		if frame == nil {
			return false
		}
		for _, e := range frame.Events {
			if e.Kind == EventMerge {
				merge = e
				return true
			}
		}
		return false
	})
	assert.Equal(t, 1, merge.Rank)
	assert.InDelta(t, 251, merge.X, 5)
}

func TestSession_PointerDropEvent(t *testing.T) {
	_, s, c, _ := setupSession(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.PointerEngage(250))
	require.NoError(t, s.PointerMove(300))
	require.NoError(t, s.PointerRelease())

	waitFor(t, c, func(_ *ws.Message, frame *Frame) bool {
		if frame == nil {
			return false
		}
		for _, e := range frame.Events {
			if e.Kind == EventDrop {
				return true
			}
		}
		return false
	})
}

func TestSession_SpawnAtInvalidRankReportsError(t *testing.T) {
	_, s, c, _ := setupSession(t)
	require.NoError(t, s.Start())

	require.NoError(t, s.SpawnAt(99, 100, 100))

	msg := waitForType(t, c, ws.TypeError)
	var e ws.ErrorMessage
	require.NoError(t, json.Unmarshal(msg.Data, &e))
	assert.Contains(t, e.Message, "out of range")
}

func TestSession_ResizeChangesArena(t *testing.T) {
	_, s, c, _ := setupSession(t)
	require.NoError(t, s.Resize(250))

	waitFor(t, c, func(_ *ws.Message, frame *Frame) bool {
		return frame != nil && frame.Snapshot.Width == 250
	})
}

func TestSession_StopIsIdempotent(t *testing.T) {
	_, s, _, _ := setupSession(t)

	s.Stop()
	s.Stop()

	assert.ErrorIs(t, s.ForceWin(), ErrClosed)
}

func TestFrame_RoundTrip(t *testing.T) {
	f := Frame{
		Seq:   7,
		State: "playing",
		Snapshot: game.Snapshot{
			Score:  12,
			Tokens: []game.TokenView{{Handle: 3, Rank: 2, X: 1.5, Y: 2.5, Radius: 34}},
		},
		Events: []Event{{Kind: EventWarning, Active: true}},
	}

	data, err := EncodeFrame(f)
	require.NoError(t, err)
	back, err := DecodeFrame(data)
	require.NoError(t, err)

	assert.Equal(t, f.Seq, back.Seq)
	assert.Equal(t, f.Snapshot.Tokens, back.Snapshot.Tokens)
	assert.Equal(t, f.Events, back.Events)
}
