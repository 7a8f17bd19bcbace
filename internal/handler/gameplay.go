package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"github.com/ugaemi/mergeboss-server/internal/session"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

// Widths outside this range are rejected on resize.
const (
	minArenaWidth = 200
	maxArenaWidth = 4000
)

// GameplayHandler forwards pointer and lifecycle input to the client's session.
type GameplayHandler struct {
	sessions *session.Manager
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(sessions *session.Manager) *GameplayHandler {
	return &GameplayHandler{sessions: sessions}
}

type pointerRequest struct {
	X float64 `json:"x"`
}

type resizeRequest struct {
	Width float64 `json:"width"`
}

// HandlePointer processes pointer_engage, pointer_move and pointer_release.
func (h *GameplayHandler) HandlePointer(client *ws.Client, msg ws.Message) {
	s := h.session(client)
	if s == nil {
		return
	}

	if msg.Type == ws.TypePointerRelease {
		h.check(client, s.PointerRelease())
		return
	}

	var req pointerRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid pointer data"))
		return
	}
	if math.IsNaN(req.X) || math.IsInf(req.X, 0) {
		client.SendMessage(ws.NewErrorMessage("invalid pointer position"))
		return
	}

	if msg.Type == ws.TypePointerEngage {
		h.check(client, s.PointerEngage(req.X))
	} else {
		h.check(client, s.PointerMove(req.X))
	}
}

// HandleStart leaves the tutorial.
func (h *GameplayHandler) HandleStart(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.check(client, s.Start())
	}
}

// HandleRestart begins a fresh game in the same session.
func (h *GameplayHandler) HandleRestart(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.check(client, s.Restart())
	}
}

// HandleResize rescales the arena to a new viewport width.
func (h *GameplayHandler) HandleResize(client *ws.Client, msg ws.Message) {
	s := h.session(client)
	if s == nil {
		return
	}

	var req resizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid resize data"))
		return
	}
	if math.IsNaN(req.Width) || req.Width < minArenaWidth || req.Width > maxArenaWidth {
		client.SendMessage(ws.NewErrorMessage("width out of range"))
		return
	}
	h.check(client, s.Resize(req.Width))
}

func (h *GameplayHandler) session(client *ws.Client) *session.Session {
	s := h.sessions.Get(client.ID)
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("no active session"))
	}
	return s
}

func (h *GameplayHandler) check(client *ws.Client, err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		client.SendMessage(ws.NewErrorMessage("too many inputs"))
	default:
		slog.Debug("input rejected", "client", client.ID, "error", err)
		client.SendMessage(ws.NewErrorMessage(err.Error()))
	}
}
