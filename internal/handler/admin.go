package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/mergeboss-server/internal/ws"
)

type spawnRequest struct {
	Rank int     `json:"rank"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// HandleAdmin processes the test-only commands. They are refused unless the
// server runs with admin commands enabled.
func (h *GameplayHandler) HandleAdmin(client *ws.Client, msg ws.Message, enabled bool) {
	if !enabled {
		slog.Warn("admin command refused", "client", client.ID, "type", msg.Type)
		client.SendMessage(ws.NewErrorMessage("admin commands disabled"))
		return
	}
	s := h.session(client)
	if s == nil {
		return
	}

	switch msg.Type {
	case ws.TypeAdminForceWin:
		h.check(client, s.ForceWin())
	case ws.TypeAdminForceLose:
		h.check(client, s.ForceLose())
	case ws.TypeAdminSpawn:
		var req spawnRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid spawn data"))
			return
		}
		h.check(client, s.SpawnAt(req.Rank, req.X, req.Y))
	}
}
