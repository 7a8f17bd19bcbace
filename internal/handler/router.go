package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/mergeboss-server/internal/leaderboard"
	"github.com/ugaemi/mergeboss-server/internal/session"
	"github.com/ugaemi/mergeboss-server/internal/store"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	sessions *session.Manager
	hello    *HelloHandler
	gameplay *GameplayHandler
	admin    bool
}

// NewRouter creates a new message router. board may be nil.
func NewRouter(sessions *session.Manager, accounts store.AccountStore, board *leaderboard.Service, adminEnabled bool) *Router {
	return &Router{
		sessions: sessions,
		hello:    NewHelloHandler(accounts, board, sessions),
		gameplay: NewGameplayHandler(sessions),
		admin:    adminEnabled,
	}
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	// Hello is always allowed
	if msg.Type == ws.TypeHello {
		r.hello.HandleHello(cm.Client, msg)
		return
	}

	// Everything else needs a session
	if r.sessions.Get(cm.Client.ID) == nil {
		cm.Client.SendMessage(ws.NewErrorMessage("hello required"))
		return
	}

	switch msg.Type {
	// Session messages
	case ws.TypeStart:
		r.gameplay.HandleStart(cm.Client, msg)
	case ws.TypeRestart:
		r.gameplay.HandleRestart(cm.Client, msg)
	case ws.TypeResize:
		r.gameplay.HandleResize(cm.Client, msg)

	// Pointer messages
	case ws.TypePointerEngage, ws.TypePointerMove, ws.TypePointerRelease:
		r.gameplay.HandlePointer(cm.Client, msg)

	// Admin messages
	case ws.TypeAdminForceWin, ws.TypeAdminForceLose, ws.TypeAdminSpawn:
		r.gameplay.HandleAdmin(cm.Client, msg, r.admin)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect handles client disconnection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.sessions.Remove(client.ID)
}

// StartHelloTimeout starts the hello timeout for a new client.
func (r *Router) StartHelloTimeout(client *ws.Client) {
	r.hello.StartHelloTimeout(client)
}
