package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ugaemi/mergeboss-server/internal/account"
	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/leaderboard"
	"github.com/ugaemi/mergeboss-server/internal/session"
	"github.com/ugaemi/mergeboss-server/internal/store"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

const (
	helloTimeout = 10 * time.Second
	storeTimeout = 5 * time.Second
)

// HelloHandler identifies a client and opens its game session.
type HelloHandler struct {
	store    store.AccountStore
	board    *leaderboard.Service
	sessions *session.Manager
}

// NewHelloHandler creates a new hello handler. board may be nil, in which
// case no wins are recorded.
func NewHelloHandler(accounts store.AccountStore, board *leaderboard.Service, sessions *session.Manager) *HelloHandler {
	return &HelloHandler{
		store:    accounts,
		board:    board,
		sessions: sessions,
	}
}

type helloRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// HandleHello processes a hello request. A user ID links the client to a
// persistent account; without one the client plays as a guest.
func (h *HelloHandler) HandleHello(client *ws.Client, msg ws.Message) {
	if h.sessions.Get(client.ID) != nil {
		client.SendMessage(ws.NewErrorMessage("already identified"))
		return
	}

	var req helloRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid hello data"))
			return
		}
	}
	req.UserID = strings.TrimSpace(req.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	var (
		acc *account.Account
		err error
	)
	if req.UserID == "" {
		acc, err = h.guest(ctx, req)
	} else {
		acc, err = h.player(ctx, req)
	}
	if err != nil {
		client.SendMessage(ws.NewErrorMessage("internal error"))
		return
	}

	client.AccountID = acc.ID

	var (
		reporter game.WinReporter
		record   *store.Record
	)
	if h.board != nil {
		r := h.board.NewReporter(ctx, acc)
		reporter, record = r, r.Existing()
	}
	h.sessions.Create(client, acc, reporter, record)

	slog.Info("client identified", "client", client.ID, "account_id", acc.ID, "guest", acc.IsGuest)
}

func (h *HelloHandler) player(ctx context.Context, req helloRequest) (*account.Account, error) {
	acc, err := h.store.FindByUserID(ctx, req.UserID)
	if err != nil {
		slog.Error("failed to find account", "error", err)
		return nil, err
	}

	if acc == nil {
		acc = account.NewPlayerAccount(req.UserID, req.Nickname)
		if err := h.store.Create(ctx, acc); err != nil {
			slog.Error("failed to create account", "error", err)
			return nil, err
		}
		slog.Info("new account created", "account_id", acc.ID, "user_id", req.UserID)
		return acc, nil
	}

	if err := h.store.UpdateLastLogin(ctx, acc.ID); err != nil {
		slog.Warn("failed to update last login", "account_id", acc.ID, "error", err)
	}
	if req.Nickname != "" {
		nickname := account.NormalizeNickname(req.Nickname)
		if nickname != acc.Nickname {
			if err := h.store.UpdateNickname(ctx, acc.ID, nickname); err != nil {
				slog.Warn("failed to update nickname", "account_id", acc.ID, "error", err)
			} else {
				acc.Nickname = nickname
			}
		}
	}
	return acc, nil
}

func (h *HelloHandler) guest(ctx context.Context, req helloRequest) (*account.Account, error) {
	acc := account.NewGuestAccount(req.Nickname)
	if err := h.store.Create(ctx, acc); err != nil {
		slog.Error("failed to create guest account", "error", err)
		return nil, err
	}
	slog.Info("new guest account created", "account_id", acc.ID, "nickname", acc.Nickname)
	return acc, nil
}

// StartHelloTimeout closes the connection if the client has not said hello
// in time.
func (h *HelloHandler) StartHelloTimeout(client *ws.Client) {
	time.AfterFunc(helloTimeout, func() {
		if h.sessions.Get(client.ID) != nil {
			return
		}
		slog.Info("hello timeout, closing connection", "client", client.ID)
		if client.Conn != nil {
			client.Conn.Close()
		}
	})
}
