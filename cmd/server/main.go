package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ugaemi/mergeboss-server/internal/config"
	"github.com/ugaemi/mergeboss-server/internal/handler"
	"github.com/ugaemi/mergeboss-server/internal/leaderboard"
	"github.com/ugaemi/mergeboss-server/internal/rank"
	"github.com/ugaemi/mergeboss-server/internal/session"
	"github.com/ugaemi/mergeboss-server/internal/store"
	"github.com/ugaemi/mergeboss-server/internal/ws"
)

const maxLeaderboardLimit = 100

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ranks, err := loadRanks(cfg.RanksFile)
	if err != nil {
		slog.Error("failed to load ranks", "file", cfg.RanksFile, "error", err)
		os.Exit(1)
	}

	board := leaderboard.NewService(st, cfg.LeaderboardGameID, cfg.LeaderboardTimeout)
	sm := session.NewManager(session.Settings{
		Ranks:        ranks,
		Width:        cfg.ArenaWidth,
		TickRate:     cfg.TickRate,
		BurnDuration: cfg.BurnDuration,
	})
	router := handler.NewRouter(sm, st, board, cfg.AdminEnabled)

	hub := ws.NewHub()
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handleHealth(hub, sm, w)
	})
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		handleLeaderboard(board, w, r)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(hub, router, w, r)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "ranks", ranks.Len(), "admin", cfg.AdminEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	sm.StopAll()
	board.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	return store.NewPostgresStore(ctx, cfg.DatabaseURL)
}

// loadRanks reads the rank file, if any, and deals its mentor names onto the
// non-terminal ranks.
func loadRanks(path string) (*rank.Table, error) {
	if path == "" {
		return rank.Default(), nil
	}
	t, f, err := rank.Load(path)
	if err != nil {
		return nil, err
	}
	if len(f.Mentors) == 0 {
		return t, nil
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return t.WithNames(rank.AssignNames(f.Mentors, f.Boss, t.Len(), rng))
}

func handleHealth(hub *ws.Hub, sm *session.Manager, w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"clients":  hub.ClientCount(),
		"sessions": sm.Count(),
	})
}

func handleLeaderboard(board *leaderboard.Service, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	field := r.URL.Query().Get("field")
	if field == "" {
		field = store.FieldMain
	}
	if field != store.FieldMain && field != store.FieldClearTime {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown field"})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	records, err := board.Top(r.Context(), field, limit)
	if err != nil {
		slog.Error("failed to read leaderboard", "field", field, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": board.GameID(),
		"field":   field,
		"records": records,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func handleWebSocket(hub *ws.Hub, router *handler.Router, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(uuid.New().String(), hub, conn)
	hub.Register <- client
	router.StartHelloTimeout(client)

	go client.WritePump()
	go client.ReadPump()
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
