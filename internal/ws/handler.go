package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-dice-backend/internal/engine"
	"github.com/DoyleJ11/auction-dice-backend/internal/game"
	"github.com/DoyleJ11/auction-dice-backend/internal/hub"
	"github.com/DoyleJ11/auction-dice-backend/internal/lobby"
	"github.com/DoyleJ11/auction-dice-backend/internal/types"
	pub "github.com/DoyleJ11/auction-dice-backend/pkg/types"
)

// Game is the subset of the game service the socket drives.
type Game interface {
	Status(ctx context.Context, code string) (pub.Status, error)
	PlaceBid(ctx context.Context, code string, leader engine.LeaderID, amount int) error
	RollDice(ctx context.Context, code string, leader engine.LeaderID) (int, error)
	Reveal(ctx context.Context, code string) (engine.Resolution, error)
}

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
	outboxSize   = 8
)

// Handler serves a room's websocket. Cross-origin browsers are accepted only
// when their host matches one of originPatterns (path.Match syntax, e.g.
// "localhost:*"); same-host and non-browser clients are always accepted.
func Handler(h *hub.Hub, g Game, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		st, err := g.Status(r.Context(), code)
		if errors.Is(err, game.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("load room for websocket", zap.String("code", code), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		lb := h.Ensure(code, st)
		if lb == nil {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, outboxSize)
		clientID := uuid.NewString()
		log := log.With(zap.String("code", code), zap.String("client", clientID))

		if !lb.Send(lobby.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer lb.Send(lobby.Leave{ClientID: clientID})
		log.Debug("websocket joined")

		// A change committed between the status read and Ensure never
		// reached the lobby.
		if fresh, err := g.Status(r.Context(), code); err == nil {
			lb.Send(lobby.Refresh{Status: fresh})
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. A closed outbox means the lobby dropped us.
		go func() {
			defer cancel()
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						conn.Close(websocket.StatusGoingAway, "room closed")
						return
					}
					status := snap.Status
					write(ctx, conn, types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &status})
				case <-lb.Done():
					conn.Close(websocket.StatusGoingAway, "room closed")
					return
				case <-ctx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			readCtx, readCancel := context.WithTimeout(ctx, readTimeout)
			_, data, err := conn.Read(readCtx)
			readCancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				write(ctx, conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			reply := handle(ctx, g, code, cm)
			if reply.Type == "" {
				continue
			}
			write(ctx, conn, reply)
		}
	}
}

// handle applies one client message. Snapshots for successful changes reach
// the client through the lobby, so a bid needs no direct reply.
func handle(ctx context.Context, g Game, code string, cm types.ClientMessage) types.ServerMessage {
	switch cm.Type {
	case "PlaceBid":
		if err := g.PlaceBid(ctx, code, engine.LeaderID(cm.LeaderID), cm.Amount); err != nil {
			return errorMessage(err)
		}
		return types.ServerMessage{}

	case "RollDice":
		v, err := g.RollDice(ctx, code, engine.LeaderID(cm.LeaderID))
		if err != nil {
			return errorMessage(err)
		}
		return types.ServerMessage{Type: "DiceRolled", Dice: &pub.DiceResult{LeaderID: cm.LeaderID, Dice: v}}

	case "Reveal":
		res, err := g.Reveal(ctx, code)
		if err != nil {
			return errorMessage(err)
		}
		view := game.RevealView(res)
		return types.ServerMessage{Type: "RevealResult", Result: &view}

	default:
		return types.ServerMessage{Type: "Error", Error: "unknown type"}
	}
}

func errorMessage(err error) types.ServerMessage {
	if errors.Is(err, engine.ErrValidation) || errors.Is(err, game.ErrRoomNotFound) {
		return types.ServerMessage{Type: "Error", Error: err.Error()}
	}
	return types.ServerMessage{Type: "Error", Error: "internal error"}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
