package httpapi

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-dice-backend/internal/engine"
	"github.com/DoyleJ11/auction-dice-backend/internal/game"
)

type createRoomRequest struct {
	HostName string   `json:"host_name"`
	Players  []string `json:"players"`
}

type joinRoomRequest struct {
	GuestName string `json:"guest_name"`
}

type bidRequest struct {
	LeaderID int `json:"leader_id"`
	Amount   int `json:"amount"`
}

type handlers struct {
	game *game.Service
	log  *zap.Logger
}

// fail writes err as a rejected request; unexpected errors are logged.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (h *handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := h.game.CreateRoom(r.Context(), req.HostName, req.Players)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"code": code}, "room created")
}

func (h *handlers) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.game.JoinRoom(r.Context(), chi.URLParam(r, "code"), req.GuestName); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "joined")
}

func (h *handlers) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.game.Status(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st, "")
}

func (h *handlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.game.DeleteRoom(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.game.PlaceBid(r.Context(), chi.URLParam(r, "code"), engine.LeaderID(req.LeaderID), req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "bid placed")
}

func (h *handlers) RollDice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("leader_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "leader_id must be an integer")
		return
	}

	value, err := h.game.RollDice(r.Context(), chi.URLParam(r, "code"), engine.LeaderID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"dice": value}, "")
}

func (h *handlers) Reveal(w http.ResponseWriter, r *http.Request) {
	res, err := h.game.Reveal(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game.RevealView(res), res.Message)
}

// Index serves the browser client, if one is configured.
func Index(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if path == "" {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
