package hub

import (
	"context"

	"github.com/DoyleJ11/auction-dice-backend/internal/lobby"
	"github.com/DoyleJ11/auction-dice-backend/pkg/types"
)

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code   string
	Status types.Status // only used if creation happens
	Reply  chan *lobby.Lobby
}

// RemoveLobby shuts the room's lobby down and forgets it.
type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

// Hub maps room codes to their lobbies. Only the loop goroutine touches the
// map.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc
}

func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

// Send delivers m unless the hub has stopped.
func (h *Hub) Send(m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					select {
					case <-lb.Done():
						// stopped on its own; replace it below
					default:
						msg.Reply <- lb
						continue
					}
				}
				lb := lobby.NewLobby(h.ctx, msg.Status)
				h.lobbies[msg.Code] = lb
				msg.Reply <- lb

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Send(lobby.Shutdown{})
	}
	clear(h.lobbies)
	h.cancel()
}

func (h *Hub) await(reply chan *lobby.Lobby) *lobby.Lobby {
	select {
	case lb := <-reply:
		return lb
	case <-h.ctx.Done():
		return nil
	}
}

// Lobby returns the live lobby for code, or nil.
func (h *Hub) Lobby(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !h.Send(GetLobby{Code: code, Reply: reply}) {
		return nil
	}
	return h.await(reply)
}

// Ensure returns the lobby for code, creating it with status if needed.
func (h *Hub) Ensure(code string, status types.Status) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !h.Send(EnsureLobby{Code: code, Status: status, Reply: reply}) {
		return nil
	}
	return h.await(reply)
}

// Publish pushes a new room status to the room's subscribers. Rooms nobody
// watches have no lobby and are skipped.
func (h *Hub) Publish(code string, status types.Status) {
	if lb := h.Lobby(code); lb != nil {
		lb.Send(lobby.Publish{Status: status})
	}
}

// Remove drops the room's lobby, disconnecting its subscribers.
func (h *Hub) Remove(code string) {
	h.Send(RemoveLobby{Code: code})
}
