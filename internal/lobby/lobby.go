package lobby

import (
	"context"

	"github.com/DoyleJ11/auction-dice-backend/pkg/types"
)

type Msg interface{ isLobbyMsg() }

// Publish replaces the room status and fans it out. A status older than
// the current one (lower room revision) is ignored.
type Publish struct {
	Status types.Status
}

func (Publish) isLobbyMsg() {}

// Refresh is Publish for a status the caller only suspects is newer: it is
// applied only when its revision is strictly higher.
type Refresh struct {
	Status types.Status
}

func (Refresh) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	Status  types.Status
}

type View struct {
	Version    int
	NumClients int
	Status     types.Status
}

// Lobby owns the subscriber set of one room. Every field is touched only
// by the loop goroutine.
type Lobby struct {
	inbox   chan Msg
	status  types.Status
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, initial types.Status) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		status:  initial,
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				l.send(msg.ClientID, msg.Outbox, Snapshot{Version: l.version, Status: l.status})

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case Publish:
				if msg.Status.Room.Revision < l.status.Room.Revision {
					continue
				}
				l.apply(msg.Status)

			case Refresh:
				if msg.Status.Room.Revision <= l.status.Room.Revision {
					continue
				}
				l.apply(msg.Status)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Status:     l.status,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) apply(status types.Status) {
	l.status = status
	l.version++
	l.broadcast(Snapshot{Version: l.version, Status: l.status})
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.send(id, ch, snap)
	}
}

// send drops the client if its outbox is full.
func (l *Lobby) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		close(ch)
		delete(l.clients, id)
	}
}

// Send delivers m unless the lobby has already shut down.
func (l *Lobby) Send(m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Done is closed once the lobby stops.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
