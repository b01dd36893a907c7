package types

// Status is the full room view returned by the status endpoint and pushed
// to websocket subscribers.
type Status struct {
	Room          RoomView         `json:"room"`
	Leaders       []LeaderView     `json:"leaders"`
	Bids          []BidView        `json:"bids"`
	Teams         map[int][]string `json:"teams"`
	CurrentPlayer *PlayerView      `json:"current_player"`
}

type RoomView struct {
	Code     string `json:"code"`
	Status   string `json:"status"` // "waiting" | "playing"
	Revision int    `json:"revision"`
}

type LeaderView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type BidView struct {
	LeaderID int `json:"leader_id"`
	Amount   int `json:"amount"`
	Dice     int `json:"dice"`
}

type PlayerView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
