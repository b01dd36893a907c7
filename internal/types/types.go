package types

import pub "github.com/DoyleJ11/auction-dice-backend/pkg/types"

type ClientMessage struct {
	Type     string `json:"type"` // "PlaceBid" | "RollDice" | "Reveal"
	LeaderID int    `json:"leader_id,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

type ServerMessage struct {
	Type    string            `json:"type"` // "StateSnapshot" | "DiceRolled" | "RevealResult" | "Error"
	Version int               `json:"version,omitempty"`
	State   *pub.Status       `json:"state,omitempty"`
	Dice    *pub.DiceResult   `json:"dice,omitempty"`
	Result  *pub.RevealResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}
