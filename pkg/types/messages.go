package types

// RevealResult is the resolver outcome as seen by clients. Status is one of
// "waiting", "tie_break" or "success"; the winner fields are only set on
// success.
type RevealResult struct {
	Status   string `json:"status"`
	Msg      string `json:"msg,omitempty"`
	WinnerID int    `json:"winner_id,omitempty"`
	Player   string `json:"player,omitempty"`
	Amount   *int   `json:"amount,omitempty"`
}

type DiceResult struct {
	LeaderID int `json:"leader_id"`
	Dice     int `json:"dice"`
}
