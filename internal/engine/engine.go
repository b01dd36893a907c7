package engine

import (
	"errors"
	"fmt"
	"slices"
)

// ErrValidation is matched by every error caused by a bad request rather
// than bad state.
var ErrValidation = errors.New("validation failed")

var ErrNegativeBid = fmt.Errorf("%w: bid amount must not be negative", ErrValidation)
var ErrInsufficientPoints = fmt.Errorf("%w: bid exceeds remaining points", ErrValidation)
var ErrInconsistentState = errors.New("inconsistent auction state")

type LeaderID int

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusTieBreak Status = "tie_break"
	StatusSuccess  Status = "success"
)

const (
	MsgRollDice = "Roll the dice."
	MsgDiceTied = "Dice tied! Roll again."
	NotRolled   = 0
	MinBidders  = 2
)

type Bid struct {
	LeaderID LeaderID
	Amount   int
	Dice     int
}

type Player struct {
	ID   int
	Name string
}

// Round is everything the resolver needs: the live bids, how many leaders
// are seated, and the head of the player queue (nil when the pool is empty).
type Round struct {
	Bids    []Bid
	Seated  int
	Current *Player
}

// Resolution is the outcome of one resolver invocation. ResetDice is only
// set together with StatusTieBreak; WinnerID, Amount and Player only with
// StatusSuccess.
type Resolution struct {
	Status    Status
	Message   string
	ResetDice bool
	WinnerID  LeaderID
	Amount    int
	Player    Player
}

// Mutates reports whether committing r changes stored state.
func (r Resolution) Mutates() bool {
	return r.ResetDice || r.Status == StatusSuccess
}

// ValidateBid checks a proposed amount against the bidder's balance.
func ValidateBid(amount, balance int) error {
	if amount < 0 {
		return ErrNegativeBid
	}
	if amount > balance {
		return fmt.Errorf("%w (bid %d, balance %d)", ErrInsufficientPoints, amount, balance)
	}
	return nil
}

// Roll returns the recorded dice value, or a fresh one from roll if the
// leader has not rolled yet this round.
func Roll(current int, roll func() int) int {
	if current != NotRolled {
		return current
	}
	return roll()
}

// Resolve runs the auction state machine over a round. It never mutates its
// input; the caller commits the returned Resolution.
func Resolve(r Round) Resolution {
	needed := max(MinBidders, r.Seated)
	if len(r.Bids) < needed || r.Current == nil {
		return Resolution{Status: StatusWaiting}
	}

	top := maxAmount(r.Bids)
	tied := tiedAt(r.Bids, top)

	var winner LeaderID
	if len(tied) == 1 {
		winner = tied[0].LeaderID
	} else {
		// Dice only matter inside the tied subset.
		if slices.ContainsFunc(tied, func(b Bid) bool { return b.Dice == NotRolled }) {
			return Resolution{Status: StatusTieBreak, Message: MsgRollDice}
		}

		best := highestDice(tied)
		if len(best) > 1 {
			return Resolution{Status: StatusTieBreak, Message: MsgDiceTied, ResetDice: true}
		}
		winner = best[0].LeaderID
	}

	return Resolution{
		Status:   StatusSuccess,
		WinnerID: winner,
		Amount:   top,
		Player:   *r.Current,
	}
}
