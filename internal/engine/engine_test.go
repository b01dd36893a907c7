package engine

import (
	"errors"
	"testing"
)

func current() *Player {
	return &Player{ID: 1, Name: "P1"}
}

func TestValidateBid(t *testing.T) {
	cases := []struct {
		name    string
		amount  int
		balance int
		wantErr error
	}{
		{name: "zero bid", amount: 0, balance: 1000},
		{name: "full balance", amount: 1000, balance: 1000},
		{name: "negative", amount: -1, balance: 1000, wantErr: ErrNegativeBid},
		{name: "over balance", amount: 1001, balance: 1000, wantErr: ErrInsufficientPoints},
		{name: "over drained balance", amount: 1, balance: 0, wantErr: ErrInsufficientPoints},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBid(tc.amount, tc.balance)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("validation errors must match ErrValidation, got %v", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		round Round
		want  Resolution
	}{
		{
			name:  "no bids",
			round: Round{Seated: 2, Current: current()},
			want:  Resolution{Status: StatusWaiting},
		},
		{
			name:  "one bid",
			round: Round{Bids: []Bid{{LeaderID: HostID, Amount: 100}}, Seated: 2, Current: current()},
			want:  Resolution{Status: StatusWaiting},
		},
		{
			name: "empty pool",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 300},
				{LeaderID: GuestID, Amount: 200},
			}, Seated: 2},
			want: Resolution{Status: StatusWaiting},
		},
		{
			name: "higher amount wins outright",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 200},
				{LeaderID: GuestID, Amount: 150, Dice: 6},
			}, Seated: 2, Current: current()},
			want: Resolution{Status: StatusSuccess, WinnerID: HostID, Amount: 200, Player: *current()},
		},
		{
			name: "tie without rolls",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 300},
				{LeaderID: GuestID, Amount: 300},
			}, Seated: 2, Current: current()},
			want: Resolution{Status: StatusTieBreak, Message: MsgRollDice},
		},
		{
			name: "tie with one roll",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 300, Dice: 5},
				{LeaderID: GuestID, Amount: 300},
			}, Seated: 2, Current: current()},
			want: Resolution{Status: StatusTieBreak, Message: MsgRollDice},
		},
		{
			name: "tied dice reset",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 300, Dice: 4},
				{LeaderID: GuestID, Amount: 300, Dice: 4},
			}, Seated: 2, Current: current()},
			want: Resolution{Status: StatusTieBreak, Message: MsgDiceTied, ResetDice: true},
		},
		{
			name: "higher dice wins",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 300, Dice: 2},
				{LeaderID: GuestID, Amount: 300, Dice: 4},
			}, Seated: 2, Current: current()},
			want: Resolution{Status: StatusSuccess, WinnerID: GuestID, Amount: 300, Player: *current()},
		},
		{
			name: "three-way tie with unique top die",
			round: Round{Bids: []Bid{
				{LeaderID: 3, Amount: 50, Dice: 6},
				{LeaderID: HostID, Amount: 50, Dice: 1},
				{LeaderID: GuestID, Amount: 50, Dice: 1},
			}, Seated: 3, Current: current()},
			want: Resolution{Status: StatusSuccess, WinnerID: 3, Amount: 50, Player: *current()},
		},
		{
			name: "three-way tie with shared top die",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 50, Dice: 6},
				{LeaderID: GuestID, Amount: 50, Dice: 6},
				{LeaderID: 3, Amount: 50, Dice: 2},
			}, Seated: 3, Current: current()},
			want: Resolution{Status: StatusTieBreak, Message: MsgDiceTied, ResetDice: true},
		},
		{
			name: "waits for every seated leader",
			round: Round{Bids: []Bid{
				{LeaderID: HostID, Amount: 10},
				{LeaderID: GuestID, Amount: 20},
			}, Seated: 3, Current: current()},
			want: Resolution{Status: StatusWaiting},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.round)
			if got != tc.want {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestResolve_DoesNotMutateBids(t *testing.T) {
	bids := []Bid{
		{LeaderID: GuestID, Amount: 300, Dice: 4},
		{LeaderID: HostID, Amount: 300, Dice: 4},
	}
	_ = Resolve(Round{Bids: bids, Seated: 2, Current: current()})

	if bids[0].LeaderID != GuestID || bids[0].Dice != 4 || bids[1].Dice != 4 {
		t.Fatalf("resolver touched its input: %+v", bids)
	}
}

func TestRoll_IdempotentAfterFirstRoll(t *testing.T) {
	calls := 0
	roll := func() int { calls++; return 3 }

	if got := Roll(NotRolled, roll); got != 3 {
		t.Fatalf("first roll: got %d, want 3", got)
	}
	if got := Roll(5, roll); got != 5 {
		t.Fatalf("second roll: got %d, want recorded 5", got)
	}
	if calls != 1 {
		t.Fatalf("roll func called %d times, want 1", calls)
	}
}

// Replays the reset/re-roll loop until a winner shows up.
func TestResolve_TieBreakTerminates(t *testing.T) {
	rolls := []int{4, 4, 3, 3, 6, 1}
	next := 0
	roll := func() int { v := rolls[next]; next++; return v }

	bids := []Bid{
		{LeaderID: HostID, Amount: 300},
		{LeaderID: GuestID, Amount: 300},
	}

	for i := 0; i < 10; i++ {
		res := Resolve(Round{Bids: bids, Seated: 2, Current: current()})
		switch {
		case res.Status == StatusSuccess:
			if res.WinnerID != HostID || res.Amount != 300 {
				t.Fatalf("unexpected winner %#v", res)
			}
			return
		case res.ResetDice:
			for j := range bids {
				bids[j].Dice = NotRolled
			}
		case res.Status == StatusTieBreak:
			for j := range bids {
				bids[j].Dice = Roll(bids[j].Dice, roll)
			}
		default:
			t.Fatalf("unexpected status %q", res.Status)
		}
	}
	t.Fatalf("tie-break did not terminate")
}

func TestLeaderIDValid(t *testing.T) {
	if !HostID.Valid() || !GuestID.Valid() {
		t.Fatalf("host and guest seats must be valid")
	}
	if LeaderID(0).Valid() || LeaderID(3).Valid() {
		t.Fatalf("only seated ids are valid")
	}
}
