package engine

import "slices"

func maxAmount(bids []Bid) int {
	top := bids[0].Amount
	for _, b := range bids[1:] {
		if b.Amount > top {
			top = b.Amount
		}
	}
	return top
}

// tiedAt returns the bids at amount, ordered by leader so the result does
// not depend on storage order.
func tiedAt(bids []Bid, amount int) []Bid {
	var out []Bid
	for _, b := range bids {
		if b.Amount == amount {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Bid) int { return int(a.LeaderID) - int(b.LeaderID) })
	return out
}

func highestDice(bids []Bid) []Bid {
	best := 0
	for _, b := range bids {
		best = max(best, b.Dice)
	}
	var out []Bid
	for _, b := range bids {
		if b.Dice == best {
			out = append(out, b)
		}
	}
	return out
}
