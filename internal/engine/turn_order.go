package engine

import "slices"

const (
	HostID  LeaderID = 1
	GuestID LeaderID = 2

	StartingPoints = 1000
	DiceSides      = 6
)

// SeatOrder is the order leaders take their seats in a room.
var SeatOrder = []LeaderID{
	HostID,
	GuestID,
}

func (id LeaderID) Valid() bool {
	return slices.Contains(SeatOrder, id)
}
