package store

import "time"

const (
	RoomWaiting = "waiting"
	RoomPlaying = "playing"
)

type Room struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:4;uniqueIndex;not null"`
	Status    string `gorm:"size:16;not null"`
	// Revision counts committed changes to the room.
	Revision  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"index"`
}

func (Room) TableName() string { return "room" }

// Leader is keyed by its seat inside the room (1 = host, 2 = guest).
type Leader struct {
	RoomID uint   `gorm:"primaryKey;autoIncrement:false"`
	ID     int    `gorm:"primaryKey;autoIncrement:false"`
	Name   string `gorm:"not null"`
	Points int    `gorm:"not null"`
}

func (Leader) TableName() string { return "leaders" }

// TeamMember is append-only; rows only go away with their room.
type TeamMember struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     uint   `gorm:"index:idx_team_room_leader;not null"`
	LeaderID   int    `gorm:"index:idx_team_room_leader;not null"`
	MemberName string `gorm:"not null"`
}

func (TeamMember) TableName() string { return "team_members" }

type Bid struct {
	RoomID   uint `gorm:"primaryKey;autoIncrement:false"`
	LeaderID int  `gorm:"primaryKey;autoIncrement:false"`
	Amount   int  `gorm:"not null"`
	Dice     int  `gorm:"not null;default:0"`
}

func (Bid) TableName() string { return "bids" }

// PoolPlayer ids are assigned in insertion order, which is also draw order.
type PoolPlayer struct {
	ID     uint   `gorm:"primaryKey"`
	RoomID uint   `gorm:"index;not null"`
	Name   string `gorm:"not null"`
	IsSold bool   `gorm:"not null;default:false"`
}

func (PoolPlayer) TableName() string { return "players_pool" }
