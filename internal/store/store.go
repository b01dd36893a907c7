package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Options selects the backing database. Driver is "sqlite" or "postgres".
type Options struct {
	Driver string
	Path   string
	DSN    string
	Logger *zap.Logger
}

type Store struct {
	db *gorm.DB
	// lockRows is set when the dialect supports SELECT ... FOR UPDATE.
	lockRows bool
}

// Open connects to the configured database and migrates the schema.
func Open(opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "sqlite":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		dsn := filepath.Clean(opts.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		dialector = sqlite.Open(dsn)
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(opts.Logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.Driver == "sqlite" {
		// One connection: every transaction is serialized behind it.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Room{}, &Leader{}, &TeamMember{}, &Bid{}, &PoolPlayer{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, lockRows: opts.Driver == "postgres"}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InTx runs fn inside one transaction. fn's error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db, lockRows: s.lockRows})
	})
}

// Tx exposes the queries of one transaction.
type Tx struct {
	db       *gorm.DB
	lockRows bool
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (t *Tx) CodeInUse(code string) (bool, error) {
	var n int64
	if err := t.db.Model(&Room{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count rooms: %w", err)
	}
	return n > 0, nil
}

// CreateRoom inserts a room in waiting status with its host and player pool.
func (t *Tx) CreateRoom(code string, createdAt time.Time, host Leader, players []string) (Room, error) {
	room := Room{Code: code, Status: RoomWaiting, CreatedAt: createdAt}
	if err := t.db.Create(&room).Error; err != nil {
		return Room{}, fmt.Errorf("insert room: %w", err)
	}

	host.RoomID = room.ID
	if err := t.db.Create(&host).Error; err != nil {
		return Room{}, fmt.Errorf("insert host: %w", err)
	}

	if len(players) > 0 {
		pool := make([]PoolPlayer, 0, len(players))
		for _, name := range players {
			pool = append(pool, PoolPlayer{RoomID: room.ID, Name: name})
		}
		if err := t.db.Create(&pool).Error; err != nil {
			return Room{}, fmt.Errorf("insert players: %w", err)
		}
	}
	return room, nil
}

// Room loads a room by code without locking it.
func (t *Tx) Room(code string) (Room, error) {
	var room Room
	if err := t.db.Where("code = ?", code).First(&room).Error; err != nil {
		return Room{}, notFound(err)
	}
	return room, nil
}

// LockRoom loads a room by code and, where supported, holds its row lock
// until the transaction ends.
func (t *Tx) LockRoom(code string) (Room, error) {
	q := t.db
	if t.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room Room
	if err := q.Where("code = ?", code).First(&room).Error; err != nil {
		return Room{}, notFound(err)
	}
	return room, nil
}

// Touch bumps the room revision. Call it in every transaction that changes
// what the room status shows.
func (t *Tx) Touch(roomID uint) error {
	return t.db.Model(&Room{}).Where("id = ?", roomID).
		Update("revision", gorm.Expr("revision + 1")).Error
}

// PurgeRooms deletes every room created before cutoff and returns the
// freed codes.
func (t *Tx) PurgeRooms(cutoff time.Time) ([]string, error) {
	var stale []Room
	if err := t.db.Where("created_at < ?", cutoff).Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("find expired rooms: %w", err)
	}
	codes := make([]string, 0, len(stale))
	for _, room := range stale {
		if err := t.DeleteRoom(room.ID); err != nil {
			return nil, err
		}
		codes = append(codes, room.Code)
	}
	return codes, nil
}

func (t *Tx) SetRoomStatus(roomID uint, status string) error {
	return t.db.Model(&Room{}).Where("id = ?", roomID).Update("status", status).Error
}

// DeleteRoom wipes the room and every row that hangs off it.
func (t *Tx) DeleteRoom(roomID uint) error {
	for _, model := range []any{&Bid{}, &TeamMember{}, &PoolPlayer{}, &Leader{}} {
		if err := t.db.Where("room_id = ?", roomID).Delete(model).Error; err != nil {
			return fmt.Errorf("delete %T: %w", model, err)
		}
	}
	return t.db.Delete(&Room{}, roomID).Error
}

func (t *Tx) AddLeader(l Leader) error {
	if err := t.db.Create(&l).Error; err != nil {
		return fmt.Errorf("insert leader: %w", err)
	}
	return nil
}

func (t *Tx) Leader(roomID uint, id int) (Leader, error) {
	var l Leader
	if err := t.db.Where("room_id = ? AND id = ?", roomID, id).First(&l).Error; err != nil {
		return Leader{}, notFound(err)
	}
	return l, nil
}

func (t *Tx) Leaders(roomID uint) ([]Leader, error) {
	var out []Leader
	err := t.db.Where("room_id = ?", roomID).Order("id").Find(&out).Error
	return out, err
}

// Debit takes amount from a leader's balance. The balance guard lives in
// the WHERE clause so a stale caller cannot push it below zero.
func (t *Tx) Debit(roomID uint, id int, amount int) error {
	res := t.db.Model(&Leader{}).
		Where("room_id = ? AND id = ? AND points >= ?", roomID, id, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func (t *Tx) AddTeamMember(roomID uint, leaderID int, name string) error {
	return t.db.Create(&TeamMember{RoomID: roomID, LeaderID: leaderID, MemberName: name}).Error
}

func (t *Tx) TeamMembers(roomID uint) ([]TeamMember, error) {
	var out []TeamMember
	err := t.db.Where("room_id = ?", roomID).Order("id").Find(&out).Error
	return out, err
}

func (t *Tx) Bids(roomID uint) ([]Bid, error) {
	var out []Bid
	err := t.db.Where("room_id = ?", roomID).Order("leader_id").Find(&out).Error
	return out, err
}

func (t *Tx) Bid(roomID uint, leaderID int) (Bid, error) {
	var b Bid
	if err := t.db.Where("room_id = ? AND leader_id = ?", roomID, leaderID).First(&b).Error; err != nil {
		return Bid{}, notFound(err)
	}
	return b, nil
}

// PutBid replaces any previous bid by the leader and clears its dice.
func (t *Tx) PutBid(roomID uint, leaderID int, amount int) error {
	bid := Bid{RoomID: roomID, LeaderID: leaderID, Amount: amount}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "leader_id"}},
		DoUpdates: clause.Assignments(map[string]any{"amount": amount, "dice": 0}),
	}).Create(&bid).Error
}

func (t *Tx) SetDice(roomID uint, leaderID int, dice int) error {
	return t.db.Model(&Bid{}).
		Where("room_id = ? AND leader_id = ?", roomID, leaderID).
		Update("dice", dice).Error
}

func (t *Tx) ResetDice(roomID uint) error {
	return t.db.Model(&Bid{}).Where("room_id = ?", roomID).Update("dice", 0).Error
}

func (t *Tx) ClearBids(roomID uint) error {
	return t.db.Where("room_id = ?", roomID).Delete(&Bid{}).Error
}

// CurrentPlayer returns the unsold player with the smallest id, or nil when
// the pool is exhausted.
func (t *Tx) CurrentPlayer(roomID uint) (*PoolPlayer, error) {
	var head []PoolPlayer
	err := t.db.Where("room_id = ? AND is_sold = ?", roomID, false).Order("id").Limit(1).Find(&head).Error
	if err != nil {
		return nil, err
	}
	if len(head) == 0 {
		return nil, nil
	}
	return &head[0], nil
}

func (t *Tx) MarkSold(playerID uint) error {
	return t.db.Model(&PoolPlayer{}).Where("id = ?", playerID).Update("is_sold", true).Error
}
