// Package game runs the auction room operations: each call is one store
// transaction around the pure engine. A change bumps the room revision and
// the status read in that same transaction is broadcast after commit.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/auction-dice-backend/internal/dice"
	"github.com/DoyleJ11/auction-dice-backend/internal/engine"
	"github.com/DoyleJ11/auction-dice-backend/internal/store"
	"github.com/DoyleJ11/auction-dice-backend/pkg/types"
)

// Notifier receives room status after committed changes.
type Notifier interface {
	Publish(code string, status types.Status)
	Remove(code string)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, types.Status) {}
func (noopNotifier) Remove(string)                {}

// DefaultRoomTTL is how long a room lives before a later CreateRoom purges it.
const DefaultRoomTTL = 24 * time.Hour

type Options struct {
	StartingPoints int
	RoomTTL        time.Duration
	Roller         dice.Roller
	Notifier       Notifier
	Logger         *zap.Logger
	// Codes overrides room code generation.
	Codes func() (string, error)
	Now   func() time.Time
}

type Service struct {
	store          *store.Store
	roller         dice.Roller
	notifier       Notifier
	log            *zap.Logger
	startingPoints int
	roomTTL        time.Duration
	codes          func() (string, error)
	now            func() time.Time
}

func NewService(st *store.Store, opts Options) (*Service, error) {
	s := &Service{
		store:          st,
		roller:         opts.Roller,
		notifier:       opts.Notifier,
		log:            opts.Logger,
		startingPoints: opts.StartingPoints,
		roomTTL:        opts.RoomTTL,
		codes:          opts.Codes,
		now:            opts.Now,
	}
	if s.roller == nil {
		r, err := dice.NewRoller()
		if err != nil {
			return nil, err
		}
		s.roller = r
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.startingPoints <= 0 {
		s.startingPoints = engine.StartingPoints
	}
	if s.roomTTL <= 0 {
		s.roomTTL = DefaultRoomTTL
	}
	if s.codes == nil {
		s.codes = GenerateCode
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func cleanName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func roomErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return err
}

// CreateRoom opens a room with a fresh code, seats the host and fills the
// player pool in the given order. Blank player names are skipped. Rooms
// older than the room TTL are purged first, freeing their codes.
func (s *Service) CreateRoom(ctx context.Context, hostName string, players []string) (string, error) {
	host, err := cleanName(hostName)
	if err != nil {
		return "", err
	}
	pool := make([]string, 0, len(players))
	for _, p := range players {
		if name, err := cleanName(p); err == nil {
			pool = append(pool, name)
		}
	}

	var (
		code   string
		st     types.Status
		purged []string
	)
	now := s.now()
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		var err error
		purged, err = tx.PurgeRooms(now.Add(-s.roomTTL))
		if err != nil {
			return err
		}

		for i := 0; i < maxCodeAttempts && code == ""; i++ {
			c, err := s.codes()
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			inUse, err := tx.CodeInUse(c)
			if err != nil {
				return err
			}
			if inUse {
				s.log.Debug("room code collision, regenerating", zap.String("code", c))
				continue
			}
			code = c
		}
		if code == "" {
			return ErrNoFreeCode
		}

		if _, err := tx.CreateRoom(code, now, store.Leader{
			ID:     int(engine.HostID),
			Name:   host,
			Points: s.startingPoints,
		}, pool); err != nil {
			return err
		}
		st, err = loadStatus(tx, code)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNoFreeCode) {
			s.log.Warn("room codes exhausted", zap.Int("attempts", maxCodeAttempts))
		}
		return "", err
	}

	for _, c := range purged {
		s.log.Info("expired room purged", zap.String("code", c))
		s.notifier.Remove(c)
	}
	s.log.Info("room created", zap.String("code", code), zap.String("host", host), zap.Int("players", len(pool)))
	s.notifier.Publish(code, st)
	return code, nil
}

// JoinRoom seats the guest and starts the auction.
func (s *Service) JoinRoom(ctx context.Context, code, guestName string) error {
	guest, err := cleanName(guestName)
	if err != nil {
		return err
	}

	var st types.Status
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		room, err := tx.LockRoom(code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeMismatch
		}
		if err != nil {
			return err
		}
		if room.Status == store.RoomPlaying {
			return ErrRoomFull
		}

		if err := tx.AddLeader(store.Leader{
			RoomID: room.ID,
			ID:     int(engine.GuestID),
			Name:   guest,
			Points: s.startingPoints,
		}); err != nil {
			return err
		}
		if err := tx.SetRoomStatus(room.ID, store.RoomPlaying); err != nil {
			return err
		}
		st, err = touchAndLoad(tx, room)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("guest joined", zap.String("code", code), zap.String("guest", guest))
	s.notifier.Publish(code, st)
	return nil
}

// Status returns the room, its leaders, live bids, rosters and the current
// player.
func (s *Service) Status(ctx context.Context, code string) (types.Status, error) {
	var st types.Status
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		var err error
		st, err = loadStatus(tx, code)
		return err
	})
	return st, err
}

func loadStatus(tx *store.Tx, code string) (types.Status, error) {
	room, err := tx.Room(code)
	if err != nil {
		return types.Status{}, roomErr(err)
	}
	leaders, err := tx.Leaders(room.ID)
	if err != nil {
		return types.Status{}, err
	}
	bids, err := tx.Bids(room.ID)
	if err != nil {
		return types.Status{}, err
	}
	members, err := tx.TeamMembers(room.ID)
	if err != nil {
		return types.Status{}, err
	}
	head, err := tx.CurrentPlayer(room.ID)
	if err != nil {
		return types.Status{}, err
	}

	st := types.Status{
		Room:    types.RoomView{Code: room.Code, Status: room.Status, Revision: room.Revision},
		Leaders: make([]types.LeaderView, 0, len(leaders)),
		Bids:    make([]types.BidView, 0, len(bids)),
		Teams:   make(map[int][]string, len(leaders)),
	}
	for _, l := range leaders {
		st.Leaders = append(st.Leaders, types.LeaderView{ID: l.ID, Name: l.Name, Points: l.Points})
		st.Teams[l.ID] = []string{}
	}
	for _, b := range bids {
		st.Bids = append(st.Bids, types.BidView{LeaderID: b.LeaderID, Amount: b.Amount, Dice: b.Dice})
	}
	for _, m := range members {
		st.Teams[m.LeaderID] = append(st.Teams[m.LeaderID], m.MemberName)
	}
	if head != nil {
		st.CurrentPlayer = &types.PlayerView{ID: int(head.ID), Name: head.Name}
	}
	return st, nil
}

// touchAndLoad bumps the room revision and reads the status the commit will
// publish.
func touchAndLoad(tx *store.Tx, room store.Room) (types.Status, error) {
	if err := tx.Touch(room.ID); err != nil {
		return types.Status{}, err
	}
	return loadStatus(tx, room.Code)
}

// PlaceBid records or replaces the leader's bid for the current player.
func (s *Service) PlaceBid(ctx context.Context, code string, leader engine.LeaderID, amount int) error {
	var st types.Status
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		room, err := tx.LockRoom(code)
		if err != nil {
			return roomErr(err)
		}
		if room.Status != store.RoomPlaying {
			return ErrRoomNotPlaying
		}

		l, err := tx.Leader(room.ID, int(leader))
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownLeader
		}
		if err != nil {
			return err
		}
		if err := engine.ValidateBid(amount, l.Points); err != nil {
			return err
		}
		if err := tx.PutBid(room.ID, int(leader), amount); err != nil {
			return err
		}
		st, err = touchAndLoad(tx, room)
		return err
	})
	if err != nil {
		s.log.Debug("bid rejected", zap.String("code", code), zap.Int("leader", int(leader)), zap.Int("amount", amount), zap.Error(err))
		return err
	}

	s.log.Info("bid placed", zap.String("code", code), zap.Int("leader", int(leader)), zap.Int("amount", amount))
	s.notifier.Publish(code, st)
	return nil
}

// RollDice rolls the leader's tie-break die once per round; later calls
// return the recorded value.
func (s *Service) RollDice(ctx context.Context, code string, leader engine.LeaderID) (int, error) {
	var value int
	var rolled bool
	var st types.Status
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		room, err := tx.LockRoom(code)
		if err != nil {
			return roomErr(err)
		}
		bid, err := tx.Bid(room.ID, int(leader))
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoBid
		}
		if err != nil {
			return err
		}

		value = engine.Roll(bid.Dice, s.roller.Roll)
		if value == bid.Dice {
			return nil
		}
		rolled = true
		if err := tx.SetDice(room.ID, int(leader), value); err != nil {
			return err
		}
		st, err = touchAndLoad(tx, room)
		return err
	})
	if err != nil {
		return 0, err
	}

	if rolled {
		s.log.Info("dice rolled", zap.String("code", code), zap.Int("leader", int(leader)), zap.Int("dice", value))
		s.notifier.Publish(code, st)
	}
	return value, nil
}

// Reveal runs the resolver and commits whatever it decided.
func (s *Service) Reveal(ctx context.Context, code string) (engine.Resolution, error) {
	var res engine.Resolution
	var st types.Status
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		room, err := tx.LockRoom(code)
		if err != nil {
			return roomErr(err)
		}
		bids, err := tx.Bids(room.ID)
		if err != nil {
			return err
		}
		leaders, err := tx.Leaders(room.ID)
		if err != nil {
			return err
		}
		head, err := tx.CurrentPlayer(room.ID)
		if err != nil {
			return err
		}

		round := engine.Round{Seated: len(leaders), Bids: make([]engine.Bid, 0, len(bids))}
		for _, b := range bids {
			round.Bids = append(round.Bids, engine.Bid{LeaderID: engine.LeaderID(b.LeaderID), Amount: b.Amount, Dice: b.Dice})
		}
		if head != nil {
			round.Current = &engine.Player{ID: int(head.ID), Name: head.Name}
		}

		res = engine.Resolve(round)
		switch {
		case res.ResetDice:
			err = tx.ResetDice(room.ID)
		case res.Status == engine.StatusSuccess:
			err = commitSale(tx, room.ID, res)
		}
		if err != nil || !res.Mutates() {
			return err
		}
		st, err = touchAndLoad(tx, room)
		return err
	})
	if err != nil {
		return engine.Resolution{}, err
	}

	if res.Mutates() {
		if res.Status == engine.StatusSuccess {
			s.log.Info("player sold",
				zap.String("code", code),
				zap.String("player", res.Player.Name),
				zap.Int("winner", int(res.WinnerID)),
				zap.Int("amount", res.Amount))
		} else {
			s.log.Info("dice tied, reset for re-roll", zap.String("code", code))
		}
		s.notifier.Publish(code, st)
	}
	return res, nil
}

func commitSale(tx *store.Tx, roomID uint, res engine.Resolution) error {
	if err := tx.Debit(roomID, int(res.WinnerID), res.Amount); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			return fmt.Errorf("%w: leader %d cannot pay %d", engine.ErrInconsistentState, res.WinnerID, res.Amount)
		}
		return err
	}
	if err := tx.AddTeamMember(roomID, int(res.WinnerID), res.Player.Name); err != nil {
		return err
	}
	if err := tx.MarkSold(uint(res.Player.ID)); err != nil {
		return err
	}
	return tx.ClearBids(roomID)
}

// DeleteRoom wipes the room and disconnects its subscribers.
func (s *Service) DeleteRoom(ctx context.Context, code string) error {
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		room, err := tx.LockRoom(code)
		if err != nil {
			return roomErr(err)
		}
		return tx.DeleteRoom(room.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("room deleted", zap.String("code", code))
	s.notifier.Remove(code)
	return nil
}

// RevealView converts a resolution into its wire form.
func RevealView(r engine.Resolution) types.RevealResult {
	out := types.RevealResult{Status: string(r.Status), Msg: r.Message}
	if r.Status == engine.StatusSuccess {
		out.WinnerID = int(r.WinnerID)
		out.Player = r.Player.Name
		amount := r.Amount
		out.Amount = &amount
	}
	return out
}
