// Package dice rolls the six-sided tie-break die.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/DoyleJ11/auction-dice-backend/internal/engine"
)

// Roller produces a value in [1, engine.DiceSides].
type Roller interface {
	Roll() int
}

// RandRoller is a Roller backed by a seeded math/rand source. It is safe
// for concurrent use.
type RandRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRoller returns a RandRoller seeded from crypto/rand.
func NewRoller() (*RandRoller, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededRoller(seed), nil
}

// NewSeededRoller returns a deterministic RandRoller.
func NewSeededRoller(seed int64) *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(engine.DiceSides) + 1
}

// Sequence replays fixed values in order and wraps around.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence replays values. With no values every roll is 1.
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		values = []int{1}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Roll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
