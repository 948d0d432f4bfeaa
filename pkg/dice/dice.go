// Package dice provides the random source every roll in the engine draws
// from. Production code seeds a math/rand generator from crypto/rand; tests
// inject a seeded generator or a scripted Sequence.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// MaxCount is the largest number of dice a single expression may roll.
// Larger counts are left unexpanded.
const MaxCount = 1000

// Source is a uniform random integer generator. *rand.Rand satisfies it.
// A Source is not safe for concurrent use.
type Source interface {
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSource returns a source seeded from crypto/rand.
func NewSource() (*rand.Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeeded(seed), nil
}

// Fresh returns a source seeded from crypto/rand, falling back to the clock
// if the system source is unavailable.
func Fresh() Source {
	src, err := NewSource()
	if err != nil {
		log.Printf("Warning: %v; seeding dice from the clock", err)
		return NewSeeded(time.Now().UnixNano())
	}
	return src
}

// Roll rolls a single die with the provided number of sides, returning a value
// in [1, sides]. A die with no sides rolls 0.
func Roll(src Source, sides int) int {
	if sides <= 0 {
		return 0
	}
	return src.Intn(sides) + 1
}

// Sequence is a scripted Source that yields the given die faces in order,
// cycling when exhausted. Faces are 1-based, so Sequence(3, 6) makes the next
// two d6 rolls come up 3 then 6. A face larger than the die wraps modulo the
// side count.
func Sequence(faces ...int) Source {
	return &sequence{faces: faces}
}

type sequence struct {
	faces []int
	pos   int
}

func (s *sequence) Intn(n int) int {
	if len(s.faces) == 0 || n <= 0 {
		return 0
	}
	face := s.faces[s.pos%len(s.faces)]
	s.pos++
	v := (face - 1) % n
	if v < 0 {
		v += n
	}
	return v
}
