package trictrac

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand/v2"

	"github.com/mmai/trictrac/internal/randutil"
)

// Dice is a rolled pair of values, each in [1, 6].
type Dice struct {
	Values [2]int
}

// IsDouble reports whether both dice show the same value.
func (d Dice) IsDouble() bool { return d.Values[0] == d.Values[1] }

// Valid reports whether both values are in range.
func (d Dice) Valid() bool {
	return d.Values[0] >= 1 && d.Values[0] <= 6 && d.Values[1] >= 1 && d.Values[1] <= 6
}

// Max returns the stronger die.
func (d Dice) Max() int {
	if d.Values[0] > d.Values[1] {
		return d.Values[0]
	}
	return d.Values[1]
}

// Min returns the weaker die.
func (d Dice) Min() int {
	if d.Values[0] < d.Values[1] {
		return d.Values[0]
	}
	return d.Values[1]
}

func (d Dice) String() string {
	return fmt.Sprintf("%d & %d", d.Values[0], d.Values[1])
}

// toBits returns the 6-bit encoding used by the position identifier.
func (d Dice) toBits() string {
	return fmt.Sprintf("%03b%03b", d.Values[0], d.Values[1])
}

// DiceRoller produces dice rolls. Seeded rollers are deterministic;
// unseeded rollers draw their seed from OS entropy. Rule checks never
// roll: they take dice as input, so the roller only lives at the driver
// layer (game session, RL environment, tests).
type DiceRoller struct {
	rng *mathrand.Rand
}

// NewDiceRoller returns a deterministic roller for the given seed.
func NewDiceRoller(seed int64) *DiceRoller {
	return &DiceRoller{rng: randutil.New(seed)}
}

// NewEntropyDiceRoller returns a roller seeded from the operating system's
// entropy source.
func NewEntropyDiceRoller() *DiceRoller {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing means the platform is broken; there is no
		// reasonable recovery for a game driver.
		panic(fmt.Sprintf("trictrac: reading OS entropy: %v", err))
	}
	return NewDiceRoller(int64(binary.LittleEndian.Uint64(buf[:])))
}

// Roll returns a fresh dice pair.
func (r *DiceRoller) Roll() Dice {
	return Dice{Values: [2]int{r.rng.IntN(6) + 1, r.rng.IntN(6) + 1}}
}

// Coin flips heads or tails, used for the first-player draw.
func (r *DiceRoller) Coin() bool {
	return r.rng.IntN(2) == 0
}
