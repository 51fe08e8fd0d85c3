package trictrac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDice(t *testing.T) {
	d := Dice{Values: [2]int{4, 2}}
	assert.False(t, d.IsDouble())
	assert.True(t, d.Valid())
	assert.Equal(t, 4, d.Max())
	assert.Equal(t, 2, d.Min())
	assert.Equal(t, "100010", d.toBits())

	assert.True(t, Dice{Values: [2]int{3, 3}}.IsDouble())
	assert.False(t, Dice{Values: [2]int{0, 3}}.Valid())
	assert.False(t, Dice{Values: [2]int{3, 7}}.Valid())
}

func TestDiceRollerDeterminism(t *testing.T) {
	a := NewDiceRoller(7)
	b := NewDiceRoller(7)
	for i := 0; i < 100; i++ {
		roll := a.Roll()
		assert.Equal(t, roll, b.Roll())
		assert.GreaterOrEqual(t, roll.Values[0], 1)
		assert.LessOrEqual(t, roll.Values[0], 6)
		assert.GreaterOrEqual(t, roll.Values[1], 1)
		assert.LessOrEqual(t, roll.Values[1], 6)
		assert.Equal(t, a.Coin(), b.Coin())
	}

	c := NewDiceRoller(8)
	same := true
	for i := 0; i < 20; i++ {
		if NewDiceRoller(7).Roll() != c.Roll() {
			same = false
		}
	}
	assert.False(t, same, "different seeds diverge")
}

func TestEntropyDiceRoller(t *testing.T) {
	r := NewEntropyDiceRoller()
	roll := r.Roll()
	assert.True(t, roll.Valid())
}
