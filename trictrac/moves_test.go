package trictrac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardOf(t *testing.T, positions [24]int8) *Board {
	t.Helper()
	b := NewBoard()
	b.SetPositions(positions)
	return b
}

func pair(m1, m2 CheckerMove) MovePair { return MovePair{m1, m2} }

func TestMovesPossible(t *testing.T) {
	rules := NewMoveRules(NewBoard(), Dice{Values: [2]int{4, 4}})

	// Chained moves of a single checker.
	assert.True(t, rules.MovesPossible(White, pair(MustCheckerMove(1, 5), MustCheckerMove(5, 9))))

	// Second leg without a checker on its origin.
	assert.False(t, rules.MovesPossible(White, pair(MustCheckerMove(1, 5), MustCheckerMove(6, 9))))

	// Black plays the mirror direction.
	assert.True(t, rules.MovesPossible(Black, pair(MustCheckerMove(24, 20), MustCheckerMove(20, 19))))
}

func TestGetPossibleMovesSequencesOpening(t *testing.T) {
	rules := NewMoveRules(NewBoard(), Dice{Values: [2]int{3, 2}})
	sequences := rules.GetPossibleMovesSequences(White, true)

	assert.Contains(t, sequences, pair(MustCheckerMove(1, 4), MustCheckerMove(4, 6)))
	assert.Contains(t, sequences, pair(MustCheckerMove(1, 3), MustCheckerMove(3, 6)))
	assert.Contains(t, sequences, pair(MustCheckerMove(1, 3), MustCheckerMove(1, 4)))
	for _, seq := range sequences {
		assert.False(t, seq[0].IsEmpty())
		assert.False(t, seq[1].IsEmpty())
	}
}

func TestCanTakeCornerByEffect(t *testing.T) {
	board := boardOf(t, [24]int8{10, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15})
	rules := NewMoveRules(board, Dice{Values: [2]int{4, 4}})
	assert.True(t, rules.CanTakeCornerByEffect(White))

	rules.Dice = Dice{Values: [2]int{5, 5}}
	assert.False(t, rules.CanTakeCornerByEffect(White))

	rules = NewMoveRules(boardOf(t, [24]int8{10, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15}), Dice{Values: [2]int{4, 4}})
	assert.False(t, rules.CanTakeCornerByEffect(White), "corner already taken")

	rules = NewMoveRules(boardOf(t, [24]int8{10, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, -2, 0, 0, 0, 0, 0, 0, 0, 0, 0, -13}), Dice{Values: [2]int{1, 1}})
	assert.True(t, rules.CanTakeCornerByEffect(Black))
}

func TestTakeCornerByPower(t *testing.T) {
	board := boardOf(t, [24]int8{10, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15})
	rules := NewMoveRules(board, Dice{Values: [2]int{5, 5}})
	moves := pair(MustCheckerMove(8, 12), MustCheckerMove(8, 12))

	assert.True(t, rules.IsMoveByPower(White, moves))
	assert.True(t, rules.MovesFollowDice(White, moves))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, moves))

	// The opponent corner must be empty.
	rules = NewMoveRules(boardOf(t, [24]int8{10, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, -2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -13}), Dice{Values: [2]int{5, 5}})
	assert.False(t, rules.IsMoveByPower(White, moves))
	assert.False(t, rules.MovesFollowDice(White, moves))

	// Taking by effect has priority over taking by power.
	rules = NewMoveRules(boardOf(t, [24]int8{5, 0, 0, 0, 0, 0, 5, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15}), Dice{Values: [2]int{5, 5}})
	assert.Equal(t, CornerByEffectPossible, rules.MovesAllowed(White, moves))

	// A taken corner cannot be reinforced by power.
	rules = NewMoveRules(boardOf(t, [24]int8{8, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15}), Dice{Values: [2]int{5, 5}})
	assert.False(t, rules.IsMoveByPower(White, moves))
	assert.False(t, rules.MovesFollowDice(White, moves))
}

func TestExitRules(t *testing.T) {
	// Plain double exit.
	rules := NewMoveRules(boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0}), Dice{Values: [2]int{5, 5}})
	moves := pair(MustCheckerMove(20, 0), MustCheckerMove(20, 0))
	assert.True(t, rules.MovesFollowDice(White, moves))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, moves))

	// Every checker must have reached the last quarter.
	rules = NewMoveRules(boardOf(t, [24]int8{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0}), Dice{Values: [2]int{5, 5}})
	assert.Equal(t, ExitNeedsAllCheckersOnLastQuarter, rules.MovesAllowed(White, moves))

	// No excess exit while an excess-free sequence exists.
	rules = NewMoveRules(boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 3, 0, 0, 2, 0}), Dice{Values: [2]int{5, 5}})
	assert.Equal(t, ExitByEffectPossible, rules.MovesAllowed(White, pair(MustCheckerMove(20, 0), MustCheckerMove(23, 0))))

	// Excess exits must take the farthest checkers.
	rules = NewMoveRules(boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 1, 0}), Dice{Values: [2]int{5, 5}})
	assert.Equal(t, ExitNotFarthest, rules.MovesAllowed(White, pair(MustCheckerMove(20, 0), MustCheckerMove(23, 0))))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, pair(MustCheckerMove(20, 0), MustCheckerMove(21, 0))))

	// The very last checker exits with a single die.
	rules = NewMoveRules(boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0}), Dice{Values: [2]int{5, 5}})
	moves = pair(MustCheckerMove(23, 0), EmptyMove)
	assert.True(t, rules.MovesFollowDice(White, moves))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, moves))
}

func TestExitScenarioMixedQuarters(t *testing.T) {
	// One checker still on field 5: no exit may be played at all.
	board := boardOf(t, [24]int8{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{5, 5}})
	verdict := rules.MovesAllowed(White, pair(MustCheckerMove(20, 0), MustCheckerMove(20, 0)))
	assert.Equal(t, ExitNeedsAllCheckersOnLastQuarter, verdict)
}

func TestOpponentFillableQuarter(t *testing.T) {
	board := boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{5, 5}})
	moves := pair(MustCheckerMove(11, 16), MustCheckerMove(11, 16))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, moves))

	board = boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, -12, 0, 0, 0, 0, 1, 0})
	rules = NewMoveRules(board, Dice{Values: [2]int{5, 5}})
	assert.Equal(t, OpponentCanFillQuarter, rules.MovesAllowed(White, moves))
}

func TestMustFillQuarter(t *testing.T) {
	board := boardOf(t, [24]int8{3, 3, 2, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{5, 4}})
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, pair(MustCheckerMove(1, 6), MustCheckerMove(2, 6))))
	assert.Equal(t, MustFillQuarter, rules.MovesAllowed(White, pair(MustCheckerMove(1, 5), MustCheckerMove(2, 7))))

	// A filled quarter must be preserved when possible.
	board = boardOf(t, [24]int8{2, 3, 2, 2, 3, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	rules = NewMoveRules(board, Dice{Values: [2]int{2, 3}})
	assert.Equal(t, MustFillQuarter, rules.MovesAllowed(White, pair(MustCheckerMove(6, 8), MustCheckerMove(6, 9))))
	assert.Equal(t, MoveOK, rules.MovesAllowed(White, pair(MustCheckerMove(2, 4), MustCheckerMove(5, 8))))
}

func TestMustPlayAllDice(t *testing.T) {
	board := boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{1, 3}})

	verdict := rules.MovesAllowed(White, pair(MustCheckerMove(22, 0), EmptyMove))
	assert.Equal(t, MustPlayAllDice, verdict)

	assert.Equal(t, MoveOK, rules.MovesAllowed(White, pair(MustCheckerMove(22, 23), MustCheckerMove(23, 0))))
}

func TestMustPlayStrongerDie(t *testing.T) {
	board := boardOf(t, [24]int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, -1, -1, -1, 0, 0, 0, 0, 0, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{2, 3}})

	verdict := rules.MovesAllowed(White, pair(MustCheckerMove(12, 14), EmptyMove))
	assert.Equal(t, MustPlayStrongerDie, verdict)

	assert.Equal(t, MoveOK, rules.MovesAllowed(White, pair(MustCheckerMove(12, 15), EmptyMove)))
}

func TestCornerNeedsTwoCheckers(t *testing.T) {
	board := boardOf(t, [24]int8{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, -1, -1, 0, 0, 0, 0, 0, 0})
	rules := NewMoveRules(board, Dice{Values: [2]int{2, 3}})
	verdict := rules.MovesAllowed(White, pair(MustCheckerMove(12, 14), MustCheckerMove(1, 4)))
	assert.Equal(t, CornerNeedsTwoCheckers, verdict)
}

func TestMoveCompatibleDice(t *testing.T) {
	rules := NewMoveRules(NewBoard(), Dice{Values: [2]int{3, 5}})

	assert.Equal(t, []int{3}, rules.MoveCompatibleDice(White, MustCheckerMove(1, 4)))
	assert.Equal(t, []int{5}, rules.MoveCompatibleDice(White, MustCheckerMove(1, 6)))
	assert.Empty(t, rules.MoveCompatibleDice(White, MustCheckerMove(1, 5)))

	// Exits accept any die covering the distance.
	assert.Equal(t, []int{3, 5}, rules.MoveCompatibleDice(White, MustCheckerMove(22, 0)))
	assert.Equal(t, []int{5}, rules.MoveCompatibleDice(White, MustCheckerMove(20, 0)))

	// The empty move is compatible with both dice.
	assert.Equal(t, []int{3, 5}, rules.MoveCompatibleDice(White, EmptyMove))

	// Black distances run the other way.
	assert.Equal(t, []int{3}, rules.MoveCompatibleDice(Black, MustCheckerMove(24, 21)))
	assert.Equal(t, []int{3, 5}, rules.MoveCompatibleDice(Black, MustCheckerMove(3, 0)))
}

func TestMovesAllowedAgreesWithSequences(t *testing.T) {
	board := boardOf(t, [24]int8{5, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, -3, 0, 0, 0, 0, -12})
	rules := NewMoveRules(board, Dice{Values: [2]int{6, 2}})

	for _, seq := range rules.GetPossibleMovesSequences(White, true) {
		verdict := rules.MovesAllowed(White, seq)
		switch verdict {
		case MoveOK, CornerNeedsTwoCheckers, CornerByEffectPossible,
			ExitByEffectPossible, ExitNotFarthest, ExitNeedsAllCheckersOnLastQuarter,
			OpponentCanFillQuarter, MustFillQuarter:
			// Enumeration is a superset: pair-level rules may still
			// reject a sequence, but never the dice-usage rules.
		default:
			t.Fatalf("sequence %v rejected with %v", seq, verdict)
		}
	}
}
