package rl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmai/trictrac/trictrac"
)

func TestActionIndexRoundTrip(t *testing.T) {
	for index := 0; index < ActionSpaceSize; index++ {
		action, ok := ActionFromIndex(index)
		require.True(t, ok, "index %d", index)
		assert.Equal(t, index, action.ToIndex(), "index %d", index)
	}
	_, ok := ActionFromIndex(ActionSpaceSize)
	assert.False(t, ok)
	_, ok = ActionFromIndex(-1)
	assert.False(t, ok)
}

func TestActionIndexKnownValues(t *testing.T) {
	assert.Equal(t, 0, Action{Kind: ActionRoll}.ToIndex())
	assert.Equal(t, 1, Action{Kind: ActionGo}.ToIndex())

	action := Action{Kind: ActionMove, DiceOrder: true, Checker1: 3, Checker2: 4}
	assert.Equal(t, 54, action.ToIndex())
	decoded, ok := ActionFromIndex(54)
	require.True(t, ok)
	assert.Equal(t, action, decoded)

	reversedOrder := Action{Kind: ActionMove, DiceOrder: false, Checker1: 0, Checker2: 0}
	assert.Equal(t, 258, reversedOrder.ToIndex())
}

func TestAllActionsCoversSpace(t *testing.T) {
	actions := AllActions()
	require.Len(t, actions, ActionSpaceSize)
	assert.Equal(t, Action{Kind: ActionRoll}, actions[0])
	assert.Equal(t, Action{Kind: ActionGo}, actions[1])
}

func newAgentGame(t *testing.T) *trictrac.GameState {
	t.Helper()
	g := trictrac.NewGameStateWithPlayers("agent", "opponent")
	g.Consume(trictrac.BeginGameEvent{GoesFirst: 1})
	return g
}

func TestValidActionsByStage(t *testing.T) {
	g := newAgentGame(t)
	assert.Equal(t, []int{0}, ValidActionIndices(g), "only Roll at RollDice")

	g.Consume(trictrac.RollEvent{PlayerID: 1})
	assert.Empty(t, ValidActionIndices(g), "RollWaiting is engine-driven")

	g.Consume(trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{2, 3}}})
	g.Consume(trictrac.MarkEvent{PlayerID: 1, Points: 0})
	g.Consume(trictrac.MarkEvent{PlayerID: 2, Points: 0})
	require.Equal(t, trictrac.Move, g.TurnStage)

	indices := ValidActionIndices(g)
	assert.NotEmpty(t, indices)
	for _, idx := range indices {
		action, ok := ActionFromIndex(idx)
		require.True(t, ok)
		assert.Equal(t, ActionMove, action.Kind)
	}
}

func TestMoveActionDecodesToValidEvent(t *testing.T) {
	g := newAgentGame(t)
	g.Consume(trictrac.RollEvent{PlayerID: 1})
	g.Consume(trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{2, 3}}})
	g.Consume(trictrac.MarkEvent{PlayerID: 1, Points: 0})
	g.Consume(trictrac.MarkEvent{PlayerID: 2, Points: 0})

	for _, action := range ValidActions(g) {
		event, ok := action.ToEvent(g)
		require.True(t, ok, "action %v", action)
		assert.True(t, g.Validate(event), "decoded event invalid for %v", action)
	}
}

func TestActionEncodingInvertsDecoding(t *testing.T) {
	g := newAgentGame(t)
	g.Consume(trictrac.RollEvent{PlayerID: 1})
	g.Consume(trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{2, 3}}})
	g.Consume(trictrac.MarkEvent{PlayerID: 1, Points: 0})
	g.Consume(trictrac.MarkEvent{PlayerID: 2, Points: 0})

	rules := trictrac.NewMoveRules(g.Board, g.Dice)
	for _, pair := range rules.GetPossibleMovesSequences(trictrac.White, true) {
		action := actionFromMoves(g, pair)
		event, ok := action.ToEvent(g)
		require.True(t, ok)
		move, isMove := event.(trictrac.MoveEvent)
		require.True(t, isMove)
		assert.Equal(t, pair, move.Moves, "action %v", action)
	}
}

func TestCornerByPowerDecoding(t *testing.T) {
	g := newAgentGame(t)
	g.Board.SetPositions([24]int8{10, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -15})
	g.Dice = trictrac.Dice{Values: [2]int{5, 5}}
	g.TurnStage = trictrac.Move

	// Checkers 11-15 sit on field 8; moving two of them with fives
	// lands on 13 and shifts to the corner.
	action := Action{Kind: ActionMove, DiceOrder: true, Checker1: 11, Checker2: 11}
	event, ok := action.ToEvent(g)
	require.True(t, ok)
	move := event.(trictrac.MoveEvent)
	assert.Equal(t, 12, move.Moves[0].To())
	assert.Equal(t, 12, move.Moves[1].To())
	assert.Equal(t, 8, move.Moves[0].From())
	assert.True(t, g.Validate(event), "corner by power is legal here")
}
