package bot

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmai/trictrac/trictrac"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestBotRespondsWhenActive(t *testing.T) {
	b := New(NewFirstStrategy(), trictrac.Black, testLogger())
	assert.Equal(t, trictrac.PlayerID(2), b.PlayerID)

	event := b.HandleEvent(trictrac.BeginGameEvent{GoesFirst: 2})
	assert.Equal(t, trictrac.RollEvent{PlayerID: 2}, event)

	// Not the bot's turn: nothing to do.
	b = New(NewFirstStrategy(), trictrac.Black, testLogger())
	event = b.HandleEvent(trictrac.BeginGameEvent{GoesFirst: 1})
	assert.Nil(t, event)
	assert.Equal(t, trictrac.PlayerID(1), b.State().ActivePlayerID)
}

func TestBotMarksOwnAndAdversaryPoints(t *testing.T) {
	white := New(NewFirstStrategy(), trictrac.White, testLogger())
	black := New(NewFirstStrategy(), trictrac.Black, testLogger())

	for _, event := range []trictrac.GameEvent{
		trictrac.BeginGameEvent{GoesFirst: 1},
		trictrac.RollEvent{PlayerID: 1},
	} {
		white.HandleEvent(event)
		black.HandleEvent(event)
	}

	roll := trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{2, 3}}}
	fromWhite := white.HandleEvent(roll)
	fromBlack := black.HandleEvent(roll)

	// The roller marks its own points; the opponent stays silent until
	// the adversary-marking stage.
	assert.Equal(t, trictrac.MarkEvent{PlayerID: 1, Points: 0}, fromWhite)
	assert.Nil(t, fromBlack)

	mark := fromWhite.(trictrac.MarkEvent)
	fromWhite = white.HandleEvent(mark)
	fromBlack = black.HandleEvent(mark)
	assert.Nil(t, fromWhite)
	assert.Equal(t, trictrac.MarkEvent{PlayerID: 2, Points: 0}, fromBlack)
}

func TestBotStaysSilentAfterGameEnd(t *testing.T) {
	b := New(NewFirstStrategy(), trictrac.White, testLogger())
	b.HandleEvent(trictrac.BeginGameEvent{GoesFirst: 1})
	event := b.HandleEvent(trictrac.EndGameEvent{Reason: trictrac.ReasonPlayerLeft, Player: 2})
	assert.Nil(t, event)
}

func TestRunnerPlaysFullGame(t *testing.T) {
	roller := trictrac.NewDiceRoller(17)
	runner := NewRunner(NewRandomStrategy(18), NewFirstStrategy(), roller, 300, testLogger())

	result, err := runner.Play()
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Turns, 300)
	assert.Greater(t, result.Events, 0)

	if result.Winner != 0 {
		winner := runner.Game.Players[result.Winner]
		require.NotNil(t, winner)
		assert.GreaterOrEqual(t, winner.Holes, trictrac.WinningHoles)
	}
}

func TestRunnerIsDeterministic(t *testing.T) {
	play := func() Result {
		runner := NewRunner(NewRandomStrategy(5), NewRandomStrategy(6), trictrac.NewDiceRoller(7), 150, testLogger())
		result, err := runner.Play()
		require.NoError(t, err)
		return result
	}
	assert.Equal(t, play(), play())
}

func TestStrategiesPickLegalSequences(t *testing.T) {
	game := trictrac.NewGameStateWithPlayers("w", "b")
	game.Consume(trictrac.BeginGameEvent{GoesFirst: 1})
	game.Dice = trictrac.Dice{Values: [2]int{3, 2}}
	game.TurnStage = trictrac.Move

	rules := trictrac.NewMoveRules(game.Board, game.Dice)
	sequences := rules.GetPossibleMovesSequences(trictrac.White, true)

	first := NewFirstStrategy().ChooseMove(game, trictrac.White)
	assert.Equal(t, sequences[0], first)

	random := NewRandomStrategy(3).ChooseMove(game, trictrac.White)
	assert.Contains(t, sequences, random)
}
