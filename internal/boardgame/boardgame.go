// Package boardgame presents a game as a generic two-player
// combinatorial game, for third-party tree search or evaluation code.
package boardgame

import (
	"errors"

	"github.com/mmai/trictrac/internal/rl"
	"github.com/mmai/trictrac/trictrac"
)

// Player labels the two sides generically.
type Player int

const (
	PlayerA Player = iota
	PlayerB
)

// Outcome is the result of a finished game.
type Outcome struct {
	Winner Player
}

// ErrGameDone is returned when a move is played on a finished game.
var ErrGameDone = errors.New("game is done")

// ErrMoveUnavailable is returned for moves that are not currently legal.
var ErrMoveUnavailable = errors.New("move not available")

// Game is a generic two-player game over an integer move space. Nothing
// but Play mutates state.
type Game interface {
	NextPlayer() Player
	IsAvailableMove(move int) bool
	Play(move int) error
	Outcome() *Outcome
	AllPossibleMoves() []int
	AvailableMoves() []int
}

// TrictracGame adapts a GameState and the policy action space to the
// generic interface.
type TrictracGame struct {
	state *trictrac.GameState
}

// NewTrictracGame wraps a ready-to-play state (both players joined, game
// begun).
func NewTrictracGame(state *trictrac.GameState) *TrictracGame {
	return &TrictracGame{state: state}
}

// NewDefaultTrictracGame starts a fresh game with player A (White) to
// move.
func NewDefaultTrictracGame() *TrictracGame {
	state := trictrac.NewGameStateWithPlayers("white", "black")
	state.Consume(trictrac.BeginGameEvent{GoesFirst: 1})
	return &TrictracGame{state: state}
}

// State exposes the underlying game state read-only by convention.
func (g *TrictracGame) State() *trictrac.GameState { return g.state }

// NextPlayer returns who is to act.
func (g *TrictracGame) NextPlayer() Player {
	if g.activeColor() == trictrac.Black {
		return PlayerB
	}
	return PlayerA
}

func (g *TrictracGame) activeColor() trictrac.Color {
	if active := g.state.WhoPlays(); active != nil {
		return active.Color
	}
	return trictrac.White
}

// eventFor decodes a move index into an event for the real state. The
// action space is written from White's perspective, so on a Black turn
// move actions resolve against the mirrored view and the resulting
// checker moves are mirrored back into real coordinates.
func (g *TrictracGame) eventFor(move int) (trictrac.GameEvent, bool) {
	action, ok := rl.ActionFromIndex(move)
	if !ok {
		return nil, false
	}
	color := g.activeColor()
	if action.Kind != rl.ActionMove || color == trictrac.White {
		return action.ToEvent(g.state)
	}
	event, ok := action.ToEvent(rl.WhiteView(g.state, color))
	if !ok {
		return nil, false
	}
	moveEvent, isMove := event.(trictrac.MoveEvent)
	if !isMove {
		return nil, false
	}
	return trictrac.MoveEvent{
		PlayerID: g.state.ActivePlayerID,
		Moves: trictrac.MovePair{
			moveEvent.Moves[0].Mirror(),
			moveEvent.Moves[1].Mirror(),
		},
	}, true
}

// IsAvailableMove reports whether the move index decodes to an event the
// engine would accept right now.
func (g *TrictracGame) IsAvailableMove(move int) bool {
	if g.Outcome() != nil {
		return false
	}
	event, ok := g.eventFor(move)
	if !ok {
		return false
	}
	return g.state.Validate(event)
}

// Play applies a move.
func (g *TrictracGame) Play(move int) error {
	if g.Outcome() != nil {
		return ErrGameDone
	}
	event, ok := g.eventFor(move)
	if !ok || !g.state.Validate(event) {
		return ErrMoveUnavailable
	}
	g.state.Consume(event)
	return nil
}

// Outcome returns the winner of a decided game, or nil.
func (g *TrictracGame) Outcome() *Outcome {
	winner := g.state.DetermineWinner()
	if winner == 0 && g.state.Stage != trictrac.Ended {
		return nil
	}
	if winner == 0 {
		return nil
	}
	color, _ := g.state.PlayerColorByID(winner)
	if color == trictrac.Black {
		return &Outcome{Winner: PlayerB}
	}
	return &Outcome{Winner: PlayerA}
}

// AllPossibleMoves enumerates the full move space.
func (g *TrictracGame) AllPossibleMoves() []int {
	moves := make([]int, rl.ActionSpaceSize)
	for i := range moves {
		moves[i] = i
	}
	return moves
}

// AvailableMoves returns the currently legal move indices, enumerated in
// the active color's White view.
func (g *TrictracGame) AvailableMoves() []int {
	if g.Outcome() != nil {
		return nil
	}
	if color := g.activeColor(); color == trictrac.Black {
		return rl.ValidActionIndices(rl.WhiteView(g.state, color))
	}
	return rl.ValidActionIndices(g.state)
}
