// Package rl wraps the rules engine as a reinforcement-learning
// environment: a compact action space, a deterministic state vector, and
// a step function that drives the opponent inline.
package rl

import (
	rand "math/rand/v2"

	"github.com/mmai/trictrac/trictrac"
)

// ActionSpaceSize is the fixed action space: Roll, Go, then 2*16*16 move
// encodings (dice order x two checker ordinals).
const ActionSpaceSize = 514

// ActionKind discriminates the action sum type.
type ActionKind int

const (
	ActionRoll ActionKind = iota
	ActionGo
	ActionMove
)

// Action is a policy-level action. Move actions name checkers by their
// ordinal in play order (1-15; 0 means "no checker", the empty move) and
// choose which die moves first.
type Action struct {
	Kind      ActionKind
	DiceOrder bool
	Checker1  int
	Checker2  int
}

// ToIndex encodes the action into [0, ActionSpaceSize).
func (a Action) ToIndex() int {
	switch a.Kind {
	case ActionRoll:
		return 0
	case ActionGo:
		return 1
	default:
		start := 2
		if !a.DiceOrder {
			start += 256
		}
		return start + a.Checker1*16 + a.Checker2
	}
}

// ActionFromIndex decodes an index. It fails only for out-of-range input.
func ActionFromIndex(index int) (Action, bool) {
	switch {
	case index == 0:
		return Action{Kind: ActionRoll}, true
	case index == 1:
		return Action{Kind: ActionGo}, true
	case index >= 2 && index < ActionSpaceSize:
		code := index - 2
		diceOrder := code < 256
		if !diceOrder {
			code -= 256
		}
		return Action{
			Kind:      ActionMove,
			DiceOrder: diceOrder,
			Checker1:  code / 16,
			Checker2:  code % 16,
		}, true
	default:
		return Action{}, false
	}
}

// AllActions enumerates the whole action space in index order.
func AllActions() []Action {
	actions := make([]Action, 0, ActionSpaceSize)
	for i := 0; i < ActionSpaceSize; i++ {
		a, _ := ActionFromIndex(i)
		actions = append(actions, a)
	}
	return actions
}

// ToEvent decodes the action into a game event against the live state.
// Move decoding resolves checker ordinals on the current board, plays the
// first leg on a scratch board to resolve the second ordinal, and applies
// the corner-by-power shift when both destinations land on the opponent's
// rest corner. The policy always plays White.
func (a Action) ToEvent(game *trictrac.GameState) (trictrac.GameEvent, bool) {
	playerID := game.ActivePlayerID
	switch a.Kind {
	case ActionRoll:
		return trictrac.RollEvent{PlayerID: playerID}, true
	case ActionGo:
		return trictrac.GoEvent{PlayerID: playerID}, true
	}

	die1, die2 := game.Dice.Values[0], game.Dice.Values[1]
	if !a.DiceOrder {
		die1, die2 = die2, die1
	}
	moves, ok := game.Board.ResolveMovePair(trictrac.White, die1, die2, a.Checker1, a.Checker2)
	if !ok {
		return nil, false
	}
	return trictrac.MoveEvent{
		PlayerID: playerID,
		Moves:    moves,
	}, true
}

// WhiteView returns a state equivalent to the game but seen as White to
// move, which is the only perspective the action space knows. The board
// is mirrored when the viewing color is Black; callers mirror chosen
// moves back into real coordinates.
func WhiteView(game *trictrac.GameState, color trictrac.Color) *trictrac.GameState {
	view := trictrac.NewGameStateWithPlayers("agent", "opponent")
	view.Consume(trictrac.BeginGameEvent{GoesFirst: 1})
	if color == trictrac.Black {
		view.Board = game.Board.Mirror()
	} else {
		view.Board = game.Board.Clone()
	}
	view.Dice = game.Dice
	view.TurnStage = game.TurnStage
	return view
}

// actionFromMoves maps a legal White move pair back into the action
// encoding, reconstructing which die moves first (with the by-power
// shift) and the two checker ordinals.
func actionFromMoves(game *trictrac.GameState, moves trictrac.MovePair) Action {
	dice := game.Dice
	from1, to1 := moves[0].From(), moves[0].To()
	from2, to2 := moves[1].From(), moves[1].To()

	var dist1 int
	switch {
	case to1 > 0:
		dist1 = to1 - from1
	case to2 > 0:
		// Only the first move exits: the second consumed its exact die.
		if to2-from2 == dice.Values[0] {
			dist1 = dice.Values[1]
		} else {
			dist1 = dice.Values[0]
		}
	default:
		// Both exit: the farther checker used the stronger die.
		if from1 < from2 {
			dist1 = dice.Max()
		} else {
			dist1 = dice.Min()
		}
	}

	// Corner taken by power: distances are the dice less one.
	if to1 == 12 && to2 == 12 && dice.Max()+minInt(from1, from2) != 12 {
		dist1++
	}

	checker1 := game.Board.GetFieldChecker(trictrac.White, from1)
	scratch := game.Board.Clone()
	if !moves[0].IsEmpty() {
		_ = scratch.MoveChecker(trictrac.White, moves[0])
	}
	checker2 := scratch.GetFieldChecker(trictrac.White, from2)

	return Action{
		Kind:      ActionMove,
		DiceOrder: dist1 == dice.Values[0],
		Checker1:  checker1,
		Checker2:  checker2,
	}
}

// ValidActions enumerates the legal actions of the current turn stage.
// Mark stages are engine-driven and yield no policy actions.
func ValidActions(game *trictrac.GameState) []Action {
	var actions []Action
	switch game.TurnStage {
	case trictrac.RollDice:
		actions = append(actions, Action{Kind: ActionRoll})
	case trictrac.HoldOrGoChoice:
		actions = append(actions, Action{Kind: ActionGo})
		actions = append(actions, moveActions(game)...)
	case trictrac.Move:
		actions = append(actions, moveActions(game)...)
	}
	return actions
}

func moveActions(game *trictrac.GameState) []Action {
	rules := trictrac.NewMoveRules(game.Board, game.Dice)
	sequences := rules.GetPossibleMovesSequences(trictrac.White, true)
	if len(sequences) == 0 {
		sequences = []trictrac.MovePair{{}}
	}
	actions := make([]Action, 0, len(sequences))
	for _, pair := range sequences {
		actions = append(actions, actionFromMoves(game, pair))
	}
	return actions
}

// ValidActionIndices returns the indices of ValidActions, deduplicated.
func ValidActionIndices(game *trictrac.GameState) []int {
	seen := make(map[int]struct{})
	var indices []int
	for _, a := range ValidActions(game) {
		idx := a.ToIndex()
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices
}

// SampleValidAction draws a uniformly random legal action.
func SampleValidAction(game *trictrac.GameState, rng *rand.Rand) (Action, bool) {
	actions := ValidActions(game)
	if len(actions) == 0 {
		return Action{}, false
	}
	return actions[rng.IntN(len(actions))], true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
