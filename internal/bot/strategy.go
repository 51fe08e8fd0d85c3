// Package bot drives a player from game events: it keeps an independent
// replica of the game state, synchronized purely by event replay, and
// dispatches each turn stage to a pluggable strategy.
package bot

import (
	rand "math/rand/v2"

	"github.com/mmai/trictrac/internal/randutil"
	"github.com/mmai/trictrac/trictrac"
)

// Strategy decides the discretionary parts of a turn. Point marking is
// not discretionary (schools are reserved), so the bot computes it from
// the engine's dice points.
type Strategy interface {
	Name() string
	// ChooseMove picks the move pair to play for the given color.
	ChooseMove(game *trictrac.GameState, color trictrac.Color) trictrac.MovePair
	// ChooseGo decides whether to start a new relevé after winning a
	// hole.
	ChooseGo(game *trictrac.GameState, color trictrac.Color) bool
}

// FirstStrategy plays the first legal sequence. It is the deterministic
// baseline opponent.
type FirstStrategy struct{}

// NewFirstStrategy returns the baseline strategy.
func NewFirstStrategy() *FirstStrategy { return &FirstStrategy{} }

func (s *FirstStrategy) Name() string { return "first" }

func (s *FirstStrategy) ChooseMove(game *trictrac.GameState, color trictrac.Color) trictrac.MovePair {
	rules := trictrac.NewMoveRules(game.Board, game.Dice)
	sequences := rules.GetPossibleMovesSequences(color, true)
	if len(sequences) == 0 {
		return trictrac.MovePair{}
	}
	return sequences[0]
}

func (s *FirstStrategy) ChooseGo(*trictrac.GameState, trictrac.Color) bool { return true }

// RandomStrategy plays a uniformly random legal sequence from its own
// generator, so two bots sharing a seed stay reproducible.
type RandomStrategy struct {
	rng *rand.Rand
}

// NewRandomStrategy returns a seeded random strategy.
func NewRandomStrategy(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: randutil.New(seed)}
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) ChooseMove(game *trictrac.GameState, color trictrac.Color) trictrac.MovePair {
	rules := trictrac.NewMoveRules(game.Board, game.Dice)
	sequences := rules.GetPossibleMovesSequences(color, true)
	if len(sequences) == 0 {
		return trictrac.MovePair{}
	}
	return sequences[s.rng.IntN(len(sequences))]
}

func (s *RandomStrategy) ChooseGo(*trictrac.GameState, trictrac.Color) bool { return true }
