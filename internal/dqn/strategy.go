package dqn

import (
	"math"

	"github.com/mmai/trictrac/internal/rl"
	"github.com/mmai/trictrac/trictrac"
)

// Strategy plays greedily from a trained network, implementing the bot
// Strategy interface. The policy was trained as White; for Black the
// board is mirrored into a scratch state and the chosen moves mirrored
// back.
type Strategy struct {
	net *Network
}

// NewStrategy wraps a network.
func NewStrategy(net *Network) *Strategy { return &Strategy{net: net} }

// LoadStrategy reads a checkpoint and wraps its network.
func LoadStrategy(path string) (*Strategy, error) {
	net, _, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	return &Strategy{net: net}, nil
}

func (s *Strategy) Name() string { return "dqn" }

// ChooseMove picks the legal move pair with the highest action value.
// The policy was trained as White; Black positions go through the
// mirrored view and the chosen moves are mirrored back.
func (s *Strategy) ChooseMove(game *trictrac.GameState, color trictrac.Color) trictrac.MovePair {
	view := rl.WhiteView(game, color)
	actions := rl.ValidActions(view)
	if len(actions) == 0 {
		return trictrac.MovePair{}
	}

	values := s.net.Infer(rl.State(view.ToVec()).Float64s())
	best := actions[0]
	bestValue := math.Inf(-1)
	for _, a := range actions {
		if a.Kind != rl.ActionMove {
			continue
		}
		if v := values[a.ToIndex()]; v > bestValue {
			bestValue = v
			best = a
		}
	}

	event, ok := best.ToEvent(view)
	if !ok {
		return trictrac.MovePair{}
	}
	move, ok := event.(trictrac.MoveEvent)
	if !ok {
		return trictrac.MovePair{}
	}
	if color == trictrac.Black {
		return trictrac.MovePair{move.Moves[0].Mirror(), move.Moves[1].Mirror()}
	}
	return move.Moves
}

func (s *Strategy) ChooseGo(*trictrac.GameState, trictrac.Color) bool { return true }
