package rl

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/mmai/trictrac/internal/bot"
	"github.com/mmai/trictrac/trictrac"
)

// Reward shaping constants. The error reward doubles as a sentinel so the
// statistics can recognize penalized steps; it is applied both to
// undecodable indices and to decoded-but-invalid events.
const (
	ErrorReward     = -2.12121
	RewardValidMove = 2.12121
	RewardRatio     = 0.01
	WinPoints       = 0.1
)

// StateSize is the length of the state vector fed to the policy.
const StateSize = 36

// State is the tensorized snapshot handed to the learner.
type State [StateSize]int8

// Float64s converts the state for the network input.
func (s State) Float64s() []float64 {
	out := make([]float64, StateSize)
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// Snapshot is the result of one environment step.
type Snapshot struct {
	State  State
	Reward float64
	Done   bool
}

// Environment runs self-play episodes: the learning agent plays White,
// the opponent strategy is driven inline until control returns to the
// agent, so a single Step appears atomic to the learner.
type Environment struct {
	Game *trictrac.GameState

	// MinSteps and MaxSteps bound the adaptive episode length.
	MinSteps float64
	MaxSteps int

	StepCount       int
	GoodmovesCount  int
	PointrollsCount int
	GoodmovesRatio  float64

	agentID       trictrac.PlayerID
	opponentID    trictrac.PlayerID
	opponent      bot.Strategy
	roller        *trictrac.DiceRoller
	state         State
	episodeReward float64
	logger        *log.Logger
}

// NewEnvironment builds an environment with a seeded dice roller and the
// given opponent strategy.
func NewEnvironment(roller *trictrac.DiceRoller, opponent bot.Strategy, logger *log.Logger) *Environment {
	env := &Environment{
		MinSteps: 250,
		MaxSteps: 2000,
		opponent: opponent,
		roller:   roller,
		logger:   logger,
	}
	env.startGame()
	return env
}

func (e *Environment) startGame() {
	e.Game = trictrac.NewGameState(false)
	e.agentID = e.Game.InitPlayer("agent")
	e.opponentID = e.Game.InitPlayer("opponent")
	e.Game.Consume(trictrac.BeginGameEvent{GoesFirst: e.agentID})
	e.state = State(e.Game.ToVec())
}

// CurrentState returns the last observed state.
func (e *Environment) CurrentState() State { return e.state }

// ValidActionIndices exposes the legal actions of the current state.
func (e *Environment) ValidActionIndices() []int {
	return ValidActionIndices(e.Game)
}

// Reset starts a fresh episode. The good-move ratio of the finished
// episode is kept: it drives the adaptive step cap of the next one.
func (e *Environment) Reset() State {
	if e.StepCount > 0 {
		e.GoodmovesRatio = float64(e.GoodmovesCount) / float64(e.StepCount)
	} else {
		e.GoodmovesRatio = 0
	}
	e.logger.Debug("episode reset",
		"goodmoves", e.GoodmovesCount,
		"ratio", e.GoodmovesRatio,
		"reward", e.episodeReward,
	)
	e.startGame()
	e.StepCount = 0
	e.GoodmovesCount = 0
	e.PointrollsCount = 0
	e.episodeReward = 0
	return e.state
}

// AdaptiveMaxSteps shortens episodes while the policy is mostly illegal
// and lengthens them as its good-move ratio approaches one.
func (e *Environment) AdaptiveMaxSteps() int {
	limit := e.MinSteps + (float64(e.MaxSteps)-e.MinSteps)*math.Exp((e.GoodmovesRatio-1)/0.25)
	return int(math.Round(limit))
}

// Step decodes and executes one agent action, drives the opponent until
// the turn comes back, and returns the next snapshot.
func (e *Environment) Step(actionIndex int) Snapshot {
	e.StepCount++

	reward := 0.0
	if e.Game.ActivePlayerID == e.agentID {
		action, ok := ActionFromIndex(actionIndex)
		if !ok {
			reward = ErrorReward
		} else {
			var rollpoint bool
			reward, rollpoint = e.executeAction(action)
			if rollpoint {
				e.PointrollsCount++
			}
			if reward != ErrorReward {
				e.GoodmovesCount++
			}
		}
	}

	for e.Game.ActivePlayerID == e.opponentID && e.Game.Stage != trictrac.Ended {
		reward += e.playOpponent()
	}

	done := e.Game.Stage == trictrac.Ended || e.Game.DetermineWinner() != 0
	if done {
		if winner := e.Game.DetermineWinner(); winner != 0 {
			if winner == e.agentID {
				reward += WinPoints
			} else {
				reward -= WinPoints
			}
		}
	}
	terminated := done || e.StepCount >= e.AdaptiveMaxSteps()

	e.state = State(e.Game.ToVec())
	e.episodeReward += reward
	return Snapshot{State: e.state, Reward: reward, Done: terminated}
}

// executeAction turns the action into events. An invalid event does not
// advance the engine; it only earns the error reward.
func (e *Environment) executeAction(action Action) (float64, bool) {
	event, ok := action.ToEvent(e.Game)
	if !ok {
		return ErrorReward, false
	}
	if !e.Game.Validate(event) {
		return ErrorReward, false
	}
	e.Game.Consume(event)
	reward := RewardValidMove
	rollpoint := false

	if action.Kind == ActionRoll {
		rollResult := trictrac.RollResultEvent{PlayerID: e.agentID, Dice: e.roller.Roll()}
		if e.Game.Validate(rollResult) {
			e.Game.Consume(rollResult)
			own, adv := e.Game.DicePoints[0], e.Game.DicePoints[1]
			reward += RewardRatio * float64(own-adv)
			if own > 0 {
				rollpoint = true
			}
			e.driveMarks()
		}
	}
	return reward, rollpoint
}

// driveMarks plays the engine-driven marking stages for whoever rolled.
func (e *Environment) driveMarks() {
	if e.Game.TurnStage == trictrac.MarkPoints {
		mark := trictrac.MarkEvent{PlayerID: e.Game.ActivePlayerID, Points: e.Game.DicePoints[0]}
		if e.Game.Validate(mark) {
			e.Game.Consume(mark)
		}
	}
	if e.Game.TurnStage == trictrac.MarkAdvPoints {
		mark := trictrac.MarkEvent{
			PlayerID: e.Game.OpponentID(e.Game.ActivePlayerID),
			Points:   e.Game.DicePoints[1],
		}
		if e.Game.Validate(mark) {
			e.Game.Consume(mark)
		}
	}
}

// playOpponent advances the opponent one event. The opponent's dice-point
// gain flows into the agent's reward with a negative sign.
func (e *Environment) playOpponent() float64 {
	reward := 0.0
	var event trictrac.GameEvent
	switch e.Game.TurnStage {
	case trictrac.RollDice:
		event = trictrac.RollEvent{PlayerID: e.opponentID}
	case trictrac.RollWaiting:
		event = trictrac.RollResultEvent{PlayerID: e.opponentID, Dice: e.roller.Roll()}
	case trictrac.MarkPoints, trictrac.MarkAdvPoints:
		e.driveMarks()
		return 0
	case trictrac.HoldOrGoChoice:
		event = trictrac.GoEvent{PlayerID: e.opponentID}
	case trictrac.Move:
		color, _ := e.Game.PlayerColorByID(e.opponentID)
		event = trictrac.MoveEvent{
			PlayerID: e.opponentID,
			Moves:    e.opponent.ChooseMove(e.Game, color),
		}
	default:
		return 0
	}

	if !e.Game.Validate(event) {
		// A stuck opponent would loop forever; end the game instead.
		e.logger.Warn("opponent event rejected, ending game",
			"stage", e.Game.TurnStage, "event", event)
		e.Game.Consume(trictrac.EndGameEvent{Reason: trictrac.ReasonPlayerLeft, Player: e.opponentID})
		return 0
	}
	e.Game.Consume(event)

	if _, isRoll := event.(trictrac.RollResultEvent); isRoll {
		own, adv := e.Game.DicePoints[0], e.Game.DicePoints[1]
		reward -= RewardRatio * float64(own-adv)
		e.driveMarks()
	}
	return reward
}
