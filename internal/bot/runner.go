package bot

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mmai/trictrac/trictrac"
)

// Runner plays a full game between two bots. It owns the authoritative
// state and the dice roller, forwards every consumed event to both bot
// replicas, and feeds back whichever response event the stage calls for.
type Runner struct {
	Game     *trictrac.GameState
	white    *Bot
	black    *Bot
	roller   *trictrac.DiceRoller
	maxTurns int
	logger   *log.Logger
	pending  [2]trictrac.GameEvent
}

// Result summarizes a finished game.
type Result struct {
	Winner trictrac.PlayerID
	Turns  int
	Events int
}

// NewRunner wires two strategies and a seeded roller into a session.
func NewRunner(white, black Strategy, roller *trictrac.DiceRoller, maxTurns int, logger *log.Logger) *Runner {
	return &Runner{
		Game:     trictrac.NewGameStateWithPlayers("white", "black"),
		white:    New(white, trictrac.White, logger),
		black:    New(black, trictrac.Black, logger),
		roller:   roller,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Play runs the game to its end or to the turn cap and returns the
// outcome. The winner is 0 on a capped game.
func (r *Runner) Play() (Result, error) {
	first := trictrac.PlayerID(1)
	if !r.roller.Coin() {
		first = 2
	}
	if err := r.apply(trictrac.BeginGameEvent{GoesFirst: first}); err != nil {
		return Result{}, err
	}

	result := Result{}
	for r.Game.Stage == trictrac.InGame {
		if winner := r.Game.DetermineWinner(); winner != 0 {
			result.Winner = winner
			break
		}
		if result.Turns >= r.maxTurns {
			break
		}
		event := r.nextEvent()
		if event == nil {
			return result, fmt.Errorf("no event produced at stage %s", r.Game.TurnStage)
		}
		if _, isMove := event.(trictrac.MoveEvent); isMove {
			result.Turns++
		}
		if err := r.apply(event); err != nil {
			return result, err
		}
		result.Events++
	}
	if result.Winner == 0 {
		result.Winner = r.Game.DetermineWinner()
	}
	return result, nil
}

// nextEvent picks the event the current stage requires: dice from the
// runner's roller, everything else from the bots.
func (r *Runner) nextEvent() trictrac.GameEvent {
	if r.Game.TurnStage == trictrac.RollWaiting {
		return trictrac.RollResultEvent{
			PlayerID: r.Game.ActivePlayerID,
			Dice:     r.roller.Roll(),
		}
	}
	if event := r.pending[0]; event != nil {
		return event
	}
	return r.pending[1]
}

// apply consumes an event into the authoritative state and lets both
// replicas react; their responses are kept for the next step.
func (r *Runner) apply(event trictrac.GameEvent) error {
	if !r.Game.Validate(event) {
		return fmt.Errorf("event rejected at stage %s/%s: %#v", r.Game.Stage, r.Game.TurnStage, event)
	}
	r.Game.Consume(event)
	r.pending[0] = r.white.HandleEvent(event)
	r.pending[1] = r.black.HandleEvent(event)
	return nil
}
