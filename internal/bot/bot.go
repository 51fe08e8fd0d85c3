package bot

import (
	"github.com/charmbracelet/log"

	"github.com/mmai/trictrac/trictrac"
)

// Bot owns a replica of the game state and answers the events it should
// produce next. The replica is synchronized only by event replay: the bot
// has no view into the authoritative state of a remote server.
type Bot struct {
	PlayerID trictrac.PlayerID
	Color    trictrac.Color

	game     *trictrac.GameState
	strategy Strategy
	logger   *log.Logger
}

// New builds a bot for one seat. The replica joins both seats up front so
// it accepts the same events as the authoritative game.
func New(strategy Strategy, color trictrac.Color, logger *log.Logger) *Bot {
	game := trictrac.NewGameStateWithPlayers("p1", "p2")
	id := trictrac.PlayerID(1)
	if color == trictrac.Black {
		id = 2
	}
	return &Bot{
		PlayerID: id,
		Color:    color,
		game:     game,
		strategy: strategy,
		logger:   logger,
	}
}

// State exposes the bot's replica for inspection.
func (b *Bot) State() *trictrac.GameState { return b.game }

// HandleEvent consumes an event into the replica and returns the bot's
// next event when the resulting turn stage is its to act, or nil.
func (b *Bot) HandleEvent(event trictrac.GameEvent) trictrac.GameEvent {
	if !b.game.Validate(event) {
		return nil
	}
	b.game.Consume(event)
	if b.game.Stage == trictrac.Ended {
		return nil
	}

	active := b.game.ActivePlayerID == b.PlayerID
	switch b.game.TurnStage {
	case trictrac.RollDice:
		if active {
			return trictrac.RollEvent{PlayerID: b.PlayerID}
		}
	case trictrac.MarkPoints:
		if active {
			return trictrac.MarkEvent{PlayerID: b.PlayerID, Points: b.game.DicePoints[0]}
		}
	case trictrac.MarkAdvPoints:
		// The non-active player marks their due points.
		if !active {
			return trictrac.MarkEvent{PlayerID: b.PlayerID, Points: b.game.DicePoints[1]}
		}
	case trictrac.HoldOrGoChoice:
		if active {
			if b.strategy.ChooseGo(b.game, b.Color) {
				return trictrac.GoEvent{PlayerID: b.PlayerID}
			}
			return trictrac.MoveEvent{PlayerID: b.PlayerID, Moves: b.strategy.ChooseMove(b.game, b.Color)}
		}
	case trictrac.Move:
		if active {
			moves := b.strategy.ChooseMove(b.game, b.Color)
			b.logger.Debug("choosing move", "bot", b.strategy.Name(), "color", b.Color, "moves", moves)
			return trictrac.MoveEvent{PlayerID: b.PlayerID, Moves: moves}
		}
	}
	return nil
}
