package trictrac

import "fmt"

// Stage is the coarse lifecycle of a game.
type Stage int

const (
	PreGame Stage = iota
	InGame
	Ended
)

func (s Stage) String() string {
	switch s {
	case PreGame:
		return "pre-game"
	case InGame:
		return "in game"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// TurnStage is the per-turn cycle of the active player:
// RollDice -> RollWaiting -> MarkPoints -> MarkAdvPoints ->
// (HoldOrGoChoice when a hole was earned | Move) -> next player.
type TurnStage int

const (
	RollDice TurnStage = iota
	RollWaiting
	MarkPoints
	MarkAdvPoints
	HoldOrGoChoice
	Move
)

func (t TurnStage) String() string {
	switch t {
	case RollDice:
		return "roll dice"
	case RollWaiting:
		return "waiting for roll result"
	case MarkPoints:
		return "mark points"
	case MarkAdvPoints:
		return "mark adversary points"
	case HoldOrGoChoice:
		return "hold or go"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// EndReason explains why a game ended.
type EndReason int

const (
	ReasonPlayerWon EndReason = iota
	ReasonPlayerLeft
)

// WinningHoles is the hole count that wins a match.
const WinningHoles = 12

// GameEvent is the sum type of everything that can progress a game. Every
// state mutation flows through GameState.Consume.
type GameEvent interface {
	isGameEvent()
}

// BeginGameEvent starts the game with the given first player.
type BeginGameEvent struct {
	GoesFirst PlayerID
}

// EndGameEvent terminates the game.
type EndGameEvent struct {
	Reason EndReason
	Player PlayerID
}

// PlayerJoinedEvent registers a player. The first player to join plays
// White.
type PlayerJoinedEvent struct {
	PlayerID PlayerID
	Name     string
}

// PlayerDisconnectedEvent removes a player; an in-progress game ends.
type PlayerDisconnectedEvent struct {
	PlayerID PlayerID
}

// RollEvent is the active player asking for dice.
type RollEvent struct {
	PlayerID PlayerID
}

// RollResultEvent delivers the dice rolled for the active player.
type RollResultEvent struct {
	PlayerID PlayerID
	Dice     Dice
}

// MarkEvent marks points for its player: the active player's own points
// during MarkPoints, the opponent's due points during MarkAdvPoints.
type MarkEvent struct {
	PlayerID PlayerID
	Points   int
}

// GoEvent is the hole winner choosing to start a new relevé.
type GoEvent struct {
	PlayerID PlayerID
}

// MoveEvent plays the two checker moves of the turn.
type MoveEvent struct {
	PlayerID PlayerID
	Moves    MovePair
}

func (BeginGameEvent) isGameEvent()          {}
func (EndGameEvent) isGameEvent()            {}
func (PlayerJoinedEvent) isGameEvent()       {}
func (PlayerDisconnectedEvent) isGameEvent() {}
func (RollEvent) isGameEvent()               {}
func (RollResultEvent) isGameEvent()         {}
func (MarkEvent) isGameEvent()               {}
func (GoEvent) isGameEvent()                 {}
func (MoveEvent) isGameEvent()               {}

// GameState is the authoritative state of a Trictrac game session. It
// owns all game data; events are validated with Validate and applied with
// Consume, which appends them to History in order.
type GameState struct {
	Stage          Stage
	TurnStage      TurnStage
	Board          *Board
	Dice           Dice
	Players        map[PlayerID]*Player
	ActivePlayerID PlayerID
	// DicePoints holds the last computed points of the active player and
	// of their opponent, refreshed at each RollResult.
	DicePoints [2]int
	History    []GameEvent
	// SchoolsEnabled reserves the "écoles" tradition (forfeiting
	// mismarked points); marking is strict when disabled.
	SchoolsEnabled bool

	holeEarned bool
}

// NewGameState returns an empty pre-game state.
func NewGameState(schoolsEnabled bool) *GameState {
	return &GameState{
		Stage:          PreGame,
		TurnStage:      RollDice,
		Board:          NewBoard(),
		Players:        make(map[PlayerID]*Player),
		SchoolsEnabled: schoolsEnabled,
	}
}

// NewGameStateWithPlayers is a convenience constructor joining two
// players; the first plays White.
func NewGameStateWithPlayers(whiteName, blackName string) *GameState {
	g := NewGameState(false)
	g.InitPlayer(whiteName)
	g.InitPlayer(blackName)
	return g
}

// InitPlayer joins the next free player slot and returns its id (1 then
// 2), or 0 when the table is full.
func (g *GameState) InitPlayer(name string) PlayerID {
	for id := PlayerID(1); id <= 2; id++ {
		if _, taken := g.Players[id]; !taken {
			event := PlayerJoinedEvent{PlayerID: id, Name: name}
			if !g.Validate(event) {
				return 0
			}
			g.Consume(event)
			return id
		}
	}
	return 0
}

// WhoPlays returns the active player, or nil before the game starts.
func (g *GameState) WhoPlays() *Player {
	return g.Players[g.ActivePlayerID]
}

// PlayerByColor returns the player of a color, or nil.
func (g *GameState) PlayerByColor(c Color) *Player {
	for _, p := range g.Players {
		if p.Color == c {
			return p
		}
	}
	return nil
}

// PlayerIDByColor returns the id of the player of a color, or 0.
func (g *GameState) PlayerIDByColor(c Color) PlayerID {
	for id, p := range g.Players {
		if p.Color == c {
			return id
		}
	}
	return 0
}

// PlayerColorByID returns the color of a player id.
func (g *GameState) PlayerColorByID(id PlayerID) (Color, bool) {
	p, ok := g.Players[id]
	if !ok {
		return White, false
	}
	return p.Color, true
}

// OpponentID returns the other player's id, or 0.
func (g *GameState) OpponentID(id PlayerID) PlayerID {
	for other := range g.Players {
		if other != id {
			return other
		}
	}
	return 0
}

func (g *GameState) switchActivePlayer() {
	if other := g.OpponentID(g.ActivePlayerID); other != 0 {
		g.ActivePlayerID = other
	}
}

// Clone returns a deep copy sharing no state, history included.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Board = g.Board.Clone()
	c.Players = make(map[PlayerID]*Player, len(g.Players))
	for id, p := range g.Players {
		c.Players[id] = p.Clone()
	}
	c.History = append([]GameEvent(nil), g.History...)
	return &c
}

func (g *GameState) String() string {
	return fmt.Sprintf("stage=%s turn=%s active=%d dice=%s board=%s",
		g.Stage, g.TurnStage, g.ActivePlayerID, g.Dice, g.Board)
}

// Validate determines whether an event is acceptable in the current
// state. It has no side effects; CheckEvent carries the reason for a
// rejection.
func (g *GameState) Validate(event GameEvent) bool {
	return g.CheckEvent(event) == nil
}

// checkActive verifies the event comes from the player whose turn it is.
// Before BeginGame no player is active, so every turn event fails with
// ErrNotYourTurn.
func (g *GameState) checkActive(id PlayerID) error {
	if _, ok := g.Players[id]; !ok {
		return ErrPlayerInvalid
	}
	if g.ActivePlayerID != id {
		return ErrNotYourTurn
	}
	return nil
}

// CheckEvent determines whether an event is acceptable in the current
// state, returning nil or the engine error naming the first violated
// precondition. It has no side effects.
func (g *GameState) CheckEvent(event GameEvent) error {
	if g.Stage == Ended {
		return ErrGameEnded
	}
	switch e := event.(type) {
	case BeginGameEvent:
		if g.Stage != PreGame {
			return ErrGameStarted
		}
		if len(g.Players) != 2 {
			return ErrPlayerInvalid
		}
		if _, ok := g.Players[e.GoesFirst]; !ok {
			return ErrPlayerInvalid
		}
		return nil
	case EndGameEvent:
		// A winner can only be declared for a running game.
		if e.Reason == ReasonPlayerWon && g.Stage != InGame {
			return ErrPlayerInvalid
		}
		return nil
	case PlayerJoinedEvent:
		if g.Stage != PreGame {
			return ErrGameStarted
		}
		if len(g.Players) >= 2 {
			return ErrPlayerInvalid
		}
		if _, taken := g.Players[e.PlayerID]; taken {
			return ErrPlayerInvalid
		}
		return nil
	case PlayerDisconnectedEvent:
		if _, ok := g.Players[e.PlayerID]; !ok {
			return ErrPlayerInvalid
		}
		return nil
	case RollEvent:
		if err := g.checkActive(e.PlayerID); err != nil {
			return err
		}
		if g.TurnStage != RollDice {
			return ErrMoveFirst
		}
		return nil
	case RollResultEvent:
		if err := g.checkActive(e.PlayerID); err != nil {
			return err
		}
		if g.TurnStage != RollWaiting {
			return ErrRollFirst
		}
		if !e.Dice.Valid() {
			return ErrDiceInvalid
		}
		return nil
	case MarkEvent:
		if e.Points < 0 {
			return ErrMoveInvalid
		}
		if _, ok := g.Players[e.PlayerID]; !ok {
			return ErrPlayerInvalid
		}
		switch g.TurnStage {
		case MarkPoints:
			if e.PlayerID != g.ActivePlayerID {
				return ErrNotYourTurn
			}
			if e.Points != g.DicePoints[0] {
				return ErrMoveInvalid
			}
			return nil
		case MarkAdvPoints:
			if e.PlayerID != g.OpponentID(g.ActivePlayerID) {
				return ErrNotYourTurn
			}
			if e.Points != g.DicePoints[1] {
				return ErrMoveInvalid
			}
			return nil
		case RollDice, RollWaiting:
			return ErrRollFirst
		default:
			return ErrMoveFirst
		}
	case GoEvent:
		if err := g.checkActive(e.PlayerID); err != nil {
			return err
		}
		switch g.TurnStage {
		case HoldOrGoChoice:
			return nil
		case RollDice, RollWaiting:
			return ErrRollFirst
		default:
			return ErrMoveFirst
		}
	case MoveEvent:
		if err := g.checkActive(e.PlayerID); err != nil {
			return err
		}
		switch g.TurnStage {
		case Move, HoldOrGoChoice:
		case RollDice, RollWaiting:
			return ErrRollFirst
		default:
			return ErrMoveInvalid
		}
		color, ok := g.PlayerColorByID(e.PlayerID)
		if !ok {
			return ErrPlayerInvalid
		}
		rules := NewMoveRules(g.Board, g.Dice)
		if !rules.MovesPossible(color, e.Moves) {
			return ErrMoveInvalid
		}
		if !bothEmpty(e.Moves) && !rules.MovesFollowDice(color, e.Moves) {
			return ErrDiceInvalid
		}
		if rules.MovesAllowed(color, e.Moves) != MoveOK {
			return ErrMoveInvalid
		}
		return nil
	default:
		return ErrMoveInvalid
	}
}

// Consume applies an event, assuming Validate would hold, and appends it
// to the history.
func (g *GameState) Consume(event GameEvent) {
	switch e := event.(type) {
	case BeginGameEvent:
		g.Stage = InGame
		g.ActivePlayerID = e.GoesFirst
		g.TurnStage = RollDice
	case EndGameEvent:
		g.Stage = Ended
	case PlayerJoinedEvent:
		color := White
		if len(g.Players) > 0 {
			color = Black
		}
		g.Players[e.PlayerID] = NewPlayer(e.Name, color)
	case PlayerDisconnectedEvent:
		delete(g.Players, e.PlayerID)
		if g.Stage == InGame {
			g.Stage = Ended
		}
	case RollEvent:
		g.TurnStage = RollWaiting
	case RollResultEvent:
		g.Dice = e.Dice
		if p := g.Players[e.PlayerID]; p != nil {
			p.DiceRollCount++
			rules := NewPointsRules(p.Color, g.Board, g.Dice)
			own, opponent := rules.GetPoints()
			g.DicePoints = [2]int{own, opponent}
		}
		g.TurnStage = MarkPoints
	case MarkEvent:
		if g.creditPoints(e.PlayerID, e.Points) {
			// The hole winner takes the hand for the hold-or-go choice.
			// When both players cross twelve on one roll the roller's
			// hole was earned first and keeps precedence.
			if e.PlayerID != g.ActivePlayerID && !g.holeEarned {
				g.ActivePlayerID = e.PlayerID
			}
			g.holeEarned = true
		}
		if g.TurnStage == MarkPoints {
			g.TurnStage = MarkAdvPoints
		} else if g.holeEarned {
			g.TurnStage = HoldOrGoChoice
		} else {
			g.TurnStage = Move
		}
	case GoEvent:
		// A new relevé: points reset on both sides, the hole winner
		// keeps the hand ("mise en train") and rolls again.
		for _, p := range g.Players {
			p.Points = 0
			p.CanBredouille = true
		}
		g.holeEarned = false
		g.TurnStage = RollDice
	case MoveEvent:
		color, _ := g.PlayerColorByID(e.PlayerID)
		moves := []CheckerMove{e.Moves[0], e.Moves[1]}
		// A chained pair is one checker played "tout d'une": apply the
		// fused move so the transient landing is never materialized.
		if fused, err := e.Moves[0].Chain(e.Moves[1]); err == nil {
			moves = []CheckerMove{fused}
		}
		for _, m := range moves {
			if m.IsEmpty() {
				continue
			}
			// Validate guarantees legality; a failure here means the
			// caller broke the Validate/Consume contract.
			if err := g.Board.MoveChecker(color, m); err != nil {
				panic(fmt.Sprintf("trictrac: consuming move %s for %s: %v", m, color, err))
			}
		}
		g.holeEarned = false
		g.switchActivePlayer()
		g.TurnStage = RollDice
	}
	g.History = append(g.History, event)
}

// creditPoints adds marked points to a player, converting every twelfth
// point into a hole (two holes while the scorer still holds bredouille)
// and reporting whether a hole was earned. Scoring any point breaks the
// opponent's bredouille run.
func (g *GameState) creditPoints(id PlayerID, points int) bool {
	p := g.Players[id]
	if p == nil || points == 0 {
		return false
	}
	if opp := g.Players[g.OpponentID(id)]; opp != nil {
		opp.CanBredouille = false
	}
	earned := false
	p.Points += points
	for p.Points >= 12 {
		p.Points -= 12
		holes := 1
		if p.CanBredouille {
			holes = 2
		}
		p.Holes += holes
		if p.Holes > WinningHoles {
			p.Holes = WinningHoles
		}
		earned = true
	}
	return earned
}

// DetermineWinner returns the id of the player holding the winning hole
// count, or 0 while the game is still open.
func (g *GameState) DetermineWinner() PlayerID {
	for id, p := range g.Players {
		if p.Holes >= WinningHoles {
			return id
		}
	}
	return 0
}

// ToVec returns the deterministic state vector used by the RL
// environment: the 24 board entries followed by the active color, the
// turn stage, the dice and both players' scores and bredouille flags.
func (g *GameState) ToVec() [36]int8 {
	var vec [36]int8
	positions := g.Board.ToVec()
	copy(vec[:24], positions[:])

	active := g.WhoPlays()
	if active != nil && active.Color == Black {
		vec[24] = 1
	}
	vec[25] = int8(g.TurnStage)
	vec[26] = int8(g.Dice.Values[0])
	vec[27] = int8(g.Dice.Values[1])

	white := g.PlayerByColor(White)
	black := g.PlayerByColor(Black)
	if white != nil {
		vec[28] = int8(white.Points)
		vec[29] = int8(white.Holes)
		vec[32] = int8(boolBit(white.CanBredouille))
		vec[33] = int8(boolBit(white.CanBigBredouille))
	}
	if black != nil {
		vec[30] = int8(black.Points)
		vec[31] = int8(black.Holes)
		vec[34] = int8(boolBit(black.CanBredouille))
		vec[35] = int8(boolBit(black.CanBigBredouille))
	}
	return vec
}

func bothEmpty(moves MovePair) bool {
	return moves[0].IsEmpty() && moves[1].IsEmpty()
}
