package trictrac

import "fmt"

// PlayerID distinguishes the two players of a game session.
type PlayerID int

// Player holds the per-player match state. Points run from 0 to 11: the
// twelfth point converts into a hole and the count wraps. Twelve holes win
// the match. The bredouille flags track the consecutive-scoring bonus: a
// player keeps their flag as long as the opponent has not marked a single
// point in the current run.
type Player struct {
	Name             string
	Color            Color
	Points           int
	Holes            int
	CanBredouille    bool
	CanBigBredouille bool
	DiceRollCount    int
}

// NewPlayer returns a player with a fresh score.
func NewPlayer(name string, color Color) *Player {
	return &Player{
		Name:             name,
		Color:            color,
		CanBredouille:    true,
		CanBigBredouille: true,
	}
}

// Clone returns an independent copy.
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

func (p *Player) String() string {
	return fmt.Sprintf("%s (%s) %dpts %d holes", p.Name, p.Color, p.Points, p.Holes)
}

// toBits returns the 10-bit encoding used by the position identifier:
// 4 bits points, 4 bits holes, 1 bit per bredouille flag.
func (p *Player) toBits() string {
	return fmt.Sprintf("%04b%04b%b%b", p.Points, p.Holes, boolBit(p.CanBredouille), boolBit(p.CanBigBredouille))
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
