package trictrac

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// The position identifier packs a game state into 108 bits:
// 77 bits of checker layout (see Board.GnupgPosID), 1 bit active color,
// 2 bits turn stage, 6 bits dice, then 10 bits per player. The bit string
// is left-padded to 108, split into 6-bit values and base64-encoded.
//
// Two bits cannot carry all six turn stages; the canonical mapping groups
// them as RollDice/RollWaiting, MarkPoints/MarkAdvPoints, Move and
// HoldOrGoChoice, and decoding restores the group representative.

func turnStageBits(t TurnStage) string {
	switch t {
	case MarkPoints, MarkAdvPoints:
		return "01"
	case Move:
		return "10"
	case HoldOrGoChoice:
		return "11"
	default:
		return "00"
	}
}

func turnStageFromBits(bits string) TurnStage {
	switch bits {
	case "01":
		return MarkPoints
	case "10":
		return Move
	case "11":
		return HoldOrGoChoice
	default:
		return RollDice
	}
}

// PositionID returns the compact base64 identifier of the state. It
// requires both players to have joined.
func (g *GameState) PositionID() (string, error) {
	white := g.PlayerByColor(White)
	black := g.PlayerByColor(Black)
	if white == nil || black == nil {
		return "", ErrPlayerInvalid
	}

	var bits strings.Builder
	bits.WriteString(g.Board.GnupgPosID())
	if active := g.WhoPlays(); active != nil && active.Color == Black {
		bits.WriteByte('1')
	} else {
		bits.WriteByte('0')
	}
	bits.WriteString(turnStageBits(g.TurnStage))
	bits.WriteString(g.Dice.toBits())
	bits.WriteString(white.toBits())
	bits.WriteString(black.toBits())

	padded := strings.Repeat("0", 108-bits.Len()) + bits.String()
	packed := make([]byte, 0, 18)
	for i := 0; i < len(padded); i += 6 {
		var v byte
		for _, c := range padded[i : i+6] {
			v <<= 1
			if c == '1' {
				v |= 1
			}
		}
		packed = append(packed, v)
	}
	return base64.StdEncoding.EncodeToString(packed), nil
}

// DecodePositionID rebuilds a game state from its identifier. The result
// carries no history and the turn stage is the representative of its
// 2-bit group.
func DecodePositionID(id string) (*GameState, error) {
	packed, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("decoding position id: %w", err)
	}
	if len(packed) != 18 {
		return nil, fmt.Errorf("decoding position id: want 18 packed bytes, got %d", len(packed))
	}
	var bits strings.Builder
	for _, v := range packed {
		if v >= 64 {
			return nil, fmt.Errorf("decoding position id: packed value %d out of range", v)
		}
		bits.WriteString(fmt.Sprintf("%06b", v))
	}
	s := bits.String()     // 108 bits
	s = s[len(s)-106:]     // drop the left padding
	boardBits := s[:77]    // checker layout
	colorBit := s[77]      // active color
	stageBits := s[78:80]  // turn stage group
	diceBits := s[80:86]   // dice
	whiteBits := s[86:96]  // white player
	blackBits := s[96:106] // black player

	board, err := boardFromGnupgPosID(boardBits)
	if err != nil {
		return nil, err
	}

	g := NewGameState(false)
	g.Board = board
	g.Stage = InGame
	g.TurnStage = turnStageFromBits(stageBits)
	g.Dice = Dice{Values: [2]int{bitsToInt(diceBits[:3]), bitsToInt(diceBits[3:])}}

	g.Players[1] = playerFromBits("white", White, whiteBits)
	g.Players[2] = playerFromBits("black", Black, blackBits)
	if colorBit == '1' {
		g.ActivePlayerID = 2
	} else {
		g.ActivePlayerID = 1
	}
	return g, nil
}

func playerFromBits(name string, color Color, bits string) *Player {
	p := NewPlayer(name, color)
	p.Points = bitsToInt(bits[:4])
	p.Holes = bitsToInt(bits[4:8])
	p.CanBredouille = bits[8] == '1'
	p.CanBigBredouille = bits[9] == '1'
	return p
}

func bitsToInt(bits string) int {
	v := 0
	for _, c := range bits {
		v <<= 1
		if c == '1' {
			v |= 1
		}
	}
	return v
}
