// Package protocol serializes game events for in-process queues and the
// trusted server link: a self-describing msgpack payload behind a u64
// length prefix. The only contract is round-trip fidelity of the event
// sum type.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tinylib/msgp/msgp"

	"github.com/mmai/trictrac/trictrac"
)

// Event type tags.
const (
	TypeBeginGame          = "begin_game"
	TypeEndGame            = "end_game"
	TypePlayerJoined       = "player_joined"
	TypePlayerDisconnected = "player_disconnected"
	TypeRoll               = "roll"
	TypeRollResult         = "roll_result"
	TypeMark               = "mark"
	TypeGo                 = "go"
	TypeMove               = "move"
)

// ErrUnknownEventType is returned for payloads whose type tag is not part
// of the event sum type.
var ErrUnknownEventType = errors.New("unknown event type")

// MaxFrameSize bounds a single framed payload; events are tiny, so
// anything larger is a corrupt or hostile stream.
const MaxFrameSize = 1 << 16

// Marshal serializes an event to msgpack.
func Marshal(event trictrac.GameEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := encodeEvent(w, event); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes a msgpack payload into an event.
func Unmarshal(data []byte) (trictrac.GameEvent, error) {
	return decodeEvent(msgp.NewReader(bytes.NewReader(data)))
}

// Write frames an event onto a stream: big-endian u64 payload length,
// then the payload.
func Write(w io.Writer, event trictrac.GameEvent) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Read consumes one framed event from a stream.
func Read(r io.Reader) (trictrac.GameEvent, error) {
	var prefix [8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint64(prefix[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return Unmarshal(payload)
}

func encodeEvent(w *msgp.Writer, event trictrac.GameEvent) error {
	switch e := event.(type) {
	case trictrac.BeginGameEvent:
		return writeFields(w, TypeBeginGame, map[string]int{"goes_first": int(e.GoesFirst)})
	case trictrac.EndGameEvent:
		return writeFields(w, TypeEndGame, map[string]int{"reason": int(e.Reason), "player_id": int(e.Player)})
	case trictrac.PlayerJoinedEvent:
		if err := w.WriteMapHeader(3); err != nil {
			return err
		}
		if err := writeTypeTag(w, TypePlayerJoined); err != nil {
			return err
		}
		if err := writeIntField(w, "player_id", int(e.PlayerID)); err != nil {
			return err
		}
		if err := w.WriteString("name"); err != nil {
			return err
		}
		return w.WriteString(e.Name)
	case trictrac.PlayerDisconnectedEvent:
		return writeFields(w, TypePlayerDisconnected, map[string]int{"player_id": int(e.PlayerID)})
	case trictrac.RollEvent:
		return writeFields(w, TypeRoll, map[string]int{"player_id": int(e.PlayerID)})
	case trictrac.RollResultEvent:
		return writeFields(w, TypeRollResult, map[string]int{
			"player_id": int(e.PlayerID),
			"die1":      e.Dice.Values[0],
			"die2":      e.Dice.Values[1],
		})
	case trictrac.MarkEvent:
		return writeFields(w, TypeMark, map[string]int{"player_id": int(e.PlayerID), "points": e.Points})
	case trictrac.GoEvent:
		return writeFields(w, TypeGo, map[string]int{"player_id": int(e.PlayerID)})
	case trictrac.MoveEvent:
		return writeFields(w, TypeMove, map[string]int{
			"player_id": int(e.PlayerID),
			"from1":     e.Moves[0].From(),
			"to1":       e.Moves[0].To(),
			"from2":     e.Moves[1].From(),
			"to2":       e.Moves[1].To(),
		})
	default:
		return ErrUnknownEventType
	}
}

// writeFields emits a map of the type tag plus integer fields, in a fixed
// key order so payloads are byte-stable.
func writeFields(w *msgp.Writer, typeTag string, fields map[string]int) error {
	if err := w.WriteMapHeader(uint32(1 + len(fields))); err != nil {
		return err
	}
	if err := writeTypeTag(w, typeTag); err != nil {
		return err
	}
	for _, key := range fieldOrder {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := writeIntField(w, key, value); err != nil {
			return err
		}
	}
	return nil
}

var fieldOrder = []string{
	"goes_first", "reason", "player_id", "points",
	"die1", "die2", "from1", "to1", "from2", "to2",
}

func writeTypeTag(w *msgp.Writer, tag string) error {
	if err := w.WriteString("type"); err != nil {
		return err
	}
	return w.WriteString(tag)
}

func writeIntField(w *msgp.Writer, key string, value int) error {
	if err := w.WriteString(key); err != nil {
		return err
	}
	return w.WriteInt(value)
}

func decodeEvent(r *msgp.Reader) (trictrac.GameEvent, error) {
	size, err := r.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	var typeTag, name string
	ints := make(map[string]int, int(size))
	for i := uint32(0); i < size; i++ {
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "type":
			if typeTag, err = r.ReadString(); err != nil {
				return nil, err
			}
		case "name":
			if name, err = r.ReadString(); err != nil {
				return nil, err
			}
		default:
			value, err := r.ReadInt()
			if err != nil {
				return nil, err
			}
			ints[key] = value
		}
	}

	playerID := trictrac.PlayerID(ints["player_id"])
	switch typeTag {
	case TypeBeginGame:
		return trictrac.BeginGameEvent{GoesFirst: trictrac.PlayerID(ints["goes_first"])}, nil
	case TypeEndGame:
		return trictrac.EndGameEvent{Reason: trictrac.EndReason(ints["reason"]), Player: playerID}, nil
	case TypePlayerJoined:
		return trictrac.PlayerJoinedEvent{PlayerID: playerID, Name: name}, nil
	case TypePlayerDisconnected:
		return trictrac.PlayerDisconnectedEvent{PlayerID: playerID}, nil
	case TypeRoll:
		return trictrac.RollEvent{PlayerID: playerID}, nil
	case TypeRollResult:
		return trictrac.RollResultEvent{
			PlayerID: playerID,
			Dice:     trictrac.Dice{Values: [2]int{ints["die1"], ints["die2"]}},
		}, nil
	case TypeMark:
		return trictrac.MarkEvent{PlayerID: playerID, Points: ints["points"]}, nil
	case TypeGo:
		return trictrac.GoEvent{PlayerID: playerID}, nil
	case TypeMove:
		moves, err := decodeMoves(ints)
		if err != nil {
			return nil, err
		}
		return trictrac.MoveEvent{PlayerID: playerID, Moves: moves}, nil
	default:
		return nil, ErrUnknownEventType
	}
}

func decodeMoves(ints map[string]int) (trictrac.MovePair, error) {
	var moves trictrac.MovePair
	pairs := [2][2]int{{ints["from1"], ints["to1"]}, {ints["from2"], ints["to2"]}}
	for i, p := range pairs {
		if p[0] == 0 && p[1] == 0 {
			continue
		}
		m, err := trictrac.NewCheckerMove(p[0], p[1])
		if err != nil {
			return moves, fmt.Errorf("move %d (%d, %d): %w", i+1, p[0], p[1], err)
		}
		moves[i] = m
	}
	return moves, nil
}
