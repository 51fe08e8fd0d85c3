package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmai/trictrac/trictrac"
)

func allEvents(t *testing.T) []trictrac.GameEvent {
	t.Helper()
	move1, err := trictrac.NewCheckerMove(1, 4)
	require.NoError(t, err)
	move2, err := trictrac.NewCheckerMove(20, 0)
	require.NoError(t, err)
	return []trictrac.GameEvent{
		trictrac.BeginGameEvent{GoesFirst: 2},
		trictrac.EndGameEvent{Reason: trictrac.ReasonPlayerWon, Player: 1},
		trictrac.PlayerJoinedEvent{PlayerID: 1, Name: "alice"},
		trictrac.PlayerDisconnectedEvent{PlayerID: 2},
		trictrac.RollEvent{PlayerID: 1},
		trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{3, 5}}},
		trictrac.MarkEvent{PlayerID: 2, Points: 4},
		trictrac.GoEvent{PlayerID: 1},
		trictrac.MoveEvent{PlayerID: 1, Moves: trictrac.MovePair{move1, move2}},
		trictrac.MoveEvent{PlayerID: 1, Moves: trictrac.MovePair{move1, trictrac.EmptyMove}},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, event := range allEvents(t) {
		payload, err := Marshal(event)
		require.NoError(t, err)
		decoded, err := Unmarshal(payload)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	}
}

func TestMarshalIsByteStable(t *testing.T) {
	event := trictrac.RollResultEvent{PlayerID: 1, Dice: trictrac.Dice{Values: [2]int{3, 5}}}
	a, err := Marshal(event)
	require.NoError(t, err)
	b, err := Marshal(event)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	events := allEvents(t)
	for _, event := range events {
		require.NoError(t, Write(&buf, event))
	}

	// The prefix is a big-endian u64 of the payload length.
	prefix := binary.BigEndian.Uint64(buf.Bytes()[:8])
	assert.Greater(t, prefix, uint64(0))
	assert.Less(t, prefix, uint64(MaxFrameSize))

	for _, want := range events {
		got, err := Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], MaxFrameSize+1)
	buf.Write(prefix[:])
	_, err := Read(&buf)
	assert.Error(t, err)
}

func TestUnmarshalUnknownType(t *testing.T) {
	payload, err := Marshal(trictrac.RollEvent{PlayerID: 1})
	require.NoError(t, err)
	// Corrupt the type tag.
	payload = bytes.Replace(payload, []byte("roll"), []byte("rolx"), 1)
	_, err = Unmarshal(payload)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
