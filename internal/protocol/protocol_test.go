package protocol

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Select, EncodeSelect(42)))

	frame, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, Select, frame.Type)

	id, err := DecodeSelect(frame.Payload)
	require.NoError(t, err)
	require.Equal(t, character.Id(42), id)
}

func TestReadFrameZeroLengthIsProtocolError(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	_, err := ReadFrame(bufio.NewReader(&buf))
	require.ErrorIs(t, err, ErrProtocol)
}

func TestReadFrameOversizeIsProtocolError(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := make([]byte, 4)
	// length far beyond MaxFrameLength
	lenBuf[3] = 0xFF
	buf.Write(lenBuf)
	_, err := ReadFrame(bufio.NewReader(&buf))
	require.ErrorIs(t, err, ErrProtocol)
}

func TestPauseEncodeDecode(t *testing.T) {
	decoded, err := DecodePause(EncodePause(true))
	require.NoError(t, err)
	require.True(t, decoded)

	decoded, err = DecodePause(EncodePause(false))
	require.NoError(t, err)
	require.False(t, decoded)
}

func TestStepEncodeDecode(t *testing.T) {
	millis, err := DecodeStep(EncodeStep(-50))
	require.NoError(t, err)
	require.Equal(t, int64(-50), millis)
}

func TestChangeEncodeDecode(t *testing.T) {
	name, err := DecodeChange(EncodeChange("forest"))
	require.NoError(t, err)
	require.Equal(t, "forest", name)
}

func TestHelloEncodeDecode(t *testing.T) {
	v, err := DecodeHello(EncodeHello("1.2.3"))
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)
}

func TestNamesEncodeDecode(t *testing.T) {
	names, err := DecodeNames(EncodeNames([]string{"forest", "dungeon"}))
	require.NoError(t, err)
	require.Equal(t, []string{"forest", "dungeon"}, names)
}

func TestStateEncodeDecode(t *testing.T) {
	in := []CharacterState{
		{Id: 1, X: 1.5, Y: 2.5, Z: 0, Orientation: 3.14, Attributes: map[string]string{"hp": "10"}},
		{Id: 2, X: -1, Y: 0, Z: 0, Orientation: 0, Attributes: map[string]string{}},
	}
	out, err := DecodeState(EncodeState(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, character.Id(1), out[0].Id)
	require.Equal(t, float32(1.5), out[0].X)
	require.Equal(t, "10", out[0].Attributes["hp"])
}

func TestCharacterDetailsEncodeDecode(t *testing.T) {
	tree := TreeSnapshot{
		Name:               "root",
		ConditionRendering: "True",
		DeltaMillis:        1000,
		Status:             aicore.StatusRunning,
		Running:            true,
		Children: []TreeSnapshot{
			{Name: "idle", ConditionRendering: "True", DeltaMillis: -1, Status: aicore.StatusUnknown},
		},
	}
	payload := EncodeCharacterDetails(42, []AggroRow{{Id: 1, Amount: 5}}, tree)

	selected, rows, decodedTree, err := DecodeCharacterDetails(payload)
	require.NoError(t, err)
	require.Equal(t, character.Id(42), selected)
	require.Len(t, rows, 1)
	require.Equal(t, float32(5), rows[0].Amount)
	require.Equal(t, "root", decodedTree.Name)
	require.Len(t, decodedTree.Children, 1)
	require.Equal(t, "idle", decodedTree.Children[0].Name)
	require.Equal(t, int64(-1), decodedTree.Children[0].DeltaMillis)
}
