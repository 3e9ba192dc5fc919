// Package protocol implements the debug server's wire format: a TCP,
// length-prefixed binary frame protocol (spec §6) plus an additive HELLO
// handshake for semver-based version negotiation (not present in spec
// §6's message-type table).
package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

// MessageType identifies a frame's payload shape (spec §6). Numeric ids
// are stable across versions.
type MessageType uint8

const (
	Ping             MessageType = 0
	Select           MessageType = 1
	Pause            MessageType = 2
	Names            MessageType = 3
	Change           MessageType = 4
	Reset            MessageType = 5
	Step             MessageType = 6
	UpdateNode       MessageType = 7
	AddNode          MessageType = 8
	DeleteNode       MessageType = 9
	State            MessageType = 10
	CharacterDetails MessageType = 11
	CharacterStatic  MessageType = 12

	// Hello is this implementation's addition (SPEC_FULL.md §2.5): a
	// semver version-negotiation handshake. It is not part of spec §6's
	// original id table; a client that never sends it is treated as
	// speaking protocol version "0.1.0".
	Hello MessageType = 13
)

// DefaultProtocolVersion is assumed for any client that never sends HELLO
// (SPEC_FULL.md §2.5).
const DefaultProtocolVersion = "0.1.0"

// ErrProtocol wraps every framing failure reported by ReadFrame (short,
// zero-length or oversize frames) and every payload decode failure (spec
// §7 ProtocolError). An unknown message type is not reported here. The
// debug server drops a connection when ReadFrame fails; a payload that
// fails to decode is logged and the frame is ignored, and the connection
// stays open.
var ErrProtocol = fmt.Errorf("protocol error")

// MaxFrameLength bounds a single frame's payload to guard against a
// corrupt or hostile length prefix exhausting memory (spec §7
// ProtocolError: "oversize messages").
const MaxFrameLength = 16 << 20

// Frame is one decoded wire message: a type tag and its raw payload.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// WriteFrame writes `u32 length || u8 messageType || payload` to w, length
// little-endian and counting only the type byte plus payload (spec §6).
func WriteFrame(w io.Writer, msgType MessageType, payload []byte) error {
	length := uint32(1 + len(payload))
	header := make([]byte, 5)
	binary.LittleEndian.PutUint32(header[0:4], length)
	header[4] = byte(msgType)
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame from r, returning ErrProtocol on a short,
// zero-length, or oversize frame (spec §7).
func ReadFrame(r *bufio.Reader) (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == 0 {
		return Frame{}, fmt.Errorf("protocol: zero-length frame: %w", ErrProtocol)
	}
	if length > MaxFrameLength {
		return Frame{}, fmt.Errorf("protocol: frame of %d bytes exceeds max %d: %w", length, MaxFrameLength, ErrProtocol)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("protocol: short frame: %v: %w", err, ErrProtocol)
	}
	return Frame{Type: MessageType(body[0]), Payload: body[1:]}, nil
}

// --- payload encoders/decoders (spec §6) ---

// EncodeString writes `u16 length || utf8 bytes`.
func EncodeString(buf []byte, s string) []byte {
	b := []byte(s)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b)))
	return append(buf, b...)
}

// DecodeString reads a `u16 length || utf8 bytes` string starting at
// offset off, returning the string and the offset of the next field.
func DecodeString(buf []byte, off int) (string, int, error) {
	if off+2 > len(buf) {
		return "", off, fmt.Errorf("protocol: truncated string length: %w", ErrProtocol)
	}
	length := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	if off+length > len(buf) {
		return "", off, fmt.Errorf("protocol: truncated string body: %w", ErrProtocol)
	}
	return string(buf[off : off+length]), off + length, nil
}

// EncodePing returns an empty payload.
func EncodePing() []byte { return nil }

// EncodeSelect encodes a SELECT payload: `u64 characterId`.
func EncodeSelect(id character.Id) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(id))
	return buf
}

// DecodeSelect decodes a SELECT payload.
func DecodeSelect(payload []byte) (character.Id, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("protocol: SELECT payload must be 8 bytes, got %d: %w", len(payload), ErrProtocol)
	}
	return character.Id(binary.LittleEndian.Uint64(payload)), nil
}

// EncodePause encodes a PAUSE payload: `u8 bool`.
func EncodePause(paused bool) []byte {
	if paused {
		return []byte{1}
	}
	return []byte{0}
}

// DecodePause decodes a PAUSE payload.
func DecodePause(payload []byte) (bool, error) {
	if len(payload) != 1 {
		return false, fmt.Errorf("protocol: PAUSE payload must be 1 byte, got %d: %w", len(payload), ErrProtocol)
	}
	return payload[0] != 0, nil
}

// EncodeStep encodes a STEP payload: `i64 millis`.
func EncodeStep(millis int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(millis))
	return buf
}

// DecodeStep decodes a STEP payload.
func DecodeStep(payload []byte) (int64, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("protocol: STEP payload must be 8 bytes, got %d: %w", len(payload), ErrProtocol)
	}
	return int64(binary.LittleEndian.Uint64(payload)), nil
}

// EncodeChange encodes a CHANGE payload: `string zoneName`.
func EncodeChange(zoneName string) []byte {
	return EncodeString(nil, zoneName)
}

// DecodeChange decodes a CHANGE payload.
func DecodeChange(payload []byte) (string, error) {
	s, _, err := DecodeString(payload, 0)
	return s, err
}

// EncodeHello encodes a HELLO payload: `string semver`.
func EncodeHello(version string) []byte {
	return EncodeString(nil, version)
}

// DecodeHello decodes a HELLO payload.
func DecodeHello(payload []byte) (string, error) {
	s, _, err := DecodeString(payload, 0)
	return s, err
}

// EncodeNames encodes a NAMES payload: `u32 count || count × string`.
func EncodeNames(names []string) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(names)))
	for _, n := range names {
		buf = EncodeString(buf, n)
	}
	return buf
}

// CharacterState is one member's row within a STATE frame.
type CharacterState struct {
	Id          character.Id
	X, Y, Z     float32
	Orientation float32
	Attributes  map[string]string
}

// EncodeState encodes a STATE payload (spec §6).
func EncodeState(states []CharacterState) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(states)))
	for _, s := range states {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.Id))
		buf = appendFloat32(buf, s.X)
		buf = appendFloat32(buf, s.Y)
		buf = appendFloat32(buf, s.Z)
		buf = appendFloat32(buf, s.Orientation)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.Attributes)))
		for k, v := range s.Attributes {
			buf = EncodeString(buf, k)
			buf = EncodeString(buf, v)
		}
	}
	return buf
}

// AggroRow is one row of a CHARACTER_DETAILS aggroBlock.
type AggroRow struct {
	Id     character.Id
	Amount float32
}

// TreeSnapshot is one node of a CHARACTER_DETAILS treeBlock (spec §4.8).
type TreeSnapshot struct {
	Name              string
	ConditionRendering string
	DeltaMillis       int64
	Status            aicore.Status
	Running           bool
	Children          []TreeSnapshot
}

// EncodeCharacterDetails encodes a CHARACTER_DETAILS payload (spec §6).
func EncodeCharacterDetails(selected character.Id, aggro []AggroRow, tree TreeSnapshot) []byte {
	buf := binary.LittleEndian.AppendUint64(nil, uint64(selected))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(aggro)))
	for _, a := range aggro {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Id))
		buf = appendFloat32(buf, a.Amount)
	}
	buf = appendTreeSnapshot(buf, tree)
	return buf
}

func appendTreeSnapshot(buf []byte, n TreeSnapshot) []byte {
	buf = EncodeString(buf, n.Name)
	buf = EncodeString(buf, n.ConditionRendering)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.DeltaMillis))
	buf = append(buf, byte(n.Status))
	if n.Running {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.Children)))
	for _, c := range n.Children {
		buf = appendTreeSnapshot(buf, c)
	}
	return buf
}

func appendFloat32(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, float32bits(f))
}

func decodeFloat32(buf []byte, off int) (float32, int, error) {
	if off+4 > len(buf) {
		return 0, off, fmt.Errorf("protocol: truncated float32: %w", ErrProtocol)
	}
	return float32frombits(binary.LittleEndian.Uint32(buf[off : off+4])), off + 4, nil
}

// DecodeNames decodes a NAMES payload, the inverse of EncodeNames.
func DecodeNames(payload []byte) ([]string, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("protocol: truncated NAMES count: %w", ErrProtocol)
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	off := 4
	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		var s string
		var err error
		s, off, err = DecodeString(payload, off)
		if err != nil {
			return nil, err
		}
		names = append(names, s)
	}
	return names, nil
}

// DecodeState decodes a STATE payload, the inverse of EncodeState.
func DecodeState(payload []byte) ([]CharacterState, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("protocol: truncated STATE count: %w", ErrProtocol)
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	off := 4
	states := make([]CharacterState, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+8+4+4+4+4+2 > len(payload) {
			return nil, fmt.Errorf("protocol: truncated STATE row: %w", ErrProtocol)
		}
		id := character.Id(binary.LittleEndian.Uint64(payload[off : off+8]))
		off += 8
		var x, y, z, o float32
		var err error
		if x, off, err = decodeFloat32(payload, off); err != nil {
			return nil, err
		}
		if y, off, err = decodeFloat32(payload, off); err != nil {
			return nil, err
		}
		if z, off, err = decodeFloat32(payload, off); err != nil {
			return nil, err
		}
		if o, off, err = decodeFloat32(payload, off); err != nil {
			return nil, err
		}
		attrCount := binary.LittleEndian.Uint16(payload[off : off+2])
		off += 2
		attrs := make(map[string]string, attrCount)
		for a := uint16(0); a < attrCount; a++ {
			var k, v string
			if k, off, err = DecodeString(payload, off); err != nil {
				return nil, err
			}
			if v, off, err = DecodeString(payload, off); err != nil {
				return nil, err
			}
			attrs[k] = v
		}
		states = append(states, CharacterState{Id: id, X: x, Y: y, Z: z, Orientation: o, Attributes: attrs})
	}
	return states, nil
}

// DecodeCharacterDetails decodes a CHARACTER_DETAILS payload, the inverse
// of EncodeCharacterDetails.
func DecodeCharacterDetails(payload []byte) (character.Id, []AggroRow, TreeSnapshot, error) {
	if len(payload) < 8+4 {
		return 0, nil, TreeSnapshot{}, fmt.Errorf("protocol: truncated CHARACTER_DETAILS header: %w", ErrProtocol)
	}
	selected := character.Id(binary.LittleEndian.Uint64(payload[0:8]))
	off := 8
	aggroCount := binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	rows := make([]AggroRow, 0, aggroCount)
	for i := uint32(0); i < aggroCount; i++ {
		if off+8+4 > len(payload) {
			return 0, nil, TreeSnapshot{}, fmt.Errorf("protocol: truncated aggro row: %w", ErrProtocol)
		}
		id := character.Id(binary.LittleEndian.Uint64(payload[off : off+8]))
		off += 8
		var amount float32
		var err error
		if amount, off, err = decodeFloat32(payload, off); err != nil {
			return 0, nil, TreeSnapshot{}, err
		}
		rows = append(rows, AggroRow{Id: id, Amount: amount})
	}

	tree, _, err := decodeTreeSnapshot(payload, off)
	if err != nil {
		return 0, nil, TreeSnapshot{}, err
	}
	return selected, rows, tree, nil
}

func decodeTreeSnapshot(buf []byte, off int) (TreeSnapshot, int, error) {
	var n TreeSnapshot
	var err error
	if n.Name, off, err = DecodeString(buf, off); err != nil {
		return n, off, err
	}
	if n.ConditionRendering, off, err = DecodeString(buf, off); err != nil {
		return n, off, err
	}
	if off+8+1+1+4 > len(buf) {
		return n, off, fmt.Errorf("protocol: truncated tree snapshot header: %w", ErrProtocol)
	}
	n.DeltaMillis = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	n.Status = aicore.Status(buf[off])
	off++
	n.Running = buf[off] != 0
	off++
	childCount := binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	n.Children = make([]TreeSnapshot, 0, childCount)
	for i := uint32(0); i < childCount; i++ {
		var child TreeSnapshot
		child, off, err = decodeTreeSnapshot(buf, off)
		if err != nil {
			return n, off, err
		}
		n.Children = append(n.Children, child)
	}
	return n, off, nil
}
