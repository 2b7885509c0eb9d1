// Package message defines the records exchanged between the game clients
// and the server, and their binary encoding.
//
// A frame is made of a fixed header followed by the payload:
//
//	[type:1][session:4][channel:4][size:2][payload:size]
//
// All integers are big-endian. Session 0 is used before authentication and
// channel 0 is the lobby; games run on their own channel.
package message

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type identifies the record carried by a message. The values are part of
// the protocol and must not be renumbered without a protocol version bump.
type Type uint8

const (
	TypeAuthentication       Type = 1
	TypeAuthenticationOK     Type = 2
	TypeAuthenticationKO     Type = 3
	TypeKeepAlive            Type = 4
	TypeAcknowledgeKeepAlive Type = 5
	TypeHello                Type = 6
	TypeHelloOK              Type = 7

	TypeNewNamedGameRequest  Type = 10
	TypeNewRandomGameRequest Type = 11

	TypeGameOnHold           Type = 20
	TypeAcceptNamedGame      Type = 21
	TypeAcceptRandomGame     Type = 22
	TypeLaunchGame           Type = 23
	TypeReady                Type = 24
	TypeStart                Type = 25
	TypeGameUpdateFromClient Type = 26
	TypeGameUpdateFromServer Type = 27
	TypeGameOver             Type = 28
)

var typeNames = map[Type]string{
	TypeAuthentication:       "authentication",
	TypeAuthenticationOK:     "authentication_ok",
	TypeAuthenticationKO:     "authentication_ko",
	TypeKeepAlive:            "keep_alive",
	TypeAcknowledgeKeepAlive: "acknowledge_keep_alive",
	TypeHello:                "hello",
	TypeHelloOK:              "hello_ok",
	TypeNewNamedGameRequest:  "new_named_game_request",
	TypeNewRandomGameRequest: "new_random_game_request",
	TypeGameOnHold:           "game_on_hold",
	TypeAcceptNamedGame:      "accept_named_game",
	TypeAcceptRandomGame:     "accept_random_game",
	TypeLaunchGame:           "launch_game",
	TypeReady:                "ready",
	TypeStart:                "start",
	TypeGameUpdateFromClient: "game_update_from_client",
	TypeGameUpdateFromServer: "game_update_from_server",
	TypeGameOver:             "game_over",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// HeaderSize is the size of the frame header in bytes.
const HeaderSize = 11

// MaxPayloadSize is the largest payload a frame can carry.
const MaxPayloadSize = 1<<16 - 1

var (
	ErrShortFrame      = errors.New("frame is shorter than its header")
	ErrPayloadSize     = errors.New("payload size does not match the frame")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
)

// Message is a framed record.
type Message struct {
	Type    Type
	Session uint32
	Channel uint32
	Payload []byte
}

// New builds the message carrying r on the given session and channel.
func New(session, channel uint32, r Record) Message {
	return Message{
		Type:    r.Type(),
		Session: session,
		Channel: channel,
		Payload: r.AppendPayload(nil),
	}
}

// AppendFrame appends the encoded frame of m to b.
func (m Message) AppendFrame(b []byte) ([]byte, error) {
	if len(m.Payload) > MaxPayloadSize {
		return b, ErrPayloadTooLarge
	}

	b = append(b, byte(m.Type))
	b = binary.BigEndian.AppendUint32(b, m.Session)
	b = binary.BigEndian.AppendUint32(b, m.Channel)
	b = binary.BigEndian.AppendUint16(b, uint16(len(m.Payload)))

	return append(b, m.Payload...), nil
}

// ParseFrame decodes one frame occupying the whole of b. The payload of
// the returned message aliases b.
func ParseFrame(b []byte) (Message, error) {
	if len(b) < HeaderSize {
		return Message{}, ErrShortFrame
	}

	size := int(binary.BigEndian.Uint16(b[9:11]))
	if len(b)-HeaderSize != size {
		return Message{}, fmt.Errorf("%w: header says %d, got %d", ErrPayloadSize, size, len(b)-HeaderSize)
	}

	return Message{
		Type:    Type(b[0]),
		Session: binary.BigEndian.Uint32(b[1:5]),
		Channel: binary.BigEndian.Uint32(b[5:9]),
		Payload: b[HeaderSize:],
	}, nil
}
