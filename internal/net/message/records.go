package message

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
)

// ProtocolVersion is sent in authentication requests. The server rejects
// the clients speaking another version.
const ProtocolVersion uint16 = 1

// NoWinner is the winning player of a game ending in a draw.
const NoWinner uint8 = 255

// GameNameSize is the size of the name of a named game, NUL-padded.
const GameNameSize = 32

// MaxNameSize is the largest server name a HelloOK can carry.
const MaxNameSize = 255

var (
	ErrUnexpectedType = errors.New("unexpected message type")
	ErrInvalidAction  = errors.New("invalid player action")
	ErrInvalidPlayers = errors.New("invalid player count or index")
)

// Record is the content of a message.
type Record interface {
	Type() Type
	AppendPayload(b []byte) []byte
}

type decodable[T any] interface {
	*T
	Record
	decode(r *payloadReader)
}

// Decode parses the payload of m as a T.
func Decode[T any, P decodable[T]](m Message) (T, error) {
	var v T

	if want := P(&v).Type(); m.Type != want {
		return v, fmt.Errorf("%w: got %v, want %v", ErrUnexpectedType, m.Type, want)
	}

	r := payloadReader{b: m.Payload}
	P(&v).decode(&r)

	if r.err != nil {
		var zero T
		return zero, fmt.Errorf("decoding %v: %w", m.Type, r.err)
	}

	return v, nil
}

// TryDeserialize is Decode for callers that only need to know whether the
// message is valid.
func TryDeserialize[T any, P decodable[T]](m Message) (T, bool) {
	v, err := Decode[T, P](m)
	return v, err == nil
}

func appendAction(w *BitWriter, a component.PlayerAction) {
	w.Write(uint64(a.Nibble()), 4)
}

func readAction(r *BitReader) (component.PlayerAction, error) {
	n, err := r.Read(4)
	if err != nil {
		return component.PlayerAction{}, err
	}

	a, ok := component.ActionFromNibble(uint8(n))
	if !ok {
		return component.PlayerAction{}, fmt.Errorf("%w: movement %d", ErrInvalidAction, a.Movement)
	}
	return a, nil
}

// AuthenticationErrorCode tells why an authentication was rejected.
type AuthenticationErrorCode uint8

const (
	AuthenticationBadProtocol AuthenticationErrorCode = iota + 1
	AuthenticationBlacklisted
)

func (c AuthenticationErrorCode) String() string {
	switch c {
	case AuthenticationBadProtocol:
		return "bad protocol"
	case AuthenticationBlacklisted:
		return "blacklisted"
	}
	return fmt.Sprintf("error(%d)", uint8(c))
}

type Authentication struct {
	RequestToken    uint32
	ProtocolVersion uint16
}

func (Authentication) Type() Type { return TypeAuthentication }

func (m Authentication) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return binary.BigEndian.AppendUint16(b, m.ProtocolVersion)
}

func (m *Authentication) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.ProtocolVersion = r.u16()
}

type AuthenticationOK struct {
	RequestToken uint32
	Session      uint32
}

func (AuthenticationOK) Type() Type { return TypeAuthenticationOK }

func (m AuthenticationOK) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return binary.BigEndian.AppendUint32(b, m.Session)
}

func (m *AuthenticationOK) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.Session = r.u32()
}

type AuthenticationKO struct {
	RequestToken uint32
	ErrorCode    AuthenticationErrorCode
}

func (AuthenticationKO) Type() Type { return TypeAuthenticationKO }

func (m AuthenticationKO) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return append(b, byte(m.ErrorCode))
}

func (m *AuthenticationKO) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.ErrorCode = AuthenticationErrorCode(r.u8())
}

type KeepAlive struct{}

func (KeepAlive) Type() Type                    { return TypeKeepAlive }
func (KeepAlive) AppendPayload(b []byte) []byte { return b }
func (*KeepAlive) decode(*payloadReader)        {}

type AcknowledgeKeepAlive struct{}

func (AcknowledgeKeepAlive) Type() Type                    { return TypeAcknowledgeKeepAlive }
func (AcknowledgeKeepAlive) AppendPayload(b []byte) []byte { return b }
func (*AcknowledgeKeepAlive) decode(*payloadReader)        {}

type Hello struct {
	RequestToken uint32
}

func (Hello) Type() Type { return TypeHello }

func (m Hello) AppendPayload(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, m.RequestToken)
}

func (m *Hello) decode(r *payloadReader) {
	m.RequestToken = r.u32()
}

// Statistics describes the activity of a server.
type Statistics struct {
	GamesNow          uint32
	GamesLastHour     uint32
	GamesLastDay      uint32
	GamesLastMonth    uint32
	SessionsNow       uint32
	SessionsLastHour  uint32
	SessionsLastDay   uint32
	SessionsLastMonth uint32
}

// The fields of HelloOK after the version are a list of records
// [id:1][size:1][value:size], so that clients can skip the records they do
// not know. The ids must never be reordered.
const (
	helloGamesNow uint8 = iota
	helloGamesLastHour
	helloGamesLastDay
	helloGamesLastMonth
	helloSessionsNow
	helloSessionsLastHour
	helloSessionsLastDay
	helloSessionsLastMonth
	helloName
)

type HelloOK struct {
	RequestToken uint32
	Version      uint32
	Stats        Statistics
	Name         string
}

func (HelloOK) Type() Type { return TypeHelloOK }

func (s *Statistics) fields() [8]*uint32 {
	return [8]*uint32{
		&s.GamesNow, &s.GamesLastHour, &s.GamesLastDay, &s.GamesLastMonth,
		&s.SessionsNow, &s.SessionsLastHour, &s.SessionsLastDay, &s.SessionsLastMonth,
	}
}

// AppendPayload panics if the name is longer than MaxNameSize.
func (m HelloOK) AppendPayload(b []byte) []byte {
	if len(m.Name) > MaxNameSize {
		panic(fmt.Sprintf("message: server name is too long (%d bytes)", len(m.Name)))
	}

	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	b = binary.BigEndian.AppendUint32(b, m.Version)

	for id, v := range m.Stats.fields() {
		b = append(b, uint8(id), 4)
		b = binary.BigEndian.AppendUint32(b, *v)
	}

	b = append(b, helloName, uint8(len(m.Name)))
	return append(b, m.Name...)
}

func (m *HelloOK) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.Version = r.u32()

	fields := m.Stats.fields()

	for r.err == nil && r.remaining() != 0 {
		id := r.u8()
		value := r.raw(int(r.u8()))

		switch {
		case r.err != nil:
		case id == helloName:
			m.Name = string(value)
		case int(id) < len(fields) && len(value) == 4:
			*fields[id] = binary.BigEndian.Uint32(value)
		}
	}
}

// GameName is the NUL-padded name of a named game.
type GameName [GameNameSize]byte

// MakeGameName truncates s to GameNameSize bytes.
func MakeGameName(s string) GameName {
	var n GameName
	copy(n[:], s)
	return n
}

// String returns the name without its padding.
func (n GameName) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

type NewNamedGameRequest struct {
	RequestToken uint32
	Name         GameName
}

func (NewNamedGameRequest) Type() Type { return TypeNewNamedGameRequest }

func (m NewNamedGameRequest) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return append(b, m.Name[:]...)
}

func (m *NewNamedGameRequest) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	copy(m.Name[:], r.raw(GameNameSize))
}

type NewRandomGameRequest struct {
	RequestToken uint32
}

func (NewRandomGameRequest) Type() Type { return TypeNewRandomGameRequest }

func (m NewRandomGameRequest) AppendPayload(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, m.RequestToken)
}

func (m *NewRandomGameRequest) decode(r *payloadReader) {
	m.RequestToken = r.u32()
}

type GameOnHold struct {
	RequestToken uint32
	EncounterID  uint32
	PlayerCount  uint8
}

func (GameOnHold) Type() Type { return TypeGameOnHold }

func (m GameOnHold) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	b = binary.BigEndian.AppendUint32(b, m.EncounterID)
	return append(b, m.PlayerCount)
}

func (m *GameOnHold) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.EncounterID = r.u32()
	m.PlayerCount = r.u8()
}

type AcceptNamedGame struct {
	RequestToken uint32
	EncounterID  uint32
}

func (AcceptNamedGame) Type() Type { return TypeAcceptNamedGame }

func (m AcceptNamedGame) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return binary.BigEndian.AppendUint32(b, m.EncounterID)
}

func (m *AcceptNamedGame) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.EncounterID = r.u32()
}

type AcceptRandomGame struct {
	RequestToken uint32
	EncounterID  uint32
}

func (AcceptRandomGame) Type() Type { return TypeAcceptRandomGame }

func (m AcceptRandomGame) AppendPayload(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	return binary.BigEndian.AppendUint32(b, m.EncounterID)
}

func (m *AcceptRandomGame) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.EncounterID = r.u32()
}

// LaunchGame gives a player everything needed to build the contest. The
// player count and index are packed on two bits each.
type LaunchGame struct {
	RequestToken         uint32
	Seed                 uint64
	GameChannel          uint32
	Features             uint32
	PlayerCount          uint8
	PlayerIndex          uint8
	BrickWallProbability uint8
	Width                uint8
	Height               uint8
}

func (LaunchGame) Type() Type { return TypeLaunchGame }

// AppendPayload panics if the player count is not in [1, 4] or if the
// player index is not in [0, 3].
func (m LaunchGame) AppendPayload(b []byte) []byte {
	if m.PlayerCount == 0 || m.PlayerCount > config.MaxPlayerCount || m.PlayerIndex >= config.MaxPlayerCount {
		panic(fmt.Sprintf("message: invalid launch for player %d of %d", m.PlayerIndex, m.PlayerCount))
	}

	b = binary.BigEndian.AppendUint32(b, m.RequestToken)
	b = binary.BigEndian.AppendUint64(b, m.Seed)
	b = binary.BigEndian.AppendUint32(b, m.GameChannel)
	b = binary.BigEndian.AppendUint32(b, m.Features)

	w := NewBitWriter(b)
	w.Write(uint64(m.PlayerCount-1), 2)
	w.Write(uint64(m.PlayerIndex), 2)
	b = w.Flush()

	return append(b, m.BrickWallProbability, m.Width, m.Height)
}

func (m *LaunchGame) decode(r *payloadReader) {
	m.RequestToken = r.u32()
	m.Seed = r.u64()
	m.GameChannel = r.u32()
	m.Features = r.u32()

	r.bits(func(br *BitReader) error {
		count, err := br.Read(2)
		if err != nil {
			return err
		}
		index, err := br.Read(2)
		if err != nil {
			return err
		}

		if index > count {
			return fmt.Errorf("%w: player %d of %d", ErrInvalidPlayers, index, count+1)
		}

		m.PlayerCount = uint8(count) + 1
		m.PlayerIndex = uint8(index)
		return nil
	})

	m.BrickWallProbability = r.u8()
	m.Width = r.u8()
	m.Height = r.u8()
}

type Ready struct{}

func (Ready) Type() Type                    { return TypeReady }
func (Ready) AppendPayload(b []byte) []byte { return b }
func (*Ready) decode(*payloadReader)        {}

type Start struct{}

func (Start) Type() Type                    { return TypeStart }
func (Start) AppendPayload(b []byte) []byte { return b }
func (*Start) decode(*payloadReader)        {}

const (
	// MaxActionsPerUpdate is the largest number of ticks a game update can
	// carry for one player.
	MaxActionsPerUpdate = 255
	// MaxUpdateSize is the payload size above which game updates stop
	// growing. Both sides cut their updates at this size.
	MaxUpdateSize = 480
)

// GameUpdateFromClient holds the actions of one player, one per tick,
// starting at FromTick.
type GameUpdateFromClient struct {
	FromTick uint32
	Actions  []component.PlayerAction
}

func (GameUpdateFromClient) Type() Type { return TypeGameUpdateFromClient }

// AppendPayload panics if there are more than MaxActionsPerUpdate actions.
func (m GameUpdateFromClient) AppendPayload(b []byte) []byte {
	if len(m.Actions) > MaxActionsPerUpdate {
		panic(fmt.Sprintf("message: too many actions in update (%d)", len(m.Actions)))
	}

	b = binary.BigEndian.AppendUint32(b, m.FromTick)
	b = append(b, uint8(len(m.Actions)))

	w := NewBitWriter(b)
	for _, a := range m.Actions {
		appendAction(w, a)
	}
	return w.Flush()
}

// Size returns the size of the payload of the message.
func (m GameUpdateFromClient) Size() int {
	return 5 + (len(m.Actions)+1)/2
}

func (m *GameUpdateFromClient) decode(r *payloadReader) {
	m.FromTick = r.u32()
	count := int(r.u8())

	r.bits(func(br *BitReader) error {
		m.Actions = make([]component.PlayerAction, count)
		for i := range m.Actions {
			a, err := readAction(br)
			if err != nil {
				return err
			}
			m.Actions[i] = a
		}
		return nil
	})
}

// GameUpdateFromServer holds the actions of every player, indexed by
// player then by tick, starting at FromTick. Every player has the same
// number of actions.
type GameUpdateFromServer struct {
	FromTick uint32
	Actions  [][]component.PlayerAction
}

func (GameUpdateFromServer) Type() Type { return TypeGameUpdateFromServer }

// TickCount returns the number of ticks covered by the update.
func (m GameUpdateFromServer) TickCount() int {
	if len(m.Actions) == 0 {
		return 0
	}
	return len(m.Actions[0])
}

// AppendPayload panics if the players do not have the same number of
// actions, or if there are too many players or actions.
func (m GameUpdateFromServer) AppendPayload(b []byte) []byte {
	ticks := m.TickCount()

	if len(m.Actions) > 255 || ticks > MaxActionsPerUpdate {
		panic(fmt.Sprintf("message: update too large (%d players, %d ticks)", len(m.Actions), ticks))
	}

	b = binary.BigEndian.AppendUint32(b, m.FromTick)
	b = append(b, uint8(len(m.Actions)), uint8(ticks))

	w := NewBitWriter(b)
	for p, actions := range m.Actions {
		if len(actions) != ticks {
			panic(fmt.Sprintf("message: player %d has %d actions, want %d", p, len(actions), ticks))
		}
		for _, a := range actions {
			appendAction(w, a)
		}
	}
	return w.Flush()
}

// Size returns the size of the payload of the message.
func (m GameUpdateFromServer) Size() int {
	return 6 + (len(m.Actions)*m.TickCount()+1)/2
}

func (m *GameUpdateFromServer) decode(r *payloadReader) {
	m.FromTick = r.u32()
	players := int(r.u8())
	ticks := int(r.u8())

	r.bits(func(br *BitReader) error {
		m.Actions = make([][]component.PlayerAction, players)
		for p := range m.Actions {
			m.Actions[p] = make([]component.PlayerAction, ticks)
			for t := range m.Actions[p] {
				a, err := readAction(br)
				if err != nil {
					return err
				}
				m.Actions[p][t] = a
			}
		}
		return nil
	})
}

type GameOver struct {
	WinningPlayer uint8
}

func (GameOver) Type() Type { return TypeGameOver }

func (m GameOver) AppendPayload(b []byte) []byte {
	return append(b, m.WinningPlayer)
}

func (m *GameOver) decode(r *payloadReader) {
	m.WinningPlayer = r.u8()
}

// IsDraw reports whether nobody won.
func (m GameOver) IsDraw() bool {
	return m.WinningPlayer == NoWinner
}
