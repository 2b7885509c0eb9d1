package message

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tomz197/bomb-arena/internal/game/component"
)

func frame(t *testing.T, r Record) Message {
	t.Helper()

	b, err := New(12, 34, r).AppendFrame(nil)
	if err != nil {
		t.Fatalf("AppendFrame(%v): %v", r.Type(), err)
	}

	m, err := ParseFrame(b)
	if err != nil {
		t.Fatalf("ParseFrame(%v): %v", r.Type(), err)
	}
	if m.Session != 12 || m.Channel != 34 {
		t.Fatalf("session/channel = %d/%d, want 12/34", m.Session, m.Channel)
	}
	return m
}

func roundTrip[T any, P decodable[T]](t *testing.T, want T) {
	t.Helper()

	got, err := Decode[T, P](frame(t, P(&want)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip of %T:\n got %+v\nwant %+v", want, got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, Authentication{RequestToken: math.MaxUint32, ProtocolVersion: ProtocolVersion})
	roundTrip(t, AuthenticationOK{RequestToken: 1, Session: math.MaxUint32})
	roundTrip(t, AuthenticationKO{RequestToken: 7, ErrorCode: AuthenticationBlacklisted})
	roundTrip(t, KeepAlive{})
	roundTrip(t, AcknowledgeKeepAlive{})
	roundTrip(t, Hello{RequestToken: 99})
	roundTrip(t, HelloOK{
		RequestToken: 5,
		Version:      math.MaxUint32,
		Stats: Statistics{
			GamesNow: 1, GamesLastHour: 2, GamesLastDay: 3, GamesLastMonth: math.MaxUint32,
			SessionsNow: 5, SessionsLastHour: 6, SessionsLastDay: 7, SessionsLastMonth: 8,
		},
		Name: "arena\x00east",
	})
	roundTrip(t, NewNamedGameRequest{RequestToken: 3, Name: MakeGameName("friday")})
	roundTrip(t, NewRandomGameRequest{RequestToken: 4})
	roundTrip(t, GameOnHold{RequestToken: 8, EncounterID: 9, PlayerCount: 3})
	roundTrip(t, AcceptNamedGame{RequestToken: 10, EncounterID: 11})
	roundTrip(t, AcceptRandomGame{RequestToken: 12, EncounterID: 13})
	roundTrip(t, LaunchGame{
		RequestToken:         14,
		Seed:                 math.MaxUint64,
		GameChannel:          15,
		Features:             1,
		PlayerCount:          4,
		PlayerIndex:          3,
		BrickWallProbability: 60,
		Width:                13,
		Height:               11,
	})
	roundTrip(t, Ready{})
	roundTrip(t, Start{})
	roundTrip(t, GameUpdateFromClient{
		FromTick: 1000,
		Actions: []component.PlayerAction{
			{Movement: component.MovementUp},
			{Movement: component.MovementRight, DropBomb: true},
			{},
		},
	})
	roundTrip(t, GameUpdateFromServer{
		FromTick: 42,
		Actions: [][]component.PlayerAction{
			{{Movement: component.MovementDown}, {DropBomb: true}},
			{{Movement: component.MovementLeft, DropBomb: true}, {}},
			{{}, {Movement: component.MovementUp}},
		},
	})
	roundTrip(t, GameOver{WinningPlayer: 2})
	roundTrip(t, GameOver{WinningPlayer: NoWinner})
}

func TestClientUpdateLayout(t *testing.T) {
	m := New(0, 0, GameUpdateFromClient{
		FromTick: 0x01020304,
		Actions: []component.PlayerAction{
			{Movement: component.MovementUp},
			{Movement: component.MovementLeft, DropBomb: true},
			{Movement: component.MovementRight},
		},
	})

	want := []byte{1, 2, 3, 4, 3, 0xB1, 0x04}
	if !bytes.Equal(m.Payload, want) {
		t.Errorf("payload = % x, want % x", m.Payload, want)
	}
}

func TestLaunchGamePacksPlayers(t *testing.T) {
	m := New(0, 0, LaunchGame{PlayerCount: 4, PlayerIndex: 2, Width: 13, Height: 11})

	if len(m.Payload) != 4+8+4+4+1+3 {
		t.Fatalf("payload size = %d", len(m.Payload))
	}
	if got := m.Payload[20]; got != 0x0B {
		t.Errorf("packed players = %#x, want 0x0b", got)
	}
}

func TestEmptyServerUpdate(t *testing.T) {
	m := New(0, 0, GameUpdateFromServer{FromTick: 3, Actions: make([][]component.PlayerAction, 2)})

	got, err := Decode[GameUpdateFromServer](m)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Actions) != 2 || got.TickCount() != 0 {
		t.Errorf("decoded %d players with %d ticks, want 2 players with 0 ticks", len(got.Actions), got.TickCount())
	}
}

func TestHelloOKSkipsUnknownRecords(t *testing.T) {
	m := New(0, 0, HelloOK{RequestToken: 1, Version: 2, Name: "x"})
	m.Payload = append(m.Payload, 200, 3, 'a', 'b', 'c')

	got, err := Decode[HelloOK](m)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "x" {
		t.Errorf("name = %q, want %q", got.Name, "x")
	}
}

func TestHelloOKPanicsOnLongName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("encoding a long name did not panic")
		}
	}()

	New(0, 0, HelloOK{Name: string(make([]byte, MaxNameSize+1))})
}

func TestGameName(t *testing.T) {
	if got := MakeGameName("lobby").String(); got != "lobby" {
		t.Errorf("name = %q, want %q", got, "lobby")
	}

	long := string(bytes.Repeat([]byte{'a'}, GameNameSize+5))
	if got := MakeGameName(long).String(); len(got) != GameNameSize {
		t.Errorf("long name has %d bytes, want %d", len(got), GameNameSize)
	}
}

func TestDecodeRejectsOtherType(t *testing.T) {
	_, err := Decode[Hello](New(0, 0, KeepAlive{}))
	if !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("err = %v, want ErrUnexpectedType", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := New(0, 0, LaunchGame{PlayerCount: 2, Width: 9, Height: 9})

	for n := 0; n < len(full.Payload); n++ {
		m := full
		m.Payload = full.Payload[:n]
		if _, ok := TryDeserialize[LaunchGame](m); ok {
			t.Errorf("payload truncated to %d bytes was accepted", n)
		}
	}

	update := New(0, 0, GameUpdateFromClient{Actions: make([]component.PlayerAction, 4)})
	update.Payload = update.Payload[:len(update.Payload)-1]
	if _, ok := TryDeserialize[GameUpdateFromClient](update); ok {
		t.Errorf("update missing its actions was accepted")
	}
}

func TestDecodeInvalidMovement(t *testing.T) {
	m := Message{Type: TypeGameUpdateFromClient, Payload: []byte{0, 0, 0, 0, 1, 0x0E}}

	if _, err := Decode[GameUpdateFromClient](m); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want ErrInvalidAction", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	types := []Type{
		TypeAuthentication, TypeHelloOK, TypeLaunchGame,
		TypeGameUpdateFromClient, TypeGameUpdateFromServer,
	}

	// A deterministic stream of bytes: decoding must fail cleanly or
	// succeed, never panic.
	state := uint32(1)
	for i := 0; i != 2000; i++ {
		size := int(state % 24)
		payload := make([]byte, size)
		for j := range payload {
			state = state*1664525 + 1013904223
			payload[j] = byte(state >> 24)
		}
		state = state*1664525 + 1013904223

		m := Message{Type: types[i%len(types)], Payload: payload}
		switch m.Type {
		case TypeAuthentication:
			TryDeserialize[Authentication](m)
		case TypeHelloOK:
			TryDeserialize[HelloOK](m)
		case TypeLaunchGame:
			TryDeserialize[LaunchGame](m)
		case TypeGameUpdateFromClient:
			TryDeserialize[GameUpdateFromClient](m)
		case TypeGameUpdateFromServer:
			TryDeserialize[GameUpdateFromServer](m)
		}
	}
}

func TestParseFrameErrors(t *testing.T) {
	if _, err := ParseFrame(make([]byte, HeaderSize-1)); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short frame: err = %v", err)
	}

	b, _ := New(1, 2, Hello{RequestToken: 3}).AppendFrame(nil)
	if _, err := ParseFrame(b[:len(b)-1]); !errors.Is(err, ErrPayloadSize) {
		t.Errorf("cut frame: err = %v", err)
	}
	if _, err := ParseFrame(append(b, 0)); !errors.Is(err, ErrPayloadSize) {
		t.Errorf("long frame: err = %v", err)
	}

	big := Message{Payload: make([]byte, MaxPayloadSize+1)}
	if _, err := big.AppendFrame(nil); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("large payload: err = %v", err)
	}
}

func TestBits(t *testing.T) {
	w := NewBitWriter(nil)
	w.Write(5, 3)
	w.Write(1, 1)
	w.Write(0xABCD, 16)
	w.Write(math.MaxUint64, 64)
	b := w.Flush()

	if len(b) != 11 {
		t.Fatalf("wrote %d bytes, want 11", len(b))
	}

	r := NewBitReader(b)
	for _, c := range []struct {
		n    uint
		want uint64
	}{{3, 5}, {1, 1}, {16, 0xABCD}, {64, math.MaxUint64}} {
		got, err := r.Read(c.n)
		if err != nil || got != c.want {
			t.Errorf("Read(%d) = %#x, %v; want %#x", c.n, got, err, c.want)
		}
	}

	if _, err := r.Read(5); !errors.Is(err, ErrNotEnoughBits) {
		t.Errorf("read past the end: err = %v", err)
	}
}

func TestUpdateActionsUseTheActionNibble(t *testing.T) {
	actions := []component.PlayerAction{
		{Movement: component.MovementLeft, DropBomb: true},
		{Movement: component.MovementDown},
		{DropBomb: true},
	}
	payload := GameUpdateFromClient{FromTick: 9, Actions: actions}.AppendPayload(nil)

	packed := payload[5:]
	if len(packed) != 2 {
		t.Fatalf("%d bytes of actions, want 2", len(packed))
	}
	for i, a := range actions {
		if got := packed[i/2]>>(4*(i%2))&0x0f; got != a.Nibble() {
			t.Errorf("action %d encoded as %#x, want %#x", i, got, a.Nibble())
		}
	}
}
