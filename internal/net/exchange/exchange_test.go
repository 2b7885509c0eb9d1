package exchange

import (
	"testing"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
)

type fixture struct {
	t      *testing.T
	sched  *schedule.Manual
	stream *transport.MessageStream
	server transport.Conn
}

func newFixture(t *testing.T) *fixture {
	client, server := transport.NewPipe()

	return &fixture{
		t:      t,
		sched:  schedule.NewManual(time.Unix(1000, 0)),
		stream: transport.NewMessageStream(client),
		server: server,
	}
}

// sent returns the messages received by the server since the last call.
func (f *fixture) sent() []message.Message {
	var out []message.Message

	for {
		select {
		case m := <-f.server.Messages():
			out = append(out, m)
		default:
			return out
		}
	}
}

func (f *fixture) last() message.Message {
	f.t.Helper()

	sent := f.sent()
	if len(sent) == 0 {
		f.t.Fatalf("nothing was sent")
	}
	return sent[len(sent)-1]
}

func (f *fixture) reply(session, channel uint32, r message.Record) {
	f.t.Helper()

	if err := f.server.Send(message.New(session, channel, r)); err != nil {
		f.t.Fatalf("server send: %v", err)
	}
	f.stream.Poll()
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthentication(f.stream, f.sched)

	var session uint32
	auth.Authenticated.Connect(func(s uint32) { session = s })

	auth.Start()
	f.sched.Tick(3 * time.Second)

	sent := f.sent()
	if len(sent) != 4 {
		t.Fatalf("sent %d requests in 3s, want 4", len(sent))
	}

	request, ok := message.TryDeserialize[message.Authentication](sent[0])
	if !ok || request.ProtocolVersion != message.ProtocolVersion {
		t.Fatalf("request = %+v", sent[0])
	}

	f.reply(0, 0, message.AuthenticationOK{RequestToken: request.RequestToken + 1, Session: 9})
	if session != 0 {
		t.Fatalf("authenticated with the wrong token")
	}

	f.reply(0, 0, message.AuthenticationOK{RequestToken: request.RequestToken, Session: 42})
	if session != 42 {
		t.Fatalf("session = %d, want 42", session)
	}

	f.sched.Tick(5 * time.Second)
	if n := len(f.sent()); n != 0 {
		t.Errorf("%d requests sent after authentication", n)
	}
}

func TestAuthenticationError(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthentication(f.stream, f.sched)

	var code message.AuthenticationErrorCode
	auth.Error.Connect(func(c message.AuthenticationErrorCode) { code = c })

	auth.Start()
	request, _ := message.TryDeserialize[message.Authentication](f.last())

	f.reply(0, 0, message.AuthenticationKO{RequestToken: request.RequestToken, ErrorCode: message.AuthenticationBadProtocol})

	if code != message.AuthenticationBadProtocol {
		t.Errorf("code = %v, want bad protocol", code)
	}
}

func TestHelloRefresh(t *testing.T) {
	f := newFixture(t)
	hello := NewHello(f.stream, f.sched)

	var names []string
	hello.Updated.Connect(func(ok message.HelloOK) { names = append(names, ok.Name) })

	hello.Start()
	f.sched.Tick(2 * time.Second)

	sent := f.sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d hellos in 2s, want 3", len(sent))
	}

	request, _ := message.TryDeserialize[message.Hello](sent[2])
	f.reply(0, 0, message.HelloOK{RequestToken: request.RequestToken, Name: "east"})

	if len(names) != 1 || names[0] != "east" {
		t.Fatalf("updates = %v, want [east]", names)
	}

	f.sched.Tick(HelloRefreshInterval - time.Millisecond)
	if n := len(f.sent()); n != 0 {
		t.Fatalf("%d hellos sent before the refresh", n)
	}

	f.sched.Tick(time.Millisecond)
	if n := len(f.sent()); n != 1 {
		t.Fatalf("%d hellos sent at the refresh, want 1", n)
	}

	// Starting again while a request is pending changes nothing.
	hello.Start()
	if n := len(f.sent()); n != 0 {
		t.Errorf("restart sent %d hellos", n)
	}
}

func TestKeepAliveDisconnects(t *testing.T) {
	f := newFixture(t)
	keepAlive := NewKeepAlive(f.stream, f.sched)

	disconnected := false
	keepAlive.Disconnected.Connect(func(struct{}) { disconnected = true })

	keepAlive.Start(7)

	if m := f.last(); m.Type != message.TypeKeepAlive || m.Session != 7 {
		t.Fatalf("first message = %v on session %d", m.Type, m.Session)
	}

	f.sched.Tick(time.Duration(KeepAliveMaxRetryCount-1) * KeepAliveInterval)
	if disconnected {
		t.Fatalf("disconnected before the last retry")
	}

	f.sched.Tick(KeepAliveInterval)
	if !disconnected {
		t.Fatalf("not disconnected after %d retries", KeepAliveMaxRetryCount)
	}
}

func TestKeepAliveStaysConnectedWhenAcknowledged(t *testing.T) {
	f := newFixture(t)
	keepAlive := NewKeepAlive(f.stream, f.sched)

	disconnected := false
	keepAlive.Disconnected.Connect(func(struct{}) { disconnected = true })

	keepAlive.Start(7)
	for i := 0; i != 3*KeepAliveMaxRetryCount; i++ {
		f.reply(7, 0, message.AcknowledgeKeepAlive{})
		f.sched.Tick(KeepAliveInterval)
	}

	if disconnected {
		t.Errorf("disconnected although every ping was acknowledged")
	}
}

func TestNewNamedGame(t *testing.T) {
	f := newFixture(t)
	newGame := NewNewGame(f.stream, f.sched)

	var (
		proposals []Proposal
		launched  *message.LaunchGame
	)
	newGame.GameProposal.Connect(func(p Proposal) { proposals = append(proposals, p) })
	newGame.LaunchGame.Connect(func(l message.LaunchGame) { launched = &l })

	newGame.StartNamed(3, message.MakeGameName("friday"))

	request, ok := message.TryDeserialize[message.NewNamedGameRequest](f.last())
	if !ok || request.Name.String() != "friday" {
		t.Fatalf("request = %+v", request)
	}

	token := request.RequestToken
	f.reply(3, 0, message.GameOnHold{RequestToken: token, EncounterID: 77, PlayerCount: 2})

	if len(proposals) != 1 || proposals[0] != (Proposal{EncounterID: 77, PlayerCount: 2}) {
		t.Fatalf("proposals = %+v", proposals)
	}

	// Not accepted yet.
	f.reply(3, 0, message.LaunchGame{RequestToken: token, PlayerCount: 2, Width: 9, Height: 9})
	if launched != nil {
		t.Fatalf("launched before accepting")
	}

	newGame.Accept()
	f.sched.Tick(NewGameInterval)

	accept, ok := message.TryDeserialize[message.AcceptNamedGame](f.last())
	if !ok || accept.EncounterID != 77 || accept.RequestToken != token {
		t.Fatalf("accept = %+v", accept)
	}

	f.reply(3, 0, message.LaunchGame{RequestToken: token, GameChannel: 12, PlayerCount: 2, PlayerIndex: 1, Width: 9, Height: 9})
	if launched == nil || launched.GameChannel != 12 || launched.PlayerIndex != 1 {
		t.Fatalf("launched = %+v", launched)
	}

	f.sched.Tick(5 * NewGameInterval)
	if n := len(f.sent()); n != 0 {
		t.Errorf("%d requests sent after the launch", n)
	}
}

func TestNewGameDropsInvalidLaunch(t *testing.T) {
	f := newFixture(t)
	newGame := NewNewGame(f.stream, f.sched)

	var launched *message.LaunchGame
	newGame.LaunchGame.Connect(func(l message.LaunchGame) { launched = &l })

	newGame.StartNamed(3, message.MakeGameName("friday"))
	request, ok := message.TryDeserialize[message.NewNamedGameRequest](f.last())
	if !ok {
		t.Fatalf("named game was not requested")
	}
	token := request.RequestToken
	f.reply(3, 0, message.GameOnHold{RequestToken: token, EncounterID: 77, PlayerCount: 2})
	newGame.Accept()
	f.sched.Tick(NewGameInterval)

	for _, l := range []message.LaunchGame{
		{RequestToken: token, GameChannel: 12, PlayerCount: 2, Width: 3, Height: 3},
		{RequestToken: token, GameChannel: 12, PlayerCount: 2, Width: 9, Height: 9, BrickWallProbability: 200},
	} {
		f.reply(3, 0, l)
		if launched != nil {
			t.Fatalf("invalid launch %+v was emitted", l)
		}
	}

	// The request is still pending and a valid launch goes through.
	f.sched.Tick(NewGameInterval)
	if _, ok := message.TryDeserialize[message.AcceptNamedGame](f.last()); !ok {
		t.Fatalf("accept no longer sent after an invalid launch")
	}

	f.reply(3, 0, message.LaunchGame{RequestToken: token, GameChannel: 12, PlayerCount: 2, Width: 9, Height: 9})
	if launched == nil || launched.GameChannel != 12 {
		t.Fatalf("launched = %+v", launched)
	}
	if err := LaunchFingerprint(*launched).Validate(); err != nil {
		t.Errorf("emitted launch is invalid: %v", err)
	}
}

func TestNewRandomGameAcceptsRandomEncounter(t *testing.T) {
	f := newFixture(t)
	newGame := NewNewGame(f.stream, f.sched)

	newGame.StartRandom(3)
	request, ok := message.TryDeserialize[message.NewRandomGameRequest](f.last())
	if !ok {
		t.Fatalf("random game was not requested")
	}

	f.reply(3, 0, message.GameOnHold{RequestToken: request.RequestToken, EncounterID: 5, PlayerCount: 3})
	newGame.Accept()
	f.sched.Tick(NewGameInterval)

	if _, ok := message.TryDeserialize[message.AcceptRandomGame](f.last()); !ok {
		t.Errorf("random encounter was not accepted with accept_random_game")
	}
}

func clientUpdate(t *testing.T, m message.Message) message.GameUpdateFromClient {
	t.Helper()

	u, err := message.Decode[message.GameUpdateFromClient](m)
	if err != nil {
		t.Fatalf("decoding %v: %v", m.Type, err)
	}
	return u
}

func serverUpdate(from uint32, ticks int, players int) message.GameUpdateFromServer {
	actions := make([][]component.PlayerAction, players)
	for p := range actions {
		actions[p] = make([]component.PlayerAction, ticks)
		for i := range actions[p] {
			actions[p][i] = component.PlayerAction{Movement: component.MovementLeft}
		}
	}
	return message.GameUpdateFromServer{FromTick: from, Actions: actions}
}

func TestGameUpdate(t *testing.T) {
	f := newFixture(t)
	update := NewGameUpdate(f.stream, f.sched, 3, 40, 2)

	started := false
	var updates []ServerUpdate
	update.Started.Connect(func(struct{}) { started = true })
	update.Updated.Connect(func(u ServerUpdate) { updates = append(updates, u) })

	update.Start()
	f.sched.Tick(GameUpdateInterval)

	sent := f.sent()
	if len(sent) != 2 || sent[0].Type != message.TypeReady || sent[0].Channel != 40 {
		t.Fatalf("sent %d messages before the start, want 2 ready", len(sent))
	}

	f.reply(3, 40, message.Start{})
	if !started {
		t.Fatalf("not started")
	}

	up := component.PlayerAction{Movement: component.MovementUp}
	bomb := component.PlayerAction{DropBomb: true}

	update.Push(up)
	if u := clientUpdate(t, f.last()); u.FromTick != 0 || len(u.Actions) != 1 {
		t.Fatalf("first update = %+v", u)
	}

	update.Push(bomb)
	if n := len(f.sent()); n != 0 {
		t.Fatalf("second push sent %d messages before the interval", n)
	}

	f.sched.Tick(GameUpdateInterval)
	if u := clientUpdate(t, f.last()); len(u.Actions) != 2 || u.Actions[1] != bomb {
		t.Fatalf("update = %+v, want both actions", u)
	}

	f.reply(3, 40, serverUpdate(0, 1, 2))

	if len(updates) != 1 || updates[0].FromTick != 0 || updates[0].TickCount() != 1 {
		t.Fatalf("updates = %+v", updates)
	}
	if update.ConfirmedTick() != 1 || update.PendingCount() != 1 {
		t.Fatalf("confirmed %d, pending %d; want 1, 1", update.ConfirmedTick(), update.PendingCount())
	}

	f.sched.Tick(GameUpdateInterval)
	if u := clientUpdate(t, f.last()); u.FromTick != 1 || len(u.Actions) != 1 || u.Actions[0] != bomb {
		t.Fatalf("update after confirmation = %+v", u)
	}

	// Out of sync, wrong player count and unsent ticks are ignored.
	f.reply(3, 40, serverUpdate(0, 1, 2))
	f.reply(3, 40, serverUpdate(1, 1, 3))
	f.reply(3, 40, serverUpdate(1, 2, 2))

	if len(updates) != 1 {
		t.Fatalf("%d updates, want the invalid ones to be ignored", len(updates))
	}
}

func TestGameUpdateIsCapped(t *testing.T) {
	f := newFixture(t)
	update := NewGameUpdate(f.stream, f.sched, 3, 40, 2)

	update.Start()
	f.reply(3, 40, message.Start{})

	for i := 0; i != 1000; i++ {
		update.Push(component.PlayerAction{Movement: component.MovementDown})
	}
	f.sched.Tick(GameUpdateInterval)

	u := clientUpdate(t, f.last())
	if len(u.Actions) != message.MaxActionsPerUpdate {
		t.Fatalf("update has %d actions, want %d", len(u.Actions), message.MaxActionsPerUpdate)
	}
	if size := len(message.New(0, 0, u).Payload); size > MaxUpdateSize {
		t.Errorf("update payload is %d bytes", size)
	}

	f.reply(3, 40, serverUpdate(0, 255, 2))

	f.sched.Tick(GameUpdateInterval)
	if u := clientUpdate(t, f.last()); u.FromTick != 255 || len(u.Actions) != message.MaxActionsPerUpdate {
		t.Errorf("next update from %d with %d actions", u.FromTick, len(u.Actions))
	}
}

func TestGameUpdateGameOver(t *testing.T) {
	f := newFixture(t)
	update := NewGameUpdate(f.stream, f.sched, 3, 40, 2)

	var result *contest.Result
	update.GameOver.Connect(func(r contest.Result) { result = &r })

	update.Start()
	f.reply(3, 40, message.Start{})
	f.reply(3, 40, message.GameOver{WinningPlayer: 1})

	if result == nil {
		t.Fatalf("game over not reported")
	}
	if winner, ok := result.Winner(); !ok || winner != 1 {
		t.Errorf("result = %v, want won by player 1", result)
	}

	f.sent()
	f.sched.Tick(time.Second)
	if n := len(f.sent()); n != 0 {
		t.Errorf("%d messages sent after the game over", n)
	}
}

func TestGameUpdateGameOverBeforeStart(t *testing.T) {
	f := newFixture(t)
	update := NewGameUpdate(f.stream, f.sched, 3, 40, 2)

	var result *contest.Result
	update.GameOver.Connect(func(r contest.Result) { result = &r })

	update.Start()
	f.reply(3, 40, message.GameOver{WinningPlayer: message.NoWinner})

	if result == nil || !result.IsDraw() {
		t.Fatalf("result = %v, want a draw", result)
	}

	f.sent()
	f.sched.Tick(time.Second)
	if n := len(f.sent()); n != 0 {
		t.Errorf("%d ready messages sent after the game over", n)
	}
}
