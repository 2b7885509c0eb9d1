package server

import (
	"testing"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	gameconfig "github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
	"github.com/tomz197/bomb-arena/internal/net/lockstep"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/session"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
)

// pipeSender delivers the messages of the server to the server end of the
// pipes.
type pipeSender map[transport.Endpoint]transport.Conn

func (p pipeSender) Send(to transport.Endpoint, m message.Message) error {
	conn, ok := p[to]
	if !ok {
		return transport.ErrClosed
	}
	return conn.Send(m)
}

type player struct {
	handler *session.Handler
	stream  *transport.MessageStream

	launch *message.LaunchGame
	update *exchange.GameUpdate
	runner *lockstep.Runner
	result *contest.Result
}

type world struct {
	t       *testing.T
	sched   *schedule.Manual
	srv     *Server
	conns   pipeSender
	players []*player
}

func newWorld(t *testing.T, playerCount int) *world {
	t.Helper()

	w := &world{
		t:     t,
		sched: schedule.NewManual(time.Unix(1000, 0)),
		conns: make(pipeSender),
	}

	srv, err := New(testConfig(), w.sched, w.conns)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	w.srv = srv

	for range playerCount {
		client, server := transport.NewPipe()
		w.conns[server.Endpoint()] = server

		stream := transport.NewMessageStream(client)
		p := &player{handler: session.NewHandler(stream, w.sched), stream: stream}
		p.handler.LaunchGame.Connect(func(l message.LaunchGame) { p.launch = &l })

		w.players = append(w.players, p)
	}

	return w
}

// pump delivers the pending messages in both directions until everybody
// went quiet.
func (w *world) pump() {
	for range 8 {
		for endpoint, conn := range w.conns {
			w.drain(endpoint, conn)
		}
		for _, p := range w.players {
			p.stream.Poll()
		}
	}
}

func (w *world) drain(endpoint transport.Endpoint, conn transport.Conn) {
	for {
		select {
		case m, ok := <-conn.Messages():
			if !ok {
				return
			}
			w.srv.Handle(endpoint, m)
		default:
			return
		}
	}
}

func (w *world) advance(d time.Duration) {
	w.sched.Tick(d)
	w.pump()
}

func (w *world) play(p *player) {
	p.update = p.handler.GameUpdate(*p.launch)
	p.runner = lockstep.NewRunner(contest.New(session.Fingerprint(*p.launch)), p.update, p.launch.PlayerIndex)
	p.update.Updated.Connect(p.runner.QueueUpdate)
	p.update.GameOver.Connect(func(r contest.Result) { p.result = &r })
	p.update.Start()
}

func TestClientsPlayAgainstServer(t *testing.T) {
	w := newWorld(t, 2)
	first, second := w.players[0], w.players[1]

	for _, p := range w.players {
		p.handler.Start()
	}
	w.pump()

	for i, p := range w.players {
		if !p.handler.IsConnected() {
			t.Fatalf("player %d not connected", i)
		}
	}

	for _, p := range w.players {
		p.handler.NewGame("duel")
	}
	w.pump()
	for _, p := range w.players {
		p.handler.Accept()
	}

	// The accepts are sent with the next resend of the requests.
	w.advance(exchange.NewGameInterval)
	w.advance(exchange.NewGameInterval)

	if first.launch == nil || second.launch == nil {
		t.Fatalf("game not launched: %v, %v", first.launch, second.launch)
	}
	if first.launch.GameChannel != second.launch.GameChannel || first.launch.Seed != second.launch.Seed {
		t.Fatalf("launches disagree: %+v / %+v", first.launch, second.launch)
	}
	if first.launch.PlayerIndex == second.launch.PlayerIndex {
		t.Fatalf("both players have index %d", first.launch.PlayerIndex)
	}

	for _, p := range w.players {
		w.play(p)
	}
	w.pump()

	for range 100 {
		for _, p := range w.players {
			p.runner.Run(gameconfig.TickInterval, component.PlayerAction{})
		}
		w.advance(gameconfig.TickInterval)
	}

	g, ok := w.srv.games.find(first.launch.GameChannel)
	if !ok {
		t.Fatalf("server lost the game")
	}

	for i, p := range w.players {
		confirmed := p.runner.ConfirmedTick()
		if confirmed == 0 {
			t.Errorf("player %d has no confirmed tick", i)
		}
		if confirmed > g.simulationTick {
			t.Errorf("player %d confirmed tick %d beyond the server at %d", i, confirmed, g.simulationTick)
		}
	}

	// The second player leaves, the first one wins.
	second.update.Stop()
	second.handler.Stop()

	for range 150 {
		if first.result != nil {
			break
		}
		first.runner.Run(gameconfig.TickInterval, component.PlayerAction{})
		w.advance(gameconfig.TickInterval)
	}

	if first.result == nil {
		t.Fatalf("no game over after the departure of the other player")
	}
	if winner, ok := first.result.Winner(); !ok || winner != first.launch.PlayerIndex {
		t.Errorf("result = %v, want a win of player %d", *first.result, first.launch.PlayerIndex)
	}
}
