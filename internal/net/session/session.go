// Package session keeps a client connected to the game server and gives
// access to the games it plays.
package session

import (
	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

var logger = log.WithPrefix("session")

// Handler authenticates the client, then keeps the session alive, fetches
// the server statistics and negotiates new games.
type Handler struct {
	stream *transport.MessageStream
	sched  schedule.Scheduler

	authentication *exchange.Authentication
	hello          *exchange.Hello
	keepAlive      *exchange.KeepAlive
	newGame        *exchange.NewGame

	session   uint32
	connected bool

	// Connected is emitted once the client is authenticated.
	Connected signal.Void
	// Disconnected is emitted when the server stops answering.
	Disconnected signal.Void
	// AuthenticationError is emitted when the server refuses the client.
	AuthenticationError signal.Signal[message.AuthenticationErrorCode]
	// Updated is emitted with the statistics of the server.
	Updated signal.Signal[message.HelloOK]
	// GameProposal is emitted while the requested game waits for players.
	GameProposal signal.Signal[exchange.Proposal]
	// LaunchGame is emitted when the accepted game begins.
	LaunchGame signal.Signal[message.LaunchGame]
}

func NewHandler(stream *transport.MessageStream, sched schedule.Scheduler) *Handler {
	h := &Handler{
		stream:         stream,
		sched:          sched,
		authentication: exchange.NewAuthentication(stream, sched),
		hello:          exchange.NewHello(stream, sched),
		keepAlive:      exchange.NewKeepAlive(stream, sched),
		newGame:        exchange.NewNewGame(stream, sched),
	}

	h.authentication.Authenticated.Connect(h.authenticated)
	h.authentication.Error.Connect(func(code message.AuthenticationErrorCode) {
		h.session = 0
		h.connected = false
		h.AuthenticationError.Emit(code)
	})

	h.keepAlive.Disconnected.Connect(func(struct{}) {
		logger.Warn("Lost connection to the server.", "session", h.session)
		h.stopExchanges()
		h.Disconnected.Emit(struct{}{})
	})

	h.hello.Updated.Connect(h.Updated.Emit)
	h.newGame.GameProposal.Connect(h.GameProposal.Emit)
	h.newGame.LaunchGame.Connect(h.LaunchGame.Emit)

	return h
}

// Start authenticates the client.
func (h *Handler) Start() {
	h.authentication.Start()
}

// Reconnect drops the current session and authenticates again.
func (h *Handler) Reconnect() {
	h.stopExchanges()
	h.authentication.Start()
}

// Stop cancels every exchange.
func (h *Handler) Stop() {
	h.authentication.Stop()
	h.stopExchanges()
}

func (h *Handler) stopExchanges() {
	h.session = 0
	h.connected = false

	h.hello.Stop()
	h.keepAlive.Stop()
	h.newGame.Stop()
}

func (h *Handler) authenticated(session uint32) {
	h.session = session
	h.connected = true

	h.hello.Start()
	h.keepAlive.Start(session)

	h.Connected.Emit(struct{}{})
}

// IsConnected reports whether the client has a session.
func (h *Handler) IsConnected() bool {
	return h.connected
}

// Session returns the current session, 0 when not connected.
func (h *Handler) Session() uint32 {
	return h.session
}

// NewGame requests the game of the given name.
func (h *Handler) NewGame(name string) {
	h.newGame.StartNamed(h.session, message.MakeGameName(name))
}

// RandomGame requests a game with anyone.
func (h *Handler) RandomGame() {
	h.newGame.StartRandom(h.session)
}

// Accept accepts the proposed game.
func (h *Handler) Accept() {
	h.newGame.Accept()
}

// CancelGame gives up the requested game.
func (h *Handler) CancelGame() {
	h.newGame.Stop()
}

// GameUpdate creates the exchange of the launched game.
func (h *Handler) GameUpdate(launch message.LaunchGame) *exchange.GameUpdate {
	return exchange.NewGameUpdate(h.stream, h.sched, h.session, launch.GameChannel, int(launch.PlayerCount))
}

// Fingerprint returns the parameters of the contest of a launched game.
func Fingerprint(launch message.LaunchGame) contest.Fingerprint {
	return exchange.LaunchFingerprint(launch)
}
