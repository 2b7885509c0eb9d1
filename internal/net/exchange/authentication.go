package exchange

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// AuthenticationInterval is the delay between two authentication requests.
const AuthenticationInterval = time.Second

// Authentication obtains a session from the server.
type Authentication struct {
	channel *transport.MessageChannel
	sched   schedule.Scheduler
	token   uint32

	listen signal.Connection
	resend signal.Connection

	// Authenticated is emitted with the session given by the server.
	Authenticated signal.Signal[uint32]
	// Error is emitted when the server refuses the client.
	Error signal.Signal[message.AuthenticationErrorCode]
}

func NewAuthentication(stream *transport.MessageStream, sched schedule.Scheduler) *Authentication {
	return &Authentication{
		channel: transport.NewMessageChannel(stream, 0, 0),
		sched:   sched,
	}
}

// Start sends authentication requests until the server answers.
func (a *Authentication) Start() {
	a.Stop()

	a.token = newToken()
	a.listen = a.channel.ConnectToMessage(a.interpret)
	a.tick()
}

// Stop cancels the request.
func (a *Authentication) Stop() {
	a.listen.Disconnect()
	a.resend.Disconnect()
}

func (a *Authentication) tick() {
	a.resend = a.sched.After(AuthenticationInterval, a.tick)
	send(a.channel, message.Authentication{RequestToken: a.token, ProtocolVersion: message.ProtocolVersion})
}

func (a *Authentication) interpret(m message.Message) {
	switch m.Type {
	case message.TypeAuthenticationOK:
		ok, valid := message.TryDeserialize[message.AuthenticationOK](m)
		if !valid || ok.RequestToken != a.token {
			return
		}

		a.Stop()
		logger.Info("Authentication OK.", "session", ok.Session)
		a.Authenticated.Emit(ok.Session)

	case message.TypeAuthenticationKO:
		ko, valid := message.TryDeserialize[message.AuthenticationKO](m)
		if !valid || ko.RequestToken != a.token {
			return
		}

		a.Stop()
		logger.Error("Authentication KO.", "code", ko.ErrorCode)
		a.Error.Emit(ko.ErrorCode)
	}
}
