package exchange

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

const (
	// HelloRefreshInterval is the delay between two updates of the server
	// statistics.
	HelloRefreshInterval = 30 * time.Second
	// HelloResendInterval is the delay between two unanswered requests.
	HelloResendInterval = time.Second
)

// Hello fetches the statistics of the server and keeps them fresh.
type Hello struct {
	channel    *transport.MessageChannel
	sched      schedule.Scheduler
	token      uint32
	lastUpdate time.Time

	listen  signal.Connection
	resend  signal.Connection
	refresh signal.Connection

	// Updated is emitted with every answer of the server.
	Updated signal.Signal[message.HelloOK]
}

func NewHello(stream *transport.MessageStream, sched schedule.Scheduler) *Hello {
	return &Hello{
		channel: transport.NewMessageChannel(stream, 0, 0),
		sched:   sched,
	}
}

// Start requests the statistics, unless they are fresh enough, in which
// case the next refresh is scheduled.
func (h *Hello) Start() {
	if h.resend.Connected() {
		return
	}

	h.refresh.Disconnect()

	if h.lastUpdate.IsZero() {
		h.doRefresh()
		return
	}

	age := h.sched.Now().Sub(h.lastUpdate)
	if age >= HelloRefreshInterval {
		h.doRefresh()
	} else {
		h.refresh = h.sched.After(HelloRefreshInterval-age, h.doRefresh)
	}
}

// Stop cancels the pending requests and refreshes.
func (h *Hello) Stop() {
	h.listen.Disconnect()
	h.resend.Disconnect()
	h.refresh.Disconnect()
}

func (h *Hello) doRefresh() {
	h.token = newToken()

	h.listen.Disconnect()
	h.listen = h.channel.ConnectToMessage(h.interpret)

	h.sendHello()
}

func (h *Hello) sendHello() {
	h.resend = h.sched.After(HelloResendInterval, h.sendHello)
	send(h.channel, message.Hello{RequestToken: h.token})
}

func (h *Hello) interpret(m message.Message) {
	if m.Type != message.TypeHelloOK {
		return
	}

	ok, valid := message.TryDeserialize[message.HelloOK](m)
	if !valid || ok.RequestToken != h.token {
		return
	}

	h.resend.Disconnect()
	h.lastUpdate = h.sched.Now()
	h.refresh = h.sched.After(HelloRefreshInterval, h.doRefresh)

	h.Updated.Emit(ok)
}
