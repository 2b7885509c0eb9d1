package server

import (
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
)

// serverVersion is announced in hello_ok.
const serverVersion uint32 = 1

// HelloService answers the hello requests with the statistics of the
// server. No session is needed.
type HelloService struct {
	sender transport.Sender
	stats  *StatisticsService
	name   string
}

func NewHelloService(sender transport.Sender, stats *StatisticsService, name string) *HelloService {
	if len(name) > message.MaxNameSize {
		name = name[:message.MaxNameSize]
	}
	return &HelloService{sender: sender, stats: stats, name: name}
}

func (h *HelloService) Process(from transport.Endpoint, m message.Message) {
	hello, ok := message.TryDeserialize[message.Hello](m)
	if !ok {
		return
	}

	reply := message.HelloOK{
		RequestToken: hello.RequestToken,
		Version:      serverVersion,
		Stats:        h.stats.Snapshot(),
		Name:         h.name,
	}

	if err := h.sender.Send(from, message.New(0, 0, reply)); err != nil {
		logger.Debug("Could not send hello_ok.", "endpoint", from, "err", err)
	}
}
