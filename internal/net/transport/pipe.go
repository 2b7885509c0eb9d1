package transport

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tomz197/bomb-arena/internal/net/message"
)

// PipeQueueSize is the number of messages each direction of a pipe can
// hold.
const PipeQueueSize = 256

var pipeCount atomic.Uint64

type pipeState struct {
	mu     sync.Mutex
	closed bool
}

type pipeEnd struct {
	state    *pipeState
	endpoint Endpoint
	in       chan message.Message
	peer     *pipeEnd
}

// NewPipe returns the two ends of an in-memory connection. Closing one end
// closes both.
func NewPipe() (client, server Conn) {
	n := pipeCount.Add(1)
	return newPipe(
		Endpoint(fmt.Sprintf("pipe:%d:client", n)),
		Endpoint(fmt.Sprintf("pipe:%d:server", n)),
	)
}

// NewRemotePipe returns a pipe for a client hosted in the process on behalf
// of the remote machine at addr, an ssh user for instance. The server end is
// identified by the host of addr.
func NewRemotePipe(addr string) (client, server Conn) {
	n := pipeCount.Add(1)
	return newPipe(
		Endpoint(fmt.Sprintf("pipe:%d:client", n)),
		Endpoint(fmt.Sprintf("ssh:%s#%d", addr, n)),
	)
}

func newPipe(clientEndpoint, serverEndpoint Endpoint) (client, server Conn) {
	state := &pipeState{}

	c := &pipeEnd{
		state:    state,
		endpoint: clientEndpoint,
		in:       make(chan message.Message, PipeQueueSize),
	}
	s := &pipeEnd{
		state:    state,
		endpoint: serverEndpoint,
		in:       make(chan message.Message, PipeQueueSize),
	}
	c.peer, s.peer = s, c

	return c, s
}

func (p *pipeEnd) Send(m message.Message) error {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	if p.state.closed {
		return ErrClosed
	}

	select {
	case p.peer.in <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *pipeEnd) Messages() <-chan message.Message {
	return p.in
}

func (p *pipeEnd) Close() error {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	if !p.state.closed {
		p.state.closed = true
		close(p.in)
		close(p.peer.in)
	}
	return nil
}

func (p *pipeEnd) Endpoint() Endpoint {
	return p.endpoint
}
