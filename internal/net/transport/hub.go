package transport

import (
	"sync"

	"github.com/tomz197/bomb-arena/internal/net/message"
)

// Hub multiplexes the connections of a server. The messages of every
// attached connection are funneled into a single inbound queue.
type Hub struct {
	mu      sync.Mutex
	conns   map[Endpoint]Conn
	inbound chan Packet
}

// NewHub creates a hub whose inbound queue holds queue packets.
func NewHub(queue int) *Hub {
	return &Hub{
		conns:   make(map[Endpoint]Conn),
		inbound: make(chan Packet, queue),
	}
}

// Attach registers c and starts forwarding its messages. The connection is
// forgotten when it closes.
func (h *Hub) Attach(c Conn) {
	h.mu.Lock()
	if previous, ok := h.conns[c.Endpoint()]; ok {
		previous.Close()
	}
	h.conns[c.Endpoint()] = c
	h.mu.Unlock()

	logger.Debug("Connection attached.", "endpoint", c.Endpoint())

	go h.forward(c)
}

func (h *Hub) forward(c Conn) {
	for m := range c.Messages() {
		h.inbound <- Packet{From: c.Endpoint(), Message: m}
	}

	h.mu.Lock()
	if h.conns[c.Endpoint()] == c {
		delete(h.conns, c.Endpoint())
	}
	h.mu.Unlock()

	logger.Debug("Connection detached.", "endpoint", c.Endpoint())
}

// Send delivers m to the connection of the given endpoint.
func (h *Hub) Send(to Endpoint, m message.Message) error {
	h.mu.Lock()
	c, ok := h.conns[to]
	h.mu.Unlock()

	if !ok {
		return ErrUnknownEndpoint
	}
	return c.Send(m)
}

// Inbound returns the queue of received packets.
func (h *Hub) Inbound() <-chan Packet {
	return h.inbound
}

// Count returns the number of attached connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close closes every attached connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
