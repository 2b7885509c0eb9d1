// Package transport moves framed messages between the clients and the
// server.
package transport

import (
	"errors"
	"net"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/net/message"
)

// Endpoint identifies the remote side of a connection.
type Endpoint string

// Address returns the host of a websocket or ssh endpoint, shared by every
// connection coming from the same machine. Other endpoints are their own
// address.
func (e Endpoint) Address() string {
	s, ok := strings.CutPrefix(string(e), "ws:")
	if !ok {
		s, ok = strings.CutPrefix(string(e), "ssh:")
	}
	if !ok {
		return string(e)
	}

	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	return s
}

var (
	ErrClosed          = errors.New("connection closed")
	ErrQueueFull       = errors.New("send queue is full")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

var logger = log.WithPrefix("transport")

// Conn is a bidirectional message connection. Send never blocks: a message
// that cannot be queued is reported with ErrQueueFull and dropped, the
// protocol resending whatever matters.
type Conn interface {
	Send(m message.Message) error
	// Messages delivers the received messages. The channel is closed once
	// the connection is closed.
	Messages() <-chan message.Message
	Close() error
	Endpoint() Endpoint
}

// Sender delivers messages to endpoints.
type Sender interface {
	Send(to Endpoint, m message.Message) error
}

// Packet is a message received from an endpoint.
type Packet struct {
	From    Endpoint
	Message message.Message
}
