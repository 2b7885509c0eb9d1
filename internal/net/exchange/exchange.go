// Package exchange implements the client side of the conversations with
// the game server. Each exchange resends its request until the server
// answers, and reports the answer through its signals. Exchanges must be
// driven from the goroutine of their scheduler.
package exchange

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
)

var logger = log.WithPrefix("exchange")

func newToken() uint32 {
	return rand.Uint32()
}

func send(c *transport.MessageChannel, r message.Record) {
	if err := c.Send(r); err != nil {
		logger.Debug("Could not send message.", "type", r.Type(), "err", err)
	}
}
