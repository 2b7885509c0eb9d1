package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomz197/bomb-arena/internal/net/message"
)

const (
	sendQueueSize    = 256
	receiveQueueSize = 256
	writeTimeout     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var websocketCount atomic.Uint64

// wsConn carries one frame per binary websocket message.
type wsConn struct {
	ws       *websocket.Conn
	endpoint Endpoint
	send     chan []byte
	inbound  chan message.Message
	done     chan struct{}
	once     sync.Once
}

func newWSConn(ws *websocket.Conn, endpoint Endpoint) *wsConn {
	c := &wsConn{
		ws:       ws,
		endpoint: endpoint,
		send:     make(chan []byte, sendQueueSize),
		inbound:  make(chan message.Message, receiveQueueSize),
		done:     make(chan struct{}),
	}
	ws.SetReadLimit(message.HeaderSize + message.MaxPayloadSize)

	go c.readPump()
	go c.writePump()

	return c
}

func (c *wsConn) readPump() {
	defer close(c.inbound)
	defer c.Close()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("Websocket read failed.", "endpoint", c.endpoint, "err", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		m, err := message.ParseFrame(data)
		if err != nil {
			logger.Debug("Dropping malformed frame.", "endpoint", c.endpoint, "err", err)
			continue
		}

		select {
		case c.inbound <- m:
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) writePump() {
	defer c.Close()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				logger.Info("Websocket write failed.", "endpoint", c.endpoint, "err", err)
				return
			}
		case <-c.done:
			c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (c *wsConn) Send(m message.Message) error {
	data, err := m.AppendFrame(nil)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *wsConn) Messages() <-chan message.Message {
	return c.inbound
}

func (c *wsConn) Close() error {
	c.once.Do(func() {
		close(c.done)
		// Give the write pump a chance to send the close frame.
		time.AfterFunc(time.Second, func() { c.ws.Close() })
	})
	return nil
}

func (c *wsConn) Endpoint() Endpoint {
	return c.endpoint
}

// WebsocketHandler upgrades the requests to websocket connections and
// attaches them to h.
func WebsocketHandler(h *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Upgrade failed.", "remote", r.RemoteAddr, "err", err)
			return
		}

		endpoint := Endpoint(fmt.Sprintf("ws:%s#%d", r.RemoteAddr, websocketCount.Add(1)))
		h.Attach(newWSConn(ws, endpoint))
	})
}

// DialWebsocket connects to a game server.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	return newWSConn(ws, Endpoint(url)), nil
}
