// Package console is the terminal client of the game. It talks to the
// server through a session handler and renders the arena with ANSI escape
// sequences.
package console

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/draw"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/input"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
	"github.com/tomz197/bomb-arena/internal/net/lockstep"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/session"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
)

var logger = log.WithPrefix("console")

// frameInterval is the duration of a frame of the client. One frame runs
// at most one tick of the contest.
const frameInterval = config.TickInterval

// Options configures the client.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	// GameName is the name proposed when asking for a named game.
	GameName string
}

// Client handles rendering and input for a single player.
type Client struct {
	stream  *transport.MessageStream
	sched   schedule.Scheduler
	loop    *schedule.Loop
	handler *session.Handler

	state        *clientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	termWidth    int
	termHeight   int
	borderShown  bool
}

// NewClient creates a client talking to the server through conn, reading
// the keys from r and drawing on w.
func NewClient(conn transport.Conn, r *bufio.Reader, w io.Writer, opts Options) *Client {
	loop := schedule.NewLoop(256)

	c := newClient(conn, loop, w, opts)
	c.loop = loop
	c.inputStream = input.StartStream(r)

	return c
}

func newClient(conn transport.Conn, sched schedule.Scheduler, w io.Writer, opts Options) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	stream := transport.NewMessageStream(conn)

	c := &Client{
		stream:       stream,
		sched:        sched,
		handler:      session.NewHandler(stream, sched),
		state:        newClientState(),
		canvas:       draw.NewCanvas(config.DefaultArenaWidth, config.DefaultArenaHeight),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		writer:       w,
		termSizeFunc: termSizeFunc,
	}
	c.state.gameName = opts.GameName

	c.handler.Connected.Connect(func(struct{}) {
		if c.state.screen == ScreenConnecting {
			c.state.screen = ScreenLobby
		}
	})
	c.handler.Disconnected.Connect(func(struct{}) {
		c.state.resetGame()
		c.state.screen = ScreenConnecting
		c.handler.Reconnect()
	})
	c.handler.AuthenticationError.Connect(func(code message.AuthenticationErrorCode) {
		c.state.refusal = code
		c.state.screen = ScreenRefused
	})
	c.handler.Updated.Connect(func(ok message.HelloOK) {
		c.state.server = ok
		c.state.hasServer = true
	})
	c.handler.GameProposal.Connect(func(p exchange.Proposal) {
		c.state.proposal = p
		c.state.hasProposal = true
	})
	c.handler.LaunchGame.Connect(c.startGame)

	return c
}

// Run starts the client loop. It blocks until the player quits, the input
// ends or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	c.start()
	defer c.close()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()

	for c.state.running {
		select {
		case <-ctx.Done():
			c.state.running = false
		case fn := <-c.loop.Calls():
			fn()
		case now := <-ticker.C:
			in := input.ReadInput(c.inputStream)
			if c.inputStream.Closed() {
				c.state.running = false
			}

			if err := c.step(in, now.Sub(last)); err != nil {
				return err
			}
			last = now
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

func (c *Client) start() {
	c.handler.Start()
}

func (c *Client) close() {
	c.state.resetGame()
	c.handler.Stop()
	c.stream.Close()
}

// Screen returns the current screen.
func (c *Client) Screen() Screen {
	return c.state.screen
}

// step processes one frame: messages, input, simulation, then drawing.
func (c *Client) step(in input.Input, delta time.Duration) error {
	if !c.stream.Poll() {
		logger.Info("Connection closed by the server.")
		c.state.running = false
		return nil
	}

	c.state.input = in
	c.processInput()

	if c.state.screen == ScreenPlaying && c.state.started {
		c.state.runner.Run(delta, in.Action())
	}

	return c.drawFrame()
}

func (c *Client) processInput() {
	in := c.state.input

	switch c.state.screen {
	case ScreenConnecting, ScreenRefused:
		if in.Quit || in.Escape {
			c.state.running = false
		}
		if c.state.screen == ScreenRefused && in.Enter {
			c.state.screen = ScreenConnecting
			c.handler.Reconnect()
		}

	case ScreenLobby:
		switch {
		case in.Quit:
			c.state.running = false
		case in.HasKey('r', 'R'):
			c.handler.RandomGame()
			c.state.screen = ScreenWaiting
		case in.HasKey('n', 'N'):
			c.state.screen = ScreenNaming
		}

	case ScreenNaming:
		c.editName(in)

	case ScreenWaiting:
		switch {
		case in.Escape || in.HasKey('c', 'C'):
			c.handler.CancelGame()
			c.state.resetGame()
			c.state.screen = ScreenLobby
		case (in.Enter || in.Space) && c.state.hasProposal && !c.state.accepted:
			c.handler.Accept()
			c.state.accepted = true
		}

	case ScreenPlaying:
		if in.Quit {
			c.state.running = false
		}

	case ScreenResult:
		switch {
		case in.Quit:
			c.state.running = false
		case in.Enter || in.Space:
			c.state.resetGame()
			c.state.screen = ScreenLobby
		}
	}
}

func (c *Client) editName(in input.Input) {
	switch {
	case in.Escape:
		c.state.screen = ScreenLobby
		return
	case in.Enter:
		if c.state.gameName != "" {
			c.handler.NewGame(c.state.gameName)
			c.state.screen = ScreenWaiting
		}
		return
	}

	name := []byte(c.state.gameName)
	for _, b := range in.Pressed {
		switch {
		case b == '\b' || b == 0x7f:
			if len(name) != 0 {
				name = name[:len(name)-1]
			}
		case b > ' ' && b < 0x7f && len(name) < message.GameNameSize:
			name = append(name, b)
		}
	}
	c.state.gameName = string(name)
}

func (c *Client) startGame(launch message.LaunchGame) {
	logger.Info("Game launched.", "channel", launch.GameChannel, "player", launch.PlayerIndex, "players", launch.PlayerCount)

	s := c.state
	s.launch = launch
	s.update = c.handler.GameUpdate(launch)
	s.runner = lockstep.NewRunner(contest.New(session.Fingerprint(launch)), s.update, launch.PlayerIndex)
	s.started = false

	s.update.Started.Connect(func(struct{}) { s.started = true })
	s.update.Updated.Connect(s.runner.QueueUpdate)
	s.update.GameOver.Connect(c.gameOver)
	s.update.Start()

	s.screen = ScreenPlaying
}

func (c *Client) gameOver(result contest.Result) {
	logger.Info("Game over.", "result", result)

	c.state.update.Stop()
	c.state.result = result
	c.state.screen = ScreenResult
}
