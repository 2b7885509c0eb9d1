package exchange

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

const (
	// GameUpdateInterval is the delay between two sends of the pending
	// update.
	GameUpdateInterval = 100 * time.Millisecond
	// MaxUpdateSize is the largest payload of an update sent by a client.
	MaxUpdateSize = message.MaxUpdateSize
)

type gameUpdateState uint8

const (
	gameUpdateIdle gameUpdateState = iota
	gameUpdateStart
	gameUpdatePlay
)

// ServerUpdate holds the actions confirmed by the server, indexed by player
// then by tick, starting at FromTick.
type ServerUpdate struct {
	FromTick uint32
	Actions  [][]component.PlayerAction
}

// TickCount returns the number of confirmed ticks.
func (u ServerUpdate) TickCount() int {
	if len(u.Actions) == 0 {
		return 0
	}
	return len(u.Actions[0])
}

// GameUpdate exchanges the actions of the players during a game. The local
// actions are sent until the server confirms them along with the actions of
// the other players.
type GameUpdate struct {
	channel     *transport.MessageChannel
	sched       schedule.Scheduler
	playerCount int

	state   gameUpdateState
	queue   []component.PlayerAction
	current message.GameUpdateFromClient
	out     message.Record

	listen  signal.Connection
	sending signal.Connection

	// Started is emitted when the server starts the game.
	Started signal.Void
	// Updated is emitted with each valid update from the server.
	Updated signal.Signal[ServerUpdate]
	// GameOver is emitted when the server announces the end of the game.
	GameOver signal.Signal[contest.Result]
}

// NewGameUpdate creates the exchange for the game of playerCount players
// running on the given channel of the session.
func NewGameUpdate(stream *transport.MessageStream, sched schedule.Scheduler, session, channel uint32, playerCount int) *GameUpdate {
	g := &GameUpdate{
		channel:     transport.NewMessageChannel(stream, session, channel),
		sched:       sched,
		playerCount: playerCount,
	}
	g.listen = g.channel.ConnectToMessage(g.interpret)
	return g
}

// Start tells the server that the player is ready.
func (g *GameUpdate) Start() {
	g.state = gameUpdateStart
	g.out = message.Ready{}
	g.send()
}

// Stop cancels all sends and ignores the server from now on.
func (g *GameUpdate) Stop() {
	g.state = gameUpdateIdle
	g.listen.Disconnect()
	g.sending.Disconnect()
}

// Push queues the action of the local player for the next tick.
func (g *GameUpdate) Push(a component.PlayerAction) {
	g.queue = append(g.queue, a)

	if g.state != gameUpdatePlay {
		return
	}

	if g.appendToCurrent(a) {
		g.out = g.outMessage()
	}

	if !g.sending.Connected() {
		g.send()
	}
}

// PendingCount returns the number of local actions not confirmed yet.
func (g *GameUpdate) PendingCount() int {
	return len(g.queue)
}

// ConfirmedTick returns the first tick not confirmed by the server.
func (g *GameUpdate) ConfirmedTick() uint32 {
	return g.current.FromTick
}

func (g *GameUpdate) send() {
	if g.out == nil {
		return
	}

	send(g.channel, g.out)
	g.sending = g.sched.After(GameUpdateInterval, g.send)
}

// appendToCurrent adds a to the update being sent, unless the update is
// full. The remaining actions are sent once the server confirmed the
// previous ones.
func (g *GameUpdate) appendToCurrent(a component.PlayerAction) bool {
	if g.current.Size() >= MaxUpdateSize || len(g.current.Actions) >= message.MaxActionsPerUpdate {
		return false
	}

	g.current.Actions = append(g.current.Actions, a)
	return true
}

func (g *GameUpdate) outMessage() message.Record {
	return message.GameUpdateFromClient{
		FromTick: g.current.FromTick,
		Actions:  append([]component.PlayerAction(nil), g.current.Actions...),
	}
}

func (g *GameUpdate) interpret(m message.Message) {
	switch m.Type {
	case message.TypeStart:
		if g.state == gameUpdateStart {
			g.dispatchStart()
		}
	case message.TypeGameUpdateFromServer:
		if g.state == gameUpdatePlay {
			g.confirm(m)
		}
	case message.TypeGameOver:
		if g.state != gameUpdateIdle {
			g.gameOver(m)
		}
	}
}

func (g *GameUpdate) dispatchStart() {
	g.state = gameUpdatePlay
	g.sending.Disconnect()

	g.current = message.GameUpdateFromClient{}
	for _, a := range g.queue {
		if !g.appendToCurrent(a) {
			break
		}
	}
	g.out = g.outMessage()

	if len(g.queue) != 0 {
		g.send()
	}

	g.Started.Emit(struct{}{})
}

func (g *GameUpdate) confirm(m message.Message) {
	update, ok := message.TryDeserialize[message.GameUpdateFromServer](m)
	if !ok {
		logger.Info("Could not deserialize game update.")
		return
	}

	tickCount := g.validate(update)
	if tickCount == 0 {
		return
	}

	actions := make([][]component.PlayerAction, len(update.Actions))
	for p := range update.Actions {
		actions[p] = append([]component.PlayerAction(nil), update.Actions[p]...)
	}

	g.removeConfirmed(tickCount)

	g.Updated.Emit(ServerUpdate{FromTick: update.FromTick, Actions: actions})
}

// validate returns the number of ticks of a consistent update, zero
// otherwise.
func (g *GameUpdate) validate(update message.GameUpdateFromServer) int {
	if update.FromTick != g.current.FromTick {
		logger.Info("Out of sync update.", "got", update.FromTick, "want", g.current.FromTick)
		return 0
	}

	if len(update.Actions) != g.playerCount {
		logger.Info("Inconsistent player count.", "got", len(update.Actions), "want", g.playerCount)
		return 0
	}

	tickCount := update.TickCount()
	if tickCount == 0 {
		return 0
	}

	if tickCount > len(g.queue) {
		logger.Info("Server confirmed unsent actions.", "ticks", tickCount, "queued", len(g.queue))
		return 0
	}

	return tickCount
}

func (g *GameUpdate) removeConfirmed(tickCount int) {
	g.current.FromTick += uint32(tickCount)
	g.current.Actions = g.current.Actions[:0]

	g.queue = append(g.queue[:0], g.queue[tickCount:]...)

	for _, a := range g.queue {
		if !g.appendToCurrent(a) {
			break
		}
	}

	g.out = g.outMessage()
}

func (g *GameUpdate) gameOver(m message.Message) {
	over, ok := message.TryDeserialize[message.GameOver](m)
	if !ok {
		return
	}

	g.Stop()

	if over.IsDraw() {
		g.GameOver.Emit(contest.Draw())
	} else {
		g.GameOver.Emit(contest.GameOver(over.WinningPlayer))
	}
}
