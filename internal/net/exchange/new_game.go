package exchange

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// NewGameInterval is the delay between two game requests.
const NewGameInterval = time.Second

type newGameState uint8

const (
	newGameIdle newGameState = iota
	newGameStart
	newGameAccept
)

// Proposal is a game waiting for players.
type Proposal struct {
	EncounterID uint32
	PlayerCount uint8
}

// NewGame asks the server for a game, named or random, then accepts the
// proposed encounter until the game is launched.
type NewGame struct {
	channel *transport.MessageChannel
	sched   schedule.Scheduler

	state       newGameState
	random      bool
	token       uint32
	encounterID uint32
	request     message.Record

	listen signal.Connection
	resend signal.Connection

	// GameProposal is emitted each time the server tells how many players
	// joined the encounter, until it is accepted.
	GameProposal signal.Signal[Proposal]
	// LaunchGame is emitted once the server launches the accepted game.
	LaunchGame signal.Signal[message.LaunchGame]
}

func NewNewGame(stream *transport.MessageStream, sched schedule.Scheduler) *NewGame {
	return &NewGame{
		channel: transport.NewMessageChannel(stream, 0, 0),
		sched:   sched,
	}
}

// StartNamed asks for the game of the given name, created on the first
// request.
func (g *NewGame) StartNamed(session uint32, name message.GameName) {
	logger.Info("Requesting named game.", "name", name, "session", session)

	g.start(session, false)
	g.request = message.NewNamedGameRequest{RequestToken: g.token, Name: name}
	g.tick()
}

// StartRandom asks to play with anyone.
func (g *NewGame) StartRandom(session uint32) {
	logger.Info("Requesting random game.", "session", session)

	g.start(session, true)
	g.request = message.NewRandomGameRequest{RequestToken: g.token}
	g.tick()
}

// Accept tells the server that the player is ready to play the proposed
// game. It must be called after GameProposal.
func (g *NewGame) Accept() {
	if g.state != newGameStart || g.encounterID == 0 {
		panic("exchange: accepting a game before any proposal")
	}

	logger.Info("Accepting encounter.", "encounter", g.encounterID)

	g.state = newGameAccept

	if g.random {
		g.request = message.AcceptRandomGame{RequestToken: g.token, EncounterID: g.encounterID}
	} else {
		g.request = message.AcceptNamedGame{RequestToken: g.token, EncounterID: g.encounterID}
	}
}

// Stop cancels the request.
func (g *NewGame) Stop() {
	if g.state == newGameIdle {
		return
	}

	g.state = newGameIdle
	g.encounterID = 0
	g.listen.Disconnect()
	g.resend.Disconnect()
}

func (g *NewGame) start(session uint32, random bool) {
	g.Stop()

	g.state = newGameStart
	g.random = random
	g.token = newToken()

	g.channel.Rebind(session, 0)
	g.listen = g.channel.ConnectToMessage(g.interpret)
}

func (g *NewGame) tick() {
	g.resend = g.sched.After(NewGameInterval, g.tick)
	send(g.channel, g.request)
}

func (g *NewGame) interpret(m message.Message) {
	switch m.Type {
	case message.TypeGameOnHold:
		g.checkOnHold(m)
	case message.TypeLaunchGame:
		g.checkLaunch(m)
	}
}

func (g *NewGame) checkOnHold(m message.Message) {
	if g.state != newGameStart {
		return
	}

	hold, ok := message.TryDeserialize[message.GameOnHold](m)
	if !ok || hold.RequestToken != g.token || hold.EncounterID == 0 {
		return
	}

	if g.encounterID == 0 {
		logger.Info("Got game proposal.", "encounter", hold.EncounterID)
	}
	g.encounterID = hold.EncounterID

	g.GameProposal.Emit(Proposal{EncounterID: hold.EncounterID, PlayerCount: hold.PlayerCount})
}

func (g *NewGame) checkLaunch(m message.Message) {
	if g.state != newGameAccept {
		return
	}

	launch, ok := message.TryDeserialize[message.LaunchGame](m)
	if !ok || launch.RequestToken != g.token {
		return
	}

	if err := LaunchFingerprint(launch).Validate(); err != nil {
		logger.Warn("Dropping invalid game launch.", "encounter", g.encounterID, "channel", launch.GameChannel, "err", err)
		return
	}

	logger.Info("Launching game.", "encounter", g.encounterID, "channel", launch.GameChannel)

	g.Stop()
	g.LaunchGame.Emit(launch)
}

// LaunchFingerprint returns the parameters of the contest of a launched
// game.
func LaunchFingerprint(launch message.LaunchGame) contest.Fingerprint {
	return contest.Fingerprint{
		Seed:                 launch.Seed,
		Features:             config.Feature(launch.Features),
		PlayerCount:          launch.PlayerCount,
		BrickWallProbability: launch.BrickWallProbability,
		ArenaWidth:           launch.Width,
		ArenaHeight:          launch.Height,
	}
}
