package server

import (
	"slices"
	"time"

	gameconfig "github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

type encounterPlayer struct {
	session   uint32
	releaseAt time.Time
	ready     bool
}

type encounter struct {
	players []encounterPlayer
	cleanUp signal.Connection
	// channel is the game channel once the game is launched.
	channel uint32
}

func (e *encounter) index(session uint32) int {
	return slices.IndexFunc(e.players, func(p encounterPlayer) bool {
		return p.session == session
	})
}

// MatchmakingService gathers the players into encounters, then launches the
// game once every player of an encounter has accepted it.
type MatchmakingService struct {
	sched  schedule.Scheduler
	sender transport.Sender
	games  *GameService

	removalDelay    time.Duration
	cleanUpInterval time.Duration

	nextEncounter uint32
	encounters    map[uint32]*encounter

	named  map[string]uint32
	names  map[uint32]string
	random uint32

	// EncounterRemoved is emitted with the id of each encounter cleaned up.
	EncounterRemoved signal.Signal[uint32]
}

func NewMatchmakingService(cfg Config, sched schedule.Scheduler, sender transport.Sender, games *GameService) *MatchmakingService {
	m := &MatchmakingService{
		sched:           sched,
		sender:          sender,
		games:           games,
		removalDelay:    cfg.EncounterRemovalDelay,
		cleanUpInterval: cfg.MatchmakingCleanUpInterval,
		nextEncounter:   1,
		encounters:      make(map[uint32]*encounter),
		named:           make(map[string]uint32),
		names:           make(map[uint32]string),
	}

	m.EncounterRemoved.Connect(func(id uint32) {
		if name, ok := m.names[id]; ok {
			delete(m.names, id)
			if m.named[name] == id {
				delete(m.named, name)
			}
		}
		if m.random == id {
			m.random = 0
		}
	})

	return m
}

// Process handles a lobby message from an authenticated session.
func (m *MatchmakingService) Process(from transport.Endpoint, msg message.Message) {
	switch msg.Type {
	case message.TypeNewNamedGameRequest:
		if r, ok := message.TryDeserialize[message.NewNamedGameRequest](msg); ok {
			m.newNamedGame(from, msg.Session, r)
		}
	case message.TypeNewRandomGameRequest:
		if r, ok := message.TryDeserialize[message.NewRandomGameRequest](msg); ok {
			m.newRandomGame(from, msg.Session, r.RequestToken)
		}
	case message.TypeAcceptNamedGame:
		if r, ok := message.TryDeserialize[message.AcceptNamedGame](msg); ok {
			m.markAsReady(from, msg.Session, r.EncounterID, r.RequestToken)
		}
	case message.TypeAcceptRandomGame:
		if r, ok := message.TryDeserialize[message.AcceptRandomGame](msg); ok {
			m.markAsReady(from, msg.Session, r.EncounterID, r.RequestToken)
		}
	default:
		logger.Debug("Unexpected lobby message.", "type", msg.Type, "session", msg.Session)
	}
}

func (m *MatchmakingService) newNamedGame(from transport.Endpoint, session uint32, r message.NewNamedGameRequest) {
	if m.games.IsInActiveGame(session) {
		return
	}

	name := r.Name.String()
	logger.Info("New named game request.", "session", session, "name", name)

	// A full encounter, or one whose game is over, is replaced.
	if id, ok := m.named[name]; ok && m.refresh(id, from, session, r.RequestToken) {
		return
	}

	id := m.newEncounter(from, session, r.RequestToken)
	m.named[name] = id
	m.names[id] = name
}

func (m *MatchmakingService) newRandomGame(from transport.Endpoint, session uint32, token uint32) {
	if m.games.IsInActiveGame(session) {
		return
	}

	if m.random != 0 && m.refresh(m.random, from, session, token) {
		return
	}

	logger.Info("New random encounter.", "session", session)
	m.random = m.newEncounter(from, session, token)
}

func (m *MatchmakingService) newEncounter(from transport.Endpoint, session uint32, token uint32) uint32 {
	id := m.nextEncounter
	m.nextEncounter++
	if m.nextEncounter == 0 {
		m.nextEncounter = 1
	}

	logger.Info("Creating new encounter.", "encounter", id, "session", session)

	e := &encounter{
		players: []encounterPlayer{{session: session, releaseAt: m.nextRelease()}},
	}
	m.encounters[id] = e
	e.cleanUp = m.scheduleCleanUp(id)

	m.sendGameOnHold(from, session, token, id, 1)
	return id
}

// refresh adds the session to the encounter, or refreshes its presence. It
// returns false if the session could not be included.
func (m *MatchmakingService) refresh(id uint32, from transport.Endpoint, session uint32, token uint32) bool {
	e, ok := m.encounters[id]
	if !ok {
		return false
	}

	i := e.index(session)

	// No update of the participants once the game is launched.
	if e.channel != 0 {
		return i >= 0 && m.games.IsPlaying(e.channel)
	}

	if i >= 0 {
		e.players[i].releaseAt = m.nextRelease()
		m.removeInactivePlayers(id, e)
	} else {
		m.removeInactivePlayers(id, e)
		if len(e.players) == gameconfig.MaxPlayerCount {
			return false
		}
		e.players = append(e.players, encounterPlayer{session: session, releaseAt: m.nextRelease()})
	}

	logger.Debug("Refreshing encounter.", "encounter", id, "players", len(e.players), "session", session)

	if len(e.players) == 0 {
		m.remove(id)
		return true
	}

	e.cleanUp.Disconnect()
	e.cleanUp = m.scheduleCleanUp(id)
	m.sendGameOnHold(from, session, token, id, uint8(len(e.players)))

	return true
}

func (m *MatchmakingService) markAsReady(from transport.Endpoint, session uint32, id uint32, token uint32) {
	e, ok := m.encounters[id]
	if !ok {
		logger.Info("Encounter does not exist.", "encounter", id, "session", session)
		return
	}

	i := e.index(session)
	if i < 0 {
		logger.Info("Session is not part of the encounter.", "encounter", id, "session", session)
		return
	}

	e.players[i].releaseAt = m.nextRelease()
	e.players[i].ready = true
	e.cleanUp.Disconnect()
	e.cleanUp = m.scheduleCleanUp(id)

	if e.channel == 0 {
		m.removeInactivePlayers(id, e)
	}

	ready := 0
	for _, p := range e.players {
		if p.ready {
			ready++
		}
	}
	if ready != len(e.players) || ready <= 1 {
		return
	}

	var g *game
	if e.channel != 0 {
		if g, ok = m.games.find(e.channel); !ok {
			return
		}
	} else {
		sessions := make([]uint32, len(e.players))
		for i, p := range e.players {
			sessions[i] = p.session
		}
		g = m.games.newGame(sessions)
		e.channel = g.channel

		logger.Info("Encounter launched.", "encounter", id, "channel", g.channel, "seed", g.fingerprint.Seed)
	}

	fp := g.fingerprint
	launch := message.LaunchGame{
		RequestToken:         token,
		Seed:                 fp.Seed,
		GameChannel:          g.channel,
		Features:             uint32(fp.Features),
		PlayerCount:          fp.PlayerCount,
		PlayerIndex:          uint8(g.sessionIndex(session)),
		BrickWallProbability: fp.BrickWallProbability,
		Width:                fp.ArenaWidth,
		Height:               fp.ArenaHeight,
	}

	if err := m.sender.Send(from, message.New(session, 0, launch)); err != nil {
		logger.Debug("Could not send the launch.", "session", session, "err", err)
	}
}

func (m *MatchmakingService) sendGameOnHold(to transport.Endpoint, session uint32, token uint32, id uint32, players uint8) {
	msg := message.New(session, 0, message.GameOnHold{
		RequestToken: token,
		EncounterID:  id,
		PlayerCount:  players,
	})

	if err := m.sender.Send(to, msg); err != nil {
		logger.Debug("Could not send the game on hold.", "session", session, "err", err)
	}
}

func (m *MatchmakingService) removeInactivePlayers(id uint32, e *encounter) {
	now := m.sched.Now()

	e.players = slices.DeleteFunc(e.players, func(p encounterPlayer) bool {
		if p.releaseAt.After(now) {
			return false
		}
		logger.Info("Removing inactive player from encounter.", "encounter", id, "session", p.session)
		return true
	})
}

func (m *MatchmakingService) nextRelease() time.Time {
	return m.sched.Now().Add(m.removalDelay)
}

func (m *MatchmakingService) scheduleCleanUp(id uint32) signal.Connection {
	return m.sched.After(m.cleanUpInterval, func() {
		m.remove(id)
	})
}

func (m *MatchmakingService) remove(id uint32) {
	e, ok := m.encounters[id]
	if !ok {
		return
	}

	logger.Info("Cleaning up encounter.", "encounter", id)
	e.cleanUp.Disconnect()
	delete(m.encounters, id)
	m.EncounterRemoved.Emit(id)
}

// EncounterCount returns the number of encounters.
func (m *MatchmakingService) EncounterCount() int {
	return len(m.encounters)
}
