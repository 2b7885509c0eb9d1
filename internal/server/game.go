package server

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	gameconfig "github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// maxLevelAttempts bounds the seeds drawn for a game whose level would keep
// the players apart.
const maxLevelAttempts = 8

type gamePlayer struct {
	session  uint32
	endpoint transport.Endpoint
	ready    bool
	gone     bool
	lastSeen time.Time

	// completed is the index of the first tick the player has not received
	// from the server.
	completed uint32
	// actions holds the actions of the player from the tick completedAll.
	actions []component.PlayerAction
}

// game is the server side of a contest. The clients send their actions and
// the server answers with the actions of everybody, the simulation moving
// at the pace of the slowest player.
type game struct {
	channel     uint32
	fingerprint contest.Fingerprint
	players     []gamePlayer

	// simulationTick is the number of ticks for which every player has sent
	// an action.
	simulationTick uint32
	// completedAll is the number of ticks received by every player. The
	// action lists start at this tick.
	completedAll uint32

	runner   *contest.Runner
	timeline *contest.TimelineWriter

	started   bool
	startedAt time.Time
	over      bool
	result    contest.Result

	watch   signal.Connection
	cleanUp signal.Connection
}

func (g *game) sessionIndex(session uint32) int {
	return slices.IndexFunc(g.players, func(p gamePlayer) bool {
		return p.session == session
	})
}

func (g *game) activeCount() int {
	n := 0
	for _, p := range g.players {
		if !p.gone {
			n++
		}
	}
	return n
}

// dropOldActions removes the actions received by every player.
func (g *game) dropOldActions() {
	offset := g.players[0].completed - g.completedAll
	for _, p := range g.players[1:] {
		offset = min(offset, p.completed-g.completedAll)
	}

	for i := range g.players {
		p := &g.players[i]
		p.actions = append(p.actions[:0], p.actions[offset:]...)
	}
	g.completedAll += offset
}

// alignSimulationTick moves the simulation to the last tick for which
// every player has sent an action.
func (g *game) alignSimulationTick() {
	n := len(g.players[0].actions)
	for _, p := range g.players[1:] {
		n = min(n, len(p.actions))
	}
	g.simulationTick = g.completedAll + uint32(n)
}

// fillGonePlayers gives an idle action to the players who left, for every
// tick sent by the others.
func (g *game) fillGonePlayers() {
	longest := 0
	for _, p := range g.players {
		if !p.gone {
			longest = max(longest, len(p.actions))
		}
	}

	for i := range g.players {
		p := &g.players[i]
		if !p.gone {
			continue
		}
		for len(p.actions) < longest {
			p.actions = append(p.actions, component.PlayerAction{})
		}
		p.completed = g.completedAll + uint32(len(p.actions))
	}
}

// GameService runs the games launched by the matchmaking.
type GameService struct {
	sched     schedule.Scheduler
	sender    transport.Sender
	sessions  *SessionService
	stats     *StatisticsService
	timelines *TimelineService
	records   GameRecordStore

	inactivityDelay time.Duration
	maxShortGame    time.Duration
	cleanUpInterval time.Duration
	brickWallChance uint8
	features        gameconfig.Feature
	width, height   uint8

	nextChannel uint32
	games       map[uint32]*game
	newSeed     func() uint64

	// Finished is emitted with the record of each game over.
	Finished signal.Signal[GameRecord]
}

// NewGameService creates the service. timelines and records may be nil.
func NewGameService(cfg Config, sched schedule.Scheduler, sender transport.Sender, sessions *SessionService, stats *StatisticsService, timelines *TimelineService, records GameRecordStore) *GameService {
	return &GameService{
		sched:           sched,
		sender:          sender,
		sessions:        sessions,
		stats:           stats,
		timelines:       timelines,
		records:         records,
		inactivityDelay: cfg.DisconnectionInactivityDelay,
		maxShortGame:    cfg.MaxShortGameDuration,
		cleanUpInterval: cfg.GameCleanUpInterval,
		brickWallChance: uint8(cfg.BrickWallProbability),
		features:        cfg.Features,
		width:           uint8(cfg.ArenaWidth),
		height:          uint8(cfg.ArenaHeight),
		nextChannel:     1,
		games:           make(map[uint32]*game),
		newSeed:         rand.Uint64,
	}
}

// newGame creates a game for the given sessions, the index of a session
// being the index of its player.
func (s *GameService) newGame(sessions []uint32) *game {
	channel := s.nextChannel
	s.nextChannel++
	if s.nextChannel == 0 {
		s.nextChannel = 1
	}

	logger.Info("Creating new game.", "channel", channel, "players", len(sessions))

	now := s.sched.Now()
	g := &game{
		channel: channel,
		fingerprint: contest.Fingerprint{
			Seed:                 s.newSeed(),
			Features:             s.features,
			PlayerCount:          uint8(len(sessions)),
			BrickWallProbability: s.brickWallChance,
			ArenaWidth:           s.width,
			ArenaHeight:          s.height,
		},
		players: make([]gamePlayer, len(sessions)),
		result:  contest.StillRunning(),
	}

	for i, session := range sessions {
		g.players[i] = gamePlayer{session: session, lastSeen: now}
	}

	c := contest.New(g.fingerprint)
	for attempt := 1; !c.PlayersCanMeet() && attempt < maxLevelAttempts; attempt++ {
		logger.Debug("Players cannot meet, drawing another level.", "channel", channel, "seed", g.fingerprint.Seed)
		g.fingerprint.Seed = s.newSeed()
		c = contest.New(g.fingerprint)
	}

	var recorder contest.Recorder
	if s.timelines != nil {
		if tw := s.openTimeline(g); tw != nil {
			g.timeline = tw
			recorder = tw
		}
	}
	g.runner = contest.NewRunner(c, recorder)

	s.games[channel] = g
	s.scheduleWatch(g)

	return g
}

func (s *GameService) openTimeline(g *game) *contest.TimelineWriter {
	f, err := s.timelines.Create(g.channel)
	if err != nil {
		logger.Error("Could not create the timeline.", "channel", g.channel, "err", err)
		return nil
	}

	tw, err := contest.NewTimelineWriter(f, g.fingerprint)
	if err != nil {
		f.Close()
		logger.Error("Could not write the timeline.", "channel", g.channel, "err", err)
		return nil
	}

	return tw
}

// find returns the game running on the channel.
func (s *GameService) find(channel uint32) (*game, bool) {
	g, ok := s.games[channel]
	return g, ok
}

// IsPlaying reports whether the game on the channel is not over.
func (s *GameService) IsPlaying(channel uint32) bool {
	g, ok := s.games[channel]
	return ok && !g.over
}

// IsInActiveGame reports whether the session takes part in a game which is
// not over.
func (s *GameService) IsInActiveGame(session uint32) bool {
	for _, g := range s.games {
		if g.over {
			continue
		}
		if i := g.sessionIndex(session); i >= 0 && !g.players[i].gone {
			return true
		}
	}
	return false
}

// Count returns the number of games, finished or not, still known.
func (s *GameService) Count() int {
	return len(s.games)
}

// Process handles a message sent on the channel of a game.
func (s *GameService) Process(from transport.Endpoint, m message.Message) {
	g, ok := s.games[m.Channel]
	if !ok {
		logger.Debug("Game does not exist.", "channel", m.Channel, "session", m.Session)
		return
	}

	i := g.sessionIndex(m.Session)
	if i < 0 {
		logger.Info("Session is not part of the game.", "channel", g.channel, "session", m.Session)
		return
	}

	if g.over {
		s.sendGameOver(g, from, m.Session)
		return
	}

	p := &g.players[i]
	if p.gone {
		logger.Debug("Message from a player who left.", "channel", g.channel, "session", m.Session)
		return
	}
	p.endpoint = from
	p.lastSeen = s.sched.Now()

	switch m.Type {
	case message.TypeReady:
		s.markAsReady(g, i)
	case message.TypeGameUpdateFromClient:
		if u, ok := message.TryDeserialize[message.GameUpdateFromClient](m); ok {
			s.pushUpdate(g, i, u)
		}
	default:
		logger.Debug("Unexpected game message.", "type", m.Type, "channel", g.channel)
	}
}

func (s *GameService) markAsReady(g *game, index int) {
	p := &g.players[index]
	p.ready = true

	ready := 0
	for _, p := range g.players {
		if p.ready {
			ready++
		}
	}

	if ready != len(g.players) {
		logger.Info("Player ready.", "channel", g.channel, "session", p.session, "ready", ready, "players", len(g.players))
		return
	}

	if !g.started {
		g.started = true
		g.startedAt = s.sched.Now()
		s.stats.RecordGameStart(g.fingerprint.PlayerCount)
		logger.Info("All players ready.", "channel", g.channel)
	}

	s.send(p.endpoint, p.session, g.channel, message.Start{})
}

func (s *GameService) pushUpdate(g *game, index int, u message.GameUpdateFromClient) {
	if !g.started {
		return
	}

	p := &g.players[index]

	// An update from the past of the player, maybe it took a longer path.
	if u.FromTick < p.completed {
		return
	}
	// An update from the future, it should not happen.
	if u.FromTick > g.simulationTick {
		logger.Debug("Update ahead of the simulation.", "channel", g.channel, "from", u.FromTick, "simulation", g.simulationTick)
		return
	}

	p.completed = u.FromTick

	// The actions we do not have yet start at this index of the update.
	known := int(g.completedAll) + len(p.actions) - int(u.FromTick)
	if known < len(u.Actions) {
		p.actions = append(p.actions, u.Actions[known:]...)
	}

	s.advance(g)
	if g.over {
		return
	}

	s.sendActions(g, p)
	g.dropOldActions()
}

// advance runs the server contest up to the simulation tick.
func (s *GameService) advance(g *game) {
	g.fillGonePlayers()
	g.alignSimulationTick()

	c := g.runner.Contest()
	for c.TickCount() < g.simulationTick {
		offset := int(c.TickCount() - g.completedAll)
		for i := range g.players {
			c.SetAction(uint8(i), g.players[i].actions[offset])
		}

		if result := g.runner.Step(); !result.IsStillRunning() {
			s.finish(g, result)
			return
		}
	}

	if err := g.runner.RecordError; err != nil && g.timeline != nil {
		logger.Error("Timeline recording failed.", "channel", g.channel, "err", err)
		g.timeline.Close()
		g.timeline = nil
	}
}

// sendActions sends to the player the actions of everybody, starting from
// the first tick the player did not receive.
func (s *GameService) sendActions(g *game, p *gamePlayer) {
	start := int(p.completed - g.completedAll)
	ticks := int(g.simulationTick - p.completed)
	if ticks <= 0 {
		return
	}

	ticks = min(ticks, message.MaxActionsPerUpdate)

	update := message.GameUpdateFromServer{
		FromTick: p.completed,
		Actions:  make([][]component.PlayerAction, len(g.players)),
	}
	for i := range g.players {
		update.Actions[i] = g.players[i].actions[start : start+ticks]
	}

	for update.TickCount() > 1 && update.Size() > message.MaxUpdateSize {
		for i := range update.Actions {
			update.Actions[i] = update.Actions[i][:len(update.Actions[i])-1]
		}
	}

	s.send(p.endpoint, p.session, g.channel, update)
}

func (s *GameService) scheduleWatch(g *game) {
	g.watch = s.sched.After(s.inactivityDelay, func() {
		s.checkActivity(g)
		if !g.over {
			s.scheduleWatch(g)
		}
	})
}

// checkActivity removes from the game the players who did not send
// anything for too long. The last player standing wins.
func (s *GameService) checkActivity(g *game) {
	now := s.sched.Now()
	changed := false

	for i := range g.players {
		p := &g.players[i]
		if p.gone || now.Sub(p.lastSeen) < s.inactivityDelay {
			continue
		}

		logger.Info("Player left the game.", "channel", g.channel, "session", p.session, "player", i)
		p.gone = true
		changed = true
		s.sessions.UpdateKarmaDisconnection(p.session)
	}

	if !changed {
		return
	}

	switch g.activeCount() {
	case 0:
		s.finish(g, contest.Draw())
		return
	case 1:
		for i, p := range g.players {
			if !p.gone {
				s.finish(g, contest.GameOver(uint8(i)))
				return
			}
		}
	}

	if g.started {
		s.advance(g)
	}
}

func (s *GameService) finish(g *game, result contest.Result) {
	g.over = true
	g.result = result
	g.watch.Disconnect()

	logger.Info("Game over.", "channel", g.channel, "result", result, "ticks", g.runner.Contest().TickCount())

	if g.timeline != nil {
		if err := g.timeline.Close(); err != nil {
			logger.Error("Could not close the timeline.", "channel", g.channel, "err", err)
		}
		g.timeline = nil
	}

	for _, p := range g.players {
		if !p.gone && p.endpoint != "" {
			s.sendGameOver(g, p.endpoint, p.session)
		}
	}

	if g.started {
		s.stats.RecordGameEnd(g.fingerprint.PlayerCount)
		s.updateKarma(g)
		s.record(g)
	}

	g.cleanUp = s.sched.After(s.cleanUpInterval, func() {
		logger.Debug("Cleaning up game.", "channel", g.channel)
		delete(s.games, g.channel)
	})
}

// updateKarma penalizes the losers of a short game, where someone probably
// left on purpose, and rewards everybody otherwise.
func (s *GameService) updateKarma(g *game) {
	duration := time.Duration(g.runner.Contest().TickCount()) * gameconfig.TickInterval
	winner, hasWinner := g.result.Winner()

	for i, p := range g.players {
		if p.gone {
			continue
		}

		if duration >= s.maxShortGame {
			s.sessions.UpdateKarmaGoodBehavior(p.session)
		} else if !hasWinner || int(winner) != i {
			s.sessions.UpdateKarmaShortGame(p.session)
		}
	}
}

func (s *GameService) record(g *game) {
	r := GameRecord{
		Channel:     g.channel,
		Seed:        g.fingerprint.Seed,
		PlayerCount: g.fingerprint.PlayerCount,
		Winner:      -1,
		Ticks:       g.runner.Contest().TickCount(),
		StartedAt:   g.startedAt,
		EndedAt:     s.sched.Now(),
	}
	if w, ok := g.result.Winner(); ok {
		r.Winner = int(w)
	}

	if s.records != nil {
		if err := s.records.SaveGame(context.Background(), r); err != nil {
			logger.Error("Could not record the game.", "err", err)
		}
	}

	s.Finished.Emit(r)
}

func (s *GameService) sendGameOver(g *game, to transport.Endpoint, session uint32) {
	over := message.GameOver{WinningPlayer: message.NoWinner}
	if w, ok := g.result.Winner(); ok {
		over.WinningPlayer = w
	}
	s.send(to, session, g.channel, over)
}

func (s *GameService) send(to transport.Endpoint, session, channel uint32, r message.Record) {
	if err := s.sender.Send(to, message.New(session, channel, r)); err != nil {
		logger.Debug("Could not send game message.", "type", r.Type(), "session", session, "err", err)
	}
}

// Stop cancels the timers of every game and closes their timelines.
func (s *GameService) Stop() {
	for _, g := range s.games {
		g.watch.Disconnect()
		g.cleanUp.Disconnect()
		if g.timeline != nil {
			g.timeline.Close()
			g.timeline = nil
		}
	}
}
