package server

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

type sessionInfo struct {
	address   string
	token     uint32
	releaseAt time.Time
}

// SessionService attaches a session to each authenticated client token.
// Sessions without news for the removal delay are dropped.
type SessionService struct {
	sched schedule.Scheduler
	karma *KarmaService
	stats *StatisticsService

	cleanUpInterval time.Duration
	removalDelay    time.Duration

	nextSession uint32
	byToken     map[uint32]uint32
	clients     map[uint32]*sessionInfo
	cleanUp     signal.Connection
}

func NewSessionService(cfg Config, sched schedule.Scheduler, karma *KarmaService, stats *StatisticsService) *SessionService {
	s := &SessionService{
		sched:           sched,
		karma:           karma,
		stats:           stats,
		cleanUpInterval: cfg.SessionCleanUpInterval,
		removalDelay:    cfg.SessionRemovalDelay,
		nextSession:     1,
		byToken:         make(map[uint32]uint32),
		clients:         make(map[uint32]*sessionInfo),
	}

	s.scheduleCleanUp()
	return s
}

// Stop cancels the periodic clean-up.
func (s *SessionService) Stop() {
	s.cleanUp.Disconnect()
}

// CreateOrRefresh returns the session of the token, creating it if needed.
// It fails if the address is blacklisted.
func (s *SessionService) CreateOrRefresh(address string, token uint32) (uint32, bool) {
	if !s.karma.Allowed(address) {
		return 0, false
	}

	if session, ok := s.byToken[token]; ok {
		s.clients[session].releaseAt = s.nextRelease()
		return session, true
	}

	session := s.nextSession
	s.nextSession++
	if s.nextSession == 0 {
		s.nextSession = 1
	}

	s.byToken[token] = session
	s.clients[session] = &sessionInfo{
		address:   address,
		token:     token,
		releaseAt: s.nextRelease(),
	}
	s.stats.RecordSessionConnected()

	logger.Info("Attaching session to token.", "session", session, "token", token, "address", address)
	return session, true
}

// Refresh delays the removal of the session. It returns false if the
// session does not exist.
func (s *SessionService) Refresh(session uint32) bool {
	c, ok := s.clients[session]
	if !ok {
		return false
	}

	c.releaseAt = s.nextRelease()
	return true
}

// Exists reports whether the session is active.
func (s *SessionService) Exists(session uint32) bool {
	_, ok := s.clients[session]
	return ok
}

// Count returns the number of active sessions.
func (s *SessionService) Count() int {
	return len(s.clients)
}

// UpdateKarmaDisconnection penalizes the client for leaving a game and
// closes its session.
func (s *SessionService) UpdateKarmaDisconnection(session uint32) {
	c, ok := s.clients[session]
	if !ok {
		return
	}

	logger.Info("Internal disconnection.", "session", session)
	s.karma.Disconnection(c.address)
	s.disconnect(session, c)
}

// UpdateKarmaShortGame penalizes the client for a game that ended too
// soon. The session is closed if the client gets blacklisted.
func (s *SessionService) UpdateKarmaShortGame(session uint32) {
	c, ok := s.clients[session]
	if !ok {
		return
	}

	if s.karma.ShortGame(c.address) == KarmaKickOut {
		s.disconnect(session, c)
	}
}

// UpdateKarmaGoodBehavior rewards the client for a complete game.
func (s *SessionService) UpdateKarmaGoodBehavior(session uint32) {
	if c, ok := s.clients[session]; ok {
		s.karma.GoodBehavior(c.address)
	}
}

func (s *SessionService) nextRelease() time.Time {
	return s.sched.Now().Add(s.removalDelay)
}

func (s *SessionService) disconnect(session uint32, c *sessionInfo) {
	delete(s.byToken, c.token)
	delete(s.clients, session)
	s.stats.RecordSessionsDisconnected(1)
}

func (s *SessionService) scheduleCleanUp() {
	s.cleanUp = s.sched.After(s.cleanUpInterval, func() {
		s.CleanUp()
		s.scheduleCleanUp()
	})
}

// CleanUp removes the expired sessions.
func (s *SessionService) CleanUp() {
	now := s.sched.Now()
	count := 0

	for session, c := range s.clients {
		if c.releaseAt.After(now) {
			continue
		}

		logger.Info("Session expired.", "session", session)
		delete(s.byToken, c.token)
		delete(s.clients, session)
		count++
	}

	s.stats.RecordSessionsDisconnected(count)
}
