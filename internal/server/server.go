// Package server hosts the games: it authenticates the clients, matches
// them into encounters and relays the actions of the players during the
// games.
//
// Every service runs on a single goroutine: Run drains the inbound packets
// and the scheduled calls one at a time.
package server

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
)

var logger = log.WithPrefix("server")

// Server dispatches the messages of the clients to the services.
type Server struct {
	sender transport.Sender
	store  *Store

	stats       *StatisticsService
	karma       *KarmaService
	sessions    *SessionService
	hello       *HelloService
	games       *GameService
	matchmaking *MatchmakingService
}

// New creates the services of the server. The scheduled calls are made on
// sched and the messages are sent through sender.
func New(cfg Config, sched schedule.Scheduler, sender transport.Sender) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{sender: sender}

	var (
		karmaStore KarmaStore
		records    GameRecordStore
	)
	if cfg.Database != "" {
		store, err := OpenStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		s.store = store
		karmaStore = store
		records = store
	}

	var timelines *TimelineService
	if cfg.TimelineDir != "" {
		t, err := NewTimelineService(cfg.TimelineDir, sched.Now)
		if err != nil {
			s.Close()
			return nil, err
		}
		timelines = t
	}

	s.stats = NewStatisticsService(sched, cfg.StatisticsTickInterval)
	s.karma = NewKarmaService(cfg, sched, karmaStore)
	s.sessions = NewSessionService(cfg, sched, s.karma, s.stats)
	s.hello = NewHelloService(sender, s.stats, cfg.ServerName)
	s.games = NewGameService(cfg, sched, sender, s.sessions, s.stats, timelines, records)
	s.matchmaking = NewMatchmakingService(cfg, sched, sender, s.games)

	logger.Info("Server is up.", "name", cfg.ServerName, "features", cfg.Features, "karma", cfg.EnableKarma)
	return s, nil
}

// Handle processes a message received from an endpoint.
func (s *Server) Handle(from transport.Endpoint, m message.Message) {
	if m.Session == 0 {
		switch m.Type {
		case message.TypeAuthentication:
			s.authenticate(from, m)
		case message.TypeHello:
			s.hello.Process(from, m)
		default:
			logger.Debug("Dropping message without session.", "type", m.Type, "endpoint", from)
		}
		return
	}

	if !s.sessions.Refresh(m.Session) {
		logger.Debug("Dropping message from unknown session.", "type", m.Type, "session", m.Session)
		return
	}

	switch {
	case m.Type == message.TypeKeepAlive:
		s.send(from, message.New(m.Session, 0, message.AcknowledgeKeepAlive{}))
	case m.Channel == 0:
		s.matchmaking.Process(from, m)
	default:
		s.games.Process(from, m)
	}
}

func (s *Server) authenticate(from transport.Endpoint, m message.Message) {
	request, ok := message.TryDeserialize[message.Authentication](m)
	if !ok {
		return
	}

	token := request.RequestToken
	logger.Info("Authentication request.", "token", token, "endpoint", from)

	if request.ProtocolVersion != message.ProtocolVersion {
		logger.Info("Bad protocol.", "token", token, "version", request.ProtocolVersion)
		s.send(from, message.New(0, 0, message.AuthenticationKO{
			RequestToken: token,
			ErrorCode:    message.AuthenticationBadProtocol,
		}))
		return
	}

	session, ok := s.sessions.CreateOrRefresh(from.Address(), token)
	if !ok {
		logger.Info("Refusing blacklisted client.", "token", token, "address", from.Address())
		s.send(from, message.New(0, 0, message.AuthenticationKO{
			RequestToken: token,
			ErrorCode:    message.AuthenticationBlacklisted,
		}))
		return
	}

	s.send(from, message.New(0, 0, message.AuthenticationOK{RequestToken: token, Session: session}))
}

func (s *Server) send(to transport.Endpoint, m message.Message) {
	if err := s.sender.Send(to, m); err != nil {
		logger.Debug("Could not send message.", "type", m.Type, "endpoint", to, "err", err)
	}
}

// Statistics returns the statistics announced to the clients.
func (s *Server) Statistics() message.Statistics {
	return s.stats.Snapshot()
}

// Games gives access to the game service.
func (s *Server) Games() *GameService { return s.games }

// Run processes the packets of the hub and the calls of the loop until ctx
// is done.
func (s *Server) Run(ctx context.Context, hub *transport.Hub, loop *schedule.Loop) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-hub.Inbound():
			s.Handle(p.From, p.Message)
		case fn := <-loop.Calls():
			fn()
		}
	}
}

// Close stops the services and closes the database.
func (s *Server) Close() error {
	if s.games != nil {
		s.games.Stop()
		s.sessions.Stop()
		s.karma.Stop()
		s.stats.Stop()
	}

	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
