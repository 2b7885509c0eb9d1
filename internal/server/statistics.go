package server

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// rollingStatistics sums the values pushed during a sliding window. Values
// are grouped in buckets so the memory stays bounded.
type rollingStatistics struct {
	bucket time.Duration
	window time.Duration

	total  uint32
	dates  []time.Time
	values []uint32
}

func newRollingStatistics(bucket, window time.Duration) rollingStatistics {
	return rollingStatistics{bucket: bucket, window: window}
}

func (r *rollingStatistics) Total() uint32 { return r.total }

// Push adds value at the given date. Dates must not go backward; an older
// date is ignored.
func (r *rollingStatistics) Push(now time.Time, value uint32) {
	if n := len(r.dates); n != 0 && now.Before(r.dates[n-1]) {
		return
	}

	expired := 0
	for expired != len(r.dates) && now.Sub(r.dates[expired]) > r.window {
		r.total -= r.values[expired]
		expired++
	}
	r.dates = r.dates[expired:]
	r.values = r.values[expired:]

	if n := len(r.dates); n != 0 && now.Sub(r.dates[n-1]) < r.bucket {
		r.values[n-1] += value
	} else {
		r.dates = append(r.dates, now)
		r.values = append(r.values, value)
	}

	r.total += value
}

type rollingMeasure struct {
	lastHour  rollingStatistics
	lastDay   rollingStatistics
	lastMonth rollingStatistics
}

func newRollingMeasure() rollingMeasure {
	const day = 24 * time.Hour

	return rollingMeasure{
		lastHour:  newRollingStatistics(time.Minute, time.Hour),
		lastDay:   newRollingStatistics(time.Hour, day),
		lastMonth: newRollingStatistics(day, 30*day),
	}
}

func (m *rollingMeasure) add(now time.Time, value uint32) {
	m.lastHour.Push(now, value)
	m.lastDay.Push(now, value)
	m.lastMonth.Push(now, value)
}

// StatisticsService counts the sessions and the games, now and over the
// last hour, day and month.
type StatisticsService struct {
	sched schedule.Scheduler
	tick  signal.Connection

	activeSessions  uint32
	playersInGames  uint32
	gamesNow        uint32
	sessions        rollingMeasure
	players         rollingMeasure
	games           rollingMeasure
	tickingInterval time.Duration
}

// NewStatisticsService creates the service. The windows slide every
// interval even when nothing happens.
func NewStatisticsService(sched schedule.Scheduler, interval time.Duration) *StatisticsService {
	s := &StatisticsService{
		sched:           sched,
		sessions:        newRollingMeasure(),
		players:         newRollingMeasure(),
		games:           newRollingMeasure(),
		tickingInterval: interval,
	}

	if interval > 0 {
		s.scheduleTick()
	}

	return s
}

// Stop cancels the periodic updates.
func (s *StatisticsService) Stop() {
	s.tick.Disconnect()
}

func (s *StatisticsService) scheduleTick() {
	s.tick = s.sched.After(s.tickingInterval, func() {
		now := s.sched.Now()
		s.sessions.add(now, 0)
		s.players.add(now, 0)
		s.games.add(now, 0)
		s.scheduleTick()
	})
}

func (s *StatisticsService) RecordSessionConnected() {
	s.activeSessions++
	s.sessions.add(s.sched.Now(), 1)
}

func (s *StatisticsService) RecordSessionsDisconnected(count int) {
	if count == 0 {
		return
	}
	if uint32(count) > s.activeSessions {
		panic("statistics: more sessions disconnected than connected")
	}
	s.activeSessions -= uint32(count)
}

func (s *StatisticsService) RecordGameStart(playerCount uint8) {
	s.gamesNow++
	s.playersInGames += uint32(playerCount)

	now := s.sched.Now()
	s.games.add(now, 1)
	s.players.add(now, uint32(playerCount))
}

func (s *StatisticsService) RecordGameEnd(playerCount uint8) {
	if s.gamesNow == 0 || uint32(playerCount) > s.playersInGames {
		panic("statistics: ending a game that did not start")
	}
	s.gamesNow--
	s.playersInGames -= uint32(playerCount)
}

// Snapshot returns the statistics sent to the clients.
func (s *StatisticsService) Snapshot() message.Statistics {
	return message.Statistics{
		GamesNow:          s.gamesNow,
		GamesLastHour:     s.games.lastHour.Total(),
		GamesLastDay:      s.games.lastDay.Total(),
		GamesLastMonth:    s.games.lastMonth.Total(),
		SessionsNow:       s.activeSessions,
		SessionsLastHour:  s.sessions.lastHour.Total(),
		SessionsLastDay:   s.sessions.lastDay.Total(),
		SessionsLastMonth: s.sessions.lastMonth.Total(),
	}
}

// PlayersInGames returns the number of players currently in a game.
func (s *StatisticsService) PlayersInGames() uint32 {
	return s.playersInGames
}
