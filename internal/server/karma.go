package server

import (
	"context"
	"time"

	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

const (
	minKarma = -128
	maxKarma = 127
)

// KarmaVerdict tells what to do with a client after a karma update.
type KarmaVerdict int

const (
	KarmaAccept KarmaVerdict = iota
	KarmaKickOut
)

// KarmaService tracks the behavior of the client addresses. An address
// whose karma goes below zero is blacklisted for a while.
type KarmaService struct {
	sched schedule.Scheduler
	store KarmaStore

	enabled           bool
	initial           int
	disconnection     int
	shortGame         int
	goodBehavior      int
	blacklistDuration time.Duration
	reviewInterval    time.Duration

	clients map[string]KarmaRecord
	review  signal.Connection
}

// NewKarmaService creates the service and loads the known karma from
// store, which may be nil.
func NewKarmaService(cfg Config, sched schedule.Scheduler, store KarmaStore) *KarmaService {
	k := &KarmaService{
		sched:             sched,
		store:             store,
		enabled:           cfg.EnableKarma,
		initial:           cfg.InitialKarma,
		disconnection:     cfg.DisconnectionKarma,
		shortGame:         cfg.ShortGameKarma,
		goodBehavior:      cfg.GoodBehaviorKarma,
		blacklistDuration: cfg.KarmaBlacklistDuration,
		reviewInterval:    cfg.KarmaReviewInterval,
		clients:           make(map[string]KarmaRecord),
	}

	if !k.enabled {
		return k
	}

	if store != nil {
		clients, err := store.LoadKarma(context.Background())
		if err != nil {
			logger.Error("Could not load the karma.", "err", err)
		} else {
			k.clients = clients
		}
	}

	logger.Info("Karma service started.", "known", len(k.clients))
	k.scheduleReview()

	return k
}

// Stop cancels the periodic review.
func (k *KarmaService) Stop() {
	k.review.Disconnect()
}

// Allowed reports whether the address can open a session.
func (k *KarmaService) Allowed(address string) bool {
	if !k.enabled {
		return true
	}

	r, ok := k.clients[address]
	return !ok || r.Karma >= 0
}

// Karma returns the current karma of the address.
func (k *KarmaService) Karma(address string) int {
	if r, ok := k.clients[address]; ok {
		return r.Karma
	}
	return k.initial
}

func (k *KarmaService) Disconnection(address string) KarmaVerdict {
	return k.add(address, k.disconnection)
}

func (k *KarmaService) ShortGame(address string) KarmaVerdict {
	return k.add(address, k.shortGame)
}

func (k *KarmaService) GoodBehavior(address string) KarmaVerdict {
	return k.add(address, k.goodBehavior)
}

func (k *KarmaService) add(address string, karma int) KarmaVerdict {
	if !k.enabled {
		return KarmaAccept
	}

	r, ok := k.clients[address]
	if !ok {
		r.Karma = k.initial
	}
	r.Karma = max(minKarma, min(r.Karma+karma, maxKarma))

	verdict := KarmaAccept
	if r.Karma >= 0 {
		if karma < 0 {
			logger.Info("Karma penalty.", "address", address, "adjustment", karma, "karma", r.Karma)
		}
	} else {
		logger.Info("Blacklisting address.", "address", address, "duration", k.blacklistDuration, "karma", r.Karma)
		r.ReleaseAt = k.sched.Now().Add(k.blacklistDuration)
		verdict = KarmaKickOut
	}

	k.clients[address] = r
	k.save(address, r)

	return verdict
}

func (k *KarmaService) scheduleReview() {
	k.review = k.sched.After(k.reviewInterval, func() {
		k.Review()
		k.scheduleReview()
	})
}

// Review lets the blacklisted addresses in again once their time is over.
func (k *KarmaService) Review() {
	now := k.sched.Now()

	for address, r := range k.clients {
		if r.Karma >= 0 || r.ReleaseAt.After(now) {
			continue
		}

		logger.Info("Reopening the doors.", "address", address)
		delete(k.clients, address)

		if k.store != nil {
			if err := k.store.DeleteKarma(context.Background(), address); err != nil {
				logger.Error("Could not delete the karma.", "err", err)
			}
		}
	}
}

func (k *KarmaService) save(address string, r KarmaRecord) {
	if k.store == nil {
		return
	}

	if err := k.store.SaveKarma(context.Background(), address, r); err != nil {
		logger.Error("Could not save the karma.", "err", err)
	}
}
