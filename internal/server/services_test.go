package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/schedule"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenStore(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestKarmaBlacklist(t *testing.T) {
	cfg := testConfig()
	sched := schedule.NewManual(time.Unix(1000, 0))
	store := openTestStore(t)

	k := NewKarmaService(cfg, sched, store)
	defer k.Stop()

	verdicts := []KarmaVerdict{
		k.Disconnection("x"),
		k.Disconnection("x"),
		k.Disconnection("x"),
	}
	if verdicts[0] != KarmaAccept || verdicts[1] != KarmaAccept || verdicts[2] != KarmaKickOut {
		t.Fatalf("verdicts = %v", verdicts)
	}
	if k.Allowed("x") {
		t.Errorf("blacklisted address allowed")
	}
	if !k.Allowed("y") {
		t.Errorf("unknown address refused")
	}

	// The blacklist survives a restart.
	restarted := NewKarmaService(cfg, sched, store)
	defer restarted.Stop()
	if restarted.Allowed("x") {
		t.Errorf("blacklist lost on restart")
	}

	sched.Tick(cfg.KarmaBlacklistDuration + cfg.KarmaReviewInterval)

	if !k.Allowed("x") || !restarted.Allowed("x") {
		t.Errorf("address still blacklisted after review")
	}
	if got := k.Karma("x"); got != cfg.InitialKarma {
		t.Errorf("karma = %d, want %d", got, cfg.InitialKarma)
	}

	records, err := store.LoadKarma(context.Background())
	if err != nil {
		t.Fatalf("LoadKarma: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("stored records = %+v", records)
	}
}

func TestKarmaIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.GoodBehaviorKarma = 100
	k := NewKarmaService(cfg, schedule.NewManual(time.Unix(0, 0)), nil)
	defer k.Stop()

	k.GoodBehavior("x")
	k.GoodBehavior("x")

	if got := k.Karma("x"); got != 127 {
		t.Errorf("karma = %d, want 127", got)
	}
}

func TestKarmaDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableKarma = false
	cfg.InitialKarma = 0
	k := NewKarmaService(cfg, schedule.NewManual(time.Unix(0, 0)), nil)
	defer k.Stop()

	if v := k.Disconnection("x"); v != KarmaAccept {
		t.Errorf("verdict = %v, want accept", v)
	}
	if !k.Allowed("x") {
		t.Errorf("address refused")
	}
}

func TestStoreKarma(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	release := time.Unix(5000, 0)
	if err := s.SaveKarma(ctx, "x", KarmaRecord{Karma: 3}); err != nil {
		t.Fatalf("SaveKarma: %v", err)
	}
	if err := s.SaveKarma(ctx, "x", KarmaRecord{Karma: -2, ReleaseAt: release}); err != nil {
		t.Fatalf("SaveKarma: %v", err)
	}
	if err := s.SaveKarma(ctx, "y", KarmaRecord{Karma: 8}); err != nil {
		t.Fatalf("SaveKarma: %v", err)
	}

	records, err := s.LoadKarma(ctx)
	if err != nil {
		t.Fatalf("LoadKarma: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if r := records["x"]; r.Karma != -2 || !r.ReleaseAt.Equal(release) {
		t.Errorf("x = %+v", r)
	}
	if r := records["y"]; r.Karma != 8 || !r.ReleaseAt.IsZero() {
		t.Errorf("y = %+v", r)
	}

	if err := s.DeleteKarma(ctx, "x"); err != nil {
		t.Fatalf("DeleteKarma: %v", err)
	}
	records, _ = s.LoadKarma(ctx)
	if _, ok := records["x"]; ok || len(records) != 1 {
		t.Errorf("records after delete = %+v", records)
	}
}

func TestStoreGames(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 3 {
		r := GameRecord{
			Channel:     uint32(i + 1),
			Seed:        uint64(i),
			PlayerCount: 2,
			Winner:      i - 1,
			Ticks:       100,
			StartedAt:   time.Unix(100, 0),
			EndedAt:     time.Unix(102, 0),
		}
		if err := s.SaveGame(ctx, r); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	n, err := s.GameCount(ctx)
	if err != nil {
		t.Fatalf("GameCount: %v", err)
	}
	if n != 3 {
		t.Errorf("GameCount = %d, want 3", n)
	}
}

func TestRollingStatistics(t *testing.T) {
	start := time.Unix(10000, 0)
	r := newRollingStatistics(time.Minute, time.Hour)

	r.Push(start, 1)
	r.Push(start.Add(30*time.Second), 2)
	if r.Total() != 3 || len(r.dates) != 1 {
		t.Errorf("total %d in %d buckets, want 3 in 1", r.Total(), len(r.dates))
	}

	r.Push(start.Add(2*time.Minute), 4)
	if r.Total() != 7 || len(r.dates) != 2 {
		t.Errorf("total %d in %d buckets, want 7 in 2", r.Total(), len(r.dates))
	}

	// Older dates are ignored.
	r.Push(start, 10)
	if r.Total() != 7 {
		t.Errorf("total = %d after an old push", r.Total())
	}

	r.Push(start.Add(61*time.Minute), 0)
	if r.Total() != 4 {
		t.Errorf("total = %d after expiration, want 4", r.Total())
	}

	r.Push(start.Add(3*time.Hour), 0)
	if r.Total() != 0 {
		t.Errorf("total = %d after a long pause, want 0", r.Total())
	}
}

func TestStatisticsService(t *testing.T) {
	sched := schedule.NewManual(time.Unix(10000, 0))
	s := NewStatisticsService(sched, time.Minute)
	defer s.Stop()

	s.RecordSessionConnected()
	s.RecordSessionConnected()
	s.RecordGameStart(2)

	stats := s.Snapshot()
	if stats.SessionsNow != 2 || stats.SessionsLastHour != 2 || stats.GamesNow != 1 || stats.GamesLastDay != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if n := s.PlayersInGames(); n != 2 {
		t.Errorf("%d players in games, want 2", n)
	}

	s.RecordGameEnd(2)
	s.RecordSessionsDisconnected(2)
	sched.Tick(2 * time.Hour)

	stats = s.Snapshot()
	if stats.SessionsNow != 0 || stats.GamesNow != 0 || stats.SessionsLastHour != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SessionsLastDay != 2 || stats.GamesLastMonth != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestTimelineFileNames(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2024, 3, 7, 18, 4, 5, 0, time.UTC) }

	ts, err := NewTimelineService(dir, now)
	if err != nil {
		t.Fatalf("NewTimelineService: %v", err)
	}

	var names []string
	for range 2 {
		f, err := ts.Create(42)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		names = append(names, filepath.Base(f.(*os.File).Name()))
		f.Close()
	}

	if !strings.HasPrefix(names[0], "20240307_180405_") || !strings.HasSuffix(names[0], "_0000000042.bim") {
		t.Errorf("first name = %s", names[0])
	}
	if !strings.HasSuffix(names[1], "_0000000042_1.bim") {
		t.Errorf("second name = %s", names[1])
	}
}

func TestGameTimelineIsRecorded(t *testing.T) {
	cfg := testConfig()
	cfg.TimelineDir = t.TempDir()
	cfg.Database = filepath.Join(t.TempDir(), "arena.db")
	f := newFixture(t, cfg)
	s1, s2, channel := f.startGame()

	actions := []component.PlayerAction{
		{Movement: component.MovementRight},
		{DropBomb: true},
		{},
	}
	f.handle("a", s1, channel, message.GameUpdateFromClient{Actions: actions})
	f.handle("b", s2, channel, message.GameUpdateFromClient{Actions: actions})

	g, _ := f.srv.games.find(channel)
	want := g.runner.Contest().Hash()

	// The second player leaves, the game is over and the timeline closed.
	f.sched.Tick(cfg.DisconnectionInactivityDelay * 6 / 10)
	f.handle("a", s1, channel, message.GameUpdateFromClient{FromTick: 3})
	f.sched.Tick(cfg.DisconnectionInactivityDelay * 6 / 10)
	if !g.over {
		t.Fatalf("game still running")
	}

	entries, err := os.ReadDir(cfg.TimelineDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d timelines, want 1", len(entries))
	}

	file, err := os.Open(filepath.Join(cfg.TimelineDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	timeline, err := contest.LoadTimeline(file)
	if err != nil {
		t.Fatalf("LoadTimeline: %v", err)
	}
	if timeline.Fingerprint != g.fingerprint {
		t.Errorf("fingerprint = %+v, want %+v", timeline.Fingerprint, g.fingerprint)
	}
	if len(timeline.Ticks) != len(actions) {
		t.Fatalf("got %d ticks, want %d", len(timeline.Ticks), len(actions))
	}

	replayed, _ := timeline.Replay(nil)
	if got := replayed.Hash(); got != want {
		t.Errorf("replay hash = %x, want %x", got, want)
	}

	n, err := f.srv.store.GameCount(context.Background())
	if err != nil {
		t.Fatalf("GameCount: %v", err)
	}
	if n != 1 {
		t.Errorf("%d games recorded, want 1", n)
	}
}
