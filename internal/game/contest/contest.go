// Package contest runs a game: it owns the registry and the arena, builds
// the level from a fingerprint and advances the simulation one tick at a
// time. Two contests created from the same fingerprint and fed with the
// same actions stay identical.
package contest

import (
	"fmt"
	"hash/fnv"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
	"github.com/tomz197/bomb-arena/internal/game/level"
	"github.com/tomz197/bomb-arena/internal/game/random"
	"github.com/tomz197/bomb-arena/internal/game/system"
)

// Fingerprint holds every parameter needed to rebuild a contest from its
// first tick.
type Fingerprint struct {
	Seed                 uint64
	Features             config.Feature
	PlayerCount          uint8
	BrickWallProbability uint8
	ArenaWidth           uint8
	ArenaHeight          uint8
}

// DefaultFingerprint returns the parameters of a standard game.
func DefaultFingerprint(seed uint64, playerCount uint8) Fingerprint {
	return Fingerprint{
		Seed:                 seed,
		Features:             config.AllFeatures,
		PlayerCount:          playerCount,
		BrickWallProbability: config.DefaultBrickWallProbability,
		ArenaWidth:           config.DefaultArenaWidth,
		ArenaHeight:          config.DefaultArenaHeight,
	}
}

// Validate checks that a contest can be built from fp.
func (fp Fingerprint) Validate() error {
	if fp.PlayerCount == 0 || fp.PlayerCount > config.MaxPlayerCount {
		return fmt.Errorf("invalid player count %d", fp.PlayerCount)
	}
	if fp.ArenaWidth < 5 || fp.ArenaHeight < 5 {
		return fmt.Errorf("arena %dx%d is too small", fp.ArenaWidth, fp.ArenaHeight)
	}
	if fp.BrickWallProbability > 100 {
		return fmt.Errorf("invalid brick wall probability %d", fp.BrickWallProbability)
	}
	return nil
}

// spawnPoint returns the starting cell of a player.
func spawnPoint(index int, width, height int) (x, y int) {
	switch index % 4 {
	case 0:
		return 1, 1
	case 1:
		return width - 2, height - 2
	case 2:
		return width - 2, 1
	}
	return 1, height - 2
}

// Contest is one game. It is not safe for concurrent use.
type Contest struct {
	fingerprint Fingerprint
	registry    *ecs.Registry
	arena       *arena.Arena
	worldMap    *arena.WorldMap
	fog         *system.FogOfWarUpdater
	reduction   *system.ArenaReduction
	tickCount   uint32
}

// New builds the initial state of the contest described by fp. It panics
// if fp is invalid.
func New(fp Fingerprint) *Contest {
	if err := fp.Validate(); err != nil {
		panic("contest: " + err.Error())
	}

	width, height := int(fp.ArenaWidth), int(fp.ArenaHeight)

	c := &Contest{
		fingerprint: fp,
		registry:    ecs.NewRegistry(),
		arena:       arena.New(width, height),
		worldMap:    arena.NewWorldMap(width, height),
	}

	for i := 0; i != int(fp.PlayerCount); i++ {
		x, y := spawnPoint(i, width, height)
		factory.Player(c.registry, uint8(i), x, y)
	}

	level.GenerateBasicLevelStructure(c.arena)

	rng := random.New(fp.Seed)
	rng.Discard(10)

	level.InsertRandomBrickWalls(c.arena, c.worldMap, c.registry, rng, fp.BrickWallProbability, fp.Features)

	factory.GameTimer(c.registry, config.GameDuration)

	if fp.Features.Has(config.FeatureFallingBlocks) {
		c.reduction = system.NewArenaReduction(c.arena)
		factory.ArenaReduction(c.registry, config.ArenaReductionStart)
	}

	if fp.Features.Has(config.FeatureFogOfWar) {
		for i := 0; i != int(fp.PlayerCount); i++ {
			factory.FogOfWar(c.registry, uint8(i), width, height)
		}
		c.fog = system.NewFogOfWarUpdater(width, height, int(fp.PlayerCount))
	}

	return c
}

// Fingerprint returns the parameters of the contest.
func (c *Contest) Fingerprint() Fingerprint { return c.fingerprint }

// Registry returns the entities of the contest.
func (c *Contest) Registry() *ecs.Registry { return c.registry }

// Arena returns the grid of the contest.
func (c *Contest) Arena() *arena.Arena { return c.arena }

// WorldMap returns the per-cell entity lists of the contest.
func (c *Contest) WorldMap() *arena.WorldMap { return c.worldMap }

// TickCount returns the number of ticks run so far.
func (c *Contest) TickCount() uint32 { return c.tickCount }

// Tick advances the simulation by one step.
func (c *Contest) Tick() Result {
	r, a, m := c.registry, c.arena, c.worldMap

	system.ApplyPlayerActions(r, a, m)
	system.UpdateTimers(r, config.TickInterval)
	system.Animate(r, &component.Animations, config.TickInterval)
	system.UpdateBombs(r, a, m)
	system.UpdateFlames(r, m)
	system.UpdateBrickWalls(r, a, m)
	system.UpdateCrates(r, a, m)
	system.UpdatePowerUpSpawners(r, m)
	system.UpdatePlayers(r)
	system.UpdateInvincibilityState(r)
	system.UpdateInvisibilityState(r)
	system.UpdatePowerUps(r, m)
	system.RefreshBombInventory(r)

	if c.fog != nil {
		c.fog.Update(r)
	}

	if c.reduction != nil {
		c.reduction.Update(r, m)
		system.UpdateFallingBlocks(r, a, m)
	}

	system.RemoveDeadObjects(r, m)

	c.tickCount++

	return CheckGameOver(r)
}

// Clone returns an independent copy of the contest.
func (c *Contest) Clone() *Contest {
	clone := &Contest{
		fingerprint: c.fingerprint,
		registry:    c.registry.Clone(),
		arena:       c.arena.Clone(),
		worldMap:    c.worldMap.Clone(),
		reduction:   c.reduction,
		tickCount:   c.tickCount,
	}

	if c.fog != nil {
		clone.fog = system.NewFogOfWarUpdater(int(c.fingerprint.ArenaWidth), int(c.fingerprint.ArenaHeight), int(c.fingerprint.PlayerCount))
	}

	return clone
}

// Player returns the entity of the player with the given index, or
// ecs.Null if the player is no longer in the game.
func (c *Contest) Player(index uint8) ecs.Entity {
	found := ecs.Null

	ecs.Each(c.registry, func(e ecs.Entity, p *component.Player) {
		if p.Index == index {
			found = e
		}
	})

	return found
}

// SetAction sets the action applied to the player during the next tick. It
// is ignored if the player is no longer in the game.
func (c *Contest) SetAction(index uint8, action component.PlayerAction) {
	if e := c.Player(index); !e.IsNull() {
		*ecs.Get[component.PlayerAction](c.registry, e) = action
	}
}

// QueueAction appends an action to the queue of the player. The queue feeds
// one action per tick.
func (c *Contest) QueueAction(index uint8, action component.PlayerAction) {
	if e := c.Player(index); !e.IsNull() {
		ecs.Get[component.PlayerActionQueue](c.registry, e).Push(action)
	}
}

// PendingActions returns the action each player will apply during the next
// tick, indexed by player. Players out of the game have an idle action.
func (c *Contest) PendingActions() []component.PlayerAction {
	actions := make([]component.PlayerAction, c.fingerprint.PlayerCount)

	ecs.View2(c.registry, func(e ecs.Entity, p *component.Player, a *component.PlayerAction) {
		if int(p.Index) >= len(actions) {
			return
		}

		actions[p.Index] = *a
		if q := ecs.Get[component.PlayerActionQueue](c.registry, e); q != nil && q.Len() != 0 {
			actions[p.Index] = q.At(0)
		}
	})

	return actions
}

// KickPlayer removes a player from the game during the next tick.
func (c *Contest) KickPlayer(index uint8) {
	if e := c.Player(index); !e.IsNull() {
		ecs.Add(c.registry, e, component.Kicked{})
	}
}

// KickedPlayers returns the indices of the players kicked during the next
// tick.
func (c *Contest) KickedPlayers() []uint8 {
	var out []uint8

	ecs.View2(c.registry, func(_ ecs.Entity, p *component.Player, _ *component.Kicked) {
		out = append(out, p.Index)
	})

	return out
}

// Hash returns a digest of the whole state of the contest. Two contests
// with the same hash are identical, up to hash collisions.
func (c *Contest) Hash() uint64 {
	h := fnv.New64a()

	fmt.Fprintf(h, "tick %d\n", c.tickCount)

	c.registry.Dump(func(store string, e ecs.Entity, value any) {
		fmt.Fprintf(h, "%s %d:%d %+v\n", store, e.Index, e.Generation, value)
	})

	for y := 0; y != c.arena.Height(); y++ {
		for x := 0; x != c.arena.Width(); x++ {
			fmt.Fprintf(h, "%d,%d %v %v %v %v\n", x, y,
				c.arena.EntityAt(x, y), c.arena.IsSolid(x, y), c.arena.IsStaticWall(x, y),
				c.worldMap.EntitiesAt(x, y))
		}
	}

	return h.Sum64()
}

// CheckGameOver tells whether the game is over. The game goes on while a
// player is dying so that the last players can die together.
func CheckGameOver(r *ecs.Registry) Result {
	var (
		alive  int
		winner uint8
		dying  bool
	)

	ecs.View2(r, func(e ecs.Entity, p *component.Player, s *component.AnimationState) {
		if ecs.Has[component.Dead](r, e) {
			return
		}

		alive++
		winner = p.Index
		dying = dying || !component.IsPlayerAlive(s.Model)
	})

	if dying {
		return StillRunning()
	}

	switch alive {
	case 0:
		return Draw()
	case 1:
		return GameOver(winner)
	}

	timeIsUp := false
	ecs.View2(r, func(_ ecs.Entity, t *component.Timer, _ *component.GameTimer) {
		timeIsUp = timeIsUp || t.Duration == 0
	})

	if timeIsUp {
		return Draw()
	}

	return StillRunning()
}
