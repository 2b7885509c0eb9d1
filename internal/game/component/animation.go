package component

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// AnimationID identifies an entry of the animation catalog.
type AnimationID uint8

const (
	AnimationNone AnimationID = iota

	AnimationPlayerIdleDown
	AnimationPlayerIdleUp
	AnimationPlayerIdleLeft
	AnimationPlayerIdleRight
	AnimationPlayerWalkDown
	AnimationPlayerWalkUp
	AnimationPlayerWalkLeft
	AnimationPlayerWalkRight
	AnimationPlayerBurn
	AnimationPlayerDie

	AnimationFlameWarmUp
	AnimationFlameBurn
	AnimationFlameCoolDown

	animationCount
)

// AnimationState is the animation an entity is playing and for how long.
type AnimationState struct {
	Model   AnimationID
	Elapsed time.Duration
}

// TransitionTo switches to another animation from its beginning.
func (s *AnimationState) TransitionTo(id AnimationID) {
	s.Model = id
	s.Elapsed = 0
}

// AnimationSpec describes one animation. A zero Duration loops forever.
// When the duration is reached, Complete is called, then the entity moves
// to Next unless Next is AnimationNone.
type AnimationSpec struct {
	Duration time.Duration
	Next     AnimationID
	Complete func(r *ecs.Registry, e ecs.Entity)
}

// AnimationCatalog is the table of every animation.
type AnimationCatalog [animationCount]AnimationSpec

const (
	flameWarmUpDuration   = 90 * time.Millisecond
	flameCoolDownDuration = 90 * time.Millisecond
)

func markDead(r *ecs.Registry, e ecs.Entity) {
	ecs.Add(r, e, Dead{})
}

// Animations is the catalog shared by every contest.
var Animations = AnimationCatalog{
	AnimationPlayerBurn: {Duration: config.BurnAnimationDuration, Complete: markDead},
	AnimationPlayerDie:  {Duration: config.DieAnimationDuration, Complete: markDead},

	AnimationFlameWarmUp: {Duration: flameWarmUpDuration, Next: AnimationFlameBurn},
	AnimationFlameBurn: {
		Duration: config.FlameDuration - flameWarmUpDuration - flameCoolDownDuration,
		Next:     AnimationFlameCoolDown,
	},
	AnimationFlameCoolDown: {Duration: flameCoolDownDuration},
}

// Get returns the definition of an animation.
func (c *AnimationCatalog) Get(id AnimationID) *AnimationSpec {
	return &c[id]
}

// IsPlayerAlive reports whether a player playing id is neither burning nor
// dying.
func IsPlayerAlive(id AnimationID) bool {
	return id >= AnimationPlayerIdleDown && id <= AnimationPlayerWalkRight
}

// IdleAnimation returns the idle animation facing d.
func IdleAnimation(d Direction) AnimationID {
	switch d {
	case DirectionUp:
		return AnimationPlayerIdleUp
	case DirectionLeft:
		return AnimationPlayerIdleLeft
	case DirectionRight:
		return AnimationPlayerIdleRight
	}
	return AnimationPlayerIdleDown
}

// WalkAnimation returns the walk animation facing d.
func WalkAnimation(d Direction) AnimationID {
	switch d {
	case DirectionUp:
		return AnimationPlayerWalkUp
	case DirectionLeft:
		return AnimationPlayerWalkLeft
	case DirectionRight:
		return AnimationPlayerWalkRight
	}
	return AnimationPlayerWalkDown
}
