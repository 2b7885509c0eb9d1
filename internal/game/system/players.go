package system

import (
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

// UpdatePlayers applies the damages of the tick. A burning player with a
// shield loses it and becomes invincible for a while; an invincible player
// ignores the flames; any other burning player starts burning to death. A
// crushed player dies whatever its protections. Kicked players are removed.
func UpdatePlayers(r *ecs.Registry) {
	for _, e := range ecs.Collect[component.Player, component.Burning](r) {
		ecs.Remove[component.Burning](r, e)

		switch {
		case ecs.Has[component.Shield](r, e):
			ecs.Remove[component.Shield](r, e)
			if !ecs.Has[component.InvincibilityState](r, e) {
				timer := factory.Timer(r, config.InvincibilityDuration)
				ecs.Add(r, e, component.InvincibilityState{TimerEntity: timer})
			}
		case ecs.Has[component.InvincibilityState](r, e):
		default:
			transitionIfAlive(r, e, component.AnimationPlayerBurn)
		}
	}

	for _, e := range ecs.Collect[component.Player, component.Crushed](r) {
		ecs.Remove[component.Crushed](r, e)
		transitionIfAlive(r, e, component.AnimationPlayerDie)
	}

	for _, e := range ecs.Collect[component.Player, component.Kicked](r) {
		ecs.Add(r, e, component.Dead{})
	}
}

func transitionIfAlive(r *ecs.Registry, e ecs.Entity, id component.AnimationID) {
	if s := ecs.Get[component.AnimationState](r, e); s != nil && component.IsPlayerAlive(s.Model) {
		s.TransitionTo(id)
	}
}

// UpdateInvincibilityState ends the invincibility of the players whose
// timer expired.
func UpdateInvincibilityState(r *ecs.Registry) {
	for _, e := range ecs.Collect[component.Player, component.InvincibilityState](r) {
		s := *ecs.Get[component.InvincibilityState](r, e)

		if timerExpired(r, s.TimerEntity) {
			releaseTimer(r, s.TimerEntity)
			ecs.Remove[component.InvincibilityState](r, e)
		}
	}
}

// UpdateInvisibilityState ends the invisibility of the players whose timer
// expired or who are dying.
func UpdateInvisibilityState(r *ecs.Registry) {
	for _, e := range ecs.Collect[component.Player, component.InvisibilityState](r) {
		s := *ecs.Get[component.InvisibilityState](r, e)
		anim := ecs.Get[component.AnimationState](r, e)

		if timerExpired(r, s.TimerEntity) || (anim != nil && !component.IsPlayerAlive(anim.Model)) {
			releaseTimer(r, s.TimerEntity)
			ecs.Remove[component.InvisibilityState](r, e)
		}
	}
}

func timerExpired(r *ecs.Registry, e ecs.Entity) bool {
	t := ecs.Get[component.Timer](r, e)
	return t == nil || t.Duration == 0
}

func releaseTimer(r *ecs.Registry, e ecs.Entity) {
	if r.Valid(e) {
		ecs.Add(r, e, component.Dead{})
	}
}

// IsInvisible reports whether the player entity is hidden from the others.
func IsInvisible(r *ecs.Registry, e ecs.Entity) bool {
	return ecs.Has[component.InvisibilityState](r, e)
}
