package system

import (
	"sort"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

// UpdatePowerUps destroys the burning power-ups and gives the others to the
// players walking on them. When several players share the cell of a
// power-up, the one with the lowest index takes it.
func UpdatePowerUps(r *ecs.Registry, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.PowerUp, component.Burning](r) {
		if ecs.Has[component.Dead](r, e) {
			continue
		}

		position := *ecs.Get[component.PositionOnGrid](r, e)
		ecs.Add(r, e, component.Dead{})
		m.EraseEntity(e, int(position.X), int(position.Y))
	}

	players := ecs.Collect[component.Player, component.FractionalPositionOnGrid](r)
	sort.Slice(players, func(i, j int) bool {
		return ecs.Get[component.Player](r, players[i]).Index < ecs.Get[component.Player](r, players[j]).Index
	})

	for _, e := range players {
		if !canCollect(r, e) {
			continue
		}

		position := *ecs.Get[component.FractionalPositionOnGrid](r, e)
		x, y := position.GridAlignedX(), position.GridAlignedY()

		// Copy the cell: collecting erases from it.
		cell := append([]ecs.Entity(nil), m.EntitiesAt(x, y)...)

		for _, item := range cell {
			p := ecs.Get[component.PowerUp](r, item)
			if p == nil || ecs.Has[component.Dead](r, item) {
				continue
			}

			kind := p.Kind
			ecs.Add(r, item, component.Dead{})
			m.EraseEntity(item, x, y)

			applyPowerUp(r, e, kind)
		}
	}
}

func canCollect(r *ecs.Registry, e ecs.Entity) bool {
	if ecs.Has[component.Dead](r, e) || ecs.Has[component.Kicked](r, e) {
		return false
	}

	anim := ecs.Get[component.AnimationState](r, e)
	return anim == nil || component.IsPlayerAlive(anim.Model)
}

func applyPowerUp(r *ecs.Registry, e ecs.Entity, kind component.PowerUpKind) {
	switch kind {
	case component.PowerUpBomb:
		p := ecs.Get[component.Player](r, e)
		if p.BombCapacity < ^uint8(0) {
			p.BombCapacity++
			p.BombAvailable++
		}
	case component.PowerUpFlame:
		p := ecs.Get[component.Player](r, e)
		p.BombStrength = min(p.BombStrength+1, config.MaxBombStrength)
	case component.PowerUpInvisibility:
		if s := ecs.Get[component.InvisibilityState](r, e); s != nil {
			if t := ecs.Get[component.Timer](r, s.TimerEntity); t != nil {
				t.Duration = config.InvisibilityDuration
				return
			}
		}
		timer := factory.Timer(r, config.InvisibilityDuration)
		ecs.Add(r, e, component.InvisibilityState{TimerEntity: timer})
	case component.PowerUpShield:
		ecs.Add(r, e, component.Shield{})
	}
}

// RefreshBombInventory sets the number of bombs each player can still drop:
// its capacity minus its bombs in the arena.
func RefreshBombInventory(r *ecs.Registry) {
	var dropped [config.MaxPlayerCount]int

	ecs.Each(r, func(e ecs.Entity, b *component.Bomb) {
		if int(b.PlayerIndex) < len(dropped) && !ecs.Has[component.Dead](r, e) {
			dropped[b.PlayerIndex]++
		}
	})

	ecs.Each(r, func(_ ecs.Entity, p *component.Player) {
		if int(p.Index) >= len(dropped) {
			return
		}

		if n := int(p.BombCapacity) - dropped[p.Index]; n > 0 {
			p.BombAvailable = uint8(n)
		} else {
			p.BombAvailable = 0
		}
	})
}
