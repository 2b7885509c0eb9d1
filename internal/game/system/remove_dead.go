package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// RemoveDeadObjects destroys the entities marked as dead, together with the
// timers of their timed states.
func RemoveDeadObjects(r *ecs.Registry, m *arena.WorldMap) {
	for _, e := range ecs.Storage[component.Dead](r).Entities() {
		if s := ecs.Get[component.InvincibilityState](r, e); s != nil {
			r.Destroy(s.TimerEntity)
		}
		if s := ecs.Get[component.InvisibilityState](r, e); s != nil {
			r.Destroy(s.TimerEntity)
		}
		if p := ecs.Get[component.PositionOnGrid](r, e); p != nil {
			m.EraseEntity(e, int(p.X), int(p.Y))
		}

		r.Destroy(e)
	}
}
