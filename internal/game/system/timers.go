package system

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// UpdateTimers decrements every timer by elapsed, stopping at zero.
func UpdateTimers(r *ecs.Registry, elapsed time.Duration) {
	ecs.Each(r, func(_ ecs.Entity, t *component.Timer) {
		if t.Duration <= elapsed {
			t.Duration = 0
		} else {
			t.Duration -= elapsed
		}
	})
}

// Animate advances every animation by elapsed. An animation reaching its
// duration runs its completion then chains to its next animation, possibly
// several times in a single call.
func Animate(r *ecs.Registry, catalog *component.AnimationCatalog, elapsed time.Duration) {
	for _, e := range ecs.Storage[component.AnimationState](r).Entities() {
		s := ecs.Get[component.AnimationState](r, e)
		if s == nil {
			continue
		}

		def := catalog.Get(s.Model)
		model, current := s.Model, s.Elapsed
		next := current + elapsed

		for def.Duration != 0 && current < def.Duration && next >= def.Duration {
			if def.Complete != nil {
				def.Complete(r, e)
			}

			if def.Next == component.AnimationNone {
				break
			}

			next -= def.Duration
			model, current = def.Next, 0
			def = catalog.Get(def.Next)
		}

		// The completion may have added components, moving the store.
		if s = ecs.Get[component.AnimationState](r, e); s != nil {
			s.Model = model
			s.Elapsed = next
		}
	}
}
