package component

import "testing"

func TestActionQueueEvictsOldest(t *testing.T) {
	var q PlayerActionQueue

	for i := 0; i != ActionQueueCapacity; i++ {
		if _, evicted := q.Push(PlayerAction{Movement: Movement(i % int(MovementCount))}); evicted {
			t.Fatalf("push %d evicted an action from a non-full queue", i)
		}
	}

	oldest, evicted := q.Push(PlayerAction{DropBomb: true})
	if !evicted {
		t.Fatalf("push into a full queue did not evict")
	}
	if oldest.Movement != MovementIdle || oldest.DropBomb {
		t.Errorf("evicted %+v, want the first pushed action", oldest)
	}
	if q.Len() != ActionQueueCapacity {
		t.Errorf("Len() = %d, want %d", q.Len(), ActionQueueCapacity)
	}

	first, _ := q.Pop()
	if first.Movement != MovementUp {
		t.Errorf("Pop() = %+v, want the second pushed action", first)
	}
	if last := q.At(q.Len() - 1); !last.DropBomb {
		t.Errorf("newest action = %+v, want the drop bomb action", last)
	}
}

func TestActionQueuePopEmpty(t *testing.T) {
	var q PlayerActionQueue
	if _, ok := q.Pop(); ok {
		t.Errorf("Pop() on empty queue reported an action")
	}
}

func TestActionNibble(t *testing.T) {
	for m := MovementIdle; m < MovementCount; m++ {
		for _, bomb := range []bool{false, true} {
			a := PlayerAction{Movement: m, DropBomb: bomb}
			got, ok := ActionFromNibble(a.Nibble())
			if !ok || got != a {
				t.Errorf("nibble of %+v decoded as %+v (ok=%v)", a, got, ok)
			}
		}
	}

	for _, n := range []uint8{0x7, 0xf} {
		if _, ok := ActionFromNibble(n); ok {
			t.Errorf("movement 7 accepted in nibble %#x", n)
		}
	}
}

func TestActionNibbleLayout(t *testing.T) {
	for _, tc := range []struct {
		action PlayerAction
		want   uint8
	}{
		{PlayerAction{}, 0x0},
		{PlayerAction{Movement: MovementUp}, 0x1},
		{PlayerAction{DropBomb: true}, 0x8},
		{PlayerAction{Movement: MovementRight, DropBomb: true}, 0xc},
	} {
		if got := tc.action.Nibble(); got != tc.want {
			t.Errorf("Nibble() of %+v = %#x, want %#x", tc.action, got, tc.want)
		}
	}
}

func TestFixedCell(t *testing.T) {
	p := NewFractionalPosition(3, 5)
	if p.GridAlignedX() != 3 || p.GridAlignedY() != 5 {
		t.Errorf("center of (3,5) is in cell (%d,%d)", p.GridAlignedX(), p.GridAlignedY())
	}
	if p.X.Fraction() != 8 {
		t.Errorf("center fraction = %d, want 8", p.X.Fraction())
	}
}
