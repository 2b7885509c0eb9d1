package arena

import (
	"testing"

	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

func TestArenaPutEraseEntity(t *testing.T) {
	a := New(5, 3)
	e := ecs.Entity{Index: 3}

	if !a.EntityAt(2, 1).IsNull() {
		t.Fatalf("new arena is not empty")
	}

	a.PutEntity(2, 1, e)
	a.SetSolid(2, 1)

	if got := a.EntityAt(2, 1); got != e {
		t.Errorf("EntityAt = %v, want %v", got, e)
	}
	if a.IsFree(2, 1) {
		t.Errorf("occupied cell reported free")
	}

	a.EraseEntity(2, 1)

	if !a.EntityAt(2, 1).IsNull() {
		t.Errorf("cell not emptied")
	}
	if a.IsSolid(2, 1) {
		t.Errorf("erase did not clear the solid flag")
	}
}

func TestArenaPutOnOccupiedCellPanics(t *testing.T) {
	a := New(3, 3)
	a.PutEntity(1, 1, ecs.Entity{Index: 1})

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	a.PutEntity(1, 1, ecs.Entity{Index: 2})
}

func TestStaticWallIsSolid(t *testing.T) {
	a := New(3, 3)
	a.SetStaticWall(0, 0)

	if !a.IsStaticWall(0, 0) || !a.IsSolid(0, 0) {
		t.Errorf("static wall must be solid")
	}
	if a.IsFree(0, 0) {
		t.Errorf("static wall reported free")
	}
}

func TestStaticWallNeighborhood(t *testing.T) {
	a := New(3, 3)
	a.SetStaticWall(0, 0)
	a.SetStaticWall(1, 0)
	a.SetStaticWall(0, 1)

	walls := a.StaticWalls()
	if len(walls) != 3 {
		t.Fatalf("got %d walls, want 3", len(walls))
	}

	if got, want := walls[0].Neighborhood, NeighborRight|NeighborDown; got != want {
		t.Errorf("neighborhood of (0,0) = %08b, want %08b", got, want)
	}
	if got, want := walls[1].Neighborhood, NeighborLeft|NeighborDownLeft; got != want {
		t.Errorf("neighborhood of (1,0) = %08b, want %08b", got, want)
	}
}

func TestWorldMap(t *testing.T) {
	m := NewWorldMap(4, 4)
	a := ecs.Entity{Index: 1}
	b := ecs.Entity{Index: 2}
	c := ecs.Entity{Index: 3}

	m.PutEntity(a, 1, 2)
	m.PutEntity(b, 1, 2)
	m.PutEntity(c, 1, 2)

	if got := len(m.EntitiesAt(1, 2)); got != 3 {
		t.Fatalf("%d entities in cell, want 3", got)
	}

	m.EraseEntity(b, 1, 2)
	got := m.EntitiesAt(1, 2)
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Errorf("after erase: %v", got)
	}

	clone := m.Clone()
	m.EraseEntities(1, 2)

	if len(m.EntitiesAt(1, 2)) != 0 {
		t.Errorf("EraseEntities left entities")
	}
	if len(clone.EntitiesAt(1, 2)) != 2 {
		t.Errorf("clone shares cells with the original")
	}
}
