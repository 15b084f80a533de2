package cellstore

import (
	"testing"

	"cellevox/internal/model"
)

func TestSeed(t *testing.T) {
	s := New()
	s.Seed(5)
	if s.Len() != 5 {
		t.Fatalf("len = %d, want 5", s.Len())
	}
	for i := uint32(0); i < 5; i++ {
		c, ok := s.Get(i)
		if !ok {
			t.Fatalf("cell %d missing after seed", i)
		}
		if c.ParentID != model.RootID || c.Fitness != 1.0 {
			t.Fatalf("cell %d = %+v, want root parent and fitness 1.0", i, c)
		}
	}
}

func TestSnapshotIsIndependentOfLiveStore(t *testing.T) {
	s := New()
	s.Seed(1)
	snap := s.Snapshot()

	c := snap[0]
	c.Fitness = 999
	c.Mutations = append(c.Mutations, model.Mutation{OriginCellID: 0, TypeID: 1})

	live, _ := s.Get(0)
	if live.Fitness == 999 {
		t.Fatalf("mutating snapshot copy affected live store")
	}
	if len(live.Mutations) != 0 {
		t.Fatalf("mutating snapshot copy's mutation slice affected live store")
	}

	snap2 := s.Snapshot()
	if len(snap2[0].Mutations) != 0 {
		t.Fatalf("earlier snapshot mutation leaked into a fresh snapshot")
	}
}

func TestDeleteAndMaxID(t *testing.T) {
	s := New()
	s.Seed(3)
	if max, ok := s.MaxID(); !ok || max != 2 {
		t.Fatalf("MaxID() = %d,%v want 2,true", max, ok)
	}
	s.Delete(2)
	if max, ok := s.MaxID(); !ok || max != 1 {
		t.Fatalf("MaxID() after delete = %d,%v want 1,true", max, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("len after delete = %d, want 2", s.Len())
	}
}

func TestLivingIDsMatchesLen(t *testing.T) {
	s := New()
	s.Seed(10)
	ids := s.LivingIDs()
	if len(ids) != 10 {
		t.Fatalf("len(LivingIDs()) = %d, want 10", len(ids))
	}
}

func TestGraveyardBuryAndGet(t *testing.T) {
	g := NewGraveyard()
	g.Bury(7, 3, 12.5)
	e, ok := g.Get(7)
	if !ok {
		t.Fatalf("entry for 7 missing")
	}
	if e.ParentID != 3 || e.DeathTime != 12.5 {
		t.Fatalf("entry = %+v, want {ParentID:3 DeathTime:12.5}", e)
	}
	if g.Len() != 1 {
		t.Fatalf("len = %d, want 1", g.Len())
	}
	if !g.Contains(7) || g.Contains(8) {
		t.Fatalf("Contains gave wrong answer for 7/8")
	}
}
