package snapshot

import (
	"math"
	"testing"

	"cellevox/internal/cellstore"
	"cellevox/internal/model"
)

func TestTakeStatOnExtinctPopulationIsAllZero(t *testing.T) {
	store := cellstore.New()
	snap := TakeStat(store, 4.2)
	if snap.TotalLivingCells != 0 {
		t.Fatalf("TotalLivingCells = %d, want 0", snap.TotalLivingCells)
	}
	if snap.MeanFitness != 0 || snap.VarFitness != 0 || snap.SkewFitness != 0 || snap.KurtFitness != 0 {
		t.Fatalf("expected zeroed fitness moments, got %+v", snap)
	}
	if snap.Tau != 4.2 {
		t.Fatalf("Tau = %v, want 4.2", snap.Tau)
	}
}

func TestTakeStatUniformPopulationHasZeroVariance(t *testing.T) {
	store := cellstore.New()
	store.Seed(10) // every seeded cell has Fitness 1.0, no mutations
	snap := TakeStat(store, 1.0)
	if snap.TotalLivingCells != 10 {
		t.Fatalf("TotalLivingCells = %d, want 10", snap.TotalLivingCells)
	}
	if snap.MeanFitness != 1.0 {
		t.Fatalf("MeanFitness = %v, want 1.0", snap.MeanFitness)
	}
	if math.Abs(snap.VarFitness) > 1e-9 {
		t.Fatalf("VarFitness = %v, want ~0 for a uniform population", snap.VarFitness)
	}
}

func TestTakeStatKnownMoments(t *testing.T) {
	store := cellstore.New()
	store.Insert(model.Cell{ID: 0, Fitness: 1.0})
	store.Insert(model.Cell{ID: 1, Fitness: 2.0})
	store.Insert(model.Cell{ID: 2, Fitness: 3.0})

	snap := TakeStat(store, 0)
	if snap.TotalLivingCells != 3 {
		t.Fatalf("TotalLivingCells = %d, want 3", snap.TotalLivingCells)
	}
	wantMean := 2.0
	if math.Abs(snap.MeanFitness-wantMean) > 1e-9 {
		t.Fatalf("MeanFitness = %v, want %v", snap.MeanFitness, wantMean)
	}
	// population of {1,2,3}: M2=(1+4+9)/3=14/3, var=M2-mean^2=14/3-4=2/3
	wantVar := 2.0 / 3.0
	if math.Abs(snap.VarFitness-wantVar) > 1e-9 {
		t.Fatalf("VarFitness = %v, want %v", snap.VarFitness, wantVar)
	}
}

func TestTakePopulationIsIndependentOfLiveStore(t *testing.T) {
	store := cellstore.New()
	store.Seed(2)
	snap := TakePopulation(store, 5)
	if snap.Generation != 5 {
		t.Fatalf("Generation = %d, want 5", snap.Generation)
	}
	if len(snap.Cells) != 2 {
		t.Fatalf("len(Cells) = %d, want 2", len(snap.Cells))
	}

	store.Insert(model.Cell{ID: 0, Fitness: 42})
	if snap.Cells[0].Fitness == 42 {
		t.Fatalf("later store mutation leaked into an already-taken snapshot")
	}
}
