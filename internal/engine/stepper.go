// Package engine implements the τ-leap stepper: the parallel per-step
// update over the living population (spec §4.1).
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"

	"cellevox/internal/cellstore"
	"cellevox/internal/model"
	"cellevox/internal/randsrc"
	"cellevox/internal/snapshot"
)

// Config carries the per-run constants the stepper needs on every call.
type Config struct {
	TauStep      float64
	EnvCapacity  float64
	Workers      int
	StatRes      int
	PopulRes     int
	Catalog      []model.MutationType
}

// Stepper advances a Cell Store + Graveyard one τ-leap at a time. It is not
// safe for concurrent calls to Step — the parallel region lives inside a
// single Step call, not across calls.
type Stepper struct {
	cfg       Config
	store     *cellstore.Store
	graveyard *cellstore.Graveyard
	rng       *randsrc.Source

	tau          float64
	population   int
	totalDeaths  int
	lastStatG    int
	lastPopulG   int
	stepIndex    int
	totalProb    float64
}

// New constructs a Stepper over store/graveyard, starting from an initial
// living population of n0 (already seeded into store by the caller).
func New(cfg Config, store *cellstore.Store, graveyard *cellstore.Graveyard, rng *randsrc.Source, n0 int) *Stepper {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := 0.0
	for _, m := range cfg.Catalog {
		total += m.Probability
	}
	return &Stepper{
		cfg:        cfg,
		store:      store,
		graveyard:  graveyard,
		rng:        rng,
		population: n0,
		lastStatG:  -1,
		lastPopulG: -1,
		totalProb:  total,
	}
}

// Tau returns the current simulated time.
func (s *Stepper) Tau() float64 { return s.tau }

// Population returns the stepper's tracked living-population counter
// (distinct from store.Len(), which is cross-checked against it each step).
func (s *Stepper) Population() int { return s.population }

// TotalDeaths returns the cumulative death counter.
func (s *Stepper) TotalDeaths() int { return s.totalDeaths }

// Result carries what a single Step produced besides the store mutations
// already applied in place.
type Result struct {
	Generation       int
	StatSnapshot     *model.StatSnapshot
	PopulationSnap   *model.PopulationSnapshot
	DeathCount       int
	NewCellCount     int
	MutationsAdded   int
}

type daughterPair struct {
	motherID uint32
	first    model.Cell
	second   model.Cell
}

// Step advances simulated time by one τ_step and applies spec §4.1's
// eight-step algorithm. A non-nil error indicates a class-2 invariant
// violation (spec §7): the caller should treat the step as failed but may
// still use whatever partial state was committed before the error.
func (s *Stepper) Step() (Result, error) {
	s.tau += s.cfg.TauStep
	s.stepIndex++
	g := int(math.Floor(s.tau))
	result := Result{Generation: g}

	ids := s.store.LivingIDs()
	if len(ids) != s.population {
		slog.Error("stepper: living id count mismatch",
			"enumerated", len(ids), "expected", s.population, "tau", s.tau)
		return result, fmt.Errorf("engine: enumerated living ids (%d) != tracked population (%d) at tau=%v",
			len(ids), s.population, s.tau)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	n := len(ids)

	var deadIDs []uint32
	var newCells []daughterPair
	var mutationsAdded int

	if n > 0 {
		deadIDs, newCells, mutationsAdded = s.parallelRegion(ids, n)
	}

	// Sequential commit phase: dense id assignment, then erase the dead.
	startingID := uint32(n + s.totalDeaths)
	j := 0
	for _, pair := range newCells {
		for _, daughter := range []model.Cell{pair.first, pair.second} {
			d := daughter
			d.ID = startingID + uint32(j)
			for k := range d.Mutations {
				if d.Mutations[k].OriginCellID == 0 {
					d.Mutations[k].OriginCellID = d.ID
				}
			}
			s.store.Insert(d)
			j++
		}
	}
	for _, id := range deadIDs {
		dying, ok := s.store.Get(id)
		if !ok {
			slog.Error("stepper: dying cell absent from store during commit", "id", id, "tau", s.tau)
			continue
		}
		s.graveyard.Bury(id, dying.ParentID, s.tau)
		s.store.Delete(id)
	}

	deathCount := len(deadIDs)
	newCellCount := j
	s.totalDeaths += deathCount
	s.population += newCellCount - deathCount

	result.DeathCount = deathCount
	result.NewCellCount = newCellCount
	result.MutationsAdded = mutationsAdded

	if s.cfg.StatRes > 0 && g%s.cfg.StatRes == 0 && g != s.lastStatG {
		snap := snapshot.TakeStat(s.store, s.tau)
		result.StatSnapshot = &snap
		s.lastStatG = g
	}
	if s.cfg.PopulRes > 0 && g%s.cfg.PopulRes == 0 && g != s.lastPopulG {
		snap := snapshot.TakePopulation(s.store, g)
		result.PopulationSnap = &snap
		s.lastPopulG = g
	}

	return result, nil
}

// parallelRegion runs the fixed-size worker pool over ids[0:n), one worker
// per contiguous chunk, each with its own deterministic random stream
// (internal/randsrc), grounded on the teacher's evaluatePopulation jobs
// pattern but with index chunks instead of a jobs channel since each
// worker's stream must consume draws in a fixed sequential order over its
// chunk to stay reproducible for a fixed worker count.
func (s *Stepper) parallelRegion(ids []uint32, n int) ([]uint32, []daughterPair, int) {
	workers := s.cfg.Workers
	if workers > n {
		workers = n
	}
	chunkDead := make([][]uint32, workers)
	chunkNew := make([][]daughterPair, workers)
	chunkMutations := make([]int, workers)

	chunkSize := (n + workers - 1) / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(w, start, end int) {
			defer wg.Done()
			if start >= end {
				return
			}
			rng := s.rng.ForTask(s.stepIndex, w)
			dead := make([]uint32, 0)
			newC := make([]daughterPair, 0)
			mutations := 0
			nf := float64(n)
			for i := start; i < end; i++ {
				id := ids[i]
				cell, ok := s.store.Get(id)
				if !ok {
					continue
				}
				dRaw := randsrc.Exponential(rng)
				d := dRaw / (nf / s.cfg.EnvCapacity)
				bRaw := randsrc.Exponential(rng)
				b := bRaw / cell.Fitness

				switch {
				case d <= s.cfg.TauStep:
					dead = append(dead, id)
				case b <= s.cfg.TauStep:
					dead = append(dead, id)
					first, second, added := s.produceDaughters(cell, rng)
					newC = append(newC, daughterPair{motherID: id, first: first, second: second})
					mutations += added
				}
			}
			chunkDead[w] = dead
			chunkNew[w] = newC
			chunkMutations[w] = mutations
		}(w, start, end)
	}
	wg.Wait()

	var deadIDs []uint32
	var newCells []daughterPair
	total := 0
	for w := 0; w < workers; w++ {
		deadIDs = append(deadIDs, chunkDead[w]...)
		newCells = append(newCells, chunkNew[w]...)
		total += chunkMutations[w]
	}
	return deadIDs, newCells, total
}

// produceDaughters implements spec §4.1 step 5: one uniform draw decides
// whether this division produces a mutant; at most one daughter ever
// acquires a mutation, and it is always the first of the pair.
func (s *Stepper) produceDaughters(mother model.Cell, rng *rand.Rand) (model.Cell, model.Cell, int) {
	second := model.Cell{ParentID: mother.ID, Fitness: mother.Fitness, Mutations: cloneMutations(mother.Mutations)}

	u := rng.Float64()
	if u >= s.totalProb {
		first := model.Cell{ParentID: mother.ID, Fitness: mother.Fitness, Mutations: cloneMutations(mother.Mutations)}
		return first, second, 0
	}

	acc := 0.0
	for _, m := range s.cfg.Catalog {
		acc += m.Probability
		if u < acc {
			first := model.Cell{
				ParentID: mother.ID,
				Fitness:  mother.Fitness * (1 + m.Effect),
				Mutations: append(cloneMutations(mother.Mutations),
					model.Mutation{OriginCellID: 0, TypeID: m.TypeID}),
			}
			return first, second, 1
		}
	}
	// Floating point edge: u fell in [acc, totalProb) due to rounding.
	// Treat as verbatim, matching the "u >= P" branch.
	first := model.Cell{ParentID: mother.ID, Fitness: mother.Fitness, Mutations: cloneMutations(mother.Mutations)}
	return first, second, 0
}

func cloneMutations(in []model.Mutation) []model.Mutation {
	if len(in) == 0 {
		return nil
	}
	return append([]model.Mutation(nil), in...)
}

