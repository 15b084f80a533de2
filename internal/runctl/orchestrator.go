// Package runctl is the Run Orchestrator (spec §4.3): it owns the Cell
// Store, Graveyard, stepper, and reports for the lifetime of one
// simulation, and assembles the final Run summary.
package runctl

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"cellevox/internal/cellstore"
	"cellevox/internal/config"
	"cellevox/internal/engine"
	"cellevox/internal/model"
	"cellevox/internal/phylo"
	"cellevox/internal/progress"
	"cellevox/internal/randsrc"
)

// Run is the orchestrator's output: everything spec §6's "Exported Run
// aggregate" names, plus the compressed phylogenetic tree.
type Run struct {
	Store     *cellstore.Store
	Graveyard *cellstore.Graveyard
	Catalog   []model.MutationType
	Tree      phylo.Tree

	StatReport       []model.StatSnapshot
	PopulationReport []model.PopulationSnapshot

	Summary model.RunSummary
}

// shuttingDown is a process-wide flag (spec §5's "process-wide atomic
// shutdown flag checked between steps"). One orchestrator run at a time is
// assumed, matching the single long-running stepper loop this simulation
// has in place of the teacher's supervision tree of many tasks.
var shuttingDown atomic.Bool

// ListenForShutdown registers SIGINT/SIGTERM handlers that set the
// process-wide shutdown flag; the returned func deregisters them. Scoped
// around the orchestrator call only, not application-wide, mirroring the
// original's signal registration being scoped to the engine run.
func ListenForShutdown() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			shuttingDown.Store(true)
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(sigCh)
	}
}

// Execute runs the configured simulation to completion (or until the
// shutdown flag is set), reporting progress to progressOut if non-nil.
func Execute(ctx context.Context, cfg config.Config, progressOut *progress.Reporter) Run {
	slog.Info("starting run",
		"initial_population", cfg.InitialPopulation,
		"env_capacity", cfg.EnvCapacity,
		"tau_step", cfg.TauStep,
		"steps", cfg.Steps,
		"mutation_classes", len(cfg.Mutations))

	store := cellstore.New()
	store.Seed(cfg.InitialPopulation)
	graveyard := cellstore.NewGraveyard()

	stepperCfg := engine.Config{
		TauStep:     cfg.TauStep,
		EnvCapacity: float64(cfg.EnvCapacity),
		Workers:     cfg.Workers,
		StatRes:     cfg.StatisticsResolution,
		PopulRes:    cfg.PopulationStatisticsRes,
		Catalog:     cfg.Catalog(),
	}
	rng := randsrc.New(cfg.Seed)
	stepper := engine.New(stepperCfg, store, graveyard, rng, cfg.InitialPopulation)

	var statReport []model.StatSnapshot
	var populReport []model.PopulationSnapshot
	shutdownRequested := false
	stepsRun := 0

	for i := 0; i < cfg.Steps; i++ {
		if ctx.Err() != nil || shuttingDown.Load() {
			shutdownRequested = true
			break
		}

		res, err := stepper.Step()
		if err != nil {
			slog.Error("step failed, aborting remaining steps", "step", i, "error", err)
			break
		}
		stepsRun++
		if res.StatSnapshot != nil {
			statReport = append(statReport, *res.StatSnapshot)
		}
		if res.PopulationSnap != nil {
			populReport = append(populReport, *res.PopulationSnap)
		}
		if progressOut != nil {
			progressOut.Report(i+1, store.Len())
		}
	}
	if progressOut != nil {
		progressOut.Done()
	}

	tree := phylo.Build(store, graveyard)
	phylo.Audit(store, graveyard, stepper.TotalDeaths())

	summary := summarize(summarizeInput{
		store:             store,
		graveyard:         graveyard,
		catalog:           cfg.Catalog(),
		stepper:           stepper,
		stepsRun:          stepsRun,
		shutdownRequested: shutdownRequested,
		statReportLen:     len(statReport),
		populReportLen:    len(populReport),
		treeLen:           len(tree),
	})
	logResults(summary)

	return Run{
		Store:            store,
		Graveyard:        graveyard,
		Catalog:          cfg.Catalog(),
		Tree:             tree,
		StatReport:       statReport,
		PopulationReport: populReport,
		Summary:          summary,
	}
}

// summarizeInput bundles summarize's inputs; the orchestrator assembles
// these from state that only it threads together (the step loop's counters
// alongside the stepper and stores it owns).
type summarizeInput struct {
	store             *cellstore.Store
	graveyard         *cellstore.Graveyard
	catalog           []model.MutationType
	stepper           *engine.Stepper
	stepsRun          int
	shutdownRequested bool
	statReportLen     int
	populReportLen    int
	treeLen           int
}

// summarize implements Run::processRunInfo's equivalents: per-variant
// mutation tallies and unsafe.Sizeof-based memory estimates, computed in
// a single pass over the final Cell Store.
func summarize(in summarizeInput) model.RunSummary {
	variantByType := make(map[uint8]model.MutationVariant, len(in.catalog))
	for _, m := range in.catalog {
		variantByType[m.TypeID] = m.Variant
	}

	var totalMutations, driver, positive, neutral, negative int
	n := in.store.Len()
	in.store.ForEach(func(c model.Cell) {
		totalMutations += len(c.Mutations)
		for _, m := range c.Mutations {
			switch variantByType[m.TypeID] {
			case model.VariantDriver:
				driver++
			case model.VariantPositive:
				positive++
			case model.VariantNeutral:
				neutral++
			case model.VariantNegative:
				negative++
			}
		}
	})

	avgMutations := 0.0
	if n > 0 {
		avgMutations = float64(totalMutations) / float64(n)
	}

	cellMem := int64(n) * int64(unsafe.Sizeof(model.Cell{}))
	mutationMem := int64(totalMutations) * int64(unsafe.Sizeof(model.Mutation{}))
	graveyardMem := int64(in.graveyard.Len()) * int64(unsafe.Sizeof(model.GraveyardEntry{}))

	return model.RunSummary{
		VersionedRecord:   model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		RunID:             uuid.NewString(),
		CreatedAtUTC:      time.Now().UTC().Format(time.RFC3339),
		Steps:             in.stepsRun,
		FinalTau:          in.stepper.Tau(),
		FinalPopulation:   n,
		TotalDeaths:       in.stepper.TotalDeaths(),
		TotalMutations:    totalMutations,
		DriverMutations:   driver,
		PositiveMutations: positive,
		NeutralMutations:  neutral,
		NegativeMutations: negative,
		AverageMutations:  avgMutations,
		CellMemoryBytes:   cellMem,
		GraveyardMemBytes: graveyardMem,
		MutationMemBytes:  mutationMem,
		StatReportLength:  in.statReportLen,
		PopulReportLength: in.populReportLen,
		PhylogeneticNodes: in.treeLen,
		ShutdownRequested: in.shutdownRequested,
	}
}

// logResults mirrors Run::logResults's banner, at Info level via slog.
func logResults(s model.RunSummary) {
	slog.Info("run complete",
		"tau", s.FinalTau,
		"final_population", s.FinalPopulation,
		"total_deaths", s.TotalDeaths,
		"total_mutations", s.TotalMutations,
		"driver_mutations", s.DriverMutations,
		"positive_mutations", s.PositiveMutations,
		"neutral_mutations", s.NeutralMutations,
		"negative_mutations", s.NegativeMutations,
		"average_mutations", s.AverageMutations,
		"cell_memory_kb", s.CellMemoryBytes/1024,
		"graveyard_memory_kb", s.GraveyardMemBytes/1024,
		"mutation_memory_kb", s.MutationMemBytes/1024,
		"shutdown_requested", s.ShutdownRequested)
}
