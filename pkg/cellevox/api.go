// Package cellevox is the public facade over internal/runctl and
// internal/persist: a thin Client/Options/request-struct surface for
// embedders who don't want to reach into internal/ directly.
package cellevox

import (
	"context"

	"cellevox/internal/config"
	"cellevox/internal/export"
	"cellevox/internal/model"
	"cellevox/internal/persist"
	"cellevox/internal/phylo"
	"cellevox/internal/progress"
	"cellevox/internal/runctl"
)

const defaultDBPath = "cellevox.db"

// Options configures a Client's persistence backend.
type Options struct {
	StoreKind string // "memory" (default) or "sqlite"
	DBPath    string
}

// Client is the embeddable entry point: a persistence store plus the
// orchestrator functions bound to it.
type Client struct {
	store persist.Store
}

// New constructs a Client, initializing its persistence backend.
func New(ctx context.Context, opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := persist.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// Close releases the Client's persistence backend, if it holds one.
func (c *Client) Close() error {
	return persist.CloseIfSupported(c.store)
}

// RunRequest is the configuration for one simulation run.
type RunRequest struct {
	TauStep                 float64
	InitialPopulation       int
	EnvCapacity             int
	Steps                   int
	StatisticsResolution    int
	PopulationStatisticsRes int
	Seed                    int64
	Workers                 int
	Mutations               []config.MutationSpec
	ReportProgressTo        *progress.Reporter
	Persist                 bool
}

// RunSummary is what a completed run returns to an embedder: the durable
// summary plus the in-memory reports and tree an embedder may want to
// export without a second pass.
type RunSummary struct {
	Summary          model.RunSummary
	StatReport       []model.StatSnapshot
	PopulationReport []model.PopulationSnapshot
	Tree             phylo.Tree
}

// Run executes req to completion (or until ctx is canceled or the process
// receives SIGINT/SIGTERM), optionally persisting the resulting summary.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := config.Config{
		SimType:                 "STOCHASTIC_TAU_LEAP",
		TauStep:                 req.TauStep,
		InitialPopulation:       req.InitialPopulation,
		EnvCapacity:             req.EnvCapacity,
		Steps:                   req.Steps,
		StatisticsResolution:    req.StatisticsResolution,
		PopulationStatisticsRes: req.PopulationStatisticsRes,
		Seed:                    req.Seed,
		Workers:                 req.Workers,
		Mutations:               req.Mutations,
	}
	if cfg.StatisticsResolution == 0 {
		cfg.StatisticsResolution = 1
	}
	if cfg.PopulationStatisticsRes == 0 {
		cfg.PopulationStatisticsRes = 1
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	stop := runctl.ListenForShutdown()
	defer stop()

	run := runctl.Execute(ctx, cfg, req.ReportProgressTo)

	if req.Persist {
		if err := c.store.SaveRun(ctx, run.Summary); err != nil {
			return RunSummary{}, err
		}
	}

	return RunSummary{
		Summary:          run.Summary,
		StatReport:       run.StatReport,
		PopulationReport: run.PopulationReport,
		Tree:             run.Tree,
	}, nil
}

// ListRuns returns every persisted run summary, oldest first.
func (c *Client) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	return c.store.ListRuns(ctx)
}

// GetRun returns the persisted summary for runID, if present.
func (c *Client) GetRun(ctx context.Context, runID string) (model.RunSummary, bool, error) {
	return c.store.GetRun(ctx, runID)
}

// ExportStatCSV writes report to path in CSV form.
func (c *Client) ExportStatCSV(path string, report []model.StatSnapshot) error {
	return export.StatReportToCSV(path, report)
}

// ExportPopulationCSV writes report to path in CSV form.
func (c *Client) ExportPopulationCSV(path string, report []model.PopulationSnapshot) error {
	return export.PopulationReportToCSV(path, report)
}

// ExportTreeGEXF writes tree to path as a GEXF graph.
func (c *Client) ExportTreeGEXF(path string, tree phylo.Tree) error {
	return export.PhylogeneticTreeToGEXF(path, tree)
}
