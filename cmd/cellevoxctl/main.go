package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cellevox/internal/config"
	"cellevox/internal/export"
	"cellevox/internal/persist"
	"cellevox/internal/progress"
	cellevoxapi "cellevox/pkg/cellevox"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config JSON path")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "cellevox.db", "sqlite database path")
	persistRun := fs.Bool("persist", false, "persist the run summary to the store")
	outputPath := fs.String("output", "", "CSV/GEXF export destination (file or directory)")
	quiet := fs.Bool("quiet", false, "suppress the progress indicator")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("run: -config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	client, err := cellevoxapi.New(ctx, cellevoxapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	var reporter *progress.Reporter
	if !*quiet {
		reporter = progress.New(os.Stdout, cfg.Steps)
	}

	req := cellevoxapi.RunRequest{
		TauStep:                 cfg.TauStep,
		InitialPopulation:       cfg.InitialPopulation,
		EnvCapacity:             cfg.EnvCapacity,
		Steps:                   cfg.Steps,
		StatisticsResolution:    cfg.StatisticsResolution,
		PopulationStatisticsRes: cfg.PopulationStatisticsRes,
		Seed:                    cfg.Seed,
		Workers:                 cfg.Workers,
		Mutations:               cfg.Mutations,
		ReportProgressTo:        reporter,
		Persist:                 *persistRun,
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	out := *outputPath
	if out == "" {
		out = cfg.OutputPath
	}
	if out != "" {
		if err := exportRun(out, summary); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary.Summary)
}

func exportRun(outputPath string, summary cellevoxapi.RunSummary) error {
	now := time.Now()
	statPath, err := export.TimestampedPath(outputPath, "stats", "csv", now)
	if err != nil {
		return err
	}
	if err := export.StatReportToCSV(statPath, summary.StatReport); err != nil {
		return err
	}

	populPath, err := export.TimestampedPath(outputPath, "population", "csv", now)
	if err != nil {
		return err
	}
	if err := export.PopulationReportToCSV(populPath, summary.PopulationReport); err != nil {
		return err
	}

	treePath, err := export.TimestampedPath(outputPath, "phylogeny", "gexf", now)
	if err != nil {
		return err
	}
	return export.PhylogeneticTreeToGEXF(treePath, summary.Tree)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "cellevox.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := persist.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer persist.CloseIfSupported(store)

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Printf("%s\t%s\tpop=%d\tdeaths=%d\tmutations=%d\n",
			r.RunID, r.CreatedAtUTC, r.FinalPopulation, r.TotalDeaths, r.TotalMutations)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: cellevoxctl <run|runs> [flags]", msg)
}
