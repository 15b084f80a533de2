package cellevox

import (
	"context"
	"testing"

	"cellevox/internal/config"
)

func baseRequest() RunRequest {
	return RunRequest{
		TauStep:                 0.1,
		InitialPopulation:       15,
		EnvCapacity:             150,
		Steps:                   4,
		StatisticsResolution:    1,
		PopulationStatisticsRes: 1,
		Seed:                    7,
		Workers:                 2,
		Mutations: []config.MutationSpec{
			{TypeID: 0, Variant: "DRIVER", Effect: 0.5, Probability: 0.01},
		},
	}
}

func TestClientRunWithoutPersistDoesNotRequireAStore(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	summary, err := client.Run(ctx, baseRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Summary.RunID == "" {
		t.Fatalf("expected a populated RunID")
	}
}

func TestClientRunWithPersistCanBeListedBack(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	req := baseRequest()
	req.Persist = true
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, ok, err := client.GetRun(ctx, summary.Summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !ok {
		t.Fatalf("expected the persisted run to be retrievable")
	}
	if got.FinalPopulation != summary.Summary.FinalPopulation {
		t.Fatalf("FinalPopulation = %d, want %d", got.FinalPopulation, summary.Summary.FinalPopulation)
	}

	runs, err := client.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected exactly one persisted run, got %d", len(runs))
	}
}

func TestNewRejectsUnknownStoreKind(t *testing.T) {
	_, err := New(context.Background(), Options{StoreKind: "postgres"})
	if err == nil {
		t.Fatalf("expected an error for an unsupported store backend")
	}
}

func TestClientRunRejectsZeroEnvCapacity(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	req := baseRequest()
	req.EnvCapacity = 0

	if _, err := client.Run(ctx, req); err == nil {
		t.Fatalf("expected Run to reject EnvCapacity=0 before executing any steps")
	}
}

func TestClientRunRejectsNonPositiveTauStep(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	req := baseRequest()
	req.TauStep = 0

	if _, err := client.Run(ctx, req); err == nil {
		t.Fatalf("expected Run to reject TauStep=0 before executing any steps")
	}
}

func TestClientRunRejectsMutationProbabilitiesOverOne(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	req := baseRequest()
	req.Mutations = []config.MutationSpec{
		{TypeID: 0, Variant: "DRIVER", Effect: 0.5, Probability: 0.7},
		{TypeID: 1, Variant: "NEGATIVE", Effect: -0.5, Probability: 0.6},
	}

	if _, err := client.Run(ctx, req); err == nil {
		t.Fatalf("expected Run to reject mutation probabilities summing above 1")
	}
}
