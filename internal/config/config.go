// Package config loads and validates the run configuration (spec §6).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"cellevox/internal/model"
)

// MutationSpec is one entry of the configured mutation catalog before it is
// converted into a model.MutationType.
type MutationSpec struct {
	TypeID      uint8
	Variant     string
	Effect      float64
	Probability float64
}

// Config is the fully parsed and validated run configuration.
type Config struct {
	SimType                 string
	TauStep                 float64
	InitialPopulation       int
	EnvCapacity             int
	Steps                   int
	StatisticsResolution    int
	PopulationStatisticsRes int
	OutputPath              string
	Mutations               []MutationSpec
	Seed                    int64
	Workers                 int
}

// Load reads path as JSON, maps recognized fields, and validates the
// result. A non-nil error here is always a spec §7 class-1 configuration
// error — fail fast at construction, before any store is touched.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return FromMap(raw)
}

// FromMap builds a Config from an already-decoded JSON object, applying
// the same field extraction and validation Load does.
func FromMap(raw map[string]any) (Config, error) {
	cfg := Config{
		SimType:                 "STOCHASTIC_TAU_LEAP",
		StatisticsResolution:    1,
		PopulationStatisticsRes: 1,
		Workers:                 1,
	}

	if v, ok := asString(raw["sim_type"]); ok {
		cfg.SimType = v
	}
	if v, ok := asFloat64(raw["tau_step"]); ok {
		cfg.TauStep = v
	}
	if v, ok := asInt(raw["initial_population"]); ok {
		cfg.InitialPopulation = v
	}
	if v, ok := asInt(raw["env_capacity"]); ok {
		cfg.EnvCapacity = v
	}
	if v, ok := asInt(raw["steps"]); ok {
		cfg.Steps = v
	}
	if v, ok := asInt(raw["statistics_resolution"]); ok {
		cfg.StatisticsResolution = v
	}
	if v, ok := asInt(raw["population_statistics_res"]); ok {
		cfg.PopulationStatisticsRes = v
	}
	if v, ok := asString(raw["output_path"]); ok {
		cfg.OutputPath = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := raw["mutations"].([]any); ok {
		for _, entry := range v {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			var spec MutationSpec
			if id, ok := asInt(m["type_id"]); ok {
				spec.TypeID = uint8(id)
			}
			if variant, ok := asString(m["variant"]); ok {
				spec.Variant = variant
			}
			if effect, ok := asFloat64(m["effect"]); ok {
				spec.Effect = effect
			}
			if prob, ok := asFloat64(m["probability"]); ok {
				spec.Probability = prob
			}
			cfg.Mutations = append(cfg.Mutations, spec)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs the spec §7 class-1 checks against c directly, for
// callers that assemble a Config by hand (e.g. pkg/cellevox) rather than
// through Load/FromMap. Load and FromMap already call this internally.
func (c Config) Validate() error {
	return c.validate()
}

// validate implements spec §7 class-1 checks: mutation probabilities
// summing above 1, non-positive τ_step, and N₀ = 0 with a non-zero step
// budget all fail fast here rather than surfacing mid-run.
func (c Config) validate() error {
	if c.SimType != "STOCHASTIC_TAU_LEAP" {
		return fmt.Errorf("config: unsupported sim_type %q", c.SimType)
	}
	if c.TauStep <= 0 {
		return fmt.Errorf("config: tau_step must be > 0, got %v", c.TauStep)
	}
	if c.InitialPopulation < 1 {
		if c.Steps > 0 {
			return fmt.Errorf("config: initial_population must be >= 1 when steps > 0, got %d", c.InitialPopulation)
		}
	}
	if c.EnvCapacity < 1 {
		return fmt.Errorf("config: env_capacity must be >= 1, got %d", c.EnvCapacity)
	}
	if c.Steps < 0 {
		return fmt.Errorf("config: steps must be >= 0, got %d", c.Steps)
	}
	if c.StatisticsResolution < 1 {
		return fmt.Errorf("config: statistics_resolution must be >= 1, got %d", c.StatisticsResolution)
	}
	if c.PopulationStatisticsRes < 1 {
		return fmt.Errorf("config: population_statistics_res must be >= 1, got %d", c.PopulationStatisticsRes)
	}

	total := 0.0
	for _, m := range c.Mutations {
		total += m.Probability
	}
	if total > 1.0 {
		return fmt.Errorf("config: mutation probabilities sum to %v, want <= 1", total)
	}
	return nil
}

// Catalog converts the configured mutation specs into the model's
// MutationType catalog, in configured order (the order the stepper's
// cumulative-probability walk relies on).
func (c Config) Catalog() []model.MutationType {
	catalog := make([]model.MutationType, 0, len(c.Mutations))
	for _, m := range c.Mutations {
		catalog = append(catalog, model.MutationType{
			TypeID:      m.TypeID,
			Variant:     model.MutationVariant(m.Variant),
			Effect:      m.Effect,
			Probability: m.Probability,
		})
	}
	return catalog
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
