// Package model defines the data types shared across the simulation core:
// the cell record, the mutation catalog, and the snapshot/tree types the
// engine produces.
package model

// VersionedRecord is embedded by every record persisted through
// internal/persist, so a decoder can detect a schema it no longer
// understands before trusting the payload.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// MutationVariant classifies a catalog entry's effect on fitness.
type MutationVariant string

const (
	VariantDriver   MutationVariant = "DRIVER"
	VariantPositive MutationVariant = "POSITIVE"
	VariantNeutral  MutationVariant = "NEUTRAL"
	VariantNegative MutationVariant = "NEGATIVE"
)

// MutationType is one immutable entry in the mutation catalog: a class of
// mutation with a fitness effect and a per-division probability of arising.
type MutationType struct {
	TypeID      uint8           `json:"type_id"`
	Variant     MutationVariant `json:"variant"`
	Effect      float64         `json:"effect"`
	Probability float64         `json:"probability"`
}

// Mutation is one entry in a cell's mutation history: the id of the cell in
// which it arose, and the catalog entry it refers to.
type Mutation struct {
	OriginCellID uint32 `json:"origin_cell_id"`
	TypeID       uint8  `json:"type_id"`
}

// Cell is one member of the living population. A Cell is owned by exactly
// one store at a time (the Cell Store while alive); ParentID is a plain
// identifier, not a reference — the parent has moved to the Graveyard and
// may no longer exist in the Cell Store.
type Cell struct {
	ID        uint32
	ParentID  uint32
	Fitness   float64
	DeathTime float64
	Mutations []Mutation
}

// Clone returns a deep copy of c — its Mutations slice is independently
// owned so later mutation of the source cell cannot alias into the copy.
func (c Cell) Clone() Cell {
	out := c
	if len(c.Mutations) > 0 {
		out.Mutations = append([]Mutation(nil), c.Mutations...)
	}
	return out
}

// GraveyardEntry is what remains of a cell once it has died: enough to
// reconstruct ancestry, not its mutation history.
type GraveyardEntry struct {
	ParentID  uint32
	DeathTime float64
}

// StatSnapshot is one point in the generational statistics report: raw
// (non-standardized) central moments of fitness and mutation-count across
// the living population at a point in simulated time.
type StatSnapshot struct {
	Tau              float64
	TotalLivingCells int
	MeanFitness      float64
	VarFitness       float64
	SkewFitness      float64
	KurtFitness      float64
	MeanMutations    float64
	VarMutations     float64
	SkewMutations    float64
	KurtMutations    float64
}

// PopulationSnapshot is a deep copy of the Cell Store at a point in
// simulated time, keyed by generation index (floor(tau)).
type PopulationSnapshot struct {
	Generation int
	Cells      map[uint32]Cell
}

// PhylogeneticNode is one entry in the compressed ancestry tree: how many
// living cells trace their ancestry through this node (a living cell counts
// itself; a dead ancestor does not), and when (if ever) it died.
type PhylogeneticNode struct {
	ParentID  uint32
	ChildSum  int
	DeathTime float64
}

// RootID is the synthetic ancestor of every cell seeded at initialization.
const RootID uint32 = 0

// RunSummary is the durable record internal/persist stores for a completed
// Run: enough to list and inspect past runs without reloading the full
// Cell Store / Graveyard / snapshot series.
type RunSummary struct {
	VersionedRecord
	RunID              string  `json:"run_id"`
	CreatedAtUTC       string  `json:"created_at_utc"`
	Steps              int     `json:"steps"`
	FinalTau           float64 `json:"final_tau"`
	FinalPopulation    int     `json:"final_population"`
	TotalDeaths        int     `json:"total_deaths"`
	TotalMutations     int     `json:"total_mutations"`
	DriverMutations    int     `json:"driver_mutations"`
	PositiveMutations  int     `json:"positive_mutations"`
	NeutralMutations   int     `json:"neutral_mutations"`
	NegativeMutations  int     `json:"negative_mutations"`
	AverageMutations   float64 `json:"average_mutations"`
	CellMemoryBytes    int64   `json:"cell_memory_bytes"`
	GraveyardMemBytes  int64   `json:"graveyard_memory_bytes"`
	MutationMemBytes   int64   `json:"mutation_memory_bytes"`
	StatReportLength   int     `json:"stat_report_length"`
	PopulReportLength  int     `json:"popul_report_length"`
	PhylogeneticNodes  int     `json:"phylogenetic_nodes"`
	ShutdownRequested  bool    `json:"shutdown_requested"`
}
