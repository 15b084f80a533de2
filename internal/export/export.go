// Package export is an external collaborator (spec §6): it reads a
// completed Run and writes CSV and GEXF files. Nothing in this package is
// part of the simulation core's contract.
package export

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ncruces/go-strftime"

	"cellevox/internal/model"
	"cellevox/internal/phylo"
)

// StatReportToCSV writes the generational stat report, one row per
// StatSnapshot, header first — grounded on the teacher's data_extract.go
// CSV writer conventions.
func StatReportToCSV(path string, report []model.StatSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"tau", "total_living_cells",
		"mean_fitness", "var_fitness", "skew_fitness", "kurt_fitness",
		"mean_mutations", "var_mutations", "skew_mutations", "kurt_mutations"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range report {
		row := []string{
			strconv.FormatFloat(s.Tau, 'g', -1, 64),
			strconv.Itoa(s.TotalLivingCells),
			strconv.FormatFloat(s.MeanFitness, 'g', -1, 64),
			strconv.FormatFloat(s.VarFitness, 'g', -1, 64),
			strconv.FormatFloat(s.SkewFitness, 'g', -1, 64),
			strconv.FormatFloat(s.KurtFitness, 'g', -1, 64),
			strconv.FormatFloat(s.MeanMutations, 'g', -1, 64),
			strconv.FormatFloat(s.VarMutations, 'g', -1, 64),
			strconv.FormatFloat(s.SkewMutations, 'g', -1, 64),
			strconv.FormatFloat(s.KurtMutations, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// PopulationReportToCSV writes the generational population report, one
// row per (generation, cell) pair.
func PopulationReportToCSV(path string, report []model.PopulationSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"generation", "cell_id", "parent_id", "fitness", "mutation_count"}); err != nil {
		return err
	}
	for _, snap := range report {
		for id, c := range snap.Cells {
			row := []string{
				strconv.Itoa(snap.Generation),
				strconv.FormatUint(uint64(id), 10),
				strconv.FormatUint(uint64(c.ParentID), 10),
				strconv.FormatFloat(c.Fitness, 'g', -1, 64),
				strconv.Itoa(len(c.Mutations)),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// gexfNode/gexfEdge/gexfRoot model the minimal subset of the GEXF 1.3
// schema needed to represent a phylogenetic tree as a directed graph.
type gexfNode struct {
	ID    string `xml:"id,attr"`
	Label string `xml:"label,attr"`
}

type gexfEdge struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type gexfRoot struct {
	XMLName xml.Name `xml:"gexf"`
	Xmlns   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`
	Graph   struct {
		Mode          string `xml:"mode,attr"`
		DefaultEdge   string `xml:"defaultedgetype,attr"`
		Nodes         struct {
			Node []gexfNode `xml:"node"`
		} `xml:"nodes"`
		Edges struct {
			Edge []gexfEdge `xml:"edge"`
		} `xml:"edges"`
	} `xml:"graph"`
}

// PhylogeneticTreeToGEXF writes tree as a GEXF directed graph: one node
// per tree entry, one edge from each non-root node's parent to the node.
func PhylogeneticTreeToGEXF(path string, tree phylo.Tree) error {
	var doc gexfRoot
	doc.Xmlns = "http://gexf.net/1.3"
	doc.Version = "1.3"
	doc.Graph.Mode = "static"
	doc.Graph.DefaultEdge = "directed"

	edgeID := 0
	for id, node := range tree {
		label := fmt.Sprintf("cell %d (child_sum=%d)", id, node.ChildSum)
		doc.Graph.Nodes.Node = append(doc.Graph.Nodes.Node, gexfNode{
			ID:    strconv.FormatUint(uint64(id), 10),
			Label: label,
		})
		if id == model.RootID {
			continue
		}
		doc.Graph.Edges.Edge = append(doc.Graph.Edges.Edge, gexfEdge{
			ID:     strconv.Itoa(edgeID),
			Source: strconv.FormatUint(uint64(node.ParentID), 10),
			Target: strconv.FormatUint(uint64(id), 10),
		})
		edgeID++
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()

	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}
	return enc.Encode(doc)
}

// TimestampedPath resolves outputPath into a concrete file path: if
// outputPath names an existing directory, a timestamped filename (using
// go-strftime, the teacher's own previously-unused indirect dependency) is
// generated inside it; otherwise outputPath is used verbatim.
func TimestampedPath(outputPath string, base string, ext string, at time.Time) (string, error) {
	info, err := os.Stat(outputPath)
	if err != nil || !info.IsDir() {
		return outputPath, nil
	}
	stamp := strftime.Format("%Y%m%dT%H%M%S", at)
	name := fmt.Sprintf("%s-%s.%s", base, stamp, ext)
	return filepath.Join(outputPath, name), nil
}
