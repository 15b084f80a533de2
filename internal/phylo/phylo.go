// Package phylo implements the Phylogenetic Tree Post-Processor (spec
// §4.4): a two-stage batch job run once over the final Cell Store and
// Graveyard to reconstruct a compressed ancestry tree.
package phylo

import (
	"log/slog"

	"cellevox/internal/cellstore"
	"cellevox/internal/model"
)

// Tree maps a cell id to its PhylogeneticNode. Id 0 is always the
// synthetic root.
type Tree map[uint32]model.PhylogeneticNode

// Build runs both stages of the post-processor over the final state of
// store and graveyard: ancestry reconstruction with child_sum counting
// (stage 1), then pass-through compression (stage 2).
func Build(store *cellstore.Store, graveyard *cellstore.Graveyard) Tree {
	tree := make(Tree)
	reconstruct(tree, store, graveyard)
	compress(tree, store)
	return tree
}

// reconstruct implements stage 1: for every living cell, walk parent_id
// links up to the root, inserting any node not yet present and
// incrementing child_sum on every node visited, including the root.
func reconstruct(tree Tree, store *cellstore.Store, graveyard *cellstore.Graveyard) {
	for _, id := range store.LivingIDs() {
		cur := id
		for {
			node, ok := tree[cur]
			if !ok {
				node = lookupNode(cur, store, graveyard)
			}
			node.ChildSum++
			tree[cur] = node

			if cur == model.RootID {
				break
			}
			cur = node.ParentID
		}
	}
}

func lookupNode(id uint32, store *cellstore.Store, graveyard *cellstore.Graveyard) model.PhylogeneticNode {
	if id == model.RootID {
		return model.PhylogeneticNode{ParentID: model.RootID, DeathTime: 0}
	}
	if entry, ok := graveyard.Get(id); ok {
		return model.PhylogeneticNode{ParentID: entry.ParentID, DeathTime: entry.DeathTime}
	}
	if cell, ok := store.Get(id); ok {
		return model.PhylogeneticNode{ParentID: cell.ParentID, DeathTime: 0}
	}
	// Neither store nor graveyard has this id: an ancestor referenced by a
	// parent_id we don't otherwise have a record for. Treat it as attached
	// straight to the root rather than leaving a dangling reference.
	slog.Error("phylo: ancestor id absent from both store and graveyard", "id", id)
	return model.PhylogeneticNode{ParentID: model.RootID, DeathTime: 0}
}

// compress implements stage 2: a dead ancestor whose child_sum equals its
// descendant's contributed no branching and is redundant. Each living
// cell's ascent re-links past any run of redundant ancestors to the first
// one whose child_sum strictly exceeds its own; a global visited set
// keeps shared lineage segments from being re-walked.
func compress(tree Tree, store *cellstore.Store) {
	visited := make(map[uint32]bool)
	marked := make(map[uint32]bool)

	for _, startID := range store.LivingIDs() {
		descendantID := startID
		for {
			if visited[descendantID] {
				break
			}
			visited[descendantID] = true

			node := tree[descendantID]
			if descendantID == model.RootID {
				break
			}

			ancestorID := node.ParentID
			ancestorNode, ok := tree[ancestorID]
			if !ok {
				break
			}
			for ancestorID != model.RootID && ancestorNode.ChildSum == node.ChildSum {
				marked[ancestorID] = true
				next := ancestorNode.ParentID
				ancestorNode, ok = tree[next]
				if !ok {
					break
				}
				ancestorID = next
			}

			if ancestorID != node.ParentID {
				relinked := tree[descendantID]
				relinked.ParentID = ancestorID
				tree[descendantID] = relinked
			}
			descendantID = ancestorID
		}
	}

	for id := range marked {
		delete(tree, id)
	}
}

// Audit runs the three completion-time correctness checks named in spec
// §4.4: these are logged, never failed, since by the time the tree is
// built the run itself is already over.
func Audit(store *cellstore.Store, graveyard *cellstore.Graveyard, totalDeaths int) {
	dup := 0
	store.ForEach(func(c model.Cell) {
		if graveyard.Contains(c.ID) {
			dup++
		}
	})
	if dup > 0 {
		slog.Error("phylo audit: id present in both Cell Store and Graveyard", "count", dup)
	}

	maxID, ok := store.MaxID()
	graveyard.ForEach(func(id uint32, _ model.GraveyardEntry) {
		if !ok || id > maxID {
			maxID, ok = id, true
		}
	})
	cardinality := store.Len() + graveyard.Len()
	if ok && cardinality != int(maxID)+1 {
		slog.Error("phylo audit: |Cells|+|Graveyard| does not equal max_id+1",
			"cells_plus_graveyard", cardinality, "max_id_plus_one", int(maxID)+1)
	}

	if totalDeaths != graveyard.Len() {
		slog.Error("phylo audit: total_deaths does not equal |Graveyard|",
			"total_deaths", totalDeaths, "graveyard_len", graveyard.Len())
	}
}
