package phylo

import (
	"testing"

	"cellevox/internal/cellstore"
	"cellevox/internal/model"
)

// buildChain sets up: root(0) -> 1 (dead) -> 2 (dead) -> 3 (living)
// a single unbranched lineage, which stage 2 should compress down to a
// direct root -> 3 edge since every intermediate child_sum equals 3's.
func TestCompressesUnbranchedChain(t *testing.T) {
	store := cellstore.New()
	graveyard := cellstore.NewGraveyard()

	graveyard.Bury(1, model.RootID, 1.0)
	graveyard.Bury(2, 1, 2.0)
	store.Insert(model.Cell{ID: 3, ParentID: 2, Fitness: 1.0})

	tree := Build(store, graveyard)

	if _, ok := tree[1]; ok {
		t.Fatalf("expected node 1 to be compressed away")
	}
	if _, ok := tree[2]; ok {
		t.Fatalf("expected node 2 to be compressed away")
	}
	node3, ok := tree[3]
	if !ok {
		t.Fatalf("living node 3 missing from tree")
	}
	if node3.ParentID != model.RootID {
		t.Fatalf("node 3 ParentID = %d, want root after compression", node3.ParentID)
	}
	root, ok := tree[model.RootID]
	if !ok {
		t.Fatalf("root missing from tree")
	}
	if root.ChildSum != 1 {
		t.Fatalf("root.ChildSum = %d, want 1 (single living descendant)", root.ChildSum)
	}
}

// buildBranch: root -> 1 (dead, branches into 2 and 3, both living). Node 1
// is visited once per living descendant's ascent, so its child_sum is 2;
// its children have child_sum 1 each, so node 1 is NOT redundant (its
// child_sum strictly exceeds each child's) and must survive.
func TestKeepsBranchPoints(t *testing.T) {
	store := cellstore.New()
	graveyard := cellstore.NewGraveyard()

	graveyard.Bury(1, model.RootID, 1.0)
	store.Insert(model.Cell{ID: 2, ParentID: 1, Fitness: 1.0})
	store.Insert(model.Cell{ID: 3, ParentID: 1, Fitness: 1.0})

	tree := Build(store, graveyard)

	node1, ok := tree[1]
	if !ok {
		t.Fatalf("branch point node 1 should survive compression")
	}
	if node1.ChildSum != 2 {
		t.Fatalf("node1.ChildSum = %d, want 2 (one per living descendant's ascent)", node1.ChildSum)
	}
	node2, ok := tree[2]
	if !ok || node2.ParentID != 1 {
		t.Fatalf("node 2 should still point at branch node 1, got %+v ok=%v", node2, ok)
	}
	node3, ok := tree[3]
	if !ok || node3.ParentID != 1 {
		t.Fatalf("node 3 should still point at branch node 1, got %+v ok=%v", node3, ok)
	}
}

func TestRootAlwaysPresentAndNeverMarkedRedundant(t *testing.T) {
	store := cellstore.New()
	store.Seed(5)
	graveyard := cellstore.NewGraveyard()

	tree := Build(store, graveyard)
	root, ok := tree[model.RootID]
	if !ok {
		t.Fatalf("root missing")
	}
	if root.ChildSum != 5 {
		t.Fatalf("root.ChildSum = %d, want 5", root.ChildSum)
	}
}

func TestEveryLivingIDReachableFromTree(t *testing.T) {
	store := cellstore.New()
	graveyard := cellstore.NewGraveyard()

	graveyard.Bury(1, model.RootID, 1.0)
	graveyard.Bury(2, 1, 2.0)
	store.Insert(model.Cell{ID: 4, ParentID: 2, Fitness: 1.0})
	store.Insert(model.Cell{ID: 5, ParentID: 1, Fitness: 1.0})

	tree := Build(store, graveyard)

	for _, id := range []uint32{4, 5} {
		cur := id
		steps := 0
		for cur != model.RootID {
			node, ok := tree[cur]
			if !ok {
				t.Fatalf("ancestor %d of living cell %d missing from compressed tree", cur, id)
			}
			cur = node.ParentID
			steps++
			if steps > 100 {
				t.Fatalf("ancestor walk from %d did not terminate at root", id)
			}
		}
	}
}

func TestAuditDoesNotPanicOnConsistentState(t *testing.T) {
	store := cellstore.New()
	store.Seed(3)
	graveyard := cellstore.NewGraveyard()
	graveyard.Bury(3, model.RootID, 1.0)

	Audit(store, graveyard, 1)
}
