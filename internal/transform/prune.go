package transform

import (
	"slices"

	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// PruneEmptyProperties recursively deletes mapping fields holding an empty
// mapping, sequence or string, and sequence elements that are an empty
// mapping or sequence. Children are pruned before their parent is checked.
// Each container is descended at most once, so cross-referencing records
// and cycles are safe. It returns t, or nil when t is not a container.
func PruneEmptyProperties(t *tree.Node) *tree.Node {
	if t == nil || !t.Kind.IsContainer() {
		return nil
	}
	prune(t, map[*tree.Node]bool{})
	return t
}

func prune(t *tree.Node, visited map[*tree.Node]bool) {
	if t == nil || !t.Kind.IsContainer() || visited[t] {
		return
	}
	visited[t] = true

	switch t.Kind {
	case tree.MappingKind:
		t.DeleteFunc(func(_ string, v *tree.Node) bool {
			prune(v, visited)
			return isEmptyProperty(v)
		})
	case tree.SequenceKind:
		t.Items = slices.DeleteFunc(t.Items, func(item *tree.Node) bool {
			prune(item, visited)
			return item.IsEmptyContainer()
		})
	}
}

func isEmptyProperty(v *tree.Node) bool {
	if v == nil {
		return false
	}
	return v.IsEmptyContainer() || (v.Kind == tree.StringKind && v.Text == "")
}
