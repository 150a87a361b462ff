package transform

import (
	"slices"

	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// RemoveData recursively deletes key from every mapping in t and returns t.
// Sequence elements left as empty mappings or sequences are dropped. It
// returns nil when t is not a container.
func RemoveData(t *tree.Node, key string) *tree.Node {
	if t == nil || !t.Kind.IsContainer() {
		return nil
	}
	removeData(t, key, map[*tree.Node]bool{})
	return t
}

func removeData(t *tree.Node, key string, visited map[*tree.Node]bool) {
	if t == nil || !t.Kind.IsContainer() || visited[t] {
		return
	}
	visited[t] = true

	switch t.Kind {
	case tree.MappingKind:
		t.Delete(key)
		for _, v := range t.Values() {
			removeData(v, key, visited)
		}
	case tree.SequenceKind:
		for _, item := range t.Items {
			removeData(item, key, visited)
		}
		dropEmptyContainers(t)
	}
}

// dropEmptyContainers removes the empty mapping and sequence elements of
// sequence t in place.
func dropEmptyContainers(t *tree.Node) {
	t.Items = slices.DeleteFunc(t.Items, (*tree.Node).IsEmptyContainer)
}
