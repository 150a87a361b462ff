package transform

import (
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// PromoteData recursively lifts the data held under key into the
// collection containing key, then deletes key, and returns t.
//
// In a mapping, the value under key is deep-merged into the mapping
// itself. In a sequence, an element that is a mapping with key as its only
// field is a wrapper: the value under key, expected to be a sequence, is
// appended to the enclosing sequence and the emptied wrapper is dropped.
// Appended records are promoted in turn. Merge errors are returned as
// *MergeTypeError.
//
// It returns nil without error when t is not a container.
func PromoteData(t *tree.Node, key string) (*tree.Node, error) {
	if t == nil || !t.Kind.IsContainer() {
		return nil, nil
	}
	if err := promoteData(t, key, map[*tree.Node]bool{}); err != nil {
		return nil, err
	}
	return t, nil
}

func promoteData(t *tree.Node, key string, visited map[*tree.Node]bool) error {
	if t == nil || !t.Kind.IsContainer() || visited[t] {
		return nil
	}
	visited[t] = true

	switch t.Kind {
	case tree.MappingKind:
		for t.Has(key) {
			data, _ := t.Delete(key)
			if _, err := DeepMerge(t, data); err != nil {
				return err
			}
		}
		for _, v := range t.Values() {
			if err := promoteData(v, key, visited); err != nil {
				return err
			}
		}

	case tree.SequenceKind:
		// t.Items may grow while promoted records are appended.
		for i := 0; i < len(t.Items); i++ {
			item := t.Items[i]
			if isWrapper(item, key) {
				data, _ := item.Delete(key)
				if _, err := DeepMerge(t, data); err != nil {
					return err
				}
				continue
			}
			if err := promoteData(item, key, visited); err != nil {
				return err
			}
		}
		dropEmptyContainers(t)
	}
	return nil
}

func isWrapper(n *tree.Node, key string) bool {
	return n != nil && n.Kind == tree.MappingKind && n.Len() == 1 && n.Has(key)
}
