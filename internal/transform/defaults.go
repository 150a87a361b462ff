package transform

import (
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// AssignEmptyDefaults gives every named field that is missing, null or
// false an empty value of the expected shape: an empty sequence for
// arrayFields, an empty mapping for mappingFields and an empty string for
// stringFields. Existing values are kept. Applied to a sequence, it fills
// each element, filling a record reached twice only once. It returns t,
// or nil when t is not a container.
func AssignEmptyDefaults(t *tree.Node, arrayFields, mappingFields, stringFields []string) *tree.Node {
	if t == nil || !t.Kind.IsContainer() {
		return nil
	}
	assignDefaults(t, arrayFields, mappingFields, stringFields, map[*tree.Node]bool{})
	return t
}

func assignDefaults(t *tree.Node, arrayFields, mappingFields, stringFields []string, visited map[*tree.Node]bool) {
	if t == nil || !t.Kind.IsContainer() || visited[t] {
		return
	}
	visited[t] = true

	switch t.Kind {
	case tree.MappingKind:
		for _, f := range arrayFields {
			if !t.Get(f).Truthy() {
				t.Set(f, tree.Seq())
			}
		}
		for _, f := range mappingFields {
			if !t.Get(f).Truthy() {
				t.Set(f, tree.NewMapping())
			}
		}
		for _, f := range stringFields {
			if !t.Get(f).Truthy() {
				t.Set(f, tree.FromString(""))
			}
		}
	case tree.SequenceKind:
		for _, item := range t.Items {
			assignDefaults(item, arrayFields, mappingFields, stringFields, visited)
		}
	}
}
