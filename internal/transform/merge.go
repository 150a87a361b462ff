package transform

import (
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// DeepMerge merges source into sink and returns sink.
//
// Both operands must be mappings or both sequences. Sequences are merged
// by appending every source element to sink. Mappings are merged key by
// key: a key missing from sink, or holding null there, takes the source
// value; two mappings or two sequences under the same key are merged
// recursively; any other pair of the same kind is overwritten by the
// source value. Booleans count as a single kind, so false and true merge
// as scalars.
//
// Source is never modified, but its values are placed into sink by
// reference. On error, sink may hold the keys merged before the conflict.
func DeepMerge(sink, source *tree.Node) (*tree.Node, error) {
	if sink == nil || source == nil || !tree.SameKind(sink, source) || !sink.Kind.IsContainer() {
		return nil, &MergeTypeError{Sink: sink, Source: source}
	}

	if source.Kind == tree.SequenceKind {
		sink.Append(source.Items...)
		return sink, nil
	}

	for _, key := range source.Keys() {
		srcVal := source.Get(key)
		sinkVal := sink.Get(key)

		if sinkVal.IsNull() {
			sink.Set(key, srcVal)
			continue
		}
		if !tree.SameKind(sinkVal, srcVal) {
			return nil, &MergeTypeError{Key: key, Sink: sinkVal, Source: srcVal}
		}
		if sinkVal.Kind.IsContainer() {
			if _, err := DeepMerge(sinkVal, srcVal); err != nil {
				return nil, err
			}
			continue
		}
		sink.Set(key, srcVal)
	}
	return sink, nil
}
