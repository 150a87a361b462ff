package transform

import (
	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// JoinArrayData joins the records of source into the records of sink using
// keyField as the primary key, and returns sink.
//
// Both operands must be sequences of mappings, and every record on both
// sides must contain keyField. All records are checked before sink is
// touched, so a JoinError leaves sink unmodified. A source record whose key
// matches a sink record is deep-merged into it; other source records are
// appended to sink by reference in source order. When several sink records
// share a key, the last one receives the merge.
func JoinArrayData(keyField string, sink, source *tree.Node) (*tree.Node, error) {
	if !isSequence(sink) || !isSequence(source) {
		return nil, &JoinError{
			Message: "both sink (" + kindName(sink) + ") and source (" +
				kindName(source) + ") must be a sequence of mappings",
		}
	}

	for _, rec := range sink.Items {
		if err := assertRecordWithKey(rec, keyField, "sink element"); err != nil {
			return nil, err
		}
	}
	for _, rec := range source.Items {
		if err := assertRecordWithKey(rec, keyField, "source element"); err != nil {
			return nil, err
		}
	}

	index := make(map[string]*tree.Node, len(sink.Items))
	for _, rec := range sink.Items {
		index[tree.Fingerprint(rec.Get(keyField))] = rec
	}

	for _, rec := range source.Items {
		match, ok := index[tree.Fingerprint(rec.Get(keyField))]
		if !ok {
			sink.Append(rec)
			continue
		}
		if _, err := DeepMerge(match, rec); err != nil {
			return nil, err
		}
	}
	return sink, nil
}

// JoinData joins the category member of source into the category member of
// sink and returns sink.
//
// If source has no truthy value for category, sink is returned unchanged.
// If sink has no container under category, the source value is assigned.
// Two mappings are deep-merged; a sink sequence is joined on keyField with
// JoinArrayData.
func JoinData(category, keyField string, sink, source *tree.Node) (*tree.Node, error) {
	if sink == nil || sink.Kind != tree.MappingKind {
		return nil, &JoinError{Side: "sink", Element: sink, Message: "is not a mapping"}
	}
	if source == nil || source.Kind != tree.MappingKind {
		return nil, &JoinError{Side: "source", Element: source, Message: "is not a mapping"}
	}

	srcData := source.Get(category)
	if !srcData.Truthy() {
		return sink, nil
	}

	sinkData := sink.Get(category)
	switch {
	case sinkData == nil || !sinkData.Kind.IsContainer():
		sink.Set(category, srcData)
	case sinkData.Kind == tree.MappingKind:
		if _, err := DeepMerge(sinkData, srcData); err != nil {
			return nil, err
		}
	default:
		if _, err := JoinArrayData(keyField, sinkData, srcData); err != nil {
			return nil, err
		}
	}
	return sink, nil
}

func assertRecordWithKey(rec *tree.Node, key, side string) error {
	if rec == nil || rec.Kind != tree.MappingKind {
		return &JoinError{Side: side, Element: rec, Message: "is not a mapping"}
	}
	if !rec.Has(key) {
		return &JoinError{Side: side, Element: rec, Message: "missing " + `"` + key + `"`}
	}
	return nil
}

func isSequence(n *tree.Node) bool {
	return n != nil && n.Kind == tree.SequenceKind
}
