package transform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// doc builds a tree from a Go literal.
func doc(v any) *tree.Node {
	return tree.MustFromAny(v)
}

type (
	obj = map[string]any
	arr = []any
)

func assertTree(t *testing.T, expected any, got *tree.Node) {
	t.Helper()
	if diff := cmp.Diff(expected, tree.ToAny(got)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepMerge_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sink   *tree.Node
		source *tree.Node
	}{
		{name: "classes differ", sink: doc(obj{}), source: doc(arr{})},
		{name: "sequence into mapping", sink: doc(arr{}), source: doc(obj{})},
		{name: "booleans not mergeable", sink: tree.FromBool(true), source: tree.FromBool(false)},
		{name: "strings not mergeable", sink: tree.FromString("a"), source: tree.FromString("b")},
		{name: "nil sink", sink: nil, source: doc(obj{})},
		{name: "nil source", sink: doc(obj{}), source: nil},
		{name: "null source", sink: doc(obj{}), source: tree.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := DeepMerge(tt.sink, tt.source)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrMergeType)

			var mte *MergeTypeError
			require.True(t, errors.As(err, &mte))
			assert.Empty(t, mte.Key)
		})
	}
}

func TestDeepMerge_ErrorMessage(t *testing.T) {
	t.Parallel()

	_, err := DeepMerge(doc(obj{}), doc(arr{}))
	require.Error(t, err)
	assert.Equal(t, "merge type error: sink (mapping): {}; source (sequence): []", err.Error())

	_, err = DeepMerge(tree.FromBool(true), tree.FromBool(false))
	require.Error(t, err)
	assert.Equal(t, "merge type error: kind not mergeable: sink (bool): true; source (bool): false", err.Error())

	_, err = DeepMerge(tree.FromString("a"), tree.FromString("b"))
	require.Error(t, err)
	assert.Equal(t, `merge type error: kind not mergeable: sink (string): "a"; source (string): "b"`, err.Error())

	_, err = DeepMerge(nil, tree.Null())
	require.Error(t, err)
	assert.Equal(t, "merge type error: kind not mergeable: sink (null): null; source (null): null", err.Error())

	_, err = DeepMerge(doc(obj{"age": 42}), doc(obj{"age": "forty-two"}))
	require.Error(t, err)
	assert.Equal(t,
		`merge type error: sink["age"] value (number): 42; source["age"] value (string): "forty-two"`,
		err.Error())
}

func TestDeepMerge_IntoEmptyMapping(t *testing.T) {
	t.Parallel()

	sink := doc(obj{})
	source := doc(obj{"foo": true})

	res, err := DeepMerge(sink, source)
	require.NoError(t, err)
	assert.Same(t, sink, res)
	assertTree(t, obj{"foo": true}, sink)
}

func TestDeepMerge_IntoEmptySequence(t *testing.T) {
	t.Parallel()

	sink := doc(arr{})
	source := doc(arr{obj{"foo": true}})

	res, err := DeepMerge(sink, source)
	require.NoError(t, err)
	assert.Same(t, sink, res)
	assertTree(t, arr{obj{"foo": true}}, sink)
	assert.Same(t, source.Items[0], sink.Items[0])
}

func TestDeepMerge_BooleanOverwrite(t *testing.T) {
	t.Parallel()

	sink := doc(obj{"foo": false})
	_, err := DeepMerge(sink, doc(obj{"foo": true}))
	require.NoError(t, err)
	assertTree(t, obj{"foo": true}, sink)

	sink = doc(obj{"foo": true})
	_, err = DeepMerge(sink, doc(obj{"foo": false}))
	require.NoError(t, err)
	assertTree(t, obj{"foo": false}, sink)
}

func TestDeepMerge_SequenceAppends(t *testing.T) {
	t.Parallel()

	sink := doc(arr{obj{"foo": false}})
	_, err := DeepMerge(sink, doc(arr{obj{"foo": true}}))
	require.NoError(t, err)
	assertTree(t, arr{obj{"foo": false}, obj{"foo": true}}, sink)
}

func TestDeepMerge_Recursive(t *testing.T) {
	t.Parallel()

	sink := doc(obj{
		"name":      "mbland",
		"languages": arr{"C++"},
		"age":       "None of your business",
		"guitars": obj{
			"strats":    "too many",
			"acoustics": 1,
		},
	})
	source := doc(obj{
		"full_name": "Mike Bland",
		"languages": arr{"Python", "Ruby"},
		"age":       "Not gonna say it",
		"guitars": obj{
			"strats":    "not enough",
			"les_pauls": 1,
		},
	})
	sourceBefore := source.String()

	_, err := DeepMerge(sink, source)
	require.NoError(t, err)

	assertTree(t, obj{
		"name":      "mbland",
		"full_name": "Mike Bland",
		"languages": arr{"C++", "Python", "Ruby"},
		"age":       "Not gonna say it",
		"guitars": obj{
			"strats":    "not enough",
			"acoustics": 1,
			"les_pauls": 1,
		},
	}, sink)
	assert.Equal(t, sourceBefore, source.String(), "source must not be modified")
}

func TestDeepMerge_NullSinkValueTakesSource(t *testing.T) {
	t.Parallel()

	sink := doc(obj{"email": nil})
	_, err := DeepMerge(sink, doc(obj{"email": arr{"x@example.com"}}))
	require.NoError(t, err)
	assertTree(t, obj{"email": arr{"x@example.com"}}, sink)
}

func TestDeepMerge_NullSourceOverNonNullSink(t *testing.T) {
	t.Parallel()

	_, err := DeepMerge(doc(obj{"email": "x"}), doc(obj{"email": nil}))
	require.Error(t, err)

	var mte *MergeTypeError
	require.ErrorAs(t, err, &mte)
	assert.Equal(t, "email", mte.Key)
	assert.Equal(t, tree.StringKind, mte.Sink.Kind)
	assert.Equal(t, tree.NullKind, mte.Source.Kind)
}

func TestDeepMerge_NestedKindMismatch(t *testing.T) {
	t.Parallel()

	_, err := DeepMerge(
		doc(obj{"team": obj{"members": arr{"a"}}}),
		doc(obj{"team": obj{"members": obj{"a": true}}}),
	)
	require.Error(t, err)

	var mte *MergeTypeError
	require.ErrorAs(t, err, &mte)
	assert.Equal(t, "members", mte.Key)
	assert.Contains(t, err.Error(), "(sequence)")
	assert.Contains(t, err.Error(), "(mapping)")
}

func TestDeepMerge_Properties(t *testing.T) {
	t.Parallel()

	t.Run("sequence concatenation is associative", func(t *testing.T) {
		t.Parallel()

		left := doc(arr{1})
		_, err := DeepMerge(left, doc(arr{2}))
		require.NoError(t, err)
		_, err = DeepMerge(left, doc(arr{3}))
		require.NoError(t, err)

		inner := doc(arr{2})
		_, err = DeepMerge(inner, doc(arr{3}))
		require.NoError(t, err)
		right := doc(arr{1})
		_, err = DeepMerge(right, inner)
		require.NoError(t, err)

		assert.True(t, tree.Equal(left, right))
	})

	t.Run("disjoint keys yield the union", func(t *testing.T) {
		t.Parallel()

		sink := doc(obj{"a": 1, "b": arr{"x"}})
		_, err := DeepMerge(sink, doc(obj{"c": "z", "d": obj{"e": nil}}))
		require.NoError(t, err)
		assertTree(t, obj{"a": 1, "b": arr{"x"}, "c": "z", "d": obj{"e": nil}}, sink)
	})

	t.Run("merging identical scalar mappings twice is stable", func(t *testing.T) {
		t.Parallel()

		sink := doc(obj{"name": "a", "n": 1})
		source := doc(obj{"name": "a", "n": 1})
		_, err := DeepMerge(sink, source)
		require.NoError(t, err)
		_, err = DeepMerge(sink, source)
		require.NoError(t, err)
		assertTree(t, obj{"name": "a", "n": 1}, sink)
	})

	t.Run("combines profile records", func(t *testing.T) {
		t.Parallel()

		sink := doc(obj{"name": "mbland", "langs": arr{"C++"}})
		_, err := DeepMerge(sink, doc(obj{"full_name": "Mike Bland", "langs": arr{"Python", "Ruby"}}))
		require.NoError(t, err)
		assertTree(t, obj{"name": "mbland", "full_name": "Mike Bland", "langs": arr{"C++", "Python", "Ruby"}}, sink)
	})
}
