// Package tree provides the generic tree value operated on by the transform
// engine: mappings, sequences and scalar leaves, as produced by decoding JSON
// or YAML documents.
package tree

import (
	"slices"
	"strconv"
)

// Kind identifies which case of the tree variant a Node holds.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	SequenceKind
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case SequenceKind:
		return "sequence"
	case MappingKind:
		return "mapping"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsContainer reports whether k is SequenceKind or MappingKind.
func (k Kind) IsContainer() bool {
	return k == SequenceKind || k == MappingKind
}

// Node is a tagged tree value. Payload fields are populated according to
// Kind: Bool for BoolKind, Number for NumberKind, Text for StringKind,
// Items for SequenceKind and the ordered fields for MappingKind.
//
// Containers are mutated through the *Node handle, so a node keeps its
// identity across appends and deletions.
type Node struct {
	Kind   Kind
	Bool   bool
	Number string
	Text   string
	Items  []*Node

	keys   []string
	fields map[string]*Node
}

func Null() *Node {
	return &Node{Kind: NullKind}
}

func FromBool(v bool) *Node {
	return &Node{Kind: BoolKind, Bool: v}
}

func FromString(v string) *Node {
	return &Node{Kind: StringKind, Text: v}
}

func FromInt(v int64) *Node {
	return &Node{Kind: NumberKind, Number: strconv.FormatInt(v, 10)}
}

func FromFloat(v float64) *Node {
	return &Node{Kind: NumberKind, Number: strconv.FormatFloat(v, 'g', -1, 64)}
}

// FromNumber returns a number node holding the literal n verbatim.
func FromNumber(n string) *Node {
	return &Node{Kind: NumberKind, Number: n}
}

// FromSlice returns a sequence node holding items. The slice is used as is.
func FromSlice(items []*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: SequenceKind, Items: items}
}

// Seq is shorthand for FromSlice(items).
func Seq(items ...*Node) *Node {
	return FromSlice(items)
}

// KeyVal is a single mapping entry.
type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals returns a mapping node with the entries in the given order.
// A repeated key keeps its first position and its last value.
func FromKeyVals(kvs ...KeyVal) *Node {
	res := NewMapping()
	for _, kv := range kvs {
		res.Set(kv.Key, kv.Val)
	}
	return res
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{Kind: MappingKind, fields: map[string]*Node{}}
}

func (n *Node) IsNull() bool {
	return n == nil || n.Kind == NullKind
}

// Truthy reports whether n is neither absent, null nor false.
func (n *Node) Truthy() bool {
	if n.IsNull() {
		return false
	}
	return n.Kind != BoolKind || n.Bool
}

// Len returns the number of items of a sequence, fields of a mapping or
// bytes of a string; 0 for everything else.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case SequenceKind:
		return len(n.Items)
	case MappingKind:
		return len(n.keys)
	case StringKind:
		return len(n.Text)
	}
	return 0
}

// IsEmptyContainer reports whether n is a sequence or mapping with no
// elements.
func (n *Node) IsEmptyContainer() bool {
	return n != nil && n.Kind.IsContainer() && n.Len() == 0
}

// Append adds items to the end of sequence n.
func (n *Node) Append(items ...*Node) {
	n.Items = append(n.Items, items...)
}

// Keys returns the mapping keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != MappingKind {
		return nil
	}
	return slices.Clone(n.keys)
}

// Get returns the value stored under key, or nil when n is not a mapping
// or has no such key.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != MappingKind {
		return nil
	}
	return n.fields[key]
}

func (n *Node) Has(key string) bool {
	if n == nil || n.Kind != MappingKind {
		return false
	}
	_, ok := n.fields[key]
	return ok
}

// Set stores v under key. New keys are appended to the key order.
func (n *Node) Set(key string, v *Node) {
	if n.fields == nil {
		n.fields = map[string]*Node{}
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

// Delete removes key and returns the value it held.
func (n *Node) Delete(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingKind {
		return nil, false
	}
	v, ok := n.fields[key]
	if !ok {
		return nil, false
	}
	delete(n.fields, key)
	n.keys = slices.DeleteFunc(n.keys, func(k string) bool { return k == key })
	return v, true
}

// DeleteFunc removes every field for which del returns true.
func (n *Node) DeleteFunc(del func(key string, v *Node) bool) {
	if n == nil || n.Kind != MappingKind {
		return
	}
	n.keys = slices.DeleteFunc(n.keys, func(k string) bool {
		if del(k, n.fields[k]) {
			delete(n.fields, k)
			return true
		}
		return false
	})
}

// Values returns the mapping values in key order.
func (n *Node) Values() []*Node {
	if n == nil || n.Kind != MappingKind {
		return nil
	}
	res := make([]*Node, len(n.keys))
	for i, k := range n.keys {
		res[i] = n.fields[k]
	}
	return res
}

// SameKind reports whether a and b hold the same variant case. Both
// booleans count as one kind regardless of value.
func SameKind(a, b *Node) bool {
	return kindOf(a) == kindOf(b)
}

func kindOf(n *Node) Kind {
	if n == nil {
		return NullKind
	}
	return n.Kind
}
