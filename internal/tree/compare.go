package tree

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Equal reports whether a and b are structurally equal. Mapping key order
// is ignored; sequence order is not. Cycles are handled by assuming a pair
// of nodes already under comparison is equal.
func Equal(a, b *Node) bool {
	return equal(a, b, map[[2]*Node]bool{})
}

func equal(a, b *Node, inProgress map[[2]*Node]bool) bool {
	if a == b {
		return true
	}
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case BoolKind:
		return a.Bool == b.Bool
	case NumberKind:
		return a.Number == b.Number
	case StringKind:
		return a.Text == b.Text
	}
	pair := [2]*Node{a, b}
	if inProgress[pair] {
		return true
	}
	inProgress[pair] = true
	defer delete(inProgress, pair)

	if a.Kind == SequenceKind {
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !equal(a.Items[i], b.Items[i], inProgress) {
				return false
			}
		}
		return true
	}
	if len(a.keys) != len(b.keys) {
		return false
	}
	for _, k := range a.keys {
		bv, ok := b.fields[k]
		if !ok || !equal(a.fields[k], bv, inProgress) {
			return false
		}
	}
	return true
}

// Fingerprint returns a string that is identical for structurally equal
// nodes. Mapping keys are sorted. Used to index records by key value.
func Fingerprint(n *Node) string {
	var sb strings.Builder
	fingerprint(&sb, n, map[*Node]bool{})
	return sb.String()
}

func fingerprint(sb *strings.Builder, n *Node, path map[*Node]bool) {
	if n == nil {
		sb.WriteByte('N')
		return
	}
	switch n.Kind {
	case NullKind:
		sb.WriteByte('N')
	case BoolKind:
		if n.Bool {
			sb.WriteByte('T')
		} else {
			sb.WriteByte('F')
		}
	case NumberKind:
		sb.WriteByte('#')
		sb.WriteString(n.Number)
		sb.WriteByte(';')
	case StringKind:
		sb.WriteString(strconv.Quote(n.Text))
	case SequenceKind, MappingKind:
		if path[n] {
			sb.WriteByte('@')
			return
		}
		path[n] = true
		defer delete(path, n)
		if n.Kind == SequenceKind {
			sb.WriteByte('[')
			for _, item := range n.Items {
				fingerprint(sb, item, path)
				sb.WriteByte(',')
			}
			sb.WriteByte(']')
			return
		}
		sb.WriteByte('{')
		for _, k := range slices.Sorted(slices.Values(n.keys)) {
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			fingerprint(sb, n.fields[k], path)
			sb.WriteByte(',')
		}
		sb.WriteByte('}')
	}
}

// String renders n compactly in a JSON-like form. A container reached
// again while it is being rendered prints as <cycle>.
func (n *Node) String() string {
	var sb strings.Builder
	render(&sb, n, map[*Node]bool{})
	return sb.String()
}

func render(sb *strings.Builder, n *Node, path map[*Node]bool) {
	if n == nil {
		sb.WriteString("null")
		return
	}
	switch n.Kind {
	case NullKind:
		sb.WriteString("null")
	case BoolKind:
		sb.WriteString(strconv.FormatBool(n.Bool))
	case NumberKind:
		sb.WriteString(n.Number)
	case StringKind:
		sb.WriteString(strconv.Quote(n.Text))
	case SequenceKind, MappingKind:
		if path[n] {
			sb.WriteString("<cycle>")
			return
		}
		path[n] = true
		defer delete(path, n)
		if n.Kind == SequenceKind {
			sb.WriteByte('[')
			for i, item := range n.Items {
				if i > 0 {
					sb.WriteByte(',')
				}
				render(sb, item, path)
			}
			sb.WriteByte(']')
			return
		}
		sb.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			render(sb, n.fields[k], path)
		}
		sb.WriteByte('}')
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
