package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// FromAny converts a decoded JSON/YAML value into a tree. Supported inputs
// are nil, bool, string, the integer and float types, json.Number,
// map[string]any, map[any]any, []any and *Node. A non-nil map or non-empty
// slice reached twice yields one shared node, so self-references survive.
// Nil maps and empty slices always yield fresh nodes.
func FromAny(v any) (*Node, error) {
	c := &fromAny{seen: map[identity]*Node{}}
	return c.convert(v)
}

// MustFromAny is like FromAny but panics on unsupported input. Intended for
// tests and literals.
func MustFromAny(v any) *Node {
	n, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return n
}

type fromAny struct {
	seen map[identity]*Node
}

// identity is the address of a map, or the backing array and length of a
// slice. Length is -1 for maps.
type identity struct {
	ptr uintptr
	n   int
}

func (c *fromAny) lookup(x any, n int) (identity, *Node) {
	id := identity{ptr: reflect.ValueOf(x).Pointer(), n: n}
	return id, c.seen[id]
}

func (c *fromAny) convert(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return x, nil
	case bool:
		return FromBool(x), nil
	case string:
		return FromString(x), nil
	case int:
		return FromInt(int64(x)), nil
	case int8:
		return FromInt(int64(x)), nil
	case int16:
		return FromInt(int64(x)), nil
	case int32:
		return FromInt(int64(x)), nil
	case int64:
		return FromInt(x), nil
	case uint:
		return FromNumber(strconv.FormatUint(uint64(x), 10)), nil
	case uint8:
		return FromInt(int64(x)), nil
	case uint16:
		return FromInt(int64(x)), nil
	case uint32:
		return FromInt(int64(x)), nil
	case uint64:
		return FromNumber(strconv.FormatUint(x, 10)), nil
	case float32:
		return FromFloat(float64(x)), nil
	case float64:
		return FromFloat(x), nil
	case json.Number:
		return FromNumber(x.String()), nil
	case []any:
		if len(x) == 0 {
			return FromSlice(nil), nil
		}
		id, n := c.lookup(x, len(x))
		if n != nil {
			return n, nil
		}
		res := FromSlice(make([]*Node, 0, len(x)))
		c.seen[id] = res
		for i, item := range x {
			n, err := c.convert(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			res.Items = append(res.Items, n)
		}
		return res, nil
	case map[string]any:
		if x == nil {
			return NewMapping(), nil
		}
		id, n := c.lookup(x, -1)
		if n != nil {
			return n, nil
		}
		res := NewMapping()
		c.seen[id] = res
		for _, k := range sortedKeys(x) {
			n, err := c.convert(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			res.Set(k, n)
		}
		return res, nil
	case map[any]any:
		if x == nil {
			return NewMapping(), nil
		}
		id, n := c.lookup(x, -1)
		if n != nil {
			return n, nil
		}
		res := NewMapping()
		c.seen[id] = res
		strs := make(map[string]any, len(x))
		for k, item := range x {
			strs[fmt.Sprint(k)] = item
		}
		for _, k := range sortedKeys(strs) {
			n, err := c.convert(strs[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			res.Set(k, n)
		}
		return res, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// ToAny converts n into the generic shape produced by encoding/json:
// map[string]any, []any, string, bool, nil, and int or float64 for numbers.
// Shared and cyclic nodes map to shared values.
func ToAny(n *Node) any {
	c := &toAny{seen: map[*Node]any{}}
	return c.convert(n)
}

type toAny struct {
	seen map[*Node]any
}

func (c *toAny) convert(n *Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case BoolKind:
		return n.Bool
	case StringKind:
		return n.Text
	case NumberKind:
		return numberValue(n.Number)
	case SequenceKind:
		if v, ok := c.seen[n]; ok {
			return v
		}
		res := make([]any, len(n.Items))
		c.seen[n] = res
		for i, item := range n.Items {
			res[i] = c.convert(item)
		}
		return res
	case MappingKind:
		if v, ok := c.seen[n]; ok {
			return v
		}
		res := make(map[string]any, n.Len())
		c.seen[n] = res
		for _, k := range n.keys {
			res[k] = c.convert(n.fields[k])
		}
		return res
	}
	return nil
}

func numberValue(lit string) any {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		if i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f
	}
	return json.Number(lit)
}
