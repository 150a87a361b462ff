package transform

import (
	"errors"
	"fmt"

	"github.com/vyrodovalexey/treejoin/internal/tree"
)

// Sentinel errors for errors.Is checks. The typed errors below carry the
// offending values.
var (
	// ErrMergeType indicates that two values could not be deep-merged
	// because their kinds differ or are not mergeable.
	ErrMergeType = errors.New("merge type error")

	// ErrJoin indicates that two record sequences could not be joined.
	ErrJoin = errors.New("join error")
)

// MergeTypeError is returned by DeepMerge when the sink and source values
// have incompatible kinds. Key is empty when the mismatch is between the
// top-level operands.
type MergeTypeError struct {
	Key    string
	Sink   *tree.Node
	Source *tree.Node
}

// Error implements the error interface.
func (e *MergeTypeError) Error() string {
	sinkKind, sourceKind := kindName(e.Sink), kindName(e.Source)
	if e.Key != "" {
		return fmt.Sprintf("%s: sink[%q] value (%s): %s; source[%q] value (%s): %s",
			ErrMergeType, e.Key, sinkKind, e.Sink, e.Key, sourceKind, e.Source)
	}
	if sinkKind == sourceKind {
		return fmt.Sprintf("%s: kind not mergeable: sink (%s): %s; source (%s): %s",
			ErrMergeType, sinkKind, e.Sink, sourceKind, e.Source)
	}
	return fmt.Sprintf("%s: sink (%s): %s; source (%s): %s",
		ErrMergeType, sinkKind, e.Sink, sourceKind, e.Source)
}

// Is reports whether target is ErrMergeType or another *MergeTypeError.
func (e *MergeTypeError) Is(target error) bool {
	if target == ErrMergeType {
		return true
	}
	_, ok := target.(*MergeTypeError)
	return ok
}

// JoinError is returned by JoinArrayData and JoinData when an operand is
// not shaped as expected or a record lacks the join key.
type JoinError struct {
	// Side is "sink", "source", "sink element" or "source element".
	Side string
	// Element is the offending value.
	Element *tree.Node
	Message string
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%s: %s", ErrJoin, e.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", ErrJoin, e.Side, e.Message, e.Element)
}

// Is reports whether target is ErrJoin or another *JoinError.
func (e *JoinError) Is(target error) bool {
	if target == ErrJoin {
		return true
	}
	_, ok := target.(*JoinError)
	return ok
}

func kindName(n *tree.Node) string {
	if n == nil {
		return tree.NullKind.String()
	}
	return n.Kind.String()
}
