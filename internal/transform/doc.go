// Package transform provides the recursive tree transformations used to
// build one combined document out of several partial sources.
//
// # Operations
//
// All operations work in place on the first tree argument and return it:
//
//   - DeepMerge merges two mappings or two sequences.
//   - JoinArrayData joins two sequences of records on a primary key field.
//   - JoinData joins one named member of two mappings, dispatching to
//     DeepMerge or JoinArrayData by the member's shape.
//   - RemoveData strips a marker key wherever it appears.
//   - PromoteData lifts the data under a marker key into its parent.
//   - AssignEmptyDefaults and PruneEmptyProperties normalize output shape.
//
// A typical fold over partial documents:
//
//	team, err := transform.JoinData("team", "name", public, private)
//	if err != nil {
//	    return err
//	}
//	if _, err := transform.PromoteData(team, "private"); err != nil {
//	    return err
//	}
//	transform.PruneEmptyProperties(team)
//
// # Errors
//
// DeepMerge reports incompatible kinds with *MergeTypeError; the join
// operations report malformed records with *JoinError. Both match their
// sentinel (ErrMergeType, ErrJoin) with errors.Is.
//
// # Instrumentation
//
// NewEngine wraps the operations with structured logging, Prometheus
// metrics and OpenTelemetry spans named "transform.<operation>".
//
// The package holds no state between calls and does no locking: callers
// must not mutate a tree from another goroutine during a call.
package transform
