package pipeline

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Variables available to step conditions.
const (
	varDoc     = "doc"
	varSources = "sources"
)

// newConditionEnv creates the CEL environment for step conditions: doc is
// the current document, sources the number of input documents.
func newConditionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(varDoc, cel.DynType),
		cel.Variable(varSources, cel.IntType),
	)
}

// compileCondition compiles expr into a program yielding a bool.
func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile condition: %w", issues.Err())
	}

	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("condition must yield bool, got %s", out)
	}

	program, err := env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	return program, nil
}

// evalCondition evaluates program against doc, a value shaped like the
// output of tree.ToAny.
func evalCondition(ctx context.Context, program cel.Program, doc any, sources int) (bool, error) {
	result, _, err := program.ContextEval(ctx, map[string]any{
		varDoc:     doc,
		varSources: sources,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition: %w", err)
	}

	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition yielded %T, want bool", result.Value())
	}
	return b, nil
}
