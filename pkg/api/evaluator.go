// Package api holds the extension points the worker runtime executes chunks with.
package api

import "context"

// Evaluator decides a chunk. It returns true when the chunk proves the job's
// positive result (for primemesh: the chunk holds a composite number).
type Evaluator interface {
    Evaluate(ctx context.Context, values []int64) (bool, error)
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(ctx context.Context, values []int64) (bool, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, values []int64) (bool, error) { return f(ctx, values) }
