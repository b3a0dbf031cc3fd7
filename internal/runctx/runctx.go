// Package runctx carries the identity of one feed run through a context.
package runctx

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type key int

const runKey key = 0

type RunContext struct {
	RunID     string
	StartTime time.Time
}

// WithRunContext stamps ctx with a fresh, time-sortable run id.
func WithRunContext(ctx context.Context) context.Context {
	now := time.Now()
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		StartTime: now,
	})
}

func GetRunContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// RunError wraps an error with run context
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError from context
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: GetRunContext(ctx).RunID,
		Err:   err,
	}
}
