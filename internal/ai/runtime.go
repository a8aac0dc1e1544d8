package ai

import "context"

// Runtime is the single upstream call the completion service depends on.
// Client implements it; tests substitute fakes.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

var _ Runtime = (*Client)(nil)
