// Package llm holds the Generation Service boundary: a JSON-producing
// model client, the middleware chain around it, and the role-aware
// invoker the orchestrator calls.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidJSON marks a model response that could not be parsed.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is the minimal JSON-generation contract every provider satisfies.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// PermanentError wraps an error that must not be retried (bad request,
// exhausted quota with no recovery, safety refusal).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("llm: permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so retry middleware stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
