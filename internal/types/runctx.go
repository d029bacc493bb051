package types

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// RunContext is the explicit per-run value threaded through graph build,
// analytics, planning and orchestration. It replaces any implicit "current
// project" state: created when a run starts, discarded when it ends.
type RunContext struct {
	RunID     string
	Project   string
	OutDir    string
	StartedAt time.Time
}

// NewRunContext mints a run context with a random run id.
func NewRunContext(project, outDir string) RunContext {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return RunContext{
		RunID:     "run_" + hex.EncodeToString(b[:]),
		Project:   strings.TrimSpace(project),
		OutDir:    outDir,
		StartedAt: time.Now(),
	}
}

type ctxKeyRunContext struct{}

// WithRunContext attaches the run context to ctx.
func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyRunContext{}, rc)
}

// RunContextFrom returns the run context stored in ctx, or a zero value.
func RunContextFrom(ctx context.Context) RunContext {
	if ctx != nil {
		if v := ctx.Value(ctxKeyRunContext{}); v != nil {
			if rc, ok := v.(RunContext); ok {
				return rc
			}
		}
	}
	return RunContext{}
}
