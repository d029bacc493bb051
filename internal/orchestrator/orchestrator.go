// Package orchestrator drives each planned step through the fixed role
// pipeline on a bounded worker pool, respecting the frozen execution
// order, the per-role retry/timeout policy, and the run-level deadline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"reweave/internal/config"
	"reweave/internal/events"
	"reweave/internal/llm"
	"reweave/internal/types"
)

// Invoker is the Generation Service boundary: one role attempt against one
// step context, bounded by the caller's context deadline.
type Invoker interface {
	Invoke(ctx context.Context, role types.Role, sc types.StepContext) (types.StepArtifact, error)
}

// Sink receives step transition events. A nil-safe no-op sink is the
// default.
type Sink interface {
	Publish(ev events.Event)
}

type nopSink struct{}

func (nopSink) Publish(events.Event) {}

// Orchestrator owns one run at a time. Graph, analytics and plan are
// read-only inputs; the run table is the only mutable state.
type Orchestrator struct {
	Invoker Invoker
	Policy  config.RunPolicy
	Events  Sink
	// Broker optionally pre-reserves rate-limit permits per dispatched
	// step, one per pipeline role.
	Broker llm.PermitBroker
}

// ErrPlanDeadlock reports a strategy document whose dependencies can never
// be satisfied (the planner never emits one; this guards malformed input).
var ErrPlanDeadlock = errors.New("orchestrator: no step is ready and none is in flight")

type workItem struct {
	ctx  context.Context
	step types.StrategyStep
}

type stepOutcome struct {
	stepID    string
	state     StepState
	attempts  map[types.Role]int
	artifacts []types.StepArtifact
	err       error
	cancelled bool
}

// Run executes the plan and returns the run summary. A run timeout yields
// a partial summary, not an error: in-flight steps finish their current
// role attempt, everything not terminal is reported Pending or Blocked.
func (o *Orchestrator) Run(ctx context.Context, doc *types.StrategyDoc, rc types.RunContext) (types.RunSummary, error) {
	if o.Invoker == nil {
		return types.RunSummary{}, errors.New("orchestrator: invoker is nil")
	}
	sink := o.Events
	if sink == nil {
		sink = nopSink{}
	}
	if len(doc.Steps) == 0 {
		return types.RunSummary{RunID: rc.RunID, TotalAttemptsByRole: map[types.Role]int{}}, nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if o.Policy.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.Policy.RunTimeout)
		defer cancel()
	}

	table := newRunTable(doc)
	nWorkers := o.Policy.MaxParallel
	if nWorkers <= 0 {
		nWorkers = 1
	}
	if nWorkers > len(doc.Steps) {
		nWorkers = len(doc.Steps)
	}

	workCh := make(chan workItem)
	resultCh := make(chan stepOutcome)
	for i := 0; i < nWorkers; i++ {
		go func() {
			for item := range workCh {
				resultCh <- o.runStep(item.ctx, item.step, rc.RunID, table, sink)
			}
		}()
	}
	defer close(workCh)

	sink.Publish(events.Event{RunID: rc.RunID, State: "run_started"})
	inflight := 0
	for table.unfinished() > 0 {
		// Dispatch in frozen execution order until the pool is full or
		// nothing is Ready. No new dispatch once cancellation is signaled.
		for inflight < nWorkers && runCtx.Err() == nil {
			step, ok := table.nextReady()
			if !ok {
				break
			}
			stepCtx := runCtx
			if o.Broker != nil {
				lease, err := o.Broker.Reserve(runCtx, len(types.PipelineRoles()))
				if err != nil {
					break // cancellation during reservation; loop exits below
				}
				stepCtx = lease.Context(runCtx)
			}
			table.markDispatched(step.ID)
			sink.Publish(events.Event{RunID: rc.RunID, StepID: step.ID, State: string(StateDispatched)})
			workCh <- workItem{ctx: stepCtx, step: step}
			inflight++
		}

		if inflight == 0 {
			if runCtx.Err() != nil {
				break
			}
			return table.summary(rc.RunID), ErrPlanDeadlock
		}

		out := <-resultCh
		inflight--
		o.merge(table, out, rc.RunID, sink)
	}

	// Drain whatever is still in flight; each step stops after its current
	// role attempt.
	for inflight > 0 {
		out := <-resultCh
		inflight--
		o.merge(table, out, rc.RunID, sink)
	}

	sum := table.summary(rc.RunID)
	sink.Publish(events.Event{RunID: rc.RunID, State: "run_finished"})
	if runCtx.Err() != nil {
		log.Printf("orchestrator: run %s ended early (%v): %d completed, %d pending, %d blocked",
			rc.RunID, runCtx.Err(), len(sum.Completed), len(sum.Pending), len(sum.Blocked))
	}
	return sum, nil
}

// merge is the Coordinator: the single writer of terminal states. Its
// write completes before any dependent can be observed Ready by the next
// dispatch scan.
func (o *Orchestrator) merge(table *runTable, out stepOutcome, runID string, sink Sink) {
	if out.cancelled {
		table.reset(out)
		sink.Publish(events.Event{RunID: runID, StepID: out.stepID, State: string(StatePending), Role: types.RoleCoordinator})
		return
	}
	if out.attempts == nil {
		out.attempts = make(map[types.Role]int)
	}
	out.attempts[types.RoleCoordinator]++
	blocked := table.finalize(out)
	ev := events.Event{RunID: runID, StepID: out.stepID, State: string(out.state), Role: types.RoleCoordinator}
	if out.err != nil {
		ev.Error = out.err.Error()
	}
	sink.Publish(ev)
	for _, id := range blocked {
		sink.Publish(events.Event{RunID: runID, StepID: id, State: string(StateBlocked)})
	}
}

// runStep drives one step through the role pipeline. Retries of a role are
// strictly sequential; a timeout and a reported failure count against the
// same budget. The only blocking point is the Invoke call.
func (o *Orchestrator) runStep(ctx context.Context, step types.StrategyStep, runID string, table *runTable, sink Sink) stepOutcome {
	out := stepOutcome{
		stepID:   step.ID,
		attempts: make(map[types.Role]int),
	}
	for _, role := range types.PipelineRoles() {
		pol := o.Policy.For(role)
		if pol.MaxAttempts < 1 {
			pol.MaxAttempts = 1
		}
		table.setRole(step.ID, role)
		var lastErr error
		succeeded := false
		for attempt := 1; attempt <= pol.MaxAttempts; attempt++ {
			// Cooperative cancellation: never start a new attempt after
			// the run deadline, but let a started attempt run to its own
			// role timeout.
			if ctx.Err() != nil {
				out.cancelled = true
				out.err = ctx.Err()
				return out
			}
			out.attempts[role]++
			sink.Publish(events.Event{RunID: runID, StepID: step.ID, State: string(StateDispatched), Role: role, Attempt: attempt})

			attemptCtx := context.WithoutCancel(ctx)
			var cancel context.CancelFunc = func() {}
			if pol.Timeout > 0 {
				attemptCtx, cancel = context.WithTimeout(attemptCtx, pol.Timeout)
			}
			art, err := o.Invoker.Invoke(attemptCtx, role, types.StepContext{
				RunID: runID,
				Step:  step,
				Prior: out.artifacts,
			})
			cancel()
			if err == nil {
				out.artifacts = append(out.artifacts, art)
				succeeded = true
				break
			}
			lastErr = err
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = fmt.Errorf("role %s timed out after %s: %w", role, pol.Timeout, err)
			}
		}
		if !succeeded {
			out.state = StateFailed
			out.err = fmt.Errorf("step %s: role %s exhausted %d attempt(s): %w", step.ID, role, pol.MaxAttempts, lastErr)
			return out
		}
	}
	out.state = StateCompleted
	return out
}
