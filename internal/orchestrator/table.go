package orchestrator

import (
	"sort"
	"sync"

	"reweave/internal/types"
)

// runTable is the only shared mutable state of a run: step records, their
// states, attempts and artifacts. Every access goes through the mutex;
// no caller ever holds it across a suspension point.
type runTable struct {
	mu    sync.Mutex
	runs  map[string]*StepRun
	doc   *types.StrategyDoc
	order []string
	// dependents is the reverse of doc.Dependencies.
	dependents map[string][]string
}

func newRunTable(doc *types.StrategyDoc) *runTable {
	t := &runTable{
		runs:       make(map[string]*StepRun, len(doc.Steps)),
		doc:        doc,
		order:      doc.ExecutionOrder,
		dependents: make(map[string][]string),
	}
	for _, s := range doc.Steps {
		t.runs[s.ID] = &StepRun{
			StepID:   s.ID,
			State:    StatePending,
			Attempts: make(map[types.Role]int),
		}
	}
	for id, deps := range doc.Dependencies {
		for _, d := range deps {
			t.dependents[d] = append(t.dependents[d], id)
		}
	}
	for id := range t.dependents {
		sort.Strings(t.dependents[id])
	}
	return t
}

// nextReady performs the full ordered scan: it promotes every Pending step
// whose dependencies are all Completed, then returns the first Ready step
// by execution order. Promotion and selection happen under one lock
// acquisition, so a step can never be picked against an in-flight
// dependency.
func (t *runTable) nextReady() (types.StrategyStep, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.order {
		r := t.runs[id]
		if r.State == StatePending && t.depsCompletedLocked(id) {
			r.State = StateReady
		}
	}
	for _, id := range t.order {
		if t.runs[id].State == StateReady {
			step, _ := t.step(id)
			return step, true
		}
	}
	return types.StrategyStep{}, false
}

func (t *runTable) depsCompletedLocked(id string) bool {
	for _, d := range t.doc.Dependencies[id] {
		if t.runs[d].State != StateCompleted {
			return false
		}
	}
	return true
}

func (t *runTable) step(id string) (types.StrategyStep, bool) {
	for _, s := range t.doc.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return types.StrategyStep{}, false
}

func (t *runTable) markDispatched(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.runs[id]
	r.State = StateDispatched
	r.CurrentRole = ""
}

// setRole records the role currently driving a dispatched step; entering
// the Validator role moves the step to Validating.
func (t *runTable) setRole(id string, role types.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.runs[id]
	r.CurrentRole = role
	if role == types.RoleValidator {
		r.State = StateValidating
	}
}

// finalize is the Coordinator's merge: it records the outcome of a
// finished step and, on failure, propagates Blocked to every transitive
// dependent. It returns the ids newly blocked.
func (t *runTable) finalize(out stepOutcome) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.runs[out.stepID]
	for role, n := range out.attempts {
		r.Attempts[role] += n
	}
	r.Artifacts = append(r.Artifacts, out.artifacts...)
	if out.err != nil {
		r.LastError = out.err.Error()
	}
	r.State = out.state
	r.CurrentRole = ""

	var blocked []string
	if out.state == StateFailed {
		blocked = t.blockDependentsLocked(out.stepID, nil)
	}
	return blocked
}

func (t *runTable) blockDependentsLocked(id string, acc []string) []string {
	for _, dep := range t.dependents[id] {
		r := t.runs[dep]
		if r.State.terminal() {
			continue
		}
		r.State = StateBlocked
		r.LastError = "blocked: dependency " + id + " did not complete"
		acc = append(acc, dep)
		acc = t.blockDependentsLocked(dep, acc)
	}
	return acc
}

// reset returns a cancelled in-flight step to Pending; its partial
// artifacts and attempt counts stay recorded.
func (t *runTable) reset(out stepOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.runs[out.stepID]
	for role, n := range out.attempts {
		r.Attempts[role] += n
	}
	r.Artifacts = append(r.Artifacts, out.artifacts...)
	r.State = StatePending
	r.CurrentRole = ""
}

func (t *runTable) unfinished() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.runs {
		if !r.State.terminal() {
			n++
		}
	}
	return n
}

// summary assembles the run summary in execution order. It is called after
// all workers have stopped.
func (t *runTable) summary(runID string) types.RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	sum := types.RunSummary{
		RunID:               runID,
		TotalAttemptsByRole: make(map[types.Role]int),
	}
	for _, id := range t.order {
		r := t.runs[id]
		switch r.State {
		case StateCompleted:
			sum.Completed = append(sum.Completed, id)
		case StateFailed:
			sum.Failed = append(sum.Failed, types.StepError{StepID: id, Error: r.LastError})
		case StateBlocked:
			sum.Blocked = append(sum.Blocked, id)
		default:
			sum.Pending = append(sum.Pending, id)
		}
		for role, n := range r.Attempts {
			sum.TotalAttemptsByRole[role] += n
		}
		sum.Artifacts = append(sum.Artifacts, r.Artifacts...)
	}
	return sum
}
