package types

// Wire contracts shared with the external collaborators. Field sets are
// load-bearing; exact formatting is not.

// DependencyRef is one directed "uses" relationship as reported by the
// analyzer. Multiplicities are counted during graph build, not here.
type DependencyRef struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind,omitempty"`
}

// AnalysisInput is the document produced by the Code Analyzer collaborator.
type AnalysisInput struct {
	Entities     []Entity        `json:"entities"`
	Dependencies []DependencyRef `json:"dependencies"`
}

// GraphNode is the exported node shape of the knowledge graph.
type GraphNode struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Kind EntityKind `json:"kind"`
	Path string     `json:"path"`
}

// GraphEdge is the exported edge shape; Count is the number of occurrences
// the analyzer reported for this (source, target) pair.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind,omitempty"`
	Count  int    `json:"count"`
}

// KnowledgeGraph is the full graph + analytics export.
type KnowledgeGraph struct {
	Nodes          []GraphNode        `json:"nodes"`
	Edges          []GraphEdge        `json:"edges"`
	Centrality     map[string]float64 `json:"centrality"`
	Communities    map[string]int     `json:"communities"`
	CoreComponents []string           `json:"core_components"`
}

// StrategyStep is one unit of planned implementation work. A strongly
// connected group of entities collapses into a single step; steps are
// immutable once planned.
type StrategyStep struct {
	ID                 string   `json:"id"`
	Description        string   `json:"description"`
	ExpectedOutput     string   `json:"expected_output"`
	ValidationCriteria []string `json:"validation_criteria"`
	Entities           []string `json:"entities"`
	Community          int      `json:"community,omitempty"`
}

// StrategyDoc is the planner output consumed read-only by the orchestrator.
type StrategyDoc struct {
	Steps          []StrategyStep      `json:"steps"`
	Dependencies   map[string][]string `json:"dependencies"`
	ExecutionOrder []string            `json:"execution_order"`
}

// ArtifactFile is one generated file inside a role's artifact set.
type ArtifactFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Purpose string `json:"purpose,omitempty"`
}

// StepArtifact is the Generation Service output for one role invocation.
type StepArtifact struct {
	StepID string         `json:"step_id"`
	Role   Role           `json:"role"`
	Files  []ArtifactFile `json:"files"`
	Status string         `json:"status"`
	Notes  []string       `json:"notes,omitempty"`
}

const (
	ArtifactStatusOK    = "ok"
	ArtifactStatusError = "error"
)

// StepContext is the payload handed to the Generation Service for one role
// invocation: the step under work plus the artifacts earlier roles already
// produced for it.
type StepContext struct {
	RunID string         `json:"run_id"`
	Step  StrategyStep   `json:"step"`
	Prior []StepArtifact `json:"prior,omitempty"`
}

// StepError pairs a failed step with its last recorded error.
type StepError struct {
	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

// RunSummary is the single surface for all terminal state of a run. A
// partial run (run timeout) is a valid summary, not a failure.
type RunSummary struct {
	RunID               string         `json:"run_id"`
	Completed           []string       `json:"completed"`
	Failed              []StepError    `json:"failed"`
	Blocked             []string       `json:"blocked"`
	Pending             []string       `json:"pending,omitempty"`
	TotalAttemptsByRole map[Role]int   `json:"total_attempts_by_role"`
	Artifacts           []StepArtifact `json:"artifacts,omitempty"`
}
