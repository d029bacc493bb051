package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reweave/internal/types"
)

// Generator adapts a JSON model client to the role-gated invocation the
// orchestrator drives: invoke(role, step_context) -> artifact | error.
type Generator struct {
	Client Client
}

// NewGenerator wraps a client.
func NewGenerator(c Client) *Generator { return &Generator{Client: c} }

// Invoke runs one role attempt. The caller owns the timeout on ctx; this
// method blocks only inside the client call.
func (g *Generator) Invoke(ctx context.Context, role types.Role, sc types.StepContext) (types.StepArtifact, error) {
	var zero types.StepArtifact
	prompt, ok := rolePrompts[role]
	if !ok {
		return zero, Permanent(fmt.Errorf("unknown role %q", role))
	}
	ctx = WithRole(ctx, role)
	raw, err := g.Client.GenerateJSON(ctx, prompt, sc)
	if err != nil {
		return zero, err
	}
	var art types.StepArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return zero, fmt.Errorf("%w: role %s: %v", ErrInvalidJSON, role, err)
	}
	if art.StepID == "" {
		art.StepID = sc.Step.ID
	}
	art.Role = role
	if art.Status == "" {
		art.Status = types.ArtifactStatusOK
	}
	if art.Status == types.ArtifactStatusError {
		return art, fmt.Errorf("role %s reported failure: %s", role, strings.Join(art.Notes, "; "))
	}
	return art, nil
}

var rolePrompts = map[types.Role]string{
	types.RoleArchitect: `You are the Architect. Given the implementation step and its entities,
design the file layout and interfaces for this step. Respond with JSON:
{"step_id","role","files":[{"path","content","purpose"}],"status","notes":[]}
where each file is a skeleton (signatures, types, no bodies).`,

	types.RoleTranslator: `You are the Translator. Turn the Architect's skeletons and the step's
validation criteria into precise implementation directives per file.
Respond with the same artifact JSON shape; file contents are directive
documents, not code.`,

	types.RoleProgrammer: `You are the Programmer. Implement every file from the prior artifacts
completely, following the Translator's directives. Respond with the same
artifact JSON shape; file contents are full source files.`,

	types.RoleReviewer: `You are the Reviewer. Review the Programmer's files against the step's
validation criteria. Respond with the same artifact JSON shape; files you
return replace the originals, notes list findings. Set status "error" only
if the implementation is unusable.`,

	types.RoleRefiner: `You are the Refiner. Apply the Reviewer's findings and return the
corrected files in the same artifact JSON shape.`,

	types.RoleValidator: `You are the Validator. Check each validation criterion of the step
against the final files. Respond with the same artifact JSON shape; notes
must contain one "pass: ..." or "fail: ..." line per criterion, and status
"error" if any criterion fails.`,
}
