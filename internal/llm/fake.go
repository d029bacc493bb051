package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"reweave/internal/types"
)

// FakeClient returns deterministic, minimal artifacts per role for offline
// runs and tests. The step id is read from the input step context.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	role := RoleFrom(ctx)
	sc, _ := input.(types.StepContext)

	art := types.StepArtifact{
		StepID: sc.Step.ID,
		Role:   role,
		Status: types.ArtifactStatusOK,
	}
	switch role {
	case types.RoleArchitect:
		art.Files = []types.ArtifactFile{{
			Path:    "design.md",
			Content: fmt.Sprintf("# Design for %s\n", sc.Step.ID),
			Purpose: "skeleton",
		}}
	case types.RoleValidator:
		for _, c := range sc.Step.ValidationCriteria {
			art.Notes = append(art.Notes, "pass: "+c)
		}
	default:
		art.Files = []types.ArtifactFile{{
			Path:    "impl.txt",
			Content: fmt.Sprintf("output of %s for %s\n", role, sc.Step.ID),
			Purpose: string(role),
		}}
	}
	return json.Marshal(art)
}
