package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"reweave/internal/types"
)

func testStepContext() types.StepContext {
	return types.StepContext{
		RunID: "run_test",
		Step: types.StrategyStep{
			ID:                 "step_auth",
			Description:        "Implement module auth",
			ValidationCriteria: []string{"Module exports all required functionality"},
			Entities:           []string{"auth"},
		},
	}
}

func TestGenerator_FakeArchitectProducesSkeleton(t *testing.T) {
	g := NewGenerator(NewFakeClient())
	art, err := g.Invoke(context.Background(), types.RoleArchitect, testStepContext())
	if err != nil {
		t.Fatal(err)
	}
	if art.StepID != "step_auth" || art.Role != types.RoleArchitect {
		t.Fatalf("artifact identity wrong: %+v", art)
	}
	if art.Status != types.ArtifactStatusOK {
		t.Fatalf("expected ok status, got %q", art.Status)
	}
	if len(art.Files) != 1 || art.Files[0].Path != "design.md" {
		t.Fatalf("expected a design.md skeleton, got %+v", art.Files)
	}
}

func TestGenerator_FakeValidatorChecksEveryCriterion(t *testing.T) {
	g := NewGenerator(NewFakeClient())
	sc := testStepContext()
	sc.Step.ValidationCriteria = append(sc.Step.ValidationCriteria, "Module dependencies are correctly imported")

	art, err := g.Invoke(context.Background(), types.RoleValidator, sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(art.Notes) != len(sc.Step.ValidationCriteria) {
		t.Fatalf("expected one note per criterion, got %v", art.Notes)
	}
	for _, n := range art.Notes {
		if !strings.HasPrefix(n, "pass: ") {
			t.Fatalf("unexpected validator note %q", n)
		}
	}
}

func TestGenerator_UnknownRoleIsPermanent(t *testing.T) {
	g := NewGenerator(NewFakeClient())
	_, err := g.Invoke(context.Background(), types.Role("poet"), testStepContext())
	var pErr *PermanentError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected permanent error for unknown role, got %v", err)
	}
}

type cannedClient struct{ raw string }

func (c *cannedClient) Name() string { return "canned" }
func (c *cannedClient) Close() error { return nil }
func (c *cannedClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	return json.RawMessage(c.raw), nil
}

func TestGenerator_MalformedResponse(t *testing.T) {
	g := NewGenerator(&cannedClient{raw: "not json at all"})
	_, err := g.Invoke(context.Background(), types.RoleProgrammer, testStepContext())
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestGenerator_ReportedFailureIsError(t *testing.T) {
	g := NewGenerator(&cannedClient{raw: `{"status":"error","notes":["criterion failed"]}`})
	_, err := g.Invoke(context.Background(), types.RoleReviewer, testStepContext())
	if err == nil || !strings.Contains(err.Error(), "criterion failed") {
		t.Fatalf("expected reported failure with notes, got %v", err)
	}
}

func TestGenerator_FillsMissingIdentity(t *testing.T) {
	g := NewGenerator(&cannedClient{raw: `{"files":[{"path":"a.go","content":"package a"}]}`})
	art, err := g.Invoke(context.Background(), types.RoleProgrammer, testStepContext())
	if err != nil {
		t.Fatal(err)
	}
	if art.StepID != "step_auth" || art.Role != types.RoleProgrammer || art.Status != types.ArtifactStatusOK {
		t.Fatalf("identity defaults not applied: %+v", art)
	}
}
