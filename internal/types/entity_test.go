package types

import (
	"encoding/json"
	"testing"
)

func TestEntity_UnmarshalKindSpecificDetail(t *testing.T) {
	raw := `{
		"id": "pkg/auth.Login",
		"name": "Login",
		"kind": "function",
		"path": "pkg/auth.py",
		"metrics": {"lines": 42, "complexity": 3.5},
		"contract": {"purpose": "authenticate", "constraints": ["must be idempotent"]},
		"detail": {"params": ["user", "password"], "returns": ["token"]}
	}`
	var e Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Kind != KindFunction {
		t.Fatalf("expected function kind, got %q", e.Kind)
	}
	d, ok := e.Detail.(FunctionDetail)
	if !ok {
		t.Fatalf("expected FunctionDetail, got %T", e.Detail)
	}
	if len(d.Params) != 2 || d.Returns[0] != "token" {
		t.Fatalf("detail decoded wrong: %+v", d)
	}
	if e.Metrics.Lines != 42 {
		t.Fatalf("metrics dropped: %+v", e.Metrics)
	}
	if e.Contract == nil || e.Contract.Constraints[0] != "must be idempotent" {
		t.Fatalf("contract dropped: %+v", e.Contract)
	}
}

func TestEntity_UnknownKindDegradesToOther(t *testing.T) {
	raw := `{"id": "x", "name": "x", "kind": "macro", "detail": {"note": "weird"}}`
	var e Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Kind != KindOther {
		t.Fatalf("expected other, got %q", e.Kind)
	}
	d, ok := e.Detail.(OtherDetail)
	if !ok || d.Note != "weird" {
		t.Fatalf("expected OtherDetail, got %#v", e.Detail)
	}
}

func TestEntity_MalformedDetailDropped(t *testing.T) {
	raw := `{"id": "x", "name": "x", "kind": "class", "detail": {"methods": "not-a-list"}}`
	var e Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Detail != nil {
		t.Fatalf("mismatched detail must be dropped, got %#v", e.Detail)
	}
}

func TestNormalizeKind(t *testing.T) {
	cases := map[string]EntityKind{
		"Module":   KindModule,
		" class ":  KindClass,
		"FUNCTION": KindFunction,
		"struct":   KindOther,
		"":         KindOther,
	}
	for in, want := range cases {
		if got := NormalizeKind(in); got != want {
			t.Fatalf("NormalizeKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPipelineRoles_OrderFixed(t *testing.T) {
	roles := PipelineRoles()
	want := []Role{RoleArchitect, RoleTranslator, RoleProgrammer, RoleReviewer, RoleRefiner, RoleValidator}
	if len(roles) != len(want) {
		t.Fatalf("expected %d roles, got %d", len(want), len(roles))
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("role %d: got %s, want %s", i, roles[i], want[i])
		}
	}
}
