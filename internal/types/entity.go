package types

import (
	"encoding/json"
	"strings"
)

// Entity kinds form a closed set. Anything the analyzer reports outside of
// it is normalized to KindOther rather than rejected.
type EntityKind string

const (
	KindModule   EntityKind = "module"
	KindClass    EntityKind = "class"
	KindFunction EntityKind = "function"
	KindOther    EntityKind = "other"
)

// NormalizeKind maps an analyzer-reported kind string onto the closed set.
func NormalizeKind(s string) EntityKind {
	switch EntityKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindModule:
		return KindModule
	case KindClass:
		return KindClass
	case KindFunction:
		return KindFunction
	default:
		return KindOther
	}
}

// Metrics carries the size/complexity figures the analyzer measured for an
// entity. Zero values mean "not measured".
type Metrics struct {
	Lines      int     `json:"lines,omitempty"`
	Complexity float64 `json:"complexity,omitempty"`
}

// Contract is the declared behavior of an entity as extracted by the external
// specification collaborator. The planner threads constraints through into
// step validation criteria; nothing here is originated locally.
type Contract struct {
	Purpose     string   `json:"purpose,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	Behavior    string   `json:"behavior,omitempty"`
}

// Entity is one code unit reported by the external analyzer. Identity is ID
// (stable, derived from name+path by the analyzer); entities are immutable
// once built into a graph.
type Entity struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     EntityKind `json:"kind"`
	Path     string     `json:"path"`
	Metrics  Metrics    `json:"metrics"`
	Contract *Contract  `json:"contract,omitempty"`

	// Detail holds the kind-specific payload, if the analyzer provided one.
	Detail EntityDetail `json:"detail,omitempty"`
}

// EntityDetail is the kind-specific payload variant. The concrete type is
// fixed by Entity.Kind; there is no open map fallback.
type EntityDetail interface {
	detailKind() EntityKind
}

type ModuleDetail struct {
	Exports []string `json:"exports,omitempty"`
}

type ClassDetail struct {
	Methods []string `json:"methods,omitempty"`
	Bases   []string `json:"bases,omitempty"`
}

type FunctionDetail struct {
	Params  []string `json:"params,omitempty"`
	Returns []string `json:"returns,omitempty"`
}

type OtherDetail struct {
	Note string `json:"note,omitempty"`
}

func (ModuleDetail) detailKind() EntityKind   { return KindModule }
func (ClassDetail) detailKind() EntityKind    { return KindClass }
func (FunctionDetail) detailKind() EntityKind { return KindFunction }
func (OtherDetail) detailKind() EntityKind    { return KindOther }

// UnmarshalJSON decodes the kind tag first, then the matching detail variant.
// Unknown kinds and malformed detail payloads degrade to KindOther / no
// detail instead of failing the whole input document.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Kind     string          `json:"kind"`
		Path     string          `json:"path"`
		Metrics  Metrics         `json:"metrics"`
		Contract *Contract       `json:"contract"`
		Detail   json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = strings.TrimSpace(raw.ID)
	e.Name = raw.Name
	e.Kind = NormalizeKind(raw.Kind)
	e.Path = raw.Path
	e.Metrics = raw.Metrics
	e.Contract = raw.Contract
	e.Detail = decodeDetail(e.Kind, raw.Detail)
	return nil
}

func decodeDetail(kind EntityKind, raw json.RawMessage) EntityDetail {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	switch kind {
	case KindModule:
		var d ModuleDetail
		if json.Unmarshal(raw, &d) == nil {
			return d
		}
	case KindClass:
		var d ClassDetail
		if json.Unmarshal(raw, &d) == nil {
			return d
		}
	case KindFunction:
		var d FunctionDetail
		if json.Unmarshal(raw, &d) == nil {
			return d
		}
	default:
		var d OtherDetail
		if json.Unmarshal(raw, &d) == nil {
			return d
		}
	}
	return nil
}
