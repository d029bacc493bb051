// Package config loads the run policy file: worker-pool bounds, run
// timeout, and the table-driven per-role retry/timeout policy consumed by
// the orchestrator.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"reweave/internal/types"
)

// RolePolicy bounds one role's invocations within a step.
type RolePolicy struct {
	MaxAttempts int
	Timeout     time.Duration
}

// RunPolicy is the full orchestration policy. Roles absent from the file
// inherit Default.
type RunPolicy struct {
	MaxParallel int
	RunTimeout  time.Duration
	Default     RolePolicy
	Roles       map[types.Role]RolePolicy
	Analytics   AnalyticsPolicy
}

// AnalyticsPolicy mirrors the tunable analytics thresholds.
type AnalyticsPolicy struct {
	BetweennessMaxNodes int `yaml:"betweenness_max_nodes"`
	CoreTopK            int `yaml:"core_top_k"`
}

// DefaultPolicy is the policy used when no file is given.
func DefaultPolicy() RunPolicy {
	return RunPolicy{
		MaxParallel: 4,
		RunTimeout:  30 * time.Minute,
		Default: RolePolicy{
			MaxAttempts: 3,
			Timeout:     2 * time.Minute,
		},
	}
}

// Load reads and validates a YAML policy file, filling unset fields from
// DefaultPolicy.
func Load(path string) (RunPolicy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw struct {
		MaxParallel int                   `yaml:"max_parallel"`
		RunTimeout  string                `yaml:"run_timeout"`
		Default     rawRolePolicy         `yaml:"default"`
		Roles       map[string]rawRolePolicy `yaml:"roles"`
		Analytics   AnalyticsPolicy       `yaml:"analytics"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return p, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if raw.MaxParallel > 0 {
		p.MaxParallel = raw.MaxParallel
	}
	if raw.RunTimeout != "" {
		d, err := time.ParseDuration(raw.RunTimeout)
		if err != nil {
			return p, fmt.Errorf("config: run_timeout: %w", err)
		}
		p.RunTimeout = d
	}
	if rp, err := raw.Default.resolve(p.Default); err != nil {
		return p, fmt.Errorf("config: default policy: %w", err)
	} else {
		p.Default = rp
	}
	if len(raw.Roles) > 0 {
		p.Roles = make(map[types.Role]RolePolicy, len(raw.Roles))
		for name, rrp := range raw.Roles {
			rp, err := rrp.resolve(p.Default)
			if err != nil {
				return p, fmt.Errorf("config: role %s: %w", name, err)
			}
			p.Roles[types.Role(name)] = rp
		}
	}
	p.Analytics = raw.Analytics
	return p, nil
}

// For returns the effective policy for a role.
func (p RunPolicy) For(role types.Role) RolePolicy {
	if rp, ok := p.Roles[role]; ok {
		return rp
	}
	return p.Default
}

type rawRolePolicy struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Timeout     string `yaml:"timeout"`
}

func (r rawRolePolicy) resolve(base RolePolicy) (RolePolicy, error) {
	out := base
	if r.MaxAttempts > 0 {
		out.MaxAttempts = r.MaxAttempts
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return out, err
		}
		out.Timeout = d
	}
	return out, nil
}
