package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reweave/internal/types"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_OverridesAndFallback(t *testing.T) {
	path := writePolicy(t, `
max_parallel: 8
run_timeout: 10m
default:
  max_attempts: 2
  timeout: 90s
roles:
  programmer:
    max_attempts: 5
  validator:
    timeout: 30s
analytics:
  betweenness_max_nodes: 200
  core_top_k: 5
`)
	p, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8, p.MaxParallel)
	require.Equal(t, 10*time.Minute, p.RunTimeout)
	require.Equal(t, 2, p.Default.MaxAttempts)
	require.Equal(t, 90*time.Second, p.Default.Timeout)

	// Explicit role overrides keep unset fields from the default.
	prog := p.For(types.RoleProgrammer)
	require.Equal(t, 5, prog.MaxAttempts)
	require.Equal(t, 90*time.Second, prog.Timeout)

	val := p.For(types.RoleValidator)
	require.Equal(t, 2, val.MaxAttempts)
	require.Equal(t, 30*time.Second, val.Timeout)

	// Roles absent from the file fall back entirely.
	require.Equal(t, p.Default, p.For(types.RoleArchitect))

	require.Equal(t, 200, p.Analytics.BetweennessMaxNodes)
	require.Equal(t, 5, p.Analytics.CoreTopK)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	p, err := Load(writePolicy(t, "{}\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultPolicy().MaxParallel, p.MaxParallel)
	require.Equal(t, DefaultPolicy().Default, p.Default)
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writePolicy(t, "run_timeout: soon\n"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
