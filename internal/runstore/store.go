// Package runstore persists run summaries and their artifacts. The
// default store is in-memory; a Postgres DSN in the environment switches
// to a database-backed store with an LRU read cache in front.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"reweave/internal/types"
)

const envDSN = "RUNSTORE_PG_DSN"

// Store keeps run summaries by run id.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	byRun map[string]types.RunSummary

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, types.RunSummary]
}

// New returns an in-memory store.
func New() *Store {
	return &Store{byRun: make(map[string]types.RunSummary)}
}

// NewPostgres opens a database-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, types.RunSummary](128)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv picks Postgres when RUNSTORE_PG_DSN is set and reachable,
// and falls back to memory otherwise.
func NewFromEnv() *Store {
	dsn := strings.TrimSpace(os.Getenv(envDSN))
	if dsn == "" {
		return New()
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New()
	}
	return s
}

// Close releases the database handle, if any.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save records the summary for its run id, overwriting any previous save.
func (s *Store) Save(ctx context.Context, sum types.RunSummary) error {
	if sum.RunID == "" {
		return fmt.Errorf("runstore: summary has no run id")
	}
	if s.db == nil {
		s.mu.Lock()
		s.byRun[sum.RunID] = sum
		s.mu.Unlock()
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_summaries (run_id, summary)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET summary = EXCLUDED.summary
	`, sum.RunID, payload)
	if err != nil {
		return fmt.Errorf("runstore: save %s: %w", sum.RunID, err)
	}
	s.cache.Add(sum.RunID, sum)
	return nil
}

// Load returns the saved summary for a run id.
func (s *Store) Load(ctx context.Context, runID string) (types.RunSummary, bool, error) {
	var zero types.RunSummary
	if s.db == nil {
		s.mu.RLock()
		sum, ok := s.byRun[runID]
		s.mu.RUnlock()
		return sum, ok, nil
	}
	if sum, ok := s.cache.Get(runID); ok {
		return sum, true, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return zero, false, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM run_summaries WHERE run_id = $1`, runID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("runstore: load %s: %w", runID, err)
	}
	var sum types.RunSummary
	if err := json.Unmarshal(payload, &sum); err != nil {
		return zero, false, fmt.Errorf("runstore: decode %s: %w", runID, err)
	}
	s.cache.Add(runID, sum)
	return sum, true, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS run_summaries (
				run_id  TEXT PRIMARY KEY,
				summary JSONB NOT NULL
			)
		`)
	})
	return s.schemaErr
}
