// Package storage contains the storage-agnostic contracts used by the
// pipeline and a registry of backend factories.
//
// Backends live in subpackages (sqlite, postgres, pq, mssql, mysql,
// snowflake) and register themselves in init. Import
// cademycode/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cademycode/internal/table"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite" or "postgres".
	Kind string
	// DSN is passed to the backend's driver.
	DSN string
}

// Reader fetches whole tables.
type Reader interface {
	// ReadTable returns every row of the named table, in stored order, with
	// values converted by table.Canonical.
	ReadTable(ctx context.Context, name string) (*table.Table, error)
}

// Writer replaces whole tables.
type Writer interface {
	// ReplaceTable drops fqn if it exists, recreates it from t's inferred
	// schema and inserts every row of t. It returns the number of rows written.
	ReplaceTable(ctx context.Context, fqn string, t *table.Table) (int64, error)
}

// Repository is an open connection to one store.
type Repository interface {
	Reader
	Writer
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
