// Package registry manages the set of named tables a termtabd instance
// hosts, wiring table lifecycle into grafana/dskit's services.Service
// state machine the way modules/backendscheduler does for its own
// background component in the teacher repo.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/grafana/dskit/services"

	"github.com/loxia-systems/termtab/internal/linhash"
)

// Registry owns every table a daemon process serves, keyed by name.
type Registry struct {
	services.Service

	logger log.Logger

	mu     sync.RWMutex
	tables map[string]*entry
}

type entry struct {
	table *linhash.Table
	id    uuid.UUID
}

// New constructs a Registry. It does not start running until Service's
// StartAsync/AwaitRunning is called by the owning daemon, matching the
// lifecycle convention used throughout the teacher's modules/ tree.
func New(logger log.Logger) *Registry {
	r := &Registry{
		logger: logger,
		tables: map[string]*entry{},
	}
	r.Service = services.NewBasicService(r.starting, r.running, r.stopping)
	return r
}

func (r *Registry) starting(_ context.Context) error {
	level.Info(r.logger).Log("msg", "table registry starting")
	return nil
}

func (r *Registry) running(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (r *Registry) stopping(failureCase error) error {
	level.Info(r.logger).Log("msg", "table registry stopping", "err", failureCase)
	r.mu.Lock()
	defer r.mu.Unlock()
	const teardownBudget = 1000
	for name, e := range r.tables {
		for !e.table.FreeContinue(teardownBudget) {
		}
		delete(r.tables, name)
	}
	return nil
}

// Create registers a new table under name with opts, failing if a
// table with that name already exists.
func (r *Registry) Create(name string, opts linhash.Options) (*linhash.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[name]; exists {
		return nil, fmt.Errorf("registry: table %q already exists", name)
	}
	tbl, err := linhash.New(opts)
	if err != nil {
		return nil, err
	}
	r.tables[name] = &entry{table: tbl, id: uuid.New()}
	level.Info(r.logger).Log("msg", "table created", "name", name)
	return tbl, nil
}

// Lookup returns the table registered under name, or ok=false.
func (r *Registry) Lookup(name string) (*linhash.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	return e.table, true
}

// Drop removes a table from the registry and empties it in a single
// DeleteAllObjects call.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	e, ok := r.tables[name]
	if ok {
		delete(r.tables, name)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("registry: no table named %q", name)
	}
	e.table.DeleteAllObjects()
	level.Info(r.logger).Log("msg", "table dropped", "name", name)
	return nil
}

// Names returns every currently registered table name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tables))
	for n := range r.tables {
		out = append(out, n)
	}
	return out
}
