// Package health aggregates liveness signals from fraudguard subsystems.
// The server registers one checker per dependency (record store, database
// pool) and the readiness endpoint reports the combined result.
package health

import (
	"context"
	"sync"
)

// Status is the outcome of a single subsystem probe.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem. It should honor ctx cancellation.
type Checker func(ctx context.Context) Status

type entry struct {
	name  string
	probe Checker
}

// Registry holds the registered checkers. Registration order is
// preserved in CheckAll output.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker under the given name.
func (r *Registry) Register(name string, probe Checker) {
	r.mu.Lock()
	r.entries = append(r.entries, entry{name: name, probe: probe})
	r.mu.Unlock()
}

// CheckAll runs every registered checker and returns whether all passed
// along with the individual results. A checker that leaves Status.Name
// empty gets its registered name filled in.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, 0, len(entries))
	for _, e := range entries {
		st := e.probe(ctx)
		if st.Name == "" {
			st.Name = e.name
		}
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}
