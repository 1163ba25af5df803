// Package registry tracks the endpoints a client uploads to and aggregates
// from: an ordered, duplicate-free list of base URLs with one active entry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"videohub/internal/domain"
	"videohub/internal/kv"
)

// StorageKey is the key the endpoint list is persisted under, as a JSON
// array of strings.
const StorageKey = "videoServers"

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	store   kv.Store
	servers []string
	active  string // "" when none
}

// Load reads the persisted list. The first endpoint becomes active; the
// active choice itself is not persisted.
func Load(ctx context.Context, store kv.Store) (*Registry, error) {
	r := &Registry{store: store, servers: []string{}}

	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		return nil, &domain.StorageError{Op: "read endpoints", Err: err}
	}
	if ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &r.servers); err != nil {
			return nil, &domain.StorageError{Op: "decode endpoints", Err: err}
		}
		if r.servers == nil {
			r.servers = []string{}
		}
	}
	if len(r.servers) > 0 {
		r.active = r.servers[0]
	}
	return r, nil
}

// Add appends address. Uniqueness is exact string match; callers trim user
// input before calling. The first added endpoint becomes active.
func (r *Registry) Add(ctx context.Context, address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: endpoint address is empty", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.servers, address) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, address)
	}

	next := append(slices.Clone(r.servers), address)
	if err := r.persist(ctx, next); err != nil {
		return err
	}
	r.servers = next
	if r.active == "" {
		r.active = address
	}
	return nil
}

// Remove deletes address and reports whether it was present. Removing the
// active endpoint activates the first remaining one, or none.
func (r *Registry) Remove(ctx context.Context, address string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.servers, address)
	if i < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(r.servers), i, i+1)
	if err := r.persist(ctx, next); err != nil {
		return false, err
	}
	r.servers = next
	if r.active == address {
		r.active = ""
		if len(next) > 0 {
			r.active = next[0]
		}
	}
	return true, nil
}

// Active returns the endpoint uploads go to.
func (r *Registry) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.active != ""
}

// All returns a copy of the endpoints in registration order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.servers)
}

func (r *Registry) persist(ctx context.Context, servers []string) error {
	b, err := json.Marshal(servers)
	if err != nil {
		return &domain.StorageError{Op: "encode endpoints", Err: err}
	}
	if err := r.store.Set(ctx, StorageKey, string(b)); err != nil {
		return &domain.StorageError{Op: "save endpoints", Err: err}
	}
	return nil
}
