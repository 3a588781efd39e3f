package entity

import (
	"reflect"
	"sync"
)

// Registry caches descriptors per model type. It is an explicitly-owned
// value injected into repositories, not a package global. The first call
// for a type builds its descriptor under the write lock; later calls share
// the read-only result.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[reflect.Type]*Descriptor
	newID       func() any
}

// RegistryOption configures a registry.
type RegistryOption func(*Registry)

// WithIDStrategy sets the id generator applied to every descriptor built by
// the registry.
func WithIDStrategy(newID func() any) RegistryOption {
	return func(r *Registry) {
		r.newID = newID
	}
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		descriptors: make(map[reflect.Type]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Describe returns the descriptor for the given model, building and caching
// it on first use.
func (r *Registry) Describe(model any) (*Descriptor, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.RLock()
	d, ok := r.descriptors[t]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.descriptors[t]; ok {
		return d, nil
	}
	d, err := Describe(model)
	if err != nil {
		return nil, err
	}
	if d.NewID == nil {
		d.NewID = r.newID
	}
	r.descriptors[t] = d
	return d, nil
}
