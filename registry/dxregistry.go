// Package registry implements DxRegistry, VxRegistry and VxMatcher: the
// named dictionary registry, the named version-record registry, and the
// rule-based matcher that picks a version record for a parsed message.
//
// Grounded on the teacher's commbus/bus.go named-handler-map pattern
// (RegisterHandler erroring on duplicate, Get/Remove, snapshot iteration):
// both registries here are concurrent name-keyed maps with the same insert/
// get/remove/iterate-snapshot contract, adapted from message handlers to
// dictionaries and version records.
package registry

import (
	"sync"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/fixerrors"
)

// DxRegistry is a concurrent name-keyed map of dictionaries.
type DxRegistry struct {
	mu   sync.RWMutex
	byName map[string]*dictionary.Dictionary
}

// NewDxRegistry returns an empty registry.
func NewDxRegistry() *DxRegistry {
	return &DxRegistry{byName: make(map[string]*dictionary.Dictionary)}
}

// Insert adds a dictionary under name. Fails if name is already registered.
func (r *DxRegistry) Insert(name string, d *dictionary.Dictionary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fixerrors.NewDuplicateNameError(name)
	}
	r.byName[name] = d
	return nil
}

// Get returns the dictionary registered under name.
func (r *DxRegistry) Get(name string) (*dictionary.Dictionary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return nil, fixerrors.NewUnknownNameError(name)
	}
	return d, nil
}

// Remove deletes the dictionary registered under name.
func (r *DxRegistry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return fixerrors.NewUnknownNameError(name)
	}
	delete(r.byName, name)
	return nil
}

// Snapshot returns a point-in-time copy of every registered name/dictionary
// pair. Safe to range over without holding the registry lock.
func (r *DxRegistry) Snapshot() map[string]*dictionary.Dictionary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*dictionary.Dictionary, len(r.byName))
	for k, v := range r.byName {
		out[k] = v
	}
	return out
}
