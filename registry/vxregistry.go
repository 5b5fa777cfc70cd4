package registry

import (
	"sync"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/fixerrors"
)

// Layer classifies a version record's scope.
type Layer string

const (
	LayerSession     Layer = "session"
	LayerApplication Layer = "application"
	LayerCombined    Layer = "combined"
)

// MatchPair is one (tag, exact-value) pair of a match rule.
type MatchPair struct {
	Tag   int
	Value string
}

// Rule is satisfied when every one of its pairs appears verbatim (same tag,
// byte-exact value) in the candidate message.
type Rule struct {
	Name  string
	Pairs []MatchPair
}

// VersionRecord binds a protocol version to an ordered list of dictionaries
// plus a set of match rules, at one layer.
type VersionRecord struct {
	Name            string
	Layer           Layer
	BeginString     string
	ApplVerID       string
	Rules           []Rule
	DictionaryNames []string // ordered; first is primary
}

// PrimaryDictionary returns the first dictionary name bound to this record,
// or "" if none are bound.
func (v *VersionRecord) PrimaryDictionary() string {
	if len(v.DictionaryNames) == 0 {
		return ""
	}
	return v.DictionaryNames[0]
}

// VxRegistry is a concurrent name-keyed map of version records, insertion
// order preserved for first-match-wins matching (§4.2).
type VxRegistry struct {
	mu      sync.RWMutex
	byName  map[string]*VersionRecord
	ordered []*VersionRecord
}

// NewVxRegistry returns an empty registry.
func NewVxRegistry() *VxRegistry {
	return &VxRegistry{byName: make(map[string]*VersionRecord)}
}

// Insert registers a version record. Fails if the name is already registered.
func (r *VxRegistry) Insert(v *VersionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[v.Name]; exists {
		return fixerrors.NewDuplicateNameError(v.Name)
	}
	r.byName[v.Name] = v
	r.ordered = append(r.ordered, v)
	return nil
}

// Get returns the version record registered under name.
func (r *VxRegistry) Get(name string) (*VersionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byName[name]
	if !ok {
		return nil, fixerrors.NewUnknownNameError(name)
	}
	return v, nil
}

// Remove deletes the version record registered under name.
func (r *VxRegistry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return fixerrors.NewUnknownNameError(name)
	}
	delete(r.byName, name)
	for i, v := range r.ordered {
		if v.Name == name {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot returns the registered records in registration order.
func (r *VxRegistry) Snapshot() []*VersionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*VersionRecord, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// byLayer returns the registered records for one layer, in registration
// order.
func (r *VxRegistry) byLayer(layer Layer) []*VersionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*VersionRecord, 0, len(r.ordered))
	for _, v := range r.ordered {
		if v.Layer == layer {
			out = append(out, v)
		}
	}
	return out
}

// Dictionaries resolves a version record's DictionaryNames against dx,
// returning them in order. Missing names are a RegistryError.
func (v *VersionRecord) Dictionaries(dx *DxRegistry) ([]*dictionary.Dictionary, error) {
	out := make([]*dictionary.Dictionary, 0, len(v.DictionaryNames))
	for _, name := range v.DictionaryNames {
		d, err := dx.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
