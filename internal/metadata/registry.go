package metadata

import (
	"sort"
	"sync"

	"fieldforge-backend/internal/location"
)

// Registry holds the loaded fieldsets for runtime location matching.
// Load replaces the whole set; called at startup and after admin mutations.
type Registry struct {
	mu      sync.RWMutex
	byID    map[int64]*Fieldset
	byKey   map[string]*Fieldset
	ordered []*Fieldset
}

func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[int64]*Fieldset),
		byKey: make(map[string]*Fieldset),
	}
}

// Load replaces all fieldsets in the registry.
func (r *Registry) Load(fieldsets []*Fieldset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[int64]*Fieldset, len(fieldsets))
	r.byKey = make(map[string]*Fieldset, len(fieldsets))
	r.ordered = make([]*Fieldset, len(fieldsets))
	copy(r.ordered, fieldsets)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].MenuOrder < r.ordered[j].MenuOrder
	})
	for _, fs := range fieldsets {
		r.byID[fs.ID] = fs
		r.byKey[fs.FieldKey] = fs
	}
}

// Get returns the fieldset with the given id, or nil.
func (r *Registry) Get(id int64) *Fieldset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// GetByKey returns the fieldset with the given field key, or nil.
func (r *Registry) GetByKey(key string) *Fieldset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[key]
}

// All returns all fieldsets ordered by menu order.
func (r *Registry) All() []*Fieldset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Fieldset, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ActiveForContext filters the active fieldsets down to those whose
// location spec matches the context, preserving menu order. This is the
// only entry point screen rendering needs.
func (r *Registry) ActiveForContext(rules *location.Registry, ctx location.Context) []*Fieldset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Fieldset
	for _, fs := range r.ordered {
		if !fs.Active {
			continue
		}
		if rules.Matches(fs.LocationGroups(), ctx) {
			out = append(out, fs)
		}
	}
	return out
}
