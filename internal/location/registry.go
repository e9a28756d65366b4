package location

import "sync"

// Registry maps rule type keys to their matchers and option providers.
// Constructed explicitly and shared read-mostly; registration happens at
// startup before concurrent evaluation begins.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*RuleType
	order []string
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*RuleType)}
}

// Register upserts a rule type. Re-registering overwrites in place.
func (r *Registry) Register(rt RuleType) {
	if rt.Key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[rt.Key]; !exists {
		r.order = append(r.order, rt.Key)
	}
	copied := rt
	r.types[rt.Key] = &copied
}

// Unregister removes a rule type. No-op if absent.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[key]; !exists {
		return
	}
	delete(r.types, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the rule type for key, or nil.
func (r *Registry) Get(key string) *RuleType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[key]
}

// All returns all registered rule types in registration order.
func (r *Registry) All() []*RuleType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]*RuleType, 0, len(r.order))
	for _, key := range r.order {
		types = append(types, r.types[key])
	}
	return types
}
