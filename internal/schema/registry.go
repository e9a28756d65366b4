package schema

import "sync"

// Field type categories, used to group the palette.
const (
	CategoryBasic      = "basic"
	CategoryChoice     = "choice"
	CategoryContent    = "content"
	CategoryRelational = "relational"
	CategoryLayout     = "layout"
	CategoryDateTime   = "date_time"
)

// UniversalSettings are the setting names legal on every field type.
// The same list drives the wire translation: anything outside it lands
// in field_config.
var UniversalSettings = []string{
	"placeholder",
	"default_value",
	"instructions",
	"required",
	"wrapper",
	"conditionalLogic",
}

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Setting describes one type-specific setting of a field type.
type Setting struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // text, number, boolean, select
	Label   string   `json:"label"`
	Default any      `json:"default,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// FieldType is the static descriptor for one field type.
type FieldType struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Category     string    `json:"category"`
	HasSubFields bool      `json:"has_sub_fields,omitempty"`
	Schema       []Setting `json:"schema"`
}

// GetSetting returns the setting with the given name, or nil.
func (ft *FieldType) GetSetting(name string) *Setting {
	for i := range ft.Schema {
		if ft.Schema[i].Name == name {
			return &ft.Schema[i]
		}
	}
	return nil
}

// Registry maps field type keys to their descriptors. It is constructed
// explicitly and passed to the components that need it; registration is
// expected to happen at startup before concurrent reads begin.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*FieldType
	order []string // insertion order, for palette display
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*FieldType)}
}

// Register upserts a field type. Re-registering an existing key overwrites
// it in place (last write wins) and keeps its original palette position.
// This is the hook by which custom field types are added.
func (r *Registry) Register(ft FieldType) {
	if ft.Key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[ft.Key]; !exists {
		r.order = append(r.order, ft.Key)
	}
	copied := ft
	r.types[ft.Key] = &copied
}

// Unregister removes a field type. No-op if the key is unknown.
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

// Get returns the field type with the given key, or nil.
func (r *Registry) Get(key string) *FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[key]
}

// All returns all registered field types in registration order.
func (r *Registry) All() []*FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]*FieldType, 0, len(r.order))
	for _, key := range r.order {
		types = append(types, r.types[key])
	}
	return types
}

// ApplicableSettings returns the set of setting names legal for the given
// field type: the universal settings plus the type's own schema. Returns an
// empty set for an unknown key.
func (r *Registry) ApplicableSettings(key string) map[string]bool {
	r.mu.RLock()
	ft := r.types[key]
	r.mu.RUnlock()

	if ft == nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(UniversalSettings)+len(ft.Schema))
	for _, name := range UniversalSettings {
		set[name] = true
	}
	for _, s := range ft.Schema {
		set[s.Name] = true
	}
	return set
}

// Supports reports whether the given setting name is legal for the field type.
func (r *Registry) Supports(key, settingName string) bool {
	return r.ApplicableSettings(key)[settingName]
}

// HasSubFields reports whether the field type is a container (repeater/group).
func (r *Registry) HasSubFields(key string) bool {
	ft := r.Get(key)
	return ft != nil && ft.HasSubFields
}
