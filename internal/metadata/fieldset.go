package metadata

import (
	"encoding/json"
	"regexp"

	"fieldforge-backend/internal/location"
)

// FieldKeyPattern is the legal shape of a fieldset key and a field name.
var FieldKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Fieldset is a named collection of fields shown together on matching
// screens. Settings is an opaque bag; currently it only houses
// "locationGroups".
type Fieldset struct {
	ID          int64          `json:"id,omitempty"`
	Title       string         `json:"title"`
	FieldKey    string         `json:"field_key"`
	Description string         `json:"description,omitempty"`
	Active      bool           `json:"active"`
	Settings    map[string]any `json:"settings"`
	MenuOrder   int            `json:"menu_order"`
}

// LocationGroups decodes the fieldset's location spec out of the settings
// bag. A missing or malformed spec yields nil, which matches everywhere.
func (fs *Fieldset) LocationGroups() []location.Group {
	raw, ok := fs.Settings["locationGroups"]
	if !ok || raw == nil {
		return nil
	}
	// settings arrive as generic JSON; round-trip into the typed shape
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var groups []location.Group
	if err := json.Unmarshal(b, &groups); err != nil {
		return nil
	}
	return groups
}

// SetLocationGroups stores the location spec back into the settings bag.
func (fs *Fieldset) SetLocationGroups(groups []location.Group) {
	if fs.Settings == nil {
		fs.Settings = map[string]any{}
	}
	fs.Settings["locationGroups"] = groups
}
