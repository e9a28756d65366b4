package metadata

import (
	"encoding/json"
	"strings"
)

// The flat wire shape stores a few settings as independent top-level
// columns. knownSettings is the single source of truth shared by FromWire
// and ToWire: any settings key outside this list travels inside
// field_config.
var knownSettings = map[string]bool{
	"placeholder":      true,
	"default_value":    true,
	"instructions":     true,
	"required":         true,
	"wrapper":          true,
	"conditionalLogic": true,
}

// FromWire builds a Field from the flat record shape used by storage and
// transport. The nested settings object is assembled from the universal
// top-level columns, conditional_logic and wrapper_config (merged only when
// present), and the type-specific keys spread out of field_config.
func FromWire(record map[string]any) Field {
	f := Field{
		ID:         formatID(record["id"]),
		FieldsetID: formatID(record["fieldset_id"]),
		ParentID:   NormalizeParentID(record["parent_id"]),
		Label:      str(record["label"]),
		Name:       str(record["name"]),
		Type:       str(record["type"]),
		MenuOrder:  intVal(record["menu_order"]),
		Settings:   Settings{},
	}

	for _, key := range []string{"placeholder", "default_value", "instructions"} {
		if v, ok := record[key]; ok && v != nil {
			f.Settings[key] = str(v)
		}
	}
	if v, ok := record["required"]; ok && v != nil {
		f.Settings["required"] = boolVal(v)
	}
	if v, ok := record["conditional_logic"]; ok && v != nil {
		f.Settings["conditionalLogic"] = decodeJSON(v)
	}
	if v, ok := record["wrapper_config"]; ok && v != nil {
		f.Settings["wrapper"] = decodeJSON(v)
	}
	if v, ok := record["field_config"]; ok && v != nil {
		if cfg, ok := decodeJSON(v).(map[string]any); ok {
			for k, val := range cfg {
				f.Settings[k] = val
			}
		}
	}

	return f
}

// ToWire is the inverse of FromWire. Presence, not truthiness, drives
// emission: a key held in Settings with an empty value is still sent, so
// the backend can clear a previously stored value. Only keys entirely
// absent from Settings are omitted. Everything outside the universal set is
// collected into field_config verbatim.
func ToWire(f Field) map[string]any {
	record := map[string]any{
		"label":      f.Label,
		"name":       f.Name,
		"type":       f.Type,
		"menu_order": f.MenuOrder,
	}
	if f.ID != "" && !IsTempID(f.ID) {
		record["id"] = f.ID
	}
	if f.FieldsetID != "" {
		record["fieldset_id"] = f.FieldsetID
	}
	if f.ParentID == "" {
		record["parent_id"] = nil
	} else {
		record["parent_id"] = f.ParentID
	}

	for k, v := range SettingsToWire(f.Settings) {
		record[k] = v
	}

	return record
}

// SettingsToWire flattens a settings object into its wire columns. Presence
// drives emission for the universal keys; everything else lands in
// field_config, which is always emitted (possibly empty).
func SettingsToWire(s Settings) map[string]any {
	record := map[string]any{}

	for _, key := range []string{"placeholder", "default_value", "instructions", "required"} {
		if v, ok := s[key]; ok {
			record[key] = v
		}
	}
	if v, ok := s["conditionalLogic"]; ok {
		if v == nil {
			v = []any{}
		}
		record["conditional_logic"] = v
	}
	if v, ok := s["wrapper"]; ok {
		if v == nil {
			v = map[string]any{}
		}
		record["wrapper_config"] = v
	}

	config := map[string]any{}
	for k, v := range s {
		if knownSettings[k] {
			continue
		}
		config[k] = v
	}
	record["field_config"] = config

	return record
}

// decodeJSON unwraps a JSON column value: text columns come back as strings
// (or []byte) that still need unmarshalling, JSONB may already be decoded.
func decodeJSON(v any) any {
	var raw []byte
	switch val := v.(type) {
	case []byte:
		raw = val
	case string:
		raw = []byte(val)
	default:
		return v
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}

func str(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case nil:
		return ""
	default:
		return ""
	}
}

func intVal(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}

func boolVal(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}
