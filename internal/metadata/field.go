package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// Settings is the nested, ergonomic form of a field's configuration. A Go
// map distinguishes "key absent" from "key present with a falsy value",
// which the wire translation depends on: only truly absent keys are omitted
// from the flat payload.
type Settings map[string]any

// Clone returns a shallow copy one level deep: top-level keys are copied,
// nested Settings values are copied too so sub-map edits don't alias.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		if sub, ok := v.(Settings); ok {
			out[k] = sub.Clone()
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			copied := make(map[string]any, len(sub))
			for sk, sv := range sub {
				copied[sk] = sv
			}
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

// Field is one input definition belonging to a fieldset. IDs are numeric
// strings once persisted; unsaved fields carry a "temp-" id.
type Field struct {
	ID         string   `json:"id,omitempty"`
	FieldsetID string   `json:"fieldset_id,omitempty"`
	ParentID   string   `json:"parent_id,omitempty"` // "" means root level
	Label      string   `json:"label"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	MenuOrder  int      `json:"menu_order"`
	Settings   Settings `json:"settings"`
}

// IsTempID reports whether the id belongs to a field that has never been
// persisted.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, "temp-")
}

// NormalizeParentID collapses the four absent-value encodings the wire may
// carry — nil, 0, "0" and "" — into the single root sentinel "". Any other
// value is kept, stringified.
func NormalizeParentID(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if val == "" || val == "0" {
			return ""
		}
		return val
	case int:
		if val == 0 {
			return ""
		}
		return strconv.Itoa(val)
	case int64:
		if val == 0 {
			return ""
		}
		return strconv.FormatInt(val, 10)
	case float64:
		if val == 0 {
			return ""
		}
		return formatNumericID(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatID stringifies a wire id value (numeric from the database, string
// temp id from the editor).
func formatID(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatNumericID(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatNumericID renders a JSON number id without a decimal point when
// it is integral (encoding/json decodes all numbers as float64).
func formatNumericID(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
