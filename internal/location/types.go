package location

// Rule is one predicate over a screen context.
type Rule struct {
	Type     string `json:"type"`
	Operator string `json:"operator"` // "==" or "!="
	Value    string `json:"value"`
}

// Group is a conjunction of rules. A fieldset's location spec is an
// ordered list of groups, OR'd together.
type Group struct {
	ID    string `json:"id,omitempty"`
	Rules []Rule `json:"rules"`
}

// Context carries the runtime screen state a fieldset is matched against.
// Scalar keys (post_type, page_template, ...) hold strings; membership keys
// (post_category, user_role, taxonomy) hold string slices.
type Context map[string]any

// Str returns the context value for key as a string, or "".
func (c Context) Str(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

// Strs returns the context value for key as a string slice.
// Accepts []string, []any of strings, or a single string.
func (c Context) Strs(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Option is one entry of a rule type's value dropdown.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Matcher decides whether a single rule matches the context.
// Implementations must never panic; malformed input degrades to false.
type Matcher func(value string, operator string, ctx Context) bool

// OptionsProvider supplies the value choices the UI offers for a rule type.
type OptionsProvider func() []Option

// RuleType bundles everything known about one registered rule type.
type RuleType struct {
	Key     string
	Label   string
	Match   Matcher
	Options OptionsProvider
}

// validOperator reports whether op is one of the two supported operators.
// Anything else is invalid and must be treated as a non-match, never coerced.
func validOperator(op string) bool {
	return op == "==" || op == "!="
}
