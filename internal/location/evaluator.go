package location

// Matches decides whether a location spec matches the given context.
// Groups are OR'd together; rules within a group are AND'd. An empty spec
// matches everywhere.
//
// A rule whose type is not registered is skipped, not failed: a group made
// entirely of unknown-type rules still matches. Malformed rules degrade to
// non-match for that rule only; evaluation of sibling groups always proceeds.
func (r *Registry) Matches(groups []Group, ctx Context) bool {
	if len(groups) == 0 {
		return true
	}
	for _, group := range groups {
		if r.groupMatches(group, ctx) {
			// first matching group short-circuits
			return true
		}
	}
	return false
}

func (r *Registry) groupMatches(group Group, ctx Context) bool {
	for _, rule := range group.Rules {
		rt := r.Get(rule.Type)
		if rt == nil || rt.Match == nil {
			// unknown rule type is vacuously true
			continue
		}
		if !rt.Match(rule.Value, rule.Operator, ctx) {
			return false
		}
	}
	return true
}
