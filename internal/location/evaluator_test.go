package location

import (
	"testing"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r, NewStaticSource())
	return r
}

func TestMatches_EmptySpecMatchesEverything(t *testing.T) {
	r := newTestRegistry()
	if !r.Matches(nil, Context{"post_type": "post"}) {
		t.Fatal("nil groups should match any context")
	}
	if !r.Matches([]Group{}, Context{}) {
		t.Fatal("empty groups should match any context")
	}
}

func TestMatches_GroupsAreOrOfAnds(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{
		{ID: "g1", Rules: []Rule{
			{Type: "post_type", Operator: "==", Value: "page"},
			{Type: "page_template", Operator: "==", Value: "full-width"},
		}},
		{ID: "g2", Rules: []Rule{
			{Type: "post_type", Operator: "==", Value: "product"},
		}},
	}

	// First group: both rules must hold.
	if !r.Matches(groups, Context{"post_type": "page", "page_template": "full-width"}) {
		t.Fatal("expected first group to match")
	}
	if r.Matches(groups, Context{"post_type": "page", "page_template": "sidebar"}) {
		t.Fatal("expected partial first group to fail")
	}
	// Second group rescues a context the first one rejects.
	if !r.Matches(groups, Context{"post_type": "product"}) {
		t.Fatal("expected second group to match")
	}
	if r.Matches(groups, Context{"post_type": "post"}) {
		t.Fatal("expected no group to match")
	}
}

func TestMatches_NotEqualsOperator(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "post_type", Operator: "!=", Value: "page"}}}}

	if !r.Matches(groups, Context{"post_type": "post"}) {
		t.Fatal("expected != to match a different post type")
	}
	if r.Matches(groups, Context{"post_type": "page"}) {
		t.Fatal("expected != to reject the named post type")
	}
}

func TestMatches_InvalidOperatorNeverMatches(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "post_type", Operator: ">", Value: "page"}}}}
	if r.Matches(groups, Context{"post_type": "page"}) {
		t.Fatal("unsupported operator should never match")
	}
}

func TestMatches_UnknownRuleTypeIsVacuouslyTrue(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{
		{Type: "lunar_phase", Operator: "==", Value: "full"},
		{Type: "post_type", Operator: "==", Value: "post"},
	}}}

	// The unrecognized rule is skipped; the rest of the group decides.
	if !r.Matches(groups, Context{"post_type": "post"}) {
		t.Fatal("unknown rule type should not block the group")
	}
	if r.Matches(groups, Context{"post_type": "page"}) {
		t.Fatal("known rules still apply")
	}
}

func TestMatches_PageTemplateDefaultNormalization(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "page_template", Operator: "==", Value: "default"}}}}

	// An empty template in the context means the default template.
	if !r.Matches(groups, Context{"page_template": ""}) {
		t.Fatal("empty template should equal default")
	}
	if !r.Matches(groups, Context{}) {
		t.Fatal("absent template should equal default")
	}
	if r.Matches(groups, Context{"page_template": "full-width"}) {
		t.Fatal("explicit template should not equal default")
	}

	// And the same the other way round, for a rule written with "".
	empty := []Group{{Rules: []Rule{{Type: "page_template", Operator: "==", Value: ""}}}}
	if !r.Matches(empty, Context{"page_template": "default"}) {
		t.Fatal("default template should equal empty rule value")
	}
}

func TestMatches_MembershipRules(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "post_category", Operator: "==", Value: "news"}}}}

	if !r.Matches(groups, Context{"post_category": []string{"news", "tech"}}) {
		t.Fatal("expected membership match")
	}
	if r.Matches(groups, Context{"post_category": []string{"tech"}}) {
		t.Fatal("expected membership miss")
	}
	// A scalar context value still works.
	if !r.Matches(groups, Context{"post_category": "news"}) {
		t.Fatal("expected scalar membership match")
	}

	// != means "not a member".
	negated := []Group{{Rules: []Rule{{Type: "post_category", Operator: "!=", Value: "news"}}}}
	if negated[0].Rules[0].Type != "post_category" {
		t.Fatal("sanity")
	}
	if r.Matches(negated, Context{"post_category": []string{"news"}}) {
		t.Fatal("expected != membership miss")
	}
	if !r.Matches(negated, Context{"post_category": []string{"tech"}}) {
		t.Fatal("expected != membership match")
	}
}

func TestMatches_UserRoleRule(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "user_role", Operator: "==", Value: "editor"}}}}

	if !r.Matches(groups, Context{"user_role": []string{"editor", "author"}}) {
		t.Fatal("expected role match")
	}
	if r.Matches(groups, Context{"user_role": []string{"subscriber"}}) {
		t.Fatal("expected role miss")
	}
}

func TestMatches_ExpressionRule(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{
		{Type: "expression", Operator: "==", Value: `context.post_type == "post" && context.post_id > 100`},
	}}}

	if !r.Matches(groups, Context{"post_type": "post", "post_id": 150}) {
		t.Fatal("expected expression to match")
	}
	if r.Matches(groups, Context{"post_type": "post", "post_id": 50}) {
		t.Fatal("expected expression to miss")
	}

	negated := []Group{{Rules: []Rule{
		{Type: "expression", Operator: "!=", Value: `context.post_type == "post"`},
	}}}
	if r.Matches(negated, Context{"post_type": "post"}) {
		t.Fatal("expected negated expression to miss")
	}
	if !r.Matches(negated, Context{"post_type": "page"}) {
		t.Fatal("expected negated expression to match")
	}
}

func TestMatches_MalformedExpressionNeverPanics(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{
		{Type: "expression", Operator: "==", Value: `context.post_type ==`},
	}}}
	if r.Matches(groups, Context{"post_type": "post"}) {
		t.Fatal("broken expression should evaluate to no match")
	}
}

func TestMatches_RuleWithMissingContextKey(t *testing.T) {
	r := newTestRegistry()
	groups := []Group{{Rules: []Rule{{Type: "post_type", Operator: "==", Value: "post"}}}}
	if r.Matches(groups, Context{}) {
		t.Fatal("missing context key should not equal a concrete value")
	}
}

func TestRegistry_UnregisterRuleType(t *testing.T) {
	r := newTestRegistry()
	r.Unregister("post_type")

	// The rule is now unknown, hence vacuously true.
	groups := []Group{{Rules: []Rule{{Type: "post_type", Operator: "==", Value: "page"}}}}
	if !r.Matches(groups, Context{"post_type": "post"}) {
		t.Fatal("unregistered rule type should be skipped")
	}
}
