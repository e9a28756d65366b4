package location

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// OptionSource supplies the host platform's enumerations (content types,
// templates, taxonomies, roles). The evaluator treats these as opaque
// external data.
type OptionSource interface {
	PostTypes() []Option
	PageTemplates() []Option
	Categories() []Option
	PostFormats() []Option
	Taxonomies() []Option
	Roles() []Option
	OptionsPages() []Option
}

// StaticSource is an OptionSource backed by fixed slices. The zero value is
// empty; NewStaticSource returns one seeded with the standard host defaults.
type StaticSource struct {
	PostTypeOpts     []Option
	PageTemplateOpts []Option
	CategoryOpts     []Option
	PostFormatOpts   []Option
	TaxonomyOpts     []Option
	RoleOpts         []Option
	OptionsPageOpts  []Option
}

func NewStaticSource() *StaticSource {
	return &StaticSource{
		PostTypeOpts: []Option{
			{Value: "post", Label: "Post"},
			{Value: "page", Label: "Page"},
			{Value: "attachment", Label: "Attachment"},
		},
		PageTemplateOpts: []Option{
			{Value: "default", Label: "Default Template"},
			{Value: "full-width", Label: "Full Width"},
		},
		CategoryOpts: []Option{
			{Value: "uncategorized", Label: "Uncategorized"},
		},
		PostFormatOpts: []Option{
			{Value: "standard", Label: "Standard"},
			{Value: "aside", Label: "Aside"},
			{Value: "gallery", Label: "Gallery"},
			{Value: "video", Label: "Video"},
			{Value: "quote", Label: "Quote"},
		},
		TaxonomyOpts: []Option{
			{Value: "category", Label: "Category"},
			{Value: "post_tag", Label: "Tag"},
		},
		RoleOpts: []Option{
			{Value: "administrator", Label: "Administrator"},
			{Value: "editor", Label: "Editor"},
			{Value: "author", Label: "Author"},
			{Value: "contributor", Label: "Contributor"},
			{Value: "subscriber", Label: "Subscriber"},
		},
		OptionsPageOpts: []Option{},
	}
}

func (s *StaticSource) PostTypes() []Option     { return s.PostTypeOpts }
func (s *StaticSource) PageTemplates() []Option { return s.PageTemplateOpts }
func (s *StaticSource) Categories() []Option    { return s.CategoryOpts }
func (s *StaticSource) PostFormats() []Option   { return s.PostFormatOpts }
func (s *StaticSource) Taxonomies() []Option    { return s.TaxonomyOpts }
func (s *StaticSource) Roles() []Option         { return s.RoleOpts }
func (s *StaticSource) OptionsPages() []Option  { return s.OptionsPageOpts }

// RegisterBuiltins loads the built-in rule types into the registry.
func RegisterBuiltins(r *Registry, src OptionSource) {
	r.Register(RuleType{
		Key: "post_type", Label: "Post Type",
		Match:   scalarMatcher("post_type"),
		Options: src.PostTypes,
	})
	r.Register(RuleType{
		Key: "page_template", Label: "Page Template",
		Match:   matchPageTemplate,
		Options: src.PageTemplates,
	})
	r.Register(RuleType{
		Key: "post_category", Label: "Post Category",
		Match:   membershipMatcher("post_category"),
		Options: src.Categories,
	})
	r.Register(RuleType{
		Key: "post_format", Label: "Post Format",
		Match:   scalarMatcher("post_format"),
		Options: src.PostFormats,
	})
	r.Register(RuleType{
		Key: "taxonomy", Label: "Taxonomy",
		Match:   membershipMatcher("taxonomy"),
		Options: src.Taxonomies,
	})
	r.Register(RuleType{
		Key: "user_role", Label: "User Role",
		Match:   membershipMatcher("user_role"),
		Options: src.Roles,
	})
	r.Register(RuleType{
		Key: "options_page", Label: "Options Page",
		Match:   scalarMatcher("options_page"),
		Options: src.OptionsPages,
	})
	r.Register(RuleType{
		Key: "expression", Label: "Expression",
		Match:   matchExpression,
		Options: func() []Option { return nil },
	})
}

// scalarMatcher builds a matcher using exact string equality on one
// context key.
func scalarMatcher(key string) Matcher {
	return func(value, operator string, ctx Context) bool {
		switch operator {
		case "==":
			return ctx.Str(key) == value
		case "!=":
			return ctx.Str(key) != value
		default:
			return false
		}
	}
}

// membershipMatcher builds a matcher with set-membership semantics:
// "==" means the rule value is a member of the context's multi-value set,
// "!=" is the negation of that membership test.
func membershipMatcher(key string) Matcher {
	return func(value, operator string, ctx Context) bool {
		if !validOperator(operator) {
			return false
		}
		member := false
		for _, v := range ctx.Strs(key) {
			if v == value {
				member = true
				break
			}
		}
		if operator == "!=" {
			return !member
		}
		return member
	}
}

// matchPageTemplate treats the empty string and the literal "default" as
// equal on both sides: the host reports "" for the default template while
// the UI always stores "default".
func matchPageTemplate(value, operator string, ctx Context) bool {
	if !validOperator(operator) {
		return false
	}
	norm := func(s string) string {
		if s == "" {
			return "default"
		}
		return s
	}
	eq := norm(ctx.Str("page_template")) == norm(value)
	if operator == "!=" {
		return !eq
	}
	return eq
}

// exprCache caches compiled expression rule programs by source text.
var exprCache = struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}{programs: make(map[string]*vm.Program)}

// matchExpression evaluates the rule value as an expression over the
// context. Compile and runtime errors degrade to non-match.
func matchExpression(value, operator string, ctx Context) bool {
	if !validOperator(operator) {
		return false
	}

	exprCache.mu.RLock()
	prog := exprCache.programs[value]
	exprCache.mu.RUnlock()

	if prog == nil {
		compiled, err := expr.Compile(value, expr.AsBool())
		if err != nil {
			return false
		}
		exprCache.mu.Lock()
		exprCache.programs[value] = compiled
		exprCache.mu.Unlock()
		prog = compiled
	}

	result, err := expr.Run(prog, map[string]any{"context": map[string]any(ctx)})
	if err != nil {
		return false
	}
	matched, ok := result.(bool)
	if !ok {
		return false
	}
	if operator == "!=" {
		return !matched
	}
	return matched
}
