package metadata

import (
	"testing"

	"fieldforge-backend/internal/location"
)

func TestFieldKeyPattern(t *testing.T) {
	valid := []string{"hero_section", "page_meta_2", "a"}
	for _, key := range valid {
		if !FieldKeyPattern.MatchString(key) {
			t.Fatalf("expected %q to be valid", key)
		}
	}
	invalid := []string{"", "Hero", "page meta", "page-meta", "meta!"}
	for _, key := range invalid {
		if FieldKeyPattern.MatchString(key) {
			t.Fatalf("expected %q to be invalid", key)
		}
	}
}

func TestLocationGroups_RoundTrip(t *testing.T) {
	fs := &Fieldset{Title: "Hero", FieldKey: "hero"}
	fs.SetLocationGroups([]location.Group{
		{ID: "g1", Rules: []location.Rule{{Type: "post_type", Operator: "==", Value: "page"}}},
	})

	groups := fs.LocationGroups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Rules[0].Value != "page" {
		t.Fatalf("expected rule value page, got %s", groups[0].Rules[0].Value)
	}
}

func TestLocationGroups_DecodesGenericJSON(t *testing.T) {
	// Settings loaded from storage hold generic decoded JSON, not typed groups.
	fs := &Fieldset{
		Settings: map[string]any{
			"locationGroups": []any{
				map[string]any{
					"id": "g1",
					"rules": []any{
						map[string]any{"type": "post_type", "operator": "==", "value": "post"},
					},
				},
			},
		},
	}
	groups := fs.LocationGroups()
	if len(groups) != 1 || groups[0].Rules[0].Type != "post_type" {
		t.Fatalf("expected decoded group, got %+v", groups)
	}
}

func TestLocationGroups_MalformedYieldsNil(t *testing.T) {
	fs := &Fieldset{Settings: map[string]any{"locationGroups": "not-a-list"}}
	if groups := fs.LocationGroups(); groups != nil {
		t.Fatalf("expected nil for malformed spec, got %+v", groups)
	}
	fs = &Fieldset{}
	if groups := fs.LocationGroups(); groups != nil {
		t.Fatalf("expected nil for missing spec, got %+v", groups)
	}
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Load([]*Fieldset{
		{ID: 2, FieldKey: "b", Title: "B", MenuOrder: 1},
		{ID: 1, FieldKey: "a", Title: "A", MenuOrder: 0},
	})

	if r.Get(1).FieldKey != "a" {
		t.Fatal("expected lookup by id")
	}
	if r.GetByKey("b").ID != 2 {
		t.Fatal("expected lookup by key")
	}
	all := r.All()
	if all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("expected menu order, got %d, %d", all[0].ID, all[1].ID)
	}

	// Load replaces wholesale.
	r.Load([]*Fieldset{{ID: 3, FieldKey: "c", Title: "C"}})
	if r.Get(1) != nil || r.GetByKey("a") != nil {
		t.Fatal("expected previous load to be replaced")
	}
}

func TestActiveForContext(t *testing.T) {
	rules := location.NewRegistry()
	location.RegisterBuiltins(rules, location.NewStaticSource())

	everywhere := &Fieldset{ID: 1, FieldKey: "everywhere", Active: true, MenuOrder: 2}
	pagesOnly := &Fieldset{ID: 2, FieldKey: "pages", Active: true, MenuOrder: 0}
	pagesOnly.SetLocationGroups([]location.Group{
		{Rules: []location.Rule{{Type: "post_type", Operator: "==", Value: "page"}}},
	})
	inactive := &Fieldset{ID: 3, FieldKey: "off", Active: false, MenuOrder: 1}

	r := NewRegistry()
	r.Load([]*Fieldset{everywhere, pagesOnly, inactive})

	matched := r.ActiveForContext(rules, location.Context{"post_type": "page"})
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	// Menu order is preserved: pagesOnly (0) before everywhere (2).
	if matched[0].ID != 2 || matched[1].ID != 1 {
		t.Fatalf("expected order 2,1 got %d,%d", matched[0].ID, matched[1].ID)
	}

	matched = r.ActiveForContext(rules, location.Context{"post_type": "post"})
	if len(matched) != 1 || matched[0].ID != 1 {
		t.Fatalf("expected only the unrestricted fieldset, got %d", len(matched))
	}
}
