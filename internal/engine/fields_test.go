package engine

import (
	"testing"

	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/schema"
)

func TestPatchFromWire_PresenceDriven(t *testing.T) {
	patch := patchFromWire(map[string]any{
		"label":       "New Label",
		"menu_order":  float64(3),
		"placeholder": "hint",
	})

	if patch.Label == nil || *patch.Label != "New Label" {
		t.Fatalf("expected label patched, got %v", patch.Label)
	}
	if patch.MenuOrder == nil || *patch.MenuOrder != 3 {
		t.Fatalf("expected menu order patched, got %v", patch.MenuOrder)
	}
	if patch.Name != nil || patch.Type != nil || patch.ParentID != nil {
		t.Fatal("absent keys must stay nil")
	}
	if patch.Settings["placeholder"] != "hint" {
		t.Fatalf("expected placeholder in settings patch, got %v", patch.Settings)
	}
}

func TestPatchFromWire_ParentNormalization(t *testing.T) {
	patch := patchFromWire(map[string]any{"parent_id": float64(0)})
	if patch.ParentID == nil || *patch.ParentID != "" {
		t.Fatalf("expected explicit root parent, got %v", patch.ParentID)
	}

	patch = patchFromWire(map[string]any{"parent_id": "7"})
	if patch.ParentID == nil || *patch.ParentID != "7" {
		t.Fatalf("expected parent 7, got %v", patch.ParentID)
	}

	patch = patchFromWire(map[string]any{"label": "x"})
	if patch.ParentID != nil {
		t.Fatal("parent absent from record must stay nil")
	}
}

func TestCollectSubtreeIDs(t *testing.T) {
	fields := []metadata.Field{
		{ID: "1", Name: "root"},
		{ID: "2", Name: "child", ParentID: "1"},
		{ID: "3", Name: "grandchild", ParentID: "2"},
		{ID: "4", Name: "other"},
	}

	ids := collectSubtreeIDs(fields, "1")
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %v", ids)
	}
	want := map[string]bool{"1": true, "2": true, "3": true}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id %s", id)
		}
	}

	if ids := collectSubtreeIDs(fields, "4"); len(ids) != 1 || ids[0] != "4" {
		t.Fatalf("expected just the leaf, got %v", ids)
	}
}

func TestCollectSubtreeIDs_ParentLoopTerminates(t *testing.T) {
	fields := []metadata.Field{
		{ID: "1", Name: "a", ParentID: "2"},
		{ID: "2", Name: "b", ParentID: "1"},
	}

	ids := collectSubtreeIDs(fields, "1")
	if len(ids) != 2 {
		t.Fatalf("expected each field collected once, got %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("id %s collected twice", id)
		}
		seen[id] = true
	}
}

func TestValidateStagedFields(t *testing.T) {
	types := schema.NewRegistry()
	schema.RegisterBuiltins(types)

	ok := []metadata.Field{
		{ID: "1", Label: "Rows", Name: "rows", Type: "repeater"},
		{ID: "2", Label: "Title", Name: "title", Type: "text", ParentID: "1"},
		{ID: "3", Label: "Title", Name: "title", Type: "text"}, // same name, other scope
	}
	if details := validateStagedFields(types, ok); len(details) != 0 {
		t.Fatalf("expected valid list accepted, got %+v", details)
	}

	cases := []struct {
		name   string
		fields []metadata.Field
		rule   string
	}{
		{"duplicate name in scope", []metadata.Field{
			{ID: "1", Label: "A", Name: "dup", Type: "text"},
			{ID: "2", Label: "B", Name: "dup", Type: "text"},
		}, "unique"},
		{"missing label", []metadata.Field{
			{ID: "1", Name: "a", Type: "text"},
		}, "required"},
		{"missing name", []metadata.Field{
			{ID: "1", Label: "A", Type: "text"},
		}, "required"},
		{"bad name shape", []metadata.Field{
			{ID: "1", Label: "A", Name: "Bad Name", Type: "text"},
		}, "pattern"},
		{"absent parent", []metadata.Field{
			{ID: "1", Label: "A", Name: "a", Type: "text", ParentID: "99"},
		}, "exists"},
		{"non-container parent", []metadata.Field{
			{ID: "1", Label: "A", Name: "a", Type: "text"},
			{ID: "2", Label: "B", Name: "b", Type: "text", ParentID: "1"},
		}, "container"},
		{"parent loop", []metadata.Field{
			{ID: "1", Label: "A", Name: "a", Type: "repeater", ParentID: "2"},
			{ID: "2", Label: "B", Name: "b", Type: "repeater", ParentID: "1"},
		}, "cycle"},
	}
	for _, tc := range cases {
		details := validateStagedFields(types, tc.fields)
		found := false
		for _, d := range details {
			if d.Rule == tc.rule {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected a %q detail, got %+v", tc.name, tc.rule, details)
		}
	}
}

func TestWireParentParam(t *testing.T) {
	if wireParentParam("") != nil {
		t.Fatal("root parent binds as NULL")
	}
	if wireParentParam(nil) != nil {
		t.Fatal("nil parent binds as NULL")
	}
	if wireParentParam("15") != int64(15) {
		t.Fatal("numeric parent binds as int64")
	}
}

func TestSanitizeSettings_StripsInapplicableKeys(t *testing.T) {
	types := schema.NewRegistry()
	schema.RegisterBuiltins(types)

	f := metadata.Field{
		Type: "text",
		Settings: metadata.Settings{
			"placeholder": "hi",   // universal: kept
			"choices":     "a\nb", // select-only: stripped
			"required":    true,   // universal: kept
		},
	}
	sanitizeSettings(types, &f)

	if _, ok := f.Settings["choices"]; ok {
		t.Fatal("expected inapplicable key stripped")
	}
	if f.Settings["placeholder"] != "hi" || f.Settings["required"] != true {
		t.Fatalf("universal keys must survive, got %v", f.Settings)
	}
}

func TestSanitizeSettings_UnknownTypeLeftAlone(t *testing.T) {
	types := schema.NewRegistry()
	schema.RegisterBuiltins(types)

	f := metadata.Field{
		Type:     "custom_widget",
		Settings: metadata.Settings{"anything": "goes"},
	}
	sanitizeSettings(types, &f)

	if f.Settings["anything"] != "goes" {
		t.Fatal("unknown types keep their settings untouched")
	}
}

func TestErrorConstructors(t *testing.T) {
	nf := NotFoundError("fieldset", "9")
	if nf.Status != 404 || nf.Code != "NOT_FOUND" {
		t.Fatalf("unexpected not found error: %+v", nf)
	}

	ve := ValidationError([]ErrorDetail{{Field: "name", Rule: "required", Message: "Name is required"}})
	if ve.Status != 422 || len(ve.Details) != 1 {
		t.Fatalf("unexpected validation error: %+v", ve)
	}

	ce := ConflictError("duplicate key")
	if ce.Status != 409 {
		t.Fatalf("unexpected conflict status: %d", ce.Status)
	}
}
