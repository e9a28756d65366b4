package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"fieldforge-backend/internal/store"
)

// LoadAll reads all fieldsets from the database and populates the registry.
func LoadAll(ctx context.Context, s *store.Store, reg *Registry) error {
	rows, err := store.QueryRows(ctx, s.DB,
		"SELECT id, title, field_key, description, active, settings, menu_order FROM _fieldsets ORDER BY menu_order, id")
	if err != nil {
		return fmt.Errorf("load fieldsets: %w", err)
	}
	if s.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, []string{"active"})
	}

	fieldsets := make([]*Fieldset, 0, len(rows))
	for _, row := range rows {
		fs, err := FieldsetFromRow(row)
		if err != nil {
			log.Printf("WARN: skipping fieldset %v: %v", row["id"], err)
			continue
		}
		fieldsets = append(fieldsets, fs)
	}

	reg.Load(fieldsets)
	log.Printf("Loaded %d fieldsets into registry", len(fieldsets))
	return nil
}

// Reload is an alias for LoadAll, called after admin mutations.
func Reload(ctx context.Context, s *store.Store, reg *Registry) error {
	return LoadAll(ctx, s, reg)
}

// FieldsetFromRow builds a Fieldset from a _fieldsets row.
func FieldsetFromRow(row map[string]any) (*Fieldset, error) {
	fs := &Fieldset{
		Title:       str(row["title"]),
		FieldKey:    str(row["field_key"]),
		Description: str(row["description"]),
		Active:      boolVal(row["active"]),
		MenuOrder:   intVal(row["menu_order"]),
		Settings:    map[string]any{},
	}

	switch id := row["id"].(type) {
	case int64:
		fs.ID = id
	case int:
		fs.ID = int64(id)
	case float64:
		fs.ID = int64(id)
	default:
		return nil, fmt.Errorf("invalid fieldset id %v", row["id"])
	}

	if raw := row["settings"]; raw != nil {
		var data []byte
		switch v := raw.(type) {
		case []byte:
			data = v
		case string:
			data = []byte(v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("settings: %w", err)
			}
			data = b
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &fs.Settings); err != nil {
				return nil, fmt.Errorf("settings: %w", err)
			}
		}
	}

	return fs, nil
}
