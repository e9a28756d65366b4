package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/staging"
	"fieldforge-backend/internal/store"
)

// storeFieldClient implements staging.FieldClient directly against the
// database, so a staged batch can be applied inside a single transaction.
type storeFieldClient struct {
	q store.Querier
	d store.Dialect
}

var _ staging.FieldClient = (*storeFieldClient)(nil)

func (c *storeFieldClient) CreateField(ctx context.Context, f metadata.Field) (metadata.Field, error) {
	wire := metadata.ToWire(f)

	cols := []string{"fieldset_id", "parent_id", "label", "name", "type", "menu_order"}
	pb := c.d.NewParamBuilder()
	phs := []string{
		pb.Add(idParam(f.FieldsetID)),
		pb.Add(wireParentParam(wire["parent_id"])),
		pb.Add(wire["label"]),
		pb.Add(wire["name"]),
		pb.Add(wire["type"]),
		pb.Add(wire["menu_order"]),
	}
	for _, col := range []string{"placeholder", "default_value", "instructions", "required"} {
		if v, ok := wire[col]; ok {
			cols = append(cols, col)
			phs = append(phs, pb.Add(v))
		}
	}
	for _, col := range []string{"conditional_logic", "wrapper_config", "field_config"} {
		if v, ok := wire[col]; ok {
			cols = append(cols, col)
			phs = append(phs, pb.Add(mustJSON(v)))
		}
	}

	sqlStr := fmt.Sprintf("INSERT INTO _fields (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(phs, ", "))

	id, err := store.InsertReturningID(ctx, c.q, c.d, sqlStr, pb.Params()...)
	if err != nil {
		return metadata.Field{}, store.MapError(c.d, err)
	}

	f.ID = strconv.FormatInt(id, 10)
	return f, nil
}

func (c *storeFieldClient) UpdateField(ctx context.Context, id string, patch staging.FieldPatch) (metadata.Field, error) {
	pb := c.d.NewParamBuilder()
	var sets []string

	if patch.Label != nil {
		sets = append(sets, "label = "+pb.Add(*patch.Label))
	}
	if patch.Name != nil {
		sets = append(sets, "name = "+pb.Add(*patch.Name))
	}
	if patch.Type != nil {
		sets = append(sets, "type = "+pb.Add(*patch.Type))
	}
	if patch.ParentID != nil {
		sets = append(sets, "parent_id = "+pb.Add(wireParentParam(metadata.NormalizeParentID(*patch.ParentID))))
	}
	if patch.MenuOrder != nil {
		sets = append(sets, "menu_order = "+pb.Add(*patch.MenuOrder))
	}
	if patch.Settings != nil {
		wire := metadata.SettingsToWire(patch.Settings)
		for _, col := range []string{"placeholder", "default_value", "instructions", "required"} {
			if v, ok := wire[col]; ok {
				sets = append(sets, col+" = "+pb.Add(v))
			}
		}
		for _, col := range []string{"conditional_logic", "wrapper_config", "field_config"} {
			if v, ok := wire[col]; ok {
				sets = append(sets, col+" = "+pb.Add(mustJSON(v)))
			}
		}
	}

	if len(sets) == 0 {
		return c.fetch(ctx, id)
	}
	sets = append(sets, "updated_at = "+c.d.NowExpr())

	sqlStr := fmt.Sprintf("UPDATE _fields SET %s WHERE id = %s",
		strings.Join(sets, ", "), pb.Add(idParam(id)))
	affected, err := store.Exec(ctx, c.q, sqlStr, pb.Params()...)
	if err != nil {
		return metadata.Field{}, store.MapError(c.d, err)
	}
	if affected == 0 {
		return metadata.Field{}, store.ErrNotFound
	}
	return c.fetch(ctx, id)
}

func (c *storeFieldClient) DeleteField(ctx context.Context, id string) error {
	pb := c.d.NewParamBuilder()
	affected, err := store.Exec(ctx, c.q,
		fmt.Sprintf("DELETE FROM _fields WHERE id = %s", pb.Add(idParam(id))), pb.Params()...)
	if err != nil {
		return store.MapError(c.d, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *storeFieldClient) fetch(ctx context.Context, id string) (metadata.Field, error) {
	pb := c.d.NewParamBuilder()
	row, err := store.QueryRow(ctx, c.q,
		fmt.Sprintf("SELECT * FROM _fields WHERE id = %s", pb.Add(idParam(id))), pb.Params()...)
	if err != nil {
		return metadata.Field{}, err
	}
	if c.d.NeedsBoolFix() {
		store.NormalizeBooleans([]map[string]any{row}, []string{"required"})
	}
	return metadata.FromWire(row), nil
}

// wireParentParam converts the normalized parent id into a database
// parameter: NULL at root, numeric otherwise.
func wireParentParam(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return idParam(s)
}

// idParam binds a string id as its numeric form so the typed columns
// match cleanly on both backends.
func idParam(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
