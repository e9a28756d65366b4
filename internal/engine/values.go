package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"fieldforge-backend/internal/store"
)

// GetValue handles GET /api/values/:objectType/:objectId/:fieldName
func (h *Handler) GetValue(c *fiber.Ctx) error {
	objectType, objectID, fieldName := c.Params("objectType"), c.Params("objectId"), c.Params("fieldName")

	pb := h.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT value FROM _field_values WHERE object_type = %s AND object_id = %s AND field_name = %s",
			pb.Add(objectType), pb.Add(objectID), pb.Add(fieldName)), pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("value", fieldName)
		}
		return fmt.Errorf("get value %s/%s/%s: %w", objectType, objectID, fieldName, err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"field_name": fieldName, "value": decodeStoredValue(row["value"])}})
}

// ListValues handles GET /api/values/:objectType/:objectId
func (h *Handler) ListValues(c *fiber.Ctx) error {
	objectType, objectID := c.Params("objectType"), c.Params("objectId")

	pb := h.store.Dialect.NewParamBuilder()
	rows, err := store.QueryRows(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT field_name, value FROM _field_values WHERE object_type = %s AND object_id = %s ORDER BY field_name",
			pb.Add(objectType), pb.Add(objectID)), pb.Params()...)
	if err != nil {
		return fmt.Errorf("list values %s/%s: %w", objectType, objectID, err)
	}

	out := make(map[string]any, len(rows))
	for _, row := range rows {
		name, _ := row["field_name"].(string)
		out[name] = decodeStoredValue(row["value"])
	}
	return c.JSON(fiber.Map{"data": out})
}

// SetValue handles PUT /api/values/:objectType/:objectId/:fieldName with body
// {"value": ...}. Upserts on the (object_type, object_id, field_name) triple.
func (h *Handler) SetValue(c *fiber.Ctx) error {
	objectType, objectID, fieldName := c.Params("objectType"), c.Params("objectId"), c.Params("fieldName")

	var body struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return InvalidPayloadError()
	}

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO _field_values (object_type, object_id, field_name, value) VALUES (%s, %s, %s, %s) "+
			"ON CONFLICT (object_type, object_id, field_name) DO UPDATE SET value = excluded.value, updated_at = %s",
		pb.Add(objectType), pb.Add(objectID), pb.Add(fieldName), pb.Add(mustJSON(body.Value)),
		h.store.Dialect.NowExpr())
	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("set value %s/%s/%s: %w", objectType, objectID, fieldName, err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"field_name": fieldName, "value": body.Value}})
}

// DeleteValue handles DELETE /api/values/:objectType/:objectId/:fieldName
func (h *Handler) DeleteValue(c *fiber.Ctx) error {
	objectType, objectID, fieldName := c.Params("objectType"), c.Params("objectId"), c.Params("fieldName")

	pb := h.store.Dialect.NewParamBuilder()
	affected, err := store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf("DELETE FROM _field_values WHERE object_type = %s AND object_id = %s AND field_name = %s",
			pb.Add(objectType), pb.Add(objectID), pb.Add(fieldName)), pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete value %s/%s/%s: %w", objectType, objectID, fieldName, err)
	}
	if affected == 0 {
		return NotFoundError("value", fieldName)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"field_name": fieldName, "deleted": true}})
}

func decodeStoredValue(raw any) any {
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return raw
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return string(data)
	}
	return out
}
