package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/schema"
	"fieldforge-backend/internal/staging"
	"fieldforge-backend/internal/store"
)

// ListFields handles GET /api/fieldsets/:id/fields. Pass ?tree=true for the
// nested form; the default is the flat list the editor works against.
func (h *Handler) ListFields(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}
	fields, err := h.loadFields(c, fs.ID)
	if err != nil {
		return err
	}

	if c.Query("tree") == "true" {
		return c.JSON(fiber.Map{"data": metadata.BuildTree(fields)})
	}
	return c.JSON(fiber.Map{"data": fields})
}

// CreateField handles POST /api/fieldsets/:id/fields
func (h *Handler) CreateField(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	var record map[string]any
	if err := json.Unmarshal(c.Body(), &record); err != nil {
		return InvalidPayloadError()
	}
	field := metadata.FromWire(record)
	field.FieldsetID = strconv.FormatInt(fs.ID, 10)
	field.ID = ""

	if details := h.validateField(c, fs.ID, &field, ""); len(details) > 0 {
		return ValidationError(details)
	}
	sanitizeSettings(h.types, &field)

	client := &storeFieldClient{q: h.store.DB, d: h.store.Dialect}
	created, err := client.CreateField(c.Context(), field)
	if err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}
	return c.Status(201).JSON(fiber.Map{"data": created})
}

// UpdateField handles PUT /api/fields/:fieldId
func (h *Handler) UpdateField(c *fiber.Ctx) error {
	fieldID := c.Params("fieldId")
	client := &storeFieldClient{q: h.store.DB, d: h.store.Dialect}

	existing, err := client.fetch(c.Context(), fieldID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("field", fieldID)
		}
		return fmt.Errorf("get field %s: %w", fieldID, err)
	}

	var record map[string]any
	if err := json.Unmarshal(c.Body(), &record); err != nil {
		return InvalidPayloadError()
	}
	patch := patchFromWire(record)

	fieldsetID, _ := strconv.ParseInt(existing.FieldsetID, 10, 64)
	merged := existing
	patch.ApplyTo(&merged)
	if details := h.validateField(c, fieldsetID, &merged, fieldID); len(details) > 0 {
		return ValidationError(details)
	}
	sanitizeSettings(h.types, &merged)
	patch.Settings = merged.Settings

	updated, err := client.UpdateField(c.Context(), fieldID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("field", fieldID)
		}
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}
	return c.JSON(fiber.Map{"data": updated})
}

// DeleteField handles DELETE /api/fields/:fieldId. Descendant fields go with
// their parent so a repeater never leaves orphaned sub-fields behind.
func (h *Handler) DeleteField(c *fiber.Ctx) error {
	fieldID := c.Params("fieldId")
	client := &storeFieldClient{q: h.store.DB, d: h.store.Dialect}

	existing, err := client.fetch(c.Context(), fieldID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("field", fieldID)
		}
		return fmt.Errorf("get field %s: %w", fieldID, err)
	}

	fieldsetID, _ := strconv.ParseInt(existing.FieldsetID, 10, 64)
	fields, err := h.loadFields(c, fieldsetID)
	if err != nil {
		return err
	}

	doomed := collectSubtreeIDs(fields, fieldID)
	params := make([]any, 0, len(doomed))
	for _, id := range doomed {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			params = append(params, n)
		}
	}

	pb := h.store.Dialect.NewParamBuilder()
	inExpr := h.store.Dialect.InExpr("id", pb, params)
	if _, err := store.Exec(c.Context(), h.store.DB,
		"DELETE FROM _fields WHERE "+inExpr, pb.Params()...); err != nil {
		return fmt.Errorf("delete field %s: %w", fieldID, err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"id": fieldID, "deleted": len(doomed)}})
}

// collectSubtreeIDs returns rootID plus every descendant field id. A visited
// set bounds the walk: a parent chain that loops in stored data must not
// recurse past the first repeat.
func collectSubtreeIDs(fields []metadata.Field, rootID string) []string {
	return appendSubtreeIDs(nil, fields, rootID, map[string]bool{rootID: true})
}

func appendSubtreeIDs(ids []string, fields []metadata.Field, rootID string, seen map[string]bool) []string {
	ids = append(ids, rootID)
	for _, child := range metadata.ChildFields(fields, rootID) {
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		ids = appendSubtreeIDs(ids, fields, child.ID, seen)
	}
	return ids
}

// ReorderFields handles PUT /api/fieldsets/:id/fields/reorder with a body of
// [{"id": ..., "menu_order": ...}, ...], applied in one transaction.
func (h *Handler) ReorderFields(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	var items []struct {
		ID        string `json:"id"`
		MenuOrder int    `json:"menu_order"`
	}
	if err := json.Unmarshal(c.Body(), &items); err != nil {
		return InvalidPayloadError()
	}

	tx, err := h.store.BeginTx(c.Context())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, item := range items {
		id, err := strconv.ParseInt(item.ID, 10, 64)
		if err != nil {
			return NotFoundError("field", item.ID)
		}
		pb := h.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf(
			"UPDATE _fields SET menu_order = %s, updated_at = %s WHERE id = %s AND fieldset_id = %s",
			pb.Add(item.MenuOrder), h.store.Dialect.NowExpr(), pb.Add(id), pb.Add(fs.ID))
		if _, err := store.Exec(c.Context(), tx, sqlStr, pb.Params()...); err != nil {
			return fmt.Errorf("reorder field %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reordered": len(items)}})
}

// BatchSave handles POST /api/fieldsets/:id/fields/batch. The editor stages
// additions, changes, deletions and an ordering client-side and sends them in
// one request; the whole batch commits or rolls back together.
func (h *Handler) BatchSave(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	var payload struct {
		Additions []map[string]any          `json:"additions"`
		Changes   map[string]map[string]any `json:"changes"`
		Deletions []string                  `json:"deletions"`
		Order     []string                  `json:"order"`
	}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return InvalidPayloadError()
	}

	base, err := h.loadFields(c, fs.ID)
	if err != nil {
		return err
	}

	tx, err := h.store.BeginTx(c.Context())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	client := &storeFieldClient{q: tx, d: h.store.Dialect}
	session := staging.NewSession(strconv.FormatInt(fs.ID, 10), client, base)

	// Temp ids assigned by the session replace the client's placeholder ids
	// so changes/order entries referring to new fields still resolve.
	tempByPlaceholder := make(map[string]string, len(payload.Additions))
	for _, record := range payload.Additions {
		placeholder, _ := record["id"].(string)
		field := metadata.FromWire(record)
		field.ID = ""
		sanitizeSettings(h.types, &field)
		added := session.AddFieldLocal(field)
		if placeholder != "" {
			tempByPlaceholder[placeholder] = added.ID
		}
	}
	resolve := func(id string) string {
		if temp, ok := tempByPlaceholder[id]; ok {
			return temp
		}
		return id
	}

	for id, record := range payload.Changes {
		session.UpdateFieldLocal(resolve(id), patchFromWire(record))
	}
	for _, id := range payload.Deletions {
		session.DeleteFieldLocal(resolve(id))
	}
	if len(payload.Order) > 0 {
		order := make([]string, len(payload.Order))
		for i, id := range payload.Order {
			order[i] = resolve(id)
		}
		session.ReorderFieldsLocal(order)
	}

	if details := validateStagedFields(h.types, session.Fields()); len(details) > 0 {
		return ValidationError(details)
	}

	if err := session.SaveAll(c.Context()); err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return c.JSON(fiber.Map{"data": session.Fields()})
}

// patchFromWire builds a partial update from a wire record; only keys present
// in the record make it into the patch.
func patchFromWire(record map[string]any) staging.FieldPatch {
	var patch staging.FieldPatch
	if v, ok := record["label"].(string); ok {
		patch.Label = &v
	}
	if v, ok := record["name"].(string); ok {
		patch.Name = &v
	}
	if v, ok := record["type"].(string); ok {
		patch.Type = &v
	}
	if raw, ok := record["parent_id"]; ok {
		v := metadata.NormalizeParentID(raw)
		patch.ParentID = &v
	}
	if raw, ok := record["menu_order"]; ok {
		switch n := raw.(type) {
		case float64:
			v := int(n)
			patch.MenuOrder = &v
		case int:
			patch.MenuOrder = &n
		case int64:
			v := int(n)
			patch.MenuOrder = &v
		}
	}

	field := metadata.FromWire(record)
	if len(field.Settings) > 0 {
		patch.Settings = field.Settings
	}
	return patch
}

func (h *Handler) validateField(c *fiber.Ctx, fieldsetID int64, f *metadata.Field, excludeID string) []ErrorDetail {
	var details []ErrorDetail
	if f.Label == "" {
		details = append(details, ErrorDetail{Field: "label", Rule: "required", Message: "Label is required"})
	}
	if f.Name == "" {
		details = append(details, ErrorDetail{Field: "name", Rule: "required", Message: "Name is required"})
	}
	if f.Type == "" {
		details = append(details, ErrorDetail{Field: "type", Rule: "required", Message: "Type is required"})
	}
	if f.Name != "" {
		if detail := validateFieldName(c.Context(), h.store.DB, h.store.Dialect, fieldsetID, f.ParentID, f.Name, excludeID); detail != nil {
			details = append(details, *detail)
		}
	}
	if f.ParentID != "" {
		if detail := validateParent(c.Context(), h.store.DB, h.store.Dialect, h.types, fieldsetID, f.ParentID, excludeID); detail != nil {
			details = append(details, *detail)
		}
	}
	return details
}

// validateStagedFields checks the full staged field list of a batch in
// memory: required attributes, name uniqueness per parent scope, parents
// that exist and are containers, and parent chains that loop. The list is
// the whole fieldset (base plus staged edits), so no store round trip is
// needed.
func validateStagedFields(types *schema.Registry, fields []metadata.Field) []ErrorDetail {
	byID := make(map[string]metadata.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	var details []ErrorDetail
	taken := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Label == "" {
			details = append(details, ErrorDetail{Field: "label", Rule: "required", Message: fmt.Sprintf("Field %q: label is required", f.Name)})
		}
		if f.Type == "" {
			details = append(details, ErrorDetail{Field: "type", Rule: "required", Message: fmt.Sprintf("Field %q: type is required", f.Name)})
		}
		switch {
		case f.Name == "":
			details = append(details, ErrorDetail{Field: "name", Rule: "required", Message: "Field name is required"})
		case !metadata.FieldKeyPattern.MatchString(f.Name):
			details = append(details, ErrorDetail{Field: "name", Rule: "pattern", Message: "Field name may only contain lowercase letters, digits and underscores"})
		default:
			scope := f.ParentID + "\x00" + f.Name
			if taken[scope] {
				details = append(details, ErrorDetail{Field: "name", Rule: "unique", Message: fmt.Sprintf("Field name %q is already in use in this scope", f.Name)})
			}
			taken[scope] = true
		}
		if f.ParentID != "" {
			parent, ok := byID[f.ParentID]
			switch {
			case !ok:
				details = append(details, ErrorDetail{Field: "parent_id", Rule: "exists", Message: fmt.Sprintf("Parent field %s not found in this fieldset", f.ParentID)})
			case !types.HasSubFields(parent.Type):
				details = append(details, ErrorDetail{Field: "parent_id", Rule: "container", Message: fmt.Sprintf("Field type %q cannot have sub fields", parent.Type)})
			}
		}
	}

	for _, f := range fields {
		cur := f.ParentID
		for hops := 0; cur != "" && hops <= len(fields); hops++ {
			if cur == f.ID {
				details = append(details, ErrorDetail{Field: "parent_id", Rule: "cycle", Message: fmt.Sprintf("Field %q cannot be nested under itself or one of its sub fields", f.Name)})
				break
			}
			cur = byID[cur].ParentID
		}
	}
	return details
}
