package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fieldforge-backend/internal/location"
	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/schema"
	"fieldforge-backend/internal/store"
)

type Handler struct {
	store     *store.Store
	registry  *metadata.Registry
	types     *schema.Registry
	locations *location.Registry
}

func NewHandler(s *store.Store, reg *metadata.Registry, types *schema.Registry, locs *location.Registry) *Handler {
	return &Handler{store: s, registry: reg, types: types, locations: locs}
}

const fieldsetColumns = "id, title, field_key, description, active, settings, menu_order, created_at, updated_at"

// ListFieldsets handles GET /api/fieldsets
func (h *Handler) ListFieldsets(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.store.DB,
		"SELECT "+fieldsetColumns+" FROM _fieldsets ORDER BY menu_order, id")
	if err != nil {
		return fmt.Errorf("list fieldsets: %w", err)
	}
	if h.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, []string{"active"})
	}

	fieldsets := make([]*metadata.Fieldset, 0, len(rows))
	for _, row := range rows {
		fs, err := metadata.FieldsetFromRow(row)
		if err != nil {
			log.Printf("WARN: skipping fieldset %v: %v", row["id"], err)
			continue
		}
		fieldsets = append(fieldsets, fs)
	}
	return c.JSON(fiber.Map{"data": fieldsets})
}

// GetFieldset handles GET /api/fieldsets/:id
func (h *Handler) GetFieldset(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fs})
}

// CreateFieldset handles POST /api/fieldsets. The editor creates fieldsets
// eagerly so an id exists before the first real edit; a blank title gets a
// placeholder and a blank key gets a generated one.
func (h *Handler) CreateFieldset(c *fiber.Ctx) error {
	var body metadata.Fieldset
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError()
	}

	if body.Title == "" {
		body.Title = "New fieldset"
	}
	if body.FieldKey == "" {
		body.FieldKey = "fieldset_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if body.Settings == nil {
		body.Settings = map[string]any{}
	}
	body.Active = true

	if detail := validateFieldsetKey(c.Context(), h.store.DB, h.store.Dialect, body.FieldKey, 0); detail != nil {
		return ValidationError([]ErrorDetail{*detail})
	}

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO _fieldsets (title, field_key, description, active, settings, menu_order) VALUES (%s, %s, %s, %s, %s, %s)",
		pb.Add(body.Title), pb.Add(body.FieldKey), pb.Add(body.Description),
		pb.Add(body.Active), pb.Add(mustJSON(body.Settings)), pb.Add(body.MenuOrder))

	id, err := store.InsertReturningID(c.Context(), h.store.DB, h.store.Dialect, sqlStr, pb.Params()...)
	if err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}
	body.ID = id

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	return c.Status(201).JSON(fiber.Map{"data": body})
}

// UpdateFieldset handles PUT /api/fieldsets/:id
func (h *Handler) UpdateFieldset(c *fiber.Ctx) error {
	existing, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	var body metadata.Fieldset
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError()
	}

	var details []ErrorDetail
	if body.Title == "" {
		details = append(details, ErrorDetail{Field: "title", Rule: "required", Message: "Title is required"})
	}
	if detail := validateFieldsetKey(c.Context(), h.store.DB, h.store.Dialect, body.FieldKey, existing.ID); detail != nil {
		details = append(details, *detail)
	}
	if len(details) > 0 {
		return ValidationError(details)
	}

	if body.Settings == nil {
		body.Settings = existing.Settings
	}
	body.ID = existing.ID

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"UPDATE _fieldsets SET title = %s, field_key = %s, description = %s, active = %s, settings = %s, menu_order = %s, updated_at = %s WHERE id = %s",
		pb.Add(body.Title), pb.Add(body.FieldKey), pb.Add(body.Description),
		pb.Add(body.Active), pb.Add(mustJSON(body.Settings)), pb.Add(body.MenuOrder),
		h.store.Dialect.NowExpr(), pb.Add(existing.ID))

	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, pb.Params()...); err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	return c.JSON(fiber.Map{"data": body})
}

// DeleteFieldset handles DELETE /api/fieldsets/:id. Fields cascade.
func (h *Handler) DeleteFieldset(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	pb := h.store.Dialect.NewParamBuilder()
	if _, err := store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf("DELETE FROM _fieldsets WHERE id = %s", pb.Add(fs.ID)), pb.Params()...); err != nil {
		return fmt.Errorf("delete fieldset %d: %w", fs.ID, err)
	}

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"id": fs.ID, "deleted": true}})
}

// DuplicateFieldset handles POST /api/fieldsets/:id/duplicate
func (h *Handler) DuplicateFieldset(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}
	fields, err := h.loadFields(c, fs.ID)
	if err != nil {
		return err
	}

	copyKey := fs.FieldKey + "_copy"
	if detail := validateFieldsetKey(c.Context(), h.store.DB, h.store.Dialect, copyKey, 0); detail != nil {
		copyKey = fmt.Sprintf("%s_copy_%d", fs.FieldKey, time.Now().Unix())
	}

	tx, err := h.store.BeginTx(c.Context())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO _fieldsets (title, field_key, description, active, settings, menu_order) VALUES (%s, %s, %s, %s, %s, %s)",
		pb.Add(fs.Title+" (copy)"), pb.Add(copyKey), pb.Add(fs.Description),
		pb.Add(false), pb.Add(mustJSON(fs.Settings)), pb.Add(fs.MenuOrder))
	newID, err := store.InsertReturningID(c.Context(), tx, h.store.Dialect, sqlStr, pb.Params()...)
	if err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}

	client := &storeFieldClient{q: tx, d: h.store.Dialect}
	if err := copyFieldTree(c.Context(), client, fields, "", "", strconv.FormatInt(newID, 10)); err != nil {
		return fmt.Errorf("duplicate fields: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	dup := *fs
	dup.ID = newID
	dup.Title = fs.Title + " (copy)"
	dup.FieldKey = copyKey
	dup.Active = false
	return c.Status(201).JSON(fiber.Map{"data": dup})
}

// copyFieldTree re-creates a field subtree under a new fieldset, walking
// parents before children so the parent id remap stays valid at any depth.
func copyFieldTree(ctx context.Context, client *storeFieldClient, fields []metadata.Field, oldParent, newParent, fieldsetID string) error {
	for _, f := range metadata.ChildFields(fields, oldParent) {
		oldID := f.ID
		f.ID = ""
		f.FieldsetID = fieldsetID
		f.ParentID = newParent
		created, err := client.CreateField(ctx, f)
		if err != nil {
			return err
		}
		if err := copyFieldTree(ctx, client, fields, oldID, created.ID, fieldsetID); err != nil {
			return err
		}
	}
	return nil
}

// ExportFieldset handles GET /api/fieldsets/:id/export
func (h *Handler) ExportFieldset(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}
	fields, err := h.loadFields(c, fs.ID)
	if err != nil {
		return err
	}

	wireFields := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		wireFields = append(wireFields, metadata.ToWire(f))
	}

	return c.JSON(fiber.Map{
		"export_id":   uuid.NewString(),
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"fieldset":    fs,
		"fields":      wireFields,
	})
}

// ImportFieldset handles POST /api/fieldsets/import
func (h *Handler) ImportFieldset(c *fiber.Ctx) error {
	var payload struct {
		Fieldset metadata.Fieldset `json:"fieldset"`
		Fields   []map[string]any  `json:"fields"`
	}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return InvalidPayloadError()
	}
	if payload.Fieldset.Title == "" || payload.Fieldset.FieldKey == "" {
		return ValidationError([]ErrorDetail{
			{Field: "fieldset", Rule: "required", Message: "Import payload must carry a fieldset with title and field_key"},
		})
	}

	key := payload.Fieldset.FieldKey
	if detail := validateFieldsetKey(c.Context(), h.store.DB, h.store.Dialect, key, 0); detail != nil {
		key = fmt.Sprintf("%s_%d", key, time.Now().Unix())
	}
	if payload.Fieldset.Settings == nil {
		payload.Fieldset.Settings = map[string]any{}
	}

	tx, err := h.store.BeginTx(c.Context())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO _fieldsets (title, field_key, description, active, settings, menu_order) VALUES (%s, %s, %s, %s, %s, %s)",
		pb.Add(payload.Fieldset.Title), pb.Add(key), pb.Add(payload.Fieldset.Description),
		pb.Add(payload.Fieldset.Active), pb.Add(mustJSON(payload.Fieldset.Settings)), pb.Add(payload.Fieldset.MenuOrder))
	newID, err := store.InsertReturningID(c.Context(), tx, h.store.Dialect, sqlStr, pb.Params()...)
	if err != nil {
		return handleWriteError(store.MapError(h.store.Dialect, err))
	}

	fields := make([]metadata.Field, 0, len(payload.Fields))
	for _, record := range payload.Fields {
		fields = append(fields, metadata.FromWire(record))
	}

	client := &storeFieldClient{q: tx, d: h.store.Dialect}
	if err := copyFieldTree(c.Context(), client, fields, "", "", strconv.FormatInt(newID, 10)); err != nil {
		return fmt.Errorf("import fields: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	payload.Fieldset.ID = newID
	payload.Fieldset.FieldKey = key
	return c.Status(201).JSON(fiber.Map{"data": payload.Fieldset})
}

// --- shared helpers ---

func (h *Handler) fetchFieldset(c *fiber.Ctx) (*metadata.Fieldset, error) {
	idStr := c.Params("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, NotFoundError("fieldset", idStr)
	}

	pb := h.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT %s FROM _fieldsets WHERE id = %s", fieldsetColumns, pb.Add(id)), pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError("fieldset", idStr)
		}
		return nil, fmt.Errorf("get fieldset %s: %w", idStr, err)
	}
	if h.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans([]map[string]any{row}, []string{"active"})
	}
	fs, err := metadata.FieldsetFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("decode fieldset %s: %w", idStr, err)
	}
	return fs, nil
}

func (h *Handler) loadFields(c *fiber.Ctx, fieldsetID int64) ([]metadata.Field, error) {
	pb := h.store.Dialect.NewParamBuilder()
	rows, err := store.QueryRows(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT * FROM _fields WHERE fieldset_id = %s ORDER BY menu_order, id", pb.Add(fieldsetID)),
		pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("load fields for fieldset %d: %w", fieldsetID, err)
	}
	if h.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, []string{"required"})
	}
	fields := make([]metadata.Field, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, metadata.FromWire(row))
	}
	return fields, nil
}

// handleWriteError upgrades store-level sentinels to the API error
// taxonomy; anything else bubbles up to the central error handler.
func handleWriteError(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, store.ErrUniqueViolation) {
		return ConflictError("A record with this value already exists")
	}
	return err
}
