package engine

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fieldforge-backend/internal/location"
	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/store"
)

// GetLocation handles GET /api/fieldsets/:id/location
func (h *Handler) GetLocation(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}
	groups := fs.LocationGroups()
	if groups == nil {
		groups = []location.Group{}
	}
	return c.JSON(fiber.Map{"data": groups})
}

// SetLocation handles PUT /api/fieldsets/:id/location. Groups arriving
// without an id get one assigned so the editor can address them later.
func (h *Handler) SetLocation(c *fiber.Ctx) error {
	fs, err := h.fetchFieldset(c)
	if err != nil {
		return err
	}

	var groups []location.Group
	if err := json.Unmarshal(c.Body(), &groups); err != nil {
		return InvalidPayloadError()
	}
	for i := range groups {
		if groups[i].ID == "" {
			groups[i].ID = uuid.NewString()
		}
	}

	fs.SetLocationGroups(groups)

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("UPDATE _fieldsets SET settings = %s, updated_at = %s WHERE id = %s",
		pb.Add(mustJSON(fs.Settings)), h.store.Dialect.NowExpr(), pb.Add(fs.ID))
	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("update location for fieldset %d: %w", fs.ID, err)
	}

	if err := metadata.Reload(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	return c.JSON(fiber.Map{"data": groups})
}

// Screen handles POST /api/screen. The body is the edit-screen context
// (post_type, page_template, taxonomies and so on); the response lists every
// active fieldset whose location rules match, fields nested.
func (h *Handler) Screen(c *fiber.Ctx) error {
	var ctx location.Context
	if err := json.Unmarshal(c.Body(), &ctx); err != nil {
		return InvalidPayloadError()
	}
	if ctx == nil {
		ctx = location.Context{}
	}

	matched := h.registry.ActiveForContext(h.locations, ctx)
	out := make([]fiber.Map, 0, len(matched))
	for _, fs := range matched {
		fields, err := h.loadFields(c, fs.ID)
		if err != nil {
			return err
		}
		out = append(out, fiber.Map{
			"fieldset": fs,
			"fields":   metadata.BuildTree(fields),
		})
	}
	return c.JSON(fiber.Map{"data": out})
}
