package engine

import (
	"github.com/gofiber/fiber/v2"
)

// FieldTypes handles GET /api/field-types, keyed by type in palette order.
func (h *Handler) FieldTypes(c *fiber.Ctx) error {
	types := h.types.All()
	out := make([]fiber.Map, 0, len(types))
	for _, t := range types {
		out = append(out, fiber.Map{
			"key":            t.Key,
			"label":          t.Label,
			"category":       t.Category,
			"has_sub_fields": t.HasSubFields,
			"settings":       h.types.ApplicableSettings(t.Key),
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// LocationTypes handles GET /api/location-types
func (h *Handler) LocationTypes(c *fiber.Ctx) error {
	ruleTypes := h.locations.All()
	out := make([]fiber.Map, 0, len(ruleTypes))
	for _, rt := range ruleTypes {
		entry := fiber.Map{"key": rt.Key, "label": rt.Label}
		if rt.Options != nil {
			entry["options"] = rt.Options()
		}
		out = append(out, entry)
	}
	return c.JSON(fiber.Map{"data": out})
}
