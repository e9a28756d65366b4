package engine

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts every API route on the app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	api.Get("/field-types", h.FieldTypes)
	api.Get("/location-types", h.LocationTypes)

	api.Get("/fieldsets", h.ListFieldsets)
	api.Post("/fieldsets", h.CreateFieldset)
	api.Post("/fieldsets/import", h.ImportFieldset)
	api.Get("/fieldsets/:id", h.GetFieldset)
	api.Put("/fieldsets/:id", h.UpdateFieldset)
	api.Delete("/fieldsets/:id", h.DeleteFieldset)
	api.Post("/fieldsets/:id/duplicate", h.DuplicateFieldset)
	api.Get("/fieldsets/:id/export", h.ExportFieldset)

	api.Get("/fieldsets/:id/fields", h.ListFields)
	api.Post("/fieldsets/:id/fields", h.CreateField)
	api.Put("/fieldsets/:id/fields/reorder", h.ReorderFields)
	api.Post("/fieldsets/:id/fields/batch", h.BatchSave)
	api.Put("/fields/:fieldId", h.UpdateField)
	api.Delete("/fields/:fieldId", h.DeleteField)

	api.Get("/fieldsets/:id/location", h.GetLocation)
	api.Put("/fieldsets/:id/location", h.SetLocation)
	api.Post("/screen", h.Screen)

	api.Get("/values/:objectType/:objectId/:fieldName", h.GetValue)
	api.Get("/values/:objectType/:objectId", h.ListValues)
	api.Put("/values/:objectType/:objectId/:fieldName", h.SetValue)
	api.Delete("/values/:objectType/:objectId/:fieldName", h.DeleteValue)
}
