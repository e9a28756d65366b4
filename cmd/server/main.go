package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fieldforge-backend/internal/config"
	"fieldforge-backend/internal/engine"
	"fieldforge-backend/internal/location"
	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/schema"
	"fieldforge-backend/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, driver: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap system tables and run column migrations
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	if err := store.NewMigrator(db).Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate system tables: %v", err)
	}
	log.Println("System tables ready")

	// 4. Field type and location rule registries
	types := schema.NewRegistry()
	schema.RegisterBuiltins(types)

	locations := location.NewRegistry()
	location.RegisterBuiltins(locations, location.NewStaticSource())

	// 5. Fieldset registry, primed from the database
	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, db, reg); err != nil {
		log.Printf("WARN: Failed to load fieldsets: %v", err)
	}

	// 6. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. API routes
	handler := engine.NewHandler(db, reg, types, locations)
	engine.RegisterRoutes(app, handler)

	// 9. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
