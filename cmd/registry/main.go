package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/specworks/reqregistry/cmd/registry/container"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/routes"
	"github.com/specworks/reqregistry/common/bootstrap"
	"github.com/specworks/reqregistry/common/db"
	"github.com/specworks/reqregistry/common/server"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "registry",
		bootstrap.WithDBInitHook(applySchema),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap registry: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	if err := serviceContainer.Redis.Ping(ctx); err != nil {
		components.Logger.Warn("redis unreachable at startup, ID allocation will fail until it returns", "error", err)
	}

	// Audit log consumes the domain event topic for the process lifetime.
	if err := serviceContainer.AuditSubscriber.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start audit subscriber: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// applySchema creates the registry tables if they do not exist yet.
func applySchema(database *db.DB) error {
	_, err := database.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
	e.Use(middleware.ExtractUsername())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "registry",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, c *container.Container) {
	api := e.Group("/api/v1")

	routes.RegisterWorkspaceRoutes(api, handlers.NewWorkspaceHandler(c.Components, c.WorkspaceService))
	routes.RegisterRequirementRoutes(api, handlers.NewRequirementHandler(c.Components, c.RequirementService))
	routes.RegisterParameterRoutes(api, handlers.NewParameterHandler(c.Components, c.ParameterService))
	routes.RegisterViewRoutes(api, handlers.NewViewHandler(c.Components, c.ViewService, c.AbstractnessService))
	routes.RegisterReleaseRoutes(api, handlers.NewReleaseHandler(c.Components, c.ReleaseService))
	routes.RegisterTestCaseRoutes(api, handlers.NewTestCaseHandler(c.Components, c.TestCaseService))
	routes.RegisterCollectionRoutes(api, handlers.NewCollectionHandler(c.Components, c.CollectionService))
}

// startServer starts the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("registry", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
