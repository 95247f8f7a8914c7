package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterWorkspaceRoutes registers workspace and tree routes
func RegisterWorkspaceRoutes(g *echo.Group, handler *handlers.WorkspaceHandler) {
	g.POST("/workspaces", handler.CreateWorkspace)
	g.GET("/workspaces", handler.ListWorkspaces)
	g.GET("/workspaces/:id", handler.GetWorkspace)

	g.POST("/workspaces/:id/trees", handler.CreateTree)
	g.GET("/workspaces/:id/trees", handler.ListTrees)
	g.GET("/trees/:id", handler.GetTree)
}
