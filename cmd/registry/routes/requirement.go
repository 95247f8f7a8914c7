package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterRequirementRoutes registers requirement chain routes
func RegisterRequirementRoutes(g *echo.Group, handler *handlers.RequirementHandler) {
	g.POST("/workspaces/:id/requirements", handler.CreateRequirement)
	g.GET("/workspaces/:id/requirements/search", handler.Search)
	g.GET("/trees/:id/requirements", handler.ListByTree)

	g.GET("/requirements/:base_id", handler.GetHead)
	g.PUT("/requirements/:base_id", handler.AppendVersion)
	g.PATCH("/requirements/:base_id", handler.PatchVersion)
	g.DELETE("/requirements/:base_id", handler.DeleteRequirement)
	g.GET("/requirements/:base_id/versions", handler.GetChain)

	g.POST("/requirements/versions/:version_id/parameters/:param_version_id", handler.LinkParameter)
	g.DELETE("/requirements/versions/:version_id/parameters/:param_version_id", handler.UnlinkParameter)
}
