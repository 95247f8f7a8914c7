package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterParameterRoutes registers parameter chain routes
func RegisterParameterRoutes(g *echo.Group, handler *handlers.ParameterHandler) {
	g.POST("/workspaces/:id/parameters", handler.CreateParameter)
	g.GET("/workspaces/:id/parameters", handler.ListParameters)

	g.GET("/parameters/:base_id", handler.GetHead)
	g.PUT("/parameters/:base_id", handler.AppendVersion)
	g.DELETE("/parameters/:base_id", handler.DeleteParameter)
	g.GET("/parameters/:base_id/versions", handler.GetChain)
}
