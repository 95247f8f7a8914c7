package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterViewRoutes registers view and abstractness routes
func RegisterViewRoutes(g *echo.Group, handler *handlers.ViewHandler) {
	g.POST("/trees/:id/views", handler.CreateView)
	g.GET("/trees/:id/views", handler.ListViews)
	g.GET("/trees/:id/abstractness", handler.GetAbstractness)
	g.GET("/views/:id", handler.GetView)
}
