package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterCollectionRoutes registers requirement collection routes
func RegisterCollectionRoutes(g *echo.Group, handler *handlers.CollectionHandler) {
	g.POST("/workspaces/:id/collections", handler.CreateCollection)
	g.GET("/workspaces/:id/collections", handler.ListCollections)

	g.GET("/collections/:id", handler.GetCollection)
	g.PUT("/collections/:id", handler.UpdateCollection)
	g.DELETE("/collections/:id", handler.DeleteCollection)
}
