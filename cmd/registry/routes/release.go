package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterReleaseRoutes registers release lifecycle routes
func RegisterReleaseRoutes(g *echo.Group, handler *handlers.ReleaseHandler) {
	g.POST("/workspaces/:id/releases", handler.CreateRelease)
	g.GET("/workspaces/:id/releases", handler.ListReleases)

	g.GET("/releases/:id", handler.GetRelease)
	g.PUT("/releases/:id/prev", handler.SetPrevRelease)
	g.POST("/releases/:id/members", handler.AddMember)
	g.GET("/releases/:id/members", handler.ListMembers)
	g.DELETE("/releases/:id/members/:version_id", handler.RemoveMember)
	g.POST("/releases/:id/finalize", handler.FinalizeRelease)
}
