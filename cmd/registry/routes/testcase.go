package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/handlers"
)

// RegisterTestCaseRoutes registers test case routes
func RegisterTestCaseRoutes(g *echo.Group, handler *handlers.TestCaseHandler) {
	g.POST("/workspaces/:id/testcases", handler.CreateTestCase)
	g.GET("/workspaces/:id/testcases", handler.ListTestCases)

	g.GET("/testcases/:id", handler.GetTestCase)
	g.PUT("/testcases/:id", handler.UpdateTestCase)
	g.DELETE("/testcases/:id", handler.DeleteTestCase)
}
