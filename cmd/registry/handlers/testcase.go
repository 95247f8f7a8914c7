package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
)

// TestCaseHandler handles test case requests
type TestCaseHandler struct {
	components *bootstrap.Components
	testCases  *service.TestCaseService
}

// NewTestCaseHandler creates a new test case handler
func NewTestCaseHandler(components *bootstrap.Components, testCases *service.TestCaseService) *TestCaseHandler {
	return &TestCaseHandler{
		components: components,
		testCases:  testCases,
	}
}

// CreateTestCase creates a test case with a fresh TEST-n public ID
// POST /api/v1/workspaces/:id/testcases
func (h *TestCaseHandler) CreateTestCase(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var fields service.TestCaseFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if fields.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	tc, err := h.testCases.Create(c.Request().Context(), workspaceID, fields, username)
	if err != nil {
		h.components.Logger.Error("failed to create test case", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tc)
}

// GetTestCase retrieves a test case
// GET /api/v1/testcases/:id
func (h *TestCaseHandler) GetTestCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test case id")
	}

	tc, err := h.testCases.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tc)
}

// UpdateTestCase overwrites the editable fields of a test case
// PUT /api/v1/testcases/:id
func (h *TestCaseHandler) UpdateTestCase(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test case id")
	}

	var fields service.TestCaseFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tc, err := h.testCases.Update(c.Request().Context(), id, fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tc)
}

// DeleteTestCase soft-deletes a test case
// DELETE /api/v1/testcases/:id
func (h *TestCaseHandler) DeleteTestCase(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test case id")
	}

	if err := h.testCases.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTestCases lists test cases, optionally filtered by the requirement
// they verify
// GET /api/v1/workspaces/:id/testcases?requirement=base_id
func (h *TestCaseHandler) ListTestCases(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var requirementBaseID *uuid.UUID
	if raw := c.QueryParam("requirement"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid requirement filter")
		}
		requirementBaseID = &parsed
	}

	testCases, err := h.testCases.ListByWorkspace(c.Request().Context(), workspaceID, requirementBaseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"testcases": testCases,
	})
}
