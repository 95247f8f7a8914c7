package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
)

// WorkspaceHandler handles workspace and tree requests
type WorkspaceHandler struct {
	components *bootstrap.Components
	workspaces *service.WorkspaceService
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(components *bootstrap.Components, workspaces *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		components: components,
		workspaces: workspaces,
	}
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

// CreateWorkspace creates a new workspace
// POST /api/v1/workspaces
func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	var req createWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ws, err := h.workspaces.CreateWorkspace(c.Request().Context(), req.Name, username)
	if err != nil {
		h.components.Logger.Error("failed to create workspace", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, ws)
}

// GetWorkspace retrieves a workspace by ID
// GET /api/v1/workspaces/:id
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	ws, err := h.workspaces.GetWorkspace(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ws)
}

// ListWorkspaces lists all workspaces
// GET /api/v1/workspaces
func (h *WorkspaceHandler) ListWorkspaces(c echo.Context) error {
	workspaces, err := h.workspaces.ListWorkspaces(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"workspaces": workspaces,
	})
}

type createTreeRequest struct {
	Name string `json:"name"`
}

// CreateTree creates a requirement tree in a workspace
// POST /api/v1/workspaces/:id/trees
func (h *WorkspaceHandler) CreateTree(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var req createTreeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	tree, err := h.workspaces.CreateTree(c.Request().Context(), workspaceID, req.Name, username)
	if err != nil {
		h.components.Logger.Error("failed to create tree", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tree)
}

// GetTree retrieves a requirement tree with its current heads and
// abstractness
// GET /api/v1/trees/:id
func (h *WorkspaceHandler) GetTree(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tree id")
	}

	detail, err := h.workspaces.GetTreeDetail(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ListTrees lists trees in a workspace
// GET /api/v1/workspaces/:id/trees
func (h *WorkspaceHandler) ListTrees(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	trees, err := h.workspaces.ListTrees(c.Request().Context(), workspaceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"trees": trees,
	})
}
