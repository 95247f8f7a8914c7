package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
)

// ParameterHandler handles parameter chain requests
type ParameterHandler struct {
	components *bootstrap.Components
	parameters *service.ParameterService
}

// NewParameterHandler creates a new parameter handler
func NewParameterHandler(components *bootstrap.Components, parameters *service.ParameterService) *ParameterHandler {
	return &ParameterHandler{
		components: components,
		parameters: parameters,
	}
}

// CreateParameter starts a new parameter chain
// POST /api/v1/workspaces/:id/parameters
func (h *ParameterHandler) CreateParameter(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var fields service.ParameterFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if fields.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	version, err := h.parameters.Create(c.Request().Context(), workspaceID, fields, username)
	if err != nil {
		h.components.Logger.Error("failed to create parameter", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, version)
}

type appendParameterRequest struct {
	PrevVersionID uuid.UUID               `json:"prev_version_id"`
	Fields        service.ParameterFields `json:"fields"`
}

// AppendVersion appends a new version to a parameter chain
// PUT /api/v1/parameters/:base_id
func (h *ParameterHandler) AppendVersion(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	var req appendParameterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PrevVersionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prev_version_id is required")
	}

	version, err := h.parameters.Append(c.Request().Context(), baseID, req.PrevVersionID, req.Fields, username)
	if err != nil {
		h.components.Logger.Error("failed to append parameter version", "base_id", baseID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, version)
}

// GetHead retrieves the current head version of a parameter chain
// GET /api/v1/parameters/:base_id
func (h *ParameterHandler) GetHead(c echo.Context) error {
	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	version, err := h.parameters.GetHeadVersion(c.Request().Context(), baseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, version)
}

// GetChain retrieves the full version history of a parameter chain
// GET /api/v1/parameters/:base_id/versions
func (h *ParameterHandler) GetChain(c echo.Context) error {
	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	versions, err := h.parameters.GetChain(c.Request().Context(), baseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"base_id":  baseID,
		"versions": versions,
	})
}

// ListParameters lists parameter heads in a workspace, optionally filtered
// by alternative group
// GET /api/v1/workspaces/:id/parameters?group=G
func (h *ParameterHandler) ListParameters(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	parameters, err := h.parameters.List(c.Request().Context(), workspaceID, c.QueryParam("group"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"parameters": parameters,
	})
}

// DeleteParameter soft-deletes a parameter chain
// DELETE /api/v1/parameters/:base_id
func (h *ParameterHandler) DeleteParameter(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	if err := h.parameters.Delete(c.Request().Context(), baseID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
