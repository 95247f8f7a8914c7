package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
)

// RequirementHandler handles requirement chain requests
type RequirementHandler struct {
	components   *bootstrap.Components
	requirements *service.RequirementService
}

// NewRequirementHandler creates a new requirement handler
func NewRequirementHandler(components *bootstrap.Components, requirements *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{
		components:   components,
		requirements: requirements,
	}
}

// CreateRequirement starts a new requirement chain
// POST /api/v1/workspaces/:id/requirements
func (h *RequirementHandler) CreateRequirement(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var fields service.RequirementFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if fields.TreeID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tree_id is required")
	}
	if fields.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	version, err := h.requirements.Create(c.Request().Context(), workspaceID, fields, username)
	if err != nil {
		h.components.Logger.Error("failed to create requirement", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, version)
}

type appendVersionRequest struct {
	PrevVersionID uuid.UUID                 `json:"prev_version_id"`
	Fields        service.RequirementFields `json:"fields"`
}

// AppendVersion appends a full replacement version to a chain. The caller
// names the version it based its edit on; a mismatch with the current head
// is a conflict.
// PUT /api/v1/requirements/:base_id
func (h *RequirementHandler) AppendVersion(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	var req appendVersionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PrevVersionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prev_version_id is required")
	}

	version, err := h.requirements.Append(c.Request().Context(), baseID, req.PrevVersionID, req.Fields, username)
	if err != nil {
		h.components.Logger.Error("failed to append version", "base_id", baseID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, version)
}

type patchVersionRequest struct {
	PrevVersionID uuid.UUID       `json:"prev_version_id"`
	Patch         json.RawMessage `json:"patch"`
}

// PatchVersion appends a version produced by applying an RFC 6902 patch to
// the named previous version.
// PATCH /api/v1/requirements/:base_id
func (h *RequirementHandler) PatchVersion(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	var req patchVersionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PrevVersionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prev_version_id is required")
	}
	if len(req.Patch) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patch is required")
	}

	version, err := h.requirements.ApplyPatch(c.Request().Context(), baseID, req.PrevVersionID, req.Patch, username)
	if err != nil {
		h.components.Logger.Error("failed to patch requirement", "base_id", baseID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, version)
}

// GetHead retrieves the current head version of a chain
// GET /api/v1/requirements/:base_id
func (h *RequirementHandler) GetHead(c echo.Context) error {
	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	version, err := h.requirements.GetHeadVersion(c.Request().Context(), baseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, version)
}

// GetChain retrieves the full version history of a chain, oldest first
// GET /api/v1/requirements/:base_id/versions
func (h *RequirementHandler) GetChain(c echo.Context) error {
	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	versions, err := h.requirements.GetChain(c.Request().Context(), baseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"base_id":  baseID,
		"versions": versions,
	})
}

// Search searches requirement heads by public ID, name or definition
// GET /api/v1/workspaces/:id/requirements/search?q=term&limit=50
func (h *RequirementHandler) Search(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	term := c.QueryParam("q")
	if term == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	results, err := h.requirements.Search(c.Request().Context(), workspaceID, term, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// ListByTree lists the head versions of all chains in a tree
// GET /api/v1/trees/:id/requirements
func (h *RequirementHandler) ListByTree(c echo.Context) error {
	treeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tree id")
	}

	heads, err := h.requirements.ListByTree(c.Request().Context(), treeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requirements": heads,
	})
}

// DeleteRequirement soft-deletes a requirement chain. History stays
// readable; the REQ-n number is never reissued.
// DELETE /api/v1/requirements/:base_id
func (h *RequirementHandler) DeleteRequirement(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	baseID, err := uuid.Parse(c.Param("base_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base id")
	}

	if err := h.requirements.Delete(c.Request().Context(), baseID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LinkParameter links a parameter version to a requirement version
// POST /api/v1/requirements/versions/:version_id/parameters/:param_version_id
func (h *RequirementHandler) LinkParameter(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	versionID, err := uuid.Parse(c.Param("version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version id")
	}
	paramVersionID, err := uuid.Parse(c.Param("param_version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid parameter version id")
	}

	if err := h.requirements.LinkParameter(c.Request().Context(), versionID, paramVersionID, username); err != nil {
		h.components.Logger.Error("failed to link parameter",
			"requirement_version_id", versionID,
			"parameter_version_id", paramVersionID,
			"error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnlinkParameter removes a requirement-parameter link
// DELETE /api/v1/requirements/versions/:version_id/parameters/:param_version_id
func (h *RequirementHandler) UnlinkParameter(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	versionID, err := uuid.Parse(c.Param("version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version id")
	}
	paramVersionID, err := uuid.Parse(c.Param("param_version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid parameter version id")
	}

	if err := h.requirements.UnlinkParameter(c.Request().Context(), versionID, paramVersionID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
