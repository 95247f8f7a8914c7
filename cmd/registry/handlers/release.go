package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
	"github.com/specworks/reqregistry/common/models"
)

// ReleaseHandler handles release lifecycle requests
type ReleaseHandler struct {
	components *bootstrap.Components
	releases   *service.ReleaseService
}

// NewReleaseHandler creates a new release handler
func NewReleaseHandler(components *bootstrap.Components, releases *service.ReleaseService) *ReleaseHandler {
	return &ReleaseHandler{
		components: components,
		releases:   releases,
	}
}

type createReleaseRequest struct {
	Description   string     `json:"description"`
	PrevReleaseID *uuid.UUID `json:"prev_release_id,omitempty"`
}

// CreateRelease opens a new draft release
// POST /api/v1/workspaces/:id/releases
func (h *ReleaseHandler) CreateRelease(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var req createReleaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	release, err := h.releases.Create(c.Request().Context(), workspaceID, req.Description, req.PrevReleaseID, username)
	if err != nil {
		h.components.Logger.Error("failed to create release", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, release)
}

// GetRelease retrieves a release
// GET /api/v1/releases/:id
func (h *ReleaseHandler) GetRelease(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}

	release, err := h.releases.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, release)
}

// ListReleases lists releases in a workspace
// GET /api/v1/workspaces/:id/releases
func (h *ReleaseHandler) ListReleases(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	releases, err := h.releases.ListByWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"releases": releases,
	})
}

type setPrevReleaseRequest struct {
	PrevReleaseID *uuid.UUID `json:"prev_release_id"`
}

// SetPrevRelease repoints the predecessor of a draft release
// PUT /api/v1/releases/:id/prev
func (h *ReleaseHandler) SetPrevRelease(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}

	var req setPrevReleaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.releases.SetPrevRelease(c.Request().Context(), id, req.PrevReleaseID); err != nil {
		h.components.Logger.Error("failed to set prev release", "release_id", id, "error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addMemberRequest struct {
	Kind      models.MemberKind `json:"kind"`
	VersionID uuid.UUID         `json:"version_id"`
}

// AddMember pins a version into a draft release
// POST /api/v1/releases/:id/members
func (h *ReleaseHandler) AddMember(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	releaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.VersionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "version_id is required")
	}

	if err := h.releases.AddMember(c.Request().Context(), releaseID, req.Kind, req.VersionID, username); err != nil {
		h.components.Logger.Error("failed to add release member", "release_id", releaseID, "error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember unpins a version from a draft release
// DELETE /api/v1/releases/:id/members/:version_id
func (h *ReleaseHandler) RemoveMember(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	releaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}
	versionID, err := uuid.Parse(c.Param("version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version id")
	}

	if err := h.releases.RemoveMember(c.Request().Context(), releaseID, versionID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMembers lists the members of a release
// GET /api/v1/releases/:id/members
func (h *ReleaseHandler) ListMembers(c echo.Context) error {
	releaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}

	members, err := h.releases.ListMembers(c.Request().Context(), releaseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
	})
}

// FinalizeRelease flips a draft release to final
// POST /api/v1/releases/:id/finalize
func (h *ReleaseHandler) FinalizeRelease(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	releaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid release id")
	}

	release, err := h.releases.Finalize(c.Request().Context(), releaseID)
	if err != nil {
		h.components.Logger.Error("failed to finalize release", "release_id", releaseID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, release)
}
