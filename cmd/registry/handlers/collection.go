package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/cmd/registry/middleware"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
)

// CollectionHandler handles requirement collection requests
type CollectionHandler struct {
	components  *bootstrap.Components
	collections *service.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(components *bootstrap.Components, collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		components:  components,
		collections: collections,
	}
}

type collectionRequest struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MemberBaseIDs []uuid.UUID `json:"member_base_ids"`
}

// CreateCollection creates a named set of logical requirements
// POST /api/v1/workspaces/:id/collections
func (h *CollectionHandler) CreateCollection(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	var req collectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	col, err := h.collections.Create(c.Request().Context(), workspaceID, req.Name, req.Description, req.MemberBaseIDs, username)
	if err != nil {
		h.components.Logger.Error("failed to create collection", "workspace_id", workspaceID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, col)
}

// UpdateCollection replaces the name, description and member set
// PUT /api/v1/collections/:id
func (h *CollectionHandler) UpdateCollection(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection id")
	}

	var req collectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	col, err := h.collections.Update(c.Request().Context(), id, req.Name, req.Description, req.MemberBaseIDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, col)
}

// GetCollection retrieves a collection with its members
// GET /api/v1/collections/:id
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection id")
	}

	col, err := h.collections.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, col)
}

// ListCollections lists collections in a workspace
// GET /api/v1/workspaces/:id/collections
func (h *CollectionHandler) ListCollections(c echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workspace id")
	}

	collections, err := h.collections.ListByWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"collections": collections,
	})
}

// DeleteCollection removes a collection; member requirements are untouched
// DELETE /api/v1/collections/:id
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	if _, err := middleware.RequireUsername(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection id")
	}

	if err := h.collections.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
