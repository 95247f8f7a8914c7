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

// ViewHandler handles tree view and abstractness requests
type ViewHandler struct {
	components   *bootstrap.Components
	views        *service.ViewService
	abstractness *service.AbstractnessService
}

// NewViewHandler creates a new view handler
func NewViewHandler(components *bootstrap.Components, views *service.ViewService, abstractness *service.AbstractnessService) *ViewHandler {
	return &ViewHandler{
		components:   components,
		views:        views,
		abstractness: abstractness,
	}
}

type createViewRequest struct {
	Name       string             `json:"name"`
	Rule       string             `json:"rule"`
	Selections []models.Selection `json:"selections"`
}

// CreateView materializes a new view of a tree
// POST /api/v1/trees/:id/views
func (h *ViewHandler) CreateView(c echo.Context) error {
	username, err := middleware.RequireUsername(c)
	if err != nil {
		return err
	}

	treeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tree id")
	}

	var req createViewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	view, err := h.views.CreateView(c.Request().Context(), treeID, req.Name, req.Rule, req.Selections, username)
	if err != nil {
		h.components.Logger.Error("failed to create view", "tree_id", treeID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, view)
}

// GetView retrieves the materialized document of a view
// GET /api/v1/views/:id
func (h *ViewHandler) GetView(c echo.Context) error {
	viewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid view id")
	}

	doc, err := h.views.GetDocument(c.Request().Context(), viewID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ListViews lists the views of a tree
// GET /api/v1/trees/:id/views
func (h *ViewHandler) ListViews(c echo.Context) error {
	treeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tree id")
	}

	views, err := h.views.ListByTree(c.Request().Context(), treeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"views": views,
	})
}

// GetAbstractness reports whether a tree is abstract and which groups are
// still unresolved
// GET /api/v1/trees/:id/abstractness
func (h *ViewHandler) GetAbstractness(c echo.Context) error {
	treeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tree id")
	}

	ctx := c.Request().Context()
	abstract, err := h.abstractness.IsAbstract(ctx, treeID)
	if err != nil {
		return httpError(err)
	}

	groups := []string{}
	if abstract {
		groups, err = h.abstractness.UnresolvedGroups(ctx, treeID)
		if err != nil {
			return httpError(err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tree_id":           treeID,
		"abstract":          abstract,
		"unresolved_groups": groups,
	})
}
