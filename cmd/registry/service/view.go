package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/cmd/registry/rules"
	"github.com/specworks/reqregistry/common/cache"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

// viewStore is the slice of the view repository this service uses.
type viewStore interface {
	Create(ctx context.Context, view *models.ReqTreeView, selections []models.ViewSelection, memberVersionIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReqTreeView, error)
	ListByTree(ctx context.Context, treeID uuid.UUID) ([]*models.ReqTreeView, error)
	GetSelections(ctx context.Context, viewID uuid.UUID) ([]models.ViewSelection, error)
	GetMemberVersions(ctx context.Context, viewID uuid.UUID) ([]*models.RequirementVersion, error)
}

// treeHeadLister lists the current head versions of a tree's chains.
type treeHeadLister interface {
	ListHeadsByTree(ctx context.Context, treeID uuid.UUID) ([]*models.RequirementVersion, error)
}

// treeLookup resolves requirement trees.
type treeLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.RequirementTree, error)
}

// ViewService materializes concrete tree views: one parameter per reachable
// alternative group, an opaque inclusion rule, and members pinned to the
// version IDs current at creation time. Views are immutable and never
// deduplicated; creating twice with identical input yields two views.
type ViewService struct {
	repo      viewStore
	trees     treeLookup
	reqHeads  treeHeadLister
	params    parameterLookup
	groups    groupCounter
	evaluator *rules.Evaluator
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *logger.Logger
}

// NewViewService creates a new view service
func NewViewService(
	repo viewStore,
	trees treeLookup,
	reqHeads treeHeadLister,
	params parameterLookup,
	groups groupCounter,
	evaluator *rules.Evaluator,
	viewCache cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *ViewService {
	return &ViewService{
		repo:      repo,
		trees:     trees,
		reqHeads:  reqHeads,
		params:    params,
		groups:    groups,
		evaluator: evaluator,
		cache:     viewCache,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// CreateView validates the selections against the tree's reachable groups,
// evaluates the inclusion rule per requirement head, and persists the
// frozen result.
func (s *ViewService) CreateView(ctx context.Context, treeID uuid.UUID, name, rule string, selections []models.Selection, createdBy string) (*models.ReqTreeView, error) {
	if err := s.evaluator.Validate(rule); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}

	// An unknown tree would otherwise slip past the selection checks with an
	// empty reachable set and die on the view's tree FK.
	if _, err := s.trees.GetByID(ctx, treeID); err != nil {
		return nil, err
	}

	// Reject duplicate groups before touching storage.
	selected := make(map[string]uuid.UUID, len(selections))
	for _, sel := range selections {
		if _, dup := selected[sel.GroupID]; dup {
			return nil, fmt.Errorf("group %q selected more than once: %w", sel.GroupID, errs.ErrAmbiguousSelection)
		}
		selected[sel.GroupID] = sel.ParameterVersionID
	}

	reachable, err := s.groups.GroupCountsByTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	// Exactly one selection per reachable group, no extras.
	for group := range reachable {
		if _, ok := selected[group]; !ok {
			return nil, fmt.Errorf("group %q has no selection: %w", group, errs.ErrIncompleteSelection)
		}
	}
	for group := range selected {
		if _, ok := reachable[group]; !ok {
			return nil, fmt.Errorf("group %q is not reachable from tree %s: %w", group, treeID, errs.ErrIncompleteSelection)
		}
	}

	// Resolve the selected parameter versions and verify group membership.
	chosen := make(map[string]*models.ParameterVersion, len(selected))
	for group, versionID := range selected {
		p, err := s.params.GetVersion(ctx, versionID)
		if err != nil {
			return nil, err
		}
		if p.GroupID != group {
			return nil, fmt.Errorf("parameter version %s belongs to group %q, not %q: %w",
				versionID, p.GroupID, group, errs.ErrAmbiguousSelection)
		}
		chosen[group] = p
	}

	// Re-run the abstractness check against the resolved selection set: a
	// concrete view has exactly one alternative left per group.
	for group := range reachable {
		if _, ok := chosen[group]; !ok {
			return nil, fmt.Errorf("group %q unresolved after selection: %w", group, errs.ErrAbstractTree)
		}
	}

	paramDocs := make(map[string]interface{}, len(chosen))
	for group, p := range chosen {
		paramDocs[group] = p.Document()
	}

	heads, err := s.reqHeads.ListHeadsByTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	var memberIDs []uuid.UUID
	for _, head := range heads {
		include, err := s.evaluator.Evaluate(rule, head.Document(), paramDocs)
		if err != nil {
			return nil, fmt.Errorf("rule failed for requirement %s: %w", head.BaseID, err)
		}
		if include {
			memberIDs = append(memberIDs, head.ID)
		}
	}

	view := &models.ReqTreeView{
		ID:        uuid.New(),
		TreeID:    treeID,
		Name:      name,
		Rule:      rule,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}

	viewSelections := make([]models.ViewSelection, 0, len(selected))
	for group, versionID := range selected {
		viewSelections = append(viewSelections, models.ViewSelection{
			ViewID:             view.ID,
			GroupID:            group,
			ParameterVersionID: versionID,
		})
	}

	if err := s.repo.Create(ctx, view, viewSelections, memberIDs); err != nil {
		return nil, err
	}

	s.log.Info("created view",
		"view_id", view.ID,
		"tree_id", treeID,
		"groups", len(viewSelections),
		"members", len(memberIDs),
	)

	return view, nil
}

// GetDocument assembles the materialized form of a view. Views never change
// after creation, so the document is served from cache when possible.
func (s *ViewService) GetDocument(ctx context.Context, viewID uuid.UUID) (*models.ViewDocument, error) {
	cacheKey := "view:" + viewID.String()

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			doc := &models.ViewDocument{}
			if err := json.Unmarshal(cached, doc); err == nil {
				return doc, nil
			}
			s.log.Warn("failed to decode cached view, rebuilding", "view_id", viewID)
		}
	}

	view, err := s.repo.GetByID(ctx, viewID)
	if err != nil {
		return nil, err
	}

	selections, err := s.repo.GetSelections(ctx, viewID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.GetMemberVersions(ctx, viewID)
	if err != nil {
		return nil, err
	}

	params := make([]*models.ParameterVersion, 0, len(selections))
	for _, sel := range selections {
		p, err := s.params.GetVersion(ctx, sel.ParameterVersionID)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	doc := &models.ViewDocument{
		View:         view,
		Selections:   selections,
		Requirements: members,
		Parameters:   params,
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(doc); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache view", "view_id", viewID, "error", err)
			}
		}
	}

	return doc, nil
}

// ListByTree retrieves all views created for a tree
func (s *ViewService) ListByTree(ctx context.Context, treeID uuid.UUID) ([]*models.ReqTreeView, error) {
	return s.repo.ListByTree(ctx, treeID)
}
