package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

type workspaceStore interface {
	Create(ctx context.Context, ws *models.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	List(ctx context.Context) ([]*models.Workspace, error)
}

type treeStore interface {
	Create(ctx context.Context, tree *models.RequirementTree) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RequirementTree, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.RequirementTree, error)
}

// abstractnessChecker reports whether a tree still has unresolved
// alternative groups.
type abstractnessChecker interface {
	IsAbstract(ctx context.Context, treeID uuid.UUID) (bool, error)
	UnresolvedGroups(ctx context.Context, treeID uuid.UUID) ([]string, error)
}

// WorkspaceService manages workspaces and the requirement trees inside
// them. Both are simple records; all interesting state lives in the chains.
type WorkspaceService struct {
	workspaces   workspaceStore
	trees        treeStore
	heads        treeHeadLister
	abstractness abstractnessChecker
	log          *logger.Logger
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(workspaces workspaceStore, trees treeStore, heads treeHeadLister, abstractness abstractnessChecker, log *logger.Logger) *WorkspaceService {
	return &WorkspaceService{
		workspaces:   workspaces,
		trees:        trees,
		heads:        heads,
		abstractness: abstractness,
		log:          log,
	}
}

// CreateWorkspace creates a workspace. Public ID counters start lazily on
// first allocation, so nothing else needs provisioning here.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, name, createdBy string) (*models.Workspace, error) {
	ws := &models.Workspace{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, err
	}
	s.log.Info("created workspace", "workspace_id", ws.ID, "name", name)
	return ws, nil
}

// GetWorkspace retrieves a workspace
func (s *WorkspaceService) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return s.workspaces.GetByID(ctx, id)
}

// ListWorkspaces retrieves all workspaces
func (s *WorkspaceService) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	return s.workspaces.List(ctx)
}

// CreateTree creates a requirement tree in a workspace.
func (s *WorkspaceService) CreateTree(ctx context.Context, workspaceID uuid.UUID, name, createdBy string) (*models.RequirementTree, error) {
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}

	tree := &models.RequirementTree{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	if err := s.trees.Create(ctx, tree); err != nil {
		return nil, err
	}
	s.log.Info("created tree", "tree_id", tree.ID, "workspace_id", workspaceID)
	return tree, nil
}

// GetTree retrieves a requirement tree
func (s *WorkspaceService) GetTree(ctx context.Context, id uuid.UUID) (*models.RequirementTree, error) {
	return s.trees.GetByID(ctx, id)
}

// GetTreeDetail retrieves a tree together with its current requirement
// heads and abstractness, computed fresh on every read.
func (s *WorkspaceService) GetTreeDetail(ctx context.Context, id uuid.UUID) (*models.TreeDetail, error) {
	tree, err := s.trees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	requirements, err := s.heads.ListHeadsByTree(ctx, id)
	if err != nil {
		return nil, err
	}

	abstract, err := s.abstractness.IsAbstract(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.TreeDetail{
		Tree:         tree,
		Requirements: requirements,
		Abstract:     abstract,
	}, nil
}

// ListTrees retrieves all trees in a workspace
func (s *WorkspaceService) ListTrees(ctx context.Context, workspaceID uuid.UUID) ([]*models.RequirementTree, error) {
	return s.trees.ListByWorkspace(ctx, workspaceID)
}
