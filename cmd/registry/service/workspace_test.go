package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorkspaceStore is an in-memory workspaceStore
type fakeWorkspaceStore struct {
	workspaces map[uuid.UUID]*models.Workspace
}

func newFakeWorkspaceStore() *fakeWorkspaceStore {
	return &fakeWorkspaceStore{workspaces: make(map[uuid.UUID]*models.Workspace)}
}

func (f *fakeWorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	f.workspaces[ws.ID] = ws
	return nil
}

func (f *fakeWorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	ws, ok := f.workspaces[id]
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", id, errs.ErrNotFound)
	}
	return ws, nil
}

func (f *fakeWorkspaceStore) List(ctx context.Context) ([]*models.Workspace, error) {
	var result []*models.Workspace
	for _, ws := range f.workspaces {
		result = append(result, ws)
	}
	return result, nil
}

type fakeTreeStore struct {
	trees map[uuid.UUID]*models.RequirementTree
}

func newFakeTreeStore() *fakeTreeStore {
	return &fakeTreeStore{trees: make(map[uuid.UUID]*models.RequirementTree)}
}

func (f *fakeTreeStore) Create(ctx context.Context, tree *models.RequirementTree) error {
	f.trees[tree.ID] = tree
	return nil
}

func (f *fakeTreeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.RequirementTree, error) {
	tree, ok := f.trees[id]
	if !ok {
		return nil, fmt.Errorf("tree %s: %w", id, errs.ErrNotFound)
	}
	return tree, nil
}

func (f *fakeTreeStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.RequirementTree, error) {
	var result []*models.RequirementTree
	for _, tree := range f.trees {
		if tree.WorkspaceID == workspaceID {
			result = append(result, tree)
		}
	}
	return result, nil
}

func newWorkspaceFixture() (*WorkspaceService, *fakeRequirementStore, *fakeParameterStore) {
	reqs := newFakeRequirementStore()
	params := newFakeParameterStore()
	svc := NewWorkspaceService(
		newFakeWorkspaceStore(),
		newFakeTreeStore(),
		reqs,
		NewAbstractnessService(params, testLogger()),
		testLogger(),
	)
	return svc, reqs, params
}

func TestWorkspace_TreeRequiresExistingWorkspace(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newWorkspaceFixture()

	_, err := svc.CreateTree(ctx, uuid.New(), "orphan tree", "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	ws, err := svc.CreateWorkspace(ctx, "propulsion", "alice")
	require.NoError(t, err)

	tree, err := svc.CreateTree(ctx, ws.ID, "engine", "alice")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, tree.WorkspaceID)
}

func TestWorkspace_TreeDetailReportsHeadsAndAbstractness(t *testing.T) {
	ctx := context.Background()
	svc, reqs, params := newWorkspaceFixture()

	ws, err := svc.CreateWorkspace(ctx, "propulsion", "alice")
	require.NoError(t, err)
	tree, err := svc.CreateTree(ctx, ws.ID, "engine", "alice")
	require.NoError(t, err)

	id := uuid.New()
	v := &models.RequirementVersion{ID: id, BaseID: id, TreeID: tree.ID, VersionNumber: 1, Name: "thrust"}
	require.NoError(t, reqs.CreateChain(ctx, v, ws.ID, "REQ-1"))

	detail, err := svc.GetTreeDetail(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, tree.ID, detail.Tree.ID)
	require.Len(t, detail.Requirements, 1)
	assert.False(t, detail.Abstract)

	// A competing alternative flips the flag on the next read.
	params.counts["material"] = 2

	detail, err = svc.GetTreeDetail(ctx, tree.ID)
	require.NoError(t, err)
	assert.True(t, detail.Abstract)
}
