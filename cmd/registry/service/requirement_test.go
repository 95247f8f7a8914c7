package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequirementService(t *testing.T) (*RequirementService, *fakeRequirementStore, *fakeQueue) {
	t.Helper()
	store := newFakeRequirementStore()
	queue := &fakeQueue{}
	svc := NewRequirementService(store, newFakeParameterStore(), newFakeAllocator(), queue, testLogger())
	return svc, store, queue
}

func TestRequirement_CreateAssignsPublicID(t *testing.T) {
	ctx := context.Background()
	svc, _, queue := newRequirementService(t)

	v, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "engine torque"}, "alice")
	require.NoError(t, err)

	assert.Equal(t, "REQ-1", v.PublicID)
	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, v.ID, v.BaseID)
	assert.Nil(t, v.PrevVersionID)
	assert.Len(t, queue.published, 1)
}

func TestRequirement_AllocatorFailureCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := newFakeRequirementStore()
	allocator := newFakeAllocator()
	allocator.fail = true
	svc := NewRequirementService(store, newFakeParameterStore(), allocator, &fakeQueue{}, testLogger())

	_, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "x"}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAllocationUnavailable)
	assert.Empty(t, store.versions)
}

func TestRequirement_AppendAdvancesChain(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	v2, err := svc.Append(ctx, v1.BaseID, v1.ID, RequirementFields{Name: "v2"}, "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, v1.BaseID, v2.BaseID)
	assert.Equal(t, v1.ID, *v2.PrevVersionID)
	assert.Equal(t, v1.TreeID, v2.TreeID)
	assert.Equal(t, v1.PublicID, v2.PublicID)

	chain, err := svc.GetChain(ctx, v1.BaseID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, 1, chain[0].VersionNumber)
	assert.Equal(t, 2, chain[1].VersionNumber)
}

func TestRequirement_AppendOnStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	// First writer wins.
	_, err = svc.Append(ctx, v1.BaseID, v1.ID, RequirementFields{Name: "from alice"}, "alice")
	require.NoError(t, err)

	// Second writer based its edit on v1, which is no longer the head.
	_, err = svc.Append(ctx, v1.BaseID, v1.ID, RequirementFields{Name: "from bob"}, "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStaleVersion)
}

func TestRequirement_AppendToFrozenVersionRejected(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	store.frozen[v1.ID] = true

	_, err = svc.Append(ctx, v1.BaseID, v1.ID, RequirementFields{Name: "v2"}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrImmutableVersion)
}

func TestRequirement_ApplyPatch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{
		TreeID:     uuid.New(),
		Name:       "engine torque",
		Definition: "torque shall not exceed 400 Nm",
		Status:     "draft",
	}, "alice")
	require.NoError(t, err)

	patch := []byte(`[
		{"op": "replace", "path": "/status", "value": "approved"},
		{"op": "replace", "path": "/definition", "value": "torque shall not exceed 450 Nm"}
	]`)

	v2, err := svc.ApplyPatch(ctx, v1.BaseID, v1.ID, patch, "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, "approved", v2.Status)
	assert.Equal(t, "torque shall not exceed 450 Nm", v2.Definition)
	assert.Equal(t, "engine torque", v2.Name, "untouched fields carry over")
}

func TestRequirement_ApplyPatchRejectsMalformedPatch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	_, err = svc.ApplyPatch(ctx, v1.BaseID, v1.ID, []byte(`{"not": "a patch"}`), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestRequirement_DeletedChainIsGone(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v1.BaseID))

	_, err = svc.GetHeadVersion(ctx, v1.BaseID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Append(ctx, v1.BaseID, v1.ID, RequirementFields{Name: "v2"}, "alice")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRequirement_DeleteNeverFreesNumber(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)
	workspaceID := uuid.New()
	treeID := uuid.New()

	v1, err := svc.Create(ctx, workspaceID, RequirementFields{TreeID: treeID, Name: "first"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "REQ-1", v1.PublicID)

	require.NoError(t, svc.Delete(ctx, v1.BaseID))

	v2, err := svc.Create(ctx, workspaceID, RequirementFields{TreeID: treeID, Name: "second"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "REQ-2", v2.PublicID, "deleted numbers are not reissued")
}

func TestRequirement_SearchLimitsClamped(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRequirementService(t)
	workspaceID := uuid.New()
	treeID := uuid.New()

	_, err := svc.Create(ctx, workspaceID, RequirementFields{TreeID: treeID, Name: "braking distance"}, "alice")
	require.NoError(t, err)

	results, err := svc.Search(ctx, workspaceID, "braking", -5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRequirement_LinkParameterValidatesBothSides(t *testing.T) {
	ctx := context.Background()
	store := newFakeRequirementStore()
	params := newFakeParameterStore()
	svc := NewRequirementService(store, params, newFakeAllocator(), &fakeQueue{}, testLogger())

	v1, err := svc.Create(ctx, uuid.New(), RequirementFields{TreeID: uuid.New(), Name: "v1"}, "alice")
	require.NoError(t, err)

	err = svc.LinkParameter(ctx, v1.ID, uuid.New(), "alice")
	assert.ErrorIs(t, err, errs.ErrNotFound, "unknown parameter version")
}
