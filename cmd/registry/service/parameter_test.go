package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParameterService() (*ParameterService, *fakeParameterStore) {
	store := newFakeParameterStore()
	svc := NewParameterService(store, &fakeQueue{}, testLogger())
	return svc, store
}

func TestParameter_AppendAdvancesChain(t *testing.T) {
	ctx := context.Background()
	svc, _ := newParameterService()
	workspaceID := uuid.New()

	v1, err := svc.Create(ctx, workspaceID, ParameterFields{
		GroupID: "material", Name: "housing material", Type: "string", Value: "steel",
	}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, v1.ID, v1.BaseID)

	v2, err := svc.Append(ctx, v1.BaseID, v1.ID, ParameterFields{
		GroupID: "material", Name: "housing material", Type: "string", Value: "stainless steel",
	}, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	require.NotNil(t, v2.PrevVersionID)
	assert.Equal(t, v1.ID, *v2.PrevVersionID)

	head, err := svc.GetHeadVersion(ctx, v1.BaseID)
	require.NoError(t, err)
	assert.Equal(t, "stainless steel", head.Value)

	chain, err := svc.GetChain(ctx, v1.BaseID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "steel", chain[0].Value)
}

func TestParameter_AppendOnStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newParameterService()
	workspaceID := uuid.New()

	v1, err := svc.Create(ctx, workspaceID, ParameterFields{Name: "limit", Value: "10"}, "alice")
	require.NoError(t, err)

	_, err = svc.Append(ctx, v1.BaseID, v1.ID, ParameterFields{Name: "limit", Value: "20"}, "alice")
	require.NoError(t, err)

	// A second writer still holding v1 loses the race.
	_, err = svc.Append(ctx, v1.BaseID, v1.ID, ParameterFields{Name: "limit", Value: "30"}, "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStaleVersion)
}

func TestParameter_AppendToFrozenVersionRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newParameterService()

	v1, err := svc.Create(ctx, uuid.New(), ParameterFields{Name: "limit", Value: "10"}, "alice")
	require.NoError(t, err)

	store.frozen[v1.ID] = true

	_, err = svc.Append(ctx, v1.BaseID, v1.ID, ParameterFields{Name: "limit", Value: "20"}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrImmutableVersion)
}

func TestParameter_ListFiltersByGroup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newParameterService()
	workspaceID := uuid.New()

	_, err := svc.Create(ctx, workspaceID, ParameterFields{GroupID: "material", Name: "steel option", Value: "steel"}, "alice")
	require.NoError(t, err)
	_, err = svc.Create(ctx, workspaceID, ParameterFields{GroupID: "material", Name: "alu option", Value: "aluminium"}, "alice")
	require.NoError(t, err)
	_, err = svc.Create(ctx, workspaceID, ParameterFields{Name: "ungrouped", Value: "42"}, "alice")
	require.NoError(t, err)

	all, err := svc.List(ctx, workspaceID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	material, err := svc.List(ctx, workspaceID, "material")
	require.NoError(t, err)
	assert.Len(t, material, 2)
}

func TestParameter_DeletedChainIsGone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newParameterService()

	v1, err := svc.Create(ctx, uuid.New(), ParameterFields{Name: "short lived"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, v1.BaseID))

	_, err = svc.GetHeadVersion(ctx, v1.BaseID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Append(ctx, v1.BaseID, v1.ID, ParameterFields{Name: "short lived"}, "alice")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
