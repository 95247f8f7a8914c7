package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewAllocatorService(newFakeCounter(), testLogger())
	workspaceID := uuid.New()

	for i, want := range []string{"REQ-1", "REQ-2", "REQ-3"} {
		got, err := svc.NextPublicID(ctx, workspaceID, models.EntityRequirement)
		require.NoError(t, err, "allocation %d", i+1)
		assert.Equal(t, want, got)
	}
}

func TestAllocator_TypesCountIndependently(t *testing.T) {
	ctx := context.Background()
	svc := NewAllocatorService(newFakeCounter(), testLogger())
	workspaceID := uuid.New()

	req, err := svc.NextPublicID(ctx, workspaceID, models.EntityRequirement)
	require.NoError(t, err)
	test, err := svc.NextPublicID(ctx, workspaceID, models.EntityTestCase)
	require.NoError(t, err)
	rel, err := svc.NextPublicID(ctx, workspaceID, models.EntityRelease)
	require.NoError(t, err)

	assert.Equal(t, "REQ-1", req)
	assert.Equal(t, "TEST-1", test)
	assert.Equal(t, "REL-1", rel)
}

func TestAllocator_WorkspacesCountIndependently(t *testing.T) {
	ctx := context.Background()
	svc := NewAllocatorService(newFakeCounter(), testLogger())

	first, err := svc.NextPublicID(ctx, uuid.New(), models.EntityRequirement)
	require.NoError(t, err)
	second, err := svc.NextPublicID(ctx, uuid.New(), models.EntityRequirement)
	require.NoError(t, err)

	assert.Equal(t, "REQ-1", first)
	assert.Equal(t, "REQ-1", second)
}

func TestAllocator_CounterUnavailable(t *testing.T) {
	ctx := context.Background()
	counter := newFakeCounter()
	counter.fail = true
	svc := NewAllocatorService(counter, testLogger())

	_, err := svc.NextPublicID(ctx, uuid.New(), models.EntityRequirement)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAllocationUnavailable)
}

func TestAllocator_RejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	svc := NewAllocatorService(newFakeCounter(), testLogger())

	_, err := svc.NextPublicID(ctx, uuid.New(), models.EntityType("BOGUS"))
	require.Error(t, err)
}
