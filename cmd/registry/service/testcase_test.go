package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTestCaseStore is an in-memory testCaseStore
type fakeTestCaseStore struct {
	cases map[uuid.UUID]*models.TestCase
}

func newFakeTestCaseStore() *fakeTestCaseStore {
	return &fakeTestCaseStore{cases: make(map[uuid.UUID]*models.TestCase)}
}

func (f *fakeTestCaseStore) Create(ctx context.Context, tc *models.TestCase) error {
	f.cases[tc.ID] = tc
	return nil
}

func (f *fakeTestCaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	tc, ok := f.cases[id]
	if !ok || tc.DeletedAt != nil {
		return nil, fmt.Errorf("test case %s: %w", id, errs.ErrNotFound)
	}
	return tc, nil
}

func (f *fakeTestCaseStore) Update(ctx context.Context, tc *models.TestCase) error {
	if _, ok := f.cases[tc.ID]; !ok {
		return fmt.Errorf("test case %s: %w", tc.ID, errs.ErrNotFound)
	}
	f.cases[tc.ID] = tc
	return nil
}

func (f *fakeTestCaseStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tc, ok := f.cases[id]
	if !ok || tc.DeletedAt != nil {
		return fmt.Errorf("test case %s: %w", id, errs.ErrNotFound)
	}
	now := time.Now()
	tc.DeletedAt = &now
	return nil
}

func (f *fakeTestCaseStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, requirementBaseID *uuid.UUID) ([]*models.TestCase, error) {
	var result []*models.TestCase
	for _, tc := range f.cases {
		if tc.WorkspaceID != workspaceID || tc.DeletedAt != nil {
			continue
		}
		if requirementBaseID != nil {
			if tc.RequirementBaseID == nil || *tc.RequirementBaseID != *requirementBaseID {
				continue
			}
		}
		result = append(result, tc)
	}
	return result, nil
}

func newTestCaseService(reqs *fakeRequirementStore) (*TestCaseService, *fakeTestCaseStore) {
	store := newFakeTestCaseStore()
	svc := NewTestCaseService(store, reqs, NewAllocatorService(newFakeCounter(), testLogger()), testLogger())
	return svc, store
}

func TestTestCase_CreateAllocatesPublicID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCaseService(newFakeRequirementStore())
	workspaceID := uuid.New()

	first, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "pressure check", Status: "open"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "TEST-1", first.PublicID)
	assert.Equal(t, "alice", first.Author)

	second, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "leak check", Status: "open"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, "TEST-2", second.PublicID)
}

func TestTestCase_CreateValidatesRequirement(t *testing.T) {
	ctx := context.Background()
	reqs := newFakeRequirementStore()
	svc, store := newTestCaseService(reqs)
	workspaceID := uuid.New()

	ghost := uuid.New()
	_, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "orphan", RequirementBaseID: &ghost}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, store.cases)

	v := &models.RequirementVersion{ID: uuid.New(), BaseID: uuid.New(), VersionNumber: 1}
	require.NoError(t, reqs.CreateChain(ctx, v, workspaceID, "REQ-1"))

	tc, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "bound", RequirementBaseID: &v.BaseID}, "alice")
	require.NoError(t, err)

	// Binding to a deleted requirement must fail too.
	require.NoError(t, reqs.SoftDelete(ctx, v.BaseID))
	_, err = svc.Update(ctx, tc.ID, TestCaseFields{Name: "bound", RequirementBaseID: &v.BaseID})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTestCase_UpdateKeepsPublicID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCaseService(newFakeRequirementStore())

	tc, err := svc.Create(ctx, uuid.New(), TestCaseFields{Name: "before", Status: "open"}, "alice")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, tc.ID, TestCaseFields{Name: "after", Status: "passed"})
	require.NoError(t, err)
	assert.Equal(t, tc.PublicID, updated.PublicID)
	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, "passed", updated.Status)
}

func TestTestCase_DeleteNeverFreesNumber(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCaseService(newFakeRequirementStore())
	workspaceID := uuid.New()

	first, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "gone"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	_, err = svc.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	next, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "next"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "TEST-2", next.PublicID)
}

func TestTestCase_ListFiltersByRequirement(t *testing.T) {
	ctx := context.Background()
	reqs := newFakeRequirementStore()
	svc, _ := newTestCaseService(reqs)
	workspaceID := uuid.New()

	v := &models.RequirementVersion{ID: uuid.New(), BaseID: uuid.New(), VersionNumber: 1}
	require.NoError(t, reqs.CreateChain(ctx, v, workspaceID, "REQ-1"))

	_, err := svc.Create(ctx, workspaceID, TestCaseFields{Name: "bound", RequirementBaseID: &v.BaseID}, "alice")
	require.NoError(t, err)
	_, err = svc.Create(ctx, workspaceID, TestCaseFields{Name: "loose"}, "alice")
	require.NoError(t, err)

	all, err := svc.ListByWorkspace(ctx, workspaceID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bound, err := svc.ListByWorkspace(ctx, workspaceID, &v.BaseID)
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.Equal(t, "bound", bound[0].Name)
}
