package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

// testCaseStore is the slice of the test case repository this service uses.
type testCaseStore interface {
	Create(ctx context.Context, tc *models.TestCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TestCase, error)
	Update(ctx context.Context, tc *models.TestCase) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, requirementBaseID *uuid.UUID) ([]*models.TestCase, error)
}

// requirementHeadLookup checks that a logical requirement exists and is not
// deleted before a test case binds to it.
type requirementHeadLookup interface {
	GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error)
}

// TestCaseFields are the editable fields of a test case.
type TestCaseFields struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	RequirementBaseID *uuid.UUID `json:"requirement_base_id,omitempty"`
	Status            string     `json:"status"`
}

// TestCaseService manages workspace-scoped test cases. Test cases carry
// TEST-n public IDs from the same allocator as requirements and releases
// but are not versioned.
type TestCaseService struct {
	repo         testCaseStore
	requirements requirementHeadLookup
	allocator    idAllocator
	log          *logger.Logger
}

// NewTestCaseService creates a new test case service
func NewTestCaseService(repo testCaseStore, requirements requirementHeadLookup, allocator idAllocator, log *logger.Logger) *TestCaseService {
	return &TestCaseService{
		repo:         repo,
		requirements: requirements,
		allocator:    allocator,
		log:          log,
	}
}

// Create allocates a TEST-n public ID and stores the test case.
func (s *TestCaseService) Create(ctx context.Context, workspaceID uuid.UUID, fields TestCaseFields, author string) (*models.TestCase, error) {
	publicID, err := s.allocator.NextPublicID(ctx, workspaceID, models.EntityTestCase)
	if err != nil {
		return nil, err
	}

	if fields.RequirementBaseID != nil {
		if err := s.checkRequirement(ctx, *fields.RequirementBaseID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	tc := &models.TestCase{
		ID:                uuid.New(),
		WorkspaceID:       workspaceID,
		PublicID:          publicID,
		Name:              fields.Name,
		Description:       fields.Description,
		RequirementBaseID: fields.RequirementBaseID,
		Status:            fields.Status,
		Author:            author,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, tc); err != nil {
		return nil, err
	}

	s.log.Info("created test case", "test_case_id", tc.ID, "public_id", publicID, "workspace_id", workspaceID)
	return tc, nil
}

// GetByID retrieves a test case
func (s *TestCaseService) GetByID(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	return s.repo.GetByID(ctx, id)
}

// Update overwrites the editable fields. The public ID never changes.
func (s *TestCaseService) Update(ctx context.Context, id uuid.UUID, fields TestCaseFields) (*models.TestCase, error) {
	tc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields.RequirementBaseID != nil {
		if err := s.checkRequirement(ctx, *fields.RequirementBaseID); err != nil {
			return nil, err
		}
	}

	tc.Name = fields.Name
	tc.Description = fields.Description
	tc.RequirementBaseID = fields.RequirementBaseID
	tc.Status = fields.Status
	tc.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// Delete soft-deletes a test case. The TEST-n number is never reissued.
func (s *TestCaseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// ListByWorkspace retrieves test cases, optionally filtered by the
// requirement they verify.
func (s *TestCaseService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, requirementBaseID *uuid.UUID) ([]*models.TestCase, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID, requirementBaseID)
}

func (s *TestCaseService) checkRequirement(ctx context.Context, baseID uuid.UUID) error {
	head, err := s.requirements.GetHead(ctx, baseID)
	if err != nil {
		return fmt.Errorf("requirement: %w", err)
	}
	if head.Deleted() {
		return fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}
	return nil
}
