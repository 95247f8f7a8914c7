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

// collectionStore is the slice of the collection repository this service uses.
type collectionStore interface {
	Create(ctx context.Context, col *models.ReqCollection) error
	Update(ctx context.Context, col *models.ReqCollection) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReqCollection, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.ReqCollection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CollectionService manages named sets of logical requirements. Members are
// base IDs, so a collection always reflects chain heads rather than pinned
// versions.
type CollectionService struct {
	repo         collectionStore
	requirements requirementHeadLookup
	log          *logger.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(repo collectionStore, requirements requirementHeadLookup, log *logger.Logger) *CollectionService {
	return &CollectionService{repo: repo, requirements: requirements, log: log}
}

// Create stores a collection after validating every member base ID.
func (s *CollectionService) Create(ctx context.Context, workspaceID uuid.UUID, name, description string, memberBaseIDs []uuid.UUID, createdBy string) (*models.ReqCollection, error) {
	if err := s.checkMembers(ctx, memberBaseIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	col := &models.ReqCollection{
		ID:            uuid.New(),
		WorkspaceID:   workspaceID,
		Name:          name,
		Description:   description,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		MemberBaseIDs: memberBaseIDs,
	}

	if err := s.repo.Create(ctx, col); err != nil {
		return nil, err
	}

	s.log.Info("created collection", "collection_id", col.ID, "workspace_id", workspaceID, "members", len(memberBaseIDs))
	return col, nil
}

// Update replaces the name, description and member set of a collection.
func (s *CollectionService) Update(ctx context.Context, id uuid.UUID, name, description string, memberBaseIDs []uuid.UUID) (*models.ReqCollection, error) {
	col, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkMembers(ctx, memberBaseIDs); err != nil {
		return nil, err
	}

	col.Name = name
	col.Description = description
	col.MemberBaseIDs = memberBaseIDs
	col.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, col); err != nil {
		return nil, err
	}
	return col, nil
}

// GetByID retrieves a collection with its members
func (s *CollectionService) GetByID(ctx context.Context, id uuid.UUID) (*models.ReqCollection, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByWorkspace retrieves all collections in a workspace
func (s *CollectionService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.ReqCollection, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

// Delete removes a collection and its membership rows. The requirements
// themselves are untouched.
func (s *CollectionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *CollectionService) checkMembers(ctx context.Context, memberBaseIDs []uuid.UUID) error {
	for _, baseID := range memberBaseIDs {
		head, err := s.requirements.GetHead(ctx, baseID)
		if err != nil {
			return fmt.Errorf("member %s: %w", baseID, err)
		}
		if head.Deleted() {
			return fmt.Errorf("member %s: %w", baseID, errs.ErrNotFound)
		}
	}
	return nil
}
