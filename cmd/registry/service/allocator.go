package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

// Counter is the atomic counter backend for public ID sequences. Satisfied
// by the common redis client; tests swap in an in-memory fake.
type Counter interface {
	Increment(ctx context.Context, key string) (int64, error)
}

// AllocatorService issues workspace-scoped public IDs (REQ-n, TEST-n,
// REL-n). Numbers are strictly increasing per (workspace, entity type) and
// never reused: the counter only moves forward, also across deletes.
type AllocatorService struct {
	counter Counter
	log     *logger.Logger
}

// NewAllocatorService creates a new allocator service
func NewAllocatorService(counter Counter, log *logger.Logger) *AllocatorService {
	return &AllocatorService{
		counter: counter,
		log:     log,
	}
}

// NextPublicID allocates the next public ID for an entity type in a
// workspace. When the counter backend is unreachable the caller gets
// errs.ErrAllocationUnavailable and must not create the entity.
func (s *AllocatorService) NextPublicID(ctx context.Context, workspaceID uuid.UUID, entityType models.EntityType) (string, error) {
	if !entityType.Valid() {
		return "", fmt.Errorf("unknown entity type: %s", entityType)
	}

	key := fmt.Sprintf("ws:%s:seq:%s", workspaceID, entityType)

	n, err := s.counter.Increment(ctx, key)
	if err != nil {
		return "", fmt.Errorf("workspace %s type %s: %w: %v", workspaceID, entityType, errs.ErrAllocationUnavailable, err)
	}

	publicID := models.PublicID(entityType, n)

	s.log.Debug("allocated public id",
		"workspace_id", workspaceID,
		"public_id", publicID,
	)

	return publicID, nil
}
