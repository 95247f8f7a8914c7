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

// parameterStore is the slice of the parameter repository this service uses.
type parameterStore interface {
	CreateChain(ctx context.Context, p *models.ParameterVersion, workspaceID uuid.UUID) error
	AppendVersion(ctx context.Context, p *models.ParameterVersion) error
	GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.ParameterVersion, error)
	GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.ParameterVersion, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, groupID string) ([]*models.ParameterVersion, error)
	SoftDelete(ctx context.Context, baseID uuid.UUID) error
}

// ParameterFields are the editable fields of a parameter version.
type ParameterFields struct {
	GroupID string                 `json:"group_id,omitempty"`
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	Value   string                 `json:"value"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// ParameterService handles parameter chain operations. Parameters version
// independently of the requirements that link them.
type ParameterService struct {
	repo   parameterStore
	events eventPublisher
	log    *logger.Logger
}

// NewParameterService creates a new parameter service
func NewParameterService(repo parameterStore, events eventPublisher, log *logger.Logger) *ParameterService {
	return &ParameterService{
		repo:   repo,
		events: events,
		log:    log,
	}
}

// Create starts a new parameter chain
func (s *ParameterService) Create(ctx context.Context, workspaceID uuid.UUID, fields ParameterFields, author string) (*models.ParameterVersion, error) {
	id := uuid.New()
	p := &models.ParameterVersion{
		ID:            id,
		BaseID:        id,
		GroupID:       fields.GroupID,
		PrevVersionID: nil,
		VersionNumber: 1,
		Name:          fields.Name,
		Type:          fields.Type,
		Value:         fields.Value,
		Author:        author,
		Meta:          fields.Meta,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.CreateChain(ctx, p, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to create parameter: %w", err)
	}

	s.log.Info("created parameter",
		"base_id", p.BaseID,
		"name", p.Name,
		"group_id", p.GroupID,
	)

	return p, nil
}

// Append adds a new version to a chain with the same optimistic-concurrency
// and release-immutability guards as requirements, both enforced by the
// repository inside the append transaction.
func (s *ParameterService) Append(ctx context.Context, baseID, prevVersionID uuid.UUID, fields ParameterFields, author string) (*models.ParameterVersion, error) {
	head, err := s.repo.GetHead(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if head.Deleted() {
		return nil, fmt.Errorf("parameter %s is deleted: %w", baseID, errs.ErrNotFound)
	}

	prev, err := s.repo.GetVersion(ctx, prevVersionID)
	if err != nil {
		return nil, err
	}

	p := &models.ParameterVersion{
		ID:            uuid.New(),
		BaseID:        baseID,
		GroupID:       fields.GroupID,
		PrevVersionID: &prevVersionID,
		VersionNumber: prev.VersionNumber + 1,
		Name:          fields.Name,
		Type:          fields.Type,
		Value:         fields.Value,
		Author:        author,
		Meta:          fields.Meta,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.AppendVersion(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("appended parameter version",
		"base_id", baseID,
		"version_number", p.VersionNumber,
	)

	return p, nil
}

// GetHeadVersion retrieves the current head version of a live chain
func (s *ParameterService) GetHeadVersion(ctx context.Context, baseID uuid.UUID) (*models.ParameterVersion, error) {
	head, err := s.repo.GetHead(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if head.Deleted() {
		return nil, fmt.Errorf("parameter %s is deleted: %w", baseID, errs.ErrNotFound)
	}

	return s.repo.GetVersion(ctx, head.HeadID)
}

// GetChain retrieves all versions of a chain, oldest to newest
func (s *ParameterService) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.ParameterVersion, error) {
	return s.repo.GetChain(ctx, baseID)
}

// GetVersion retrieves a single version row
func (s *ParameterService) GetVersion(ctx context.Context, id uuid.UUID) (*models.ParameterVersion, error) {
	return s.repo.GetVersion(ctx, id)
}

// List retrieves live parameter heads in a workspace, optionally filtered
// to one alternative group.
func (s *ParameterService) List(ctx context.Context, workspaceID uuid.UUID, groupID string) ([]*models.ParameterVersion, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID, groupID)
}

// Delete soft-deletes a logical parameter
func (s *ParameterService) Delete(ctx context.Context, baseID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, baseID); err != nil {
		return err
	}

	s.log.Info("deleted parameter", "base_id", baseID)
	return nil
}
