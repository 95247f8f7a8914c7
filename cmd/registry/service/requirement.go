package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

// EventsTopic is the in-process queue topic for registry domain events.
const EventsTopic = "registry.events"

// requirementStore is the slice of the requirement repository this service
// uses. Kept as an interface so tests can drop in an in-memory fake.
type requirementStore interface {
	CreateChain(ctx context.Context, v *models.RequirementVersion, workspaceID uuid.UUID, publicID string) error
	AppendVersion(ctx context.Context, v *models.RequirementVersion) error
	GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.RequirementVersion, error)
	GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.RequirementVersion, error)
	ListHeadsByTree(ctx context.Context, treeID uuid.UUID) ([]*models.RequirementVersion, error)
	Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]*models.RequirementVersion, error)
	SoftDelete(ctx context.Context, baseID uuid.UUID) error
	LinkParameter(ctx context.Context, link *models.RequirementParameterLink) error
	UnlinkParameter(ctx context.Context, requirementVersionID, parameterVersionID uuid.UUID) error
}

// idAllocator issues public IDs.
type idAllocator interface {
	NextPublicID(ctx context.Context, workspaceID uuid.UUID, entityType models.EntityType) (string, error)
}

// eventPublisher publishes domain events; satisfied by queue.Queue.
type eventPublisher interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
}

// parameterLookup resolves parameter versions for link validation.
type parameterLookup interface {
	GetVersion(ctx context.Context, id uuid.UUID) (*models.ParameterVersion, error)
}

// RequirementFields are the editable fields of a requirement version.
type RequirementFields struct {
	TreeID           uuid.UUID              `json:"tree_id"`
	ParentID         *uuid.UUID             `json:"parent_id,omitempty"`
	Level            int                    `json:"level"`
	Priority         string                 `json:"priority"`
	FunctionalType   string                 `json:"functional_type"`
	ValidationMethod string                 `json:"validation_method"`
	Name             string                 `json:"name"`
	Definition       string                 `json:"definition"`
	Status           string                 `json:"status"`
	Meta             map[string]interface{} `json:"meta,omitempty"`
}

// RequirementService handles requirement chain operations
type RequirementService struct {
	repo      requirementStore
	params    parameterLookup
	allocator idAllocator
	events    eventPublisher
	log       *logger.Logger
}

// NewRequirementService creates a new requirement service
func NewRequirementService(
	repo requirementStore,
	params parameterLookup,
	allocator idAllocator,
	events eventPublisher,
	log *logger.Logger,
) *RequirementService {
	return &RequirementService{
		repo:      repo,
		params:    params,
		allocator: allocator,
		events:    events,
		log:       log,
	}
}

// Create starts a new requirement chain. The public ID is allocated first;
// without a successful allocation no row is created.
func (s *RequirementService) Create(ctx context.Context, workspaceID uuid.UUID, fields RequirementFields, author string) (*models.RequirementVersion, error) {
	publicID, err := s.allocator.NextPublicID(ctx, workspaceID, models.EntityRequirement)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	v := &models.RequirementVersion{
		ID:               id,
		BaseID:           id, // version 1 starts its own chain
		TreeID:           fields.TreeID,
		ParentID:         fields.ParentID,
		PrevVersionID:    nil,
		VersionNumber:    1,
		PublicID:         publicID,
		Level:            fields.Level,
		Priority:         fields.Priority,
		FunctionalType:   fields.FunctionalType,
		ValidationMethod: fields.ValidationMethod,
		Name:             fields.Name,
		Definition:       fields.Definition,
		Status:           fields.Status,
		Author:           author,
		Meta:             fields.Meta,
		CreatedAt:        time.Now(),
	}

	if err := s.repo.CreateChain(ctx, v, workspaceID, publicID); err != nil {
		return nil, fmt.Errorf("failed to create requirement: %w", err)
	}

	s.log.Info("created requirement",
		"public_id", publicID,
		"base_id", v.BaseID,
		"tree_id", v.TreeID,
	)

	s.publishEvent(ctx, "requirement.created", v.BaseID, map[string]interface{}{
		"public_id":  publicID,
		"version_id": v.ID,
		"author":     author,
	})

	return v, nil
}

// Append adds a new version to a chain. prevVersionID must be the current
// head (optimistic concurrency, errs.ErrStaleVersion otherwise) and must
// not belong to a finalized release (errs.ErrImmutableVersion); the
// repository enforces both inside the append transaction.
func (s *RequirementService) Append(ctx context.Context, baseID, prevVersionID uuid.UUID, fields RequirementFields, author string) (*models.RequirementVersion, error) {
	head, err := s.repo.GetHead(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if head.Deleted() {
		return nil, fmt.Errorf("requirement %s is deleted: %w", baseID, errs.ErrNotFound)
	}

	prev, err := s.repo.GetVersion(ctx, prevVersionID)
	if err != nil {
		return nil, err
	}

	v := &models.RequirementVersion{
		ID:               uuid.New(),
		BaseID:           baseID,
		TreeID:           prev.TreeID, // a chain never changes tree
		ParentID:         fields.ParentID,
		PrevVersionID:    &prevVersionID,
		VersionNumber:    prev.VersionNumber + 1,
		PublicID:         head.PublicID,
		Level:            fields.Level,
		Priority:         fields.Priority,
		FunctionalType:   fields.FunctionalType,
		ValidationMethod: fields.ValidationMethod,
		Name:             fields.Name,
		Definition:       fields.Definition,
		Status:           fields.Status,
		Author:           author,
		Meta:             fields.Meta,
		CreatedAt:        time.Now(),
	}

	if err := s.repo.AppendVersion(ctx, v); err != nil {
		return nil, err
	}

	s.log.Info("appended requirement version",
		"public_id", head.PublicID,
		"base_id", baseID,
		"version_number", v.VersionNumber,
	)

	s.publishEvent(ctx, "requirement.version.created", baseID, map[string]interface{}{
		"public_id":      head.PublicID,
		"version_id":     v.ID,
		"version_number": v.VersionNumber,
		"author":         author,
	})

	return v, nil
}

// patchDocument is the JSON shape a requirement document patches against.
type patchDocument struct {
	Name             string                 `json:"name"`
	Definition       string                 `json:"definition"`
	Level            int                    `json:"level"`
	Priority         string                 `json:"priority"`
	FunctionalType   string                 `json:"functional_type"`
	ValidationMethod string                 `json:"validation_method"`
	Status           string                 `json:"status"`
	Meta             map[string]interface{} `json:"meta"`
}

// ApplyPatch applies an RFC-6902 patch to the head document and appends the
// result as the next version. prevVersionID carries the caller's view of
// the head for the same optimistic-concurrency check as Append.
func (s *RequirementService) ApplyPatch(ctx context.Context, baseID, prevVersionID uuid.UUID, patchJSON []byte, author string) (*models.RequirementVersion, error) {
	prev, err := s.repo.GetVersion(ctx, prevVersionID)
	if err != nil {
		return nil, err
	}

	docJSON, err := json.Marshal(prev.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode patch: %v", errs.ErrInvalidArgument, err)
	}

	patchedJSON, err := patch.Apply(docJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to apply patch: %v", errs.ErrInvalidArgument, err)
	}

	var doc patchDocument
	if err := json.Unmarshal(patchedJSON, &doc); err != nil {
		return nil, fmt.Errorf("%w: patched document is malformed: %v", errs.ErrInvalidArgument, err)
	}

	fields := RequirementFields{
		TreeID:           prev.TreeID,
		ParentID:         prev.ParentID,
		Level:            doc.Level,
		Priority:         doc.Priority,
		FunctionalType:   doc.FunctionalType,
		ValidationMethod: doc.ValidationMethod,
		Name:             doc.Name,
		Definition:       doc.Definition,
		Status:           doc.Status,
		Meta:             doc.Meta,
	}

	return s.Append(ctx, baseID, prevVersionID, fields, author)
}

// GetHeadVersion retrieves the current head version of a live chain
func (s *RequirementService) GetHeadVersion(ctx context.Context, baseID uuid.UUID) (*models.RequirementVersion, error) {
	head, err := s.repo.GetHead(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if head.Deleted() {
		return nil, fmt.Errorf("requirement %s is deleted: %w", baseID, errs.ErrNotFound)
	}

	v, err := s.repo.GetVersion(ctx, head.HeadID)
	if err != nil {
		return nil, err
	}
	v.PublicID = head.PublicID

	return v, nil
}

// GetChain retrieves all versions of a chain, oldest to newest
func (s *RequirementService) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.RequirementVersion, error) {
	head, err := s.repo.GetHead(ctx, baseID)
	if err != nil {
		return nil, err
	}

	chain, err := s.repo.GetChain(ctx, baseID)
	if err != nil {
		return nil, err
	}

	for _, v := range chain {
		v.PublicID = head.PublicID
	}

	return chain, nil
}

// Search finds live requirements in a workspace
func (s *RequirementService) Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]*models.RequirementVersion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return s.repo.Search(ctx, workspaceID, term, limit)
}

// ListByTree retrieves the head versions of a tree's live chains
func (s *RequirementService) ListByTree(ctx context.Context, treeID uuid.UUID) ([]*models.RequirementVersion, error) {
	return s.repo.ListHeadsByTree(ctx, treeID)
}

// Delete soft-deletes a logical requirement. Its REQ-n number is retired,
// never reissued.
func (s *RequirementService) Delete(ctx context.Context, baseID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, baseID); err != nil {
		return err
	}

	s.log.Info("deleted requirement", "base_id", baseID)
	return nil
}

// LinkParameter associates a parameter version with a requirement version
func (s *RequirementService) LinkParameter(ctx context.Context, requirementVersionID, parameterVersionID uuid.UUID, author string) error {
	if _, err := s.repo.GetVersion(ctx, requirementVersionID); err != nil {
		return err
	}
	if _, err := s.params.GetVersion(ctx, parameterVersionID); err != nil {
		return err
	}

	link := &models.RequirementParameterLink{
		RequirementVersionID: requirementVersionID,
		ParameterVersionID:   parameterVersionID,
		CreatedBy:            author,
		CreatedAt:            time.Now(),
	}

	if err := s.repo.LinkParameter(ctx, link); err != nil {
		return err
	}

	s.log.Info("linked parameter",
		"requirement_version_id", requirementVersionID,
		"parameter_version_id", parameterVersionID,
	)

	return nil
}

// UnlinkParameter removes a requirement-parameter association
func (s *RequirementService) UnlinkParameter(ctx context.Context, requirementVersionID, parameterVersionID uuid.UUID) error {
	return s.repo.UnlinkParameter(ctx, requirementVersionID, parameterVersionID)
}

func (s *RequirementService) publishEvent(ctx context.Context, eventType string, key uuid.UUID, payload map[string]interface{}) {
	if s.events == nil {
		return
	}

	payload["type"] = eventType
	message, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event", "type", eventType, "error", err)
		return
	}

	if err := s.events.Publish(ctx, EventsTopic, key.String(), message); err != nil {
		s.log.Warn("failed to publish event", "type", eventType, "error", err)
	}
}
