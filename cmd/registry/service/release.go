package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

// releaseStore is the slice of the release repository this service uses.
type releaseStore interface {
	Create(ctx context.Context, r *models.Release) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Release, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Release, error)
	SetPrevRelease(ctx context.Context, id uuid.UUID, prevID *uuid.UUID) error
	Finalize(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, m *models.ReleaseMember) error
	RemoveMember(ctx context.Context, releaseID, versionID uuid.UUID) error
	ListMembers(ctx context.Context, releaseID uuid.UUID) ([]*models.ReleaseMember, error)
}

// requirementLookup resolves requirement versions for member validation.
type requirementLookup interface {
	GetVersion(ctx context.Context, id uuid.UUID) (*models.RequirementVersion, error)
}

// releaseNotifier broadcasts finalization to external listeners; satisfied
// by the redis client.
type releaseNotifier interface {
	PublishEvent(ctx context.Context, channel string, message string) error
}

// ReleaseService manages the release lifecycle. A release starts as a
// draft, collects pinned requirement and parameter versions, and is then
// finalized exactly once. Finalization is one way: members of a final
// release can never change, and the versions they pin become immutable
// chain tails.
type ReleaseService struct {
	repo         releaseStore
	requirements requirementLookup
	parameters   parameterLookup
	allocator    idAllocator
	events       eventPublisher
	notifier     releaseNotifier
	log          *logger.Logger
}

// NewReleaseService creates a new release service
func NewReleaseService(
	repo releaseStore,
	requirements requirementLookup,
	parameters parameterLookup,
	allocator idAllocator,
	events eventPublisher,
	notifier releaseNotifier,
	log *logger.Logger,
) *ReleaseService {
	return &ReleaseService{
		repo:         repo,
		requirements: requirements,
		parameters:   parameters,
		allocator:    allocator,
		events:       events,
		notifier:     notifier,
		log:          log,
	}
}

// Create allocates a REL-n public ID and opens a new draft release.
func (s *ReleaseService) Create(ctx context.Context, workspaceID uuid.UUID, description string, prevReleaseID *uuid.UUID, createdBy string) (*models.Release, error) {
	publicID, err := s.allocator.NextPublicID(ctx, workspaceID, models.EntityRelease)
	if err != nil {
		return nil, err
	}

	if prevReleaseID != nil {
		if _, err := s.repo.GetByID(ctx, *prevReleaseID); err != nil {
			return nil, fmt.Errorf("previous release: %w", err)
		}
	}

	release := &models.Release{
		ID:            uuid.New(),
		WorkspaceID:   workspaceID,
		PublicID:      publicID,
		Description:   description,
		PrevReleaseID: prevReleaseID,
		Draft:         true,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(ctx, release); err != nil {
		return nil, err
	}

	s.log.Info("created release", "release_id", release.ID, "public_id", publicID, "workspace_id", workspaceID)
	return release, nil
}

// GetByID retrieves a release
func (s *ReleaseService) GetByID(ctx context.Context, id uuid.UUID) (*models.Release, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByWorkspace retrieves all releases in a workspace
func (s *ReleaseService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Release, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

// SetPrevRelease repoints the predecessor of a draft release. The
// predecessor chain must stay acyclic; the walk is bounded so a concurrent
// writer cannot make it spin forever.
func (s *ReleaseService) SetPrevRelease(ctx context.Context, id uuid.UUID, prevID *uuid.UUID) error {
	if prevID != nil {
		if *prevID == id {
			return fmt.Errorf("release %s cannot precede itself: %w", id, errs.ErrCyclicReleaseHistory)
		}
		if err := s.checkAcyclic(ctx, id, *prevID); err != nil {
			return err
		}
	}
	return s.repo.SetPrevRelease(ctx, id, prevID)
}

// checkAcyclic walks the predecessor chain from candidate and fails if it
// reaches id.
func (s *ReleaseService) checkAcyclic(ctx context.Context, id, candidate uuid.UUID) error {
	const maxDepth = 10000

	cursor := candidate
	for depth := 0; depth < maxDepth; depth++ {
		r, err := s.repo.GetByID(ctx, cursor)
		if err != nil {
			return fmt.Errorf("walking release history: %w", err)
		}
		if r.PrevReleaseID == nil {
			return nil
		}
		if *r.PrevReleaseID == id {
			return fmt.Errorf("release %s is already a successor of %s: %w", id, candidate, errs.ErrCyclicReleaseHistory)
		}
		cursor = *r.PrevReleaseID
	}
	return fmt.Errorf("release history deeper than %d: %w", maxDepth, errs.ErrCyclicReleaseHistory)
}

// AddMember pins a requirement or parameter version into a draft release.
// The repository rejects members on a final release inside the insert
// transaction.
func (s *ReleaseService) AddMember(ctx context.Context, releaseID uuid.UUID, kind models.MemberKind, versionID uuid.UUID, addedBy string) error {
	switch kind {
	case models.MemberRequirement:
		if _, err := s.requirements.GetVersion(ctx, versionID); err != nil {
			return fmt.Errorf("requirement version: %w", err)
		}
	case models.MemberParameter:
		if _, err := s.parameters.GetVersion(ctx, versionID); err != nil {
			return fmt.Errorf("parameter version: %w", err)
		}
	default:
		return fmt.Errorf("unknown member kind %q: %w", kind, errs.ErrInvalidArgument)
	}

	return s.repo.AddMember(ctx, &models.ReleaseMember{
		ReleaseID: releaseID,
		Kind:      kind,
		VersionID: versionID,
		AddedBy:   addedBy,
		AddedAt:   time.Now(),
	})
}

// RemoveMember unpins a version from a draft release.
func (s *ReleaseService) RemoveMember(ctx context.Context, releaseID, versionID uuid.UUID) error {
	return s.repo.RemoveMember(ctx, releaseID, versionID)
}

// ListMembers retrieves the members of a release
func (s *ReleaseService) ListMembers(ctx context.Context, releaseID uuid.UUID) ([]*models.ReleaseMember, error) {
	return s.repo.ListMembers(ctx, releaseID)
}

// Finalize flips a draft release to final. Every tree touched by the
// release's requirement members must be concrete; the repository checks
// abstractness in the same transaction that flips the draft flag, and the
// error names the unresolved groups.
func (s *ReleaseService) Finalize(ctx context.Context, releaseID uuid.UUID) (*models.Release, error) {
	if err := s.repo.Finalize(ctx, releaseID); err != nil {
		return nil, err
	}

	release, err := s.repo.GetByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}

	s.publishFinalized(ctx, release)
	return release, nil
}

func (s *ReleaseService) publishFinalized(ctx context.Context, release *models.Release) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":         "release.finalized",
		"release_id":   release.ID,
		"public_id":    release.PublicID,
		"workspace_id": release.WorkspaceID,
		"finalized_at": release.FinalizedAt,
	})
	if err != nil {
		s.log.Warn("failed to encode release event", "release_id", release.ID, "error", err)
		return
	}

	if err := s.events.Publish(ctx, EventsTopic, release.ID.String(), payload); err != nil {
		s.log.Warn("failed to publish release event", "release_id", release.ID, "error", err)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishEvent(ctx, "releases", string(payload)); err != nil {
			s.log.Warn("failed to notify release finalization", "release_id", release.ID, "error", err)
		}
	}
}
