package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/logger"
)

// groupCounter reports distinct linked parameter versions per alternative
// group reachable from a tree.
type groupCounter interface {
	GroupCountsByTree(ctx context.Context, treeID uuid.UUID) (map[string]int, error)
}

// AbstractnessService decides whether a requirement tree is abstract: some
// reachable alternative group still offers more than one parameter version.
// The answer is recomputed from the live links on every call and is never
// persisted; caching it would require invalidation on every link mutation.
type AbstractnessService struct {
	groups groupCounter
	log    *logger.Logger
}

// NewAbstractnessService creates a new abstractness service
func NewAbstractnessService(groups groupCounter, log *logger.Logger) *AbstractnessService {
	return &AbstractnessService{
		groups: groups,
		log:    log,
	}
}

// IsAbstract reports whether the tree has an unresolved alternative group.
// A tree with no parameter links at all is never abstract.
func (s *AbstractnessService) IsAbstract(ctx context.Context, treeID uuid.UUID) (bool, error) {
	counts, err := s.groups.GroupCountsByTree(ctx, treeID)
	if err != nil {
		return false, err
	}

	for group, count := range counts {
		if count > 1 {
			s.log.Debug("tree is abstract",
				"tree_id", treeID,
				"group_id", group,
				"alternatives", count,
			)
			return true, nil
		}
	}

	return false, nil
}

// UnresolvedGroups returns the groups that currently make the tree
// abstract, for error context on finalize and view creation.
func (s *AbstractnessService) UnresolvedGroups(ctx context.Context, treeID uuid.UUID) ([]string, error) {
	counts, err := s.groups.GroupCountsByTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	var unresolved []string
	for group, count := range counts {
		if count > 1 {
			unresolved = append(unresolved, group)
		}
	}

	return unresolved, nil
}
