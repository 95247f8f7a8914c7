package errs

import "errors"

// Domain error taxonomy. Every repository/service error that a caller can act
// on wraps one of these sentinels so handlers can map it with errors.Is.
var (
	// ErrAllocationUnavailable means the workspace counter backend is
	// unreachable. Retryable; no entity may be created without an ID.
	ErrAllocationUnavailable = errors.New("public id allocation unavailable")

	// ErrStaleVersion means a concurrent edit advanced the chain head first.
	// Caller should refetch the head and retry.
	ErrStaleVersion = errors.New("stale version: chain head has moved")

	// ErrImmutableVersion means the target version belongs to a finalized
	// release and can no longer be edited.
	ErrImmutableVersion = errors.New("version is immutable")

	// ErrIncompleteSelection means a reachable alternative group has no
	// selection (or a selection references an unreachable group).
	ErrIncompleteSelection = errors.New("incomplete parameter selection")

	// ErrAmbiguousSelection means more than one parameter was selected for a
	// single alternative group.
	ErrAmbiguousSelection = errors.New("ambiguous parameter selection")

	// ErrAbstractTree means a release finalize was blocked because a member
	// requirement's tree still has an unresolved alternative group.
	ErrAbstractTree = errors.New("requirement tree is abstract")

	// ErrCyclicReleaseHistory means the proposed prev_release link would make
	// the release history cyclic.
	ErrCyclicReleaseHistory = errors.New("cyclic release history")

	// ErrInvalidArgument covers malformed caller input outside the selection
	// errors: bad patches, uncompilable rules, unknown entity types.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is the generic lookup miss.
	ErrNotFound = errors.New("not found")
)
