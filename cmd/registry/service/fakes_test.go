package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/models"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

// fakeCounter is an in-memory Counter
type fakeCounter struct {
	values map[string]int64
	fail   bool
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: make(map[string]int64)}
}

func (f *fakeCounter) Increment(ctx context.Context, key string) (int64, error) {
	if f.fail {
		return 0, fmt.Errorf("connection refused")
	}
	f.values[key]++
	return f.values[key], nil
}

// fakeAllocator hands out sequential public IDs without redis
type fakeAllocator struct {
	next map[models.EntityType]int64
	fail bool
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{next: make(map[models.EntityType]int64)}
}

func (f *fakeAllocator) NextPublicID(ctx context.Context, workspaceID uuid.UUID, entityType models.EntityType) (string, error) {
	if f.fail {
		return "", fmt.Errorf("allocator down: %w", errs.ErrAllocationUnavailable)
	}
	f.next[entityType]++
	return models.PublicID(entityType, f.next[entityType]), nil
}

// fakeQueue records published events
type fakeQueue struct {
	published []string
}

func (f *fakeQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	f.published = append(f.published, string(message))
	return nil
}

// fakeRequirementStore is an in-memory requirementStore with the same CAS
// and release-immutability semantics as the real repository. Versions in
// the frozen set are treated as members of a finalized release.
type fakeRequirementStore struct {
	versions map[uuid.UUID]*models.RequirementVersion
	heads    map[uuid.UUID]*models.ChainHead
	links    map[uuid.UUID][]uuid.UUID
	frozen   map[uuid.UUID]bool
}

func newFakeRequirementStore() *fakeRequirementStore {
	return &fakeRequirementStore{
		versions: make(map[uuid.UUID]*models.RequirementVersion),
		heads:    make(map[uuid.UUID]*models.ChainHead),
		links:    make(map[uuid.UUID][]uuid.UUID),
		frozen:   make(map[uuid.UUID]bool),
	}
}

func (f *fakeRequirementStore) CreateChain(ctx context.Context, v *models.RequirementVersion, workspaceID uuid.UUID, publicID string) error {
	f.versions[v.ID] = v
	f.heads[v.BaseID] = &models.ChainHead{
		BaseID:        v.BaseID,
		WorkspaceID:   workspaceID,
		HeadID:        v.ID,
		VersionNumber: v.VersionNumber,
		PublicID:      publicID,
	}
	return nil
}

func (f *fakeRequirementStore) AppendVersion(ctx context.Context, v *models.RequirementVersion) error {
	head, ok := f.heads[v.BaseID]
	if !ok || head.DeletedAt != nil {
		return fmt.Errorf("requirement %s: %w", v.BaseID, errs.ErrNotFound)
	}
	if f.frozen[*v.PrevVersionID] {
		return fmt.Errorf("version %s of requirement %s is in a finalized release: %w",
			v.PrevVersionID, v.BaseID, errs.ErrImmutableVersion)
	}
	if head.HeadID != *v.PrevVersionID {
		return fmt.Errorf("append to chain %s: %w", v.BaseID, errs.ErrStaleVersion)
	}
	head.HeadID = v.ID
	head.VersionNumber = v.VersionNumber
	f.versions[v.ID] = v
	return nil
}

func (f *fakeRequirementStore) GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error) {
	head, ok := f.heads[baseID]
	if !ok {
		return nil, fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}
	return head, nil
}

func (f *fakeRequirementStore) GetVersion(ctx context.Context, id uuid.UUID) (*models.RequirementVersion, error) {
	v, ok := f.versions[id]
	if !ok {
		return nil, fmt.Errorf("requirement version %s: %w", id, errs.ErrNotFound)
	}
	return v, nil
}

func (f *fakeRequirementStore) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.RequirementVersion, error) {
	var chain []*models.RequirementVersion
	for _, v := range f.versions {
		if v.BaseID == baseID {
			chain = append(chain, v)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}
	sort.Slice(chain, func(i, j int) bool {
		return chain[i].VersionNumber < chain[j].VersionNumber
	})
	return chain, nil
}

func (f *fakeRequirementStore) ListHeadsByTree(ctx context.Context, treeID uuid.UUID) ([]*models.RequirementVersion, error) {
	var heads []*models.RequirementVersion
	for _, head := range f.heads {
		if head.DeletedAt != nil {
			continue
		}
		v := f.versions[head.HeadID]
		if v != nil && v.TreeID == treeID {
			copied := *v
			copied.PublicID = head.PublicID
			heads = append(heads, &copied)
		}
	}
	sort.Slice(heads, func(i, j int) bool {
		return heads[i].PublicID < heads[j].PublicID
	})
	return heads, nil
}

func (f *fakeRequirementStore) Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]*models.RequirementVersion, error) {
	var results []*models.RequirementVersion
	for _, head := range f.heads {
		if head.WorkspaceID != workspaceID || head.DeletedAt != nil {
			continue
		}
		v := f.versions[head.HeadID]
		if v == nil {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(head.PublicID), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(v.Name), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(v.Definition), strings.ToLower(term)) {
			copied := *v
			copied.PublicID = head.PublicID
			results = append(results, &copied)
		}
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (f *fakeRequirementStore) SoftDelete(ctx context.Context, baseID uuid.UUID) error {
	head, ok := f.heads[baseID]
	if !ok || head.DeletedAt != nil {
		return fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}
	now := time.Now()
	head.DeletedAt = &now
	return nil
}

func (f *fakeRequirementStore) LinkParameter(ctx context.Context, link *models.RequirementParameterLink) error {
	f.links[link.RequirementVersionID] = append(f.links[link.RequirementVersionID], link.ParameterVersionID)
	return nil
}

func (f *fakeRequirementStore) UnlinkParameter(ctx context.Context, requirementVersionID, parameterVersionID uuid.UUID) error {
	linked := f.links[requirementVersionID]
	for i, id := range linked {
		if id == parameterVersionID {
			f.links[requirementVersionID] = append(linked[:i], linked[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("link %s -> %s: %w", requirementVersionID, parameterVersionID, errs.ErrNotFound)
}

// fakeParameterStore is an in-memory parameterStore that also serves as
// parameterLookup and groupCounter.
type fakeParameterStore struct {
	versions map[uuid.UUID]*models.ParameterVersion
	heads    map[uuid.UUID]*models.ChainHead
	counts   map[string]int
	frozen   map[uuid.UUID]bool
}

func newFakeParameterStore() *fakeParameterStore {
	return &fakeParameterStore{
		versions: make(map[uuid.UUID]*models.ParameterVersion),
		heads:    make(map[uuid.UUID]*models.ChainHead),
		counts:   make(map[string]int),
		frozen:   make(map[uuid.UUID]bool),
	}
}

func (f *fakeParameterStore) add(p *models.ParameterVersion) {
	f.versions[p.ID] = p
}

func (f *fakeParameterStore) CreateChain(ctx context.Context, p *models.ParameterVersion, workspaceID uuid.UUID) error {
	f.versions[p.ID] = p
	f.heads[p.BaseID] = &models.ChainHead{
		BaseID:        p.BaseID,
		WorkspaceID:   workspaceID,
		HeadID:        p.ID,
		VersionNumber: p.VersionNumber,
	}
	return nil
}

func (f *fakeParameterStore) AppendVersion(ctx context.Context, p *models.ParameterVersion) error {
	head, ok := f.heads[p.BaseID]
	if !ok || head.DeletedAt != nil {
		return fmt.Errorf("parameter %s: %w", p.BaseID, errs.ErrNotFound)
	}
	if f.frozen[*p.PrevVersionID] {
		return fmt.Errorf("version %s of parameter %s is in a finalized release: %w",
			p.PrevVersionID, p.BaseID, errs.ErrImmutableVersion)
	}
	if head.HeadID != *p.PrevVersionID {
		return fmt.Errorf("append to chain %s: %w", p.BaseID, errs.ErrStaleVersion)
	}
	head.HeadID = p.ID
	head.VersionNumber = p.VersionNumber
	f.versions[p.ID] = p
	return nil
}

func (f *fakeParameterStore) GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error) {
	head, ok := f.heads[baseID]
	if !ok {
		return nil, fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}
	return head, nil
}

func (f *fakeParameterStore) GetVersion(ctx context.Context, id uuid.UUID) (*models.ParameterVersion, error) {
	p, ok := f.versions[id]
	if !ok {
		return nil, fmt.Errorf("parameter version %s: %w", id, errs.ErrNotFound)
	}
	return p, nil
}

func (f *fakeParameterStore) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.ParameterVersion, error) {
	var chain []*models.ParameterVersion
	for _, p := range f.versions {
		if p.BaseID == baseID {
			chain = append(chain, p)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}
	sort.Slice(chain, func(i, j int) bool {
		return chain[i].VersionNumber < chain[j].VersionNumber
	})
	return chain, nil
}

func (f *fakeParameterStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, groupID string) ([]*models.ParameterVersion, error) {
	var result []*models.ParameterVersion
	for _, head := range f.heads {
		if head.WorkspaceID != workspaceID || head.DeletedAt != nil {
			continue
		}
		p := f.versions[head.HeadID]
		if p != nil && (groupID == "" || p.GroupID == groupID) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeParameterStore) GroupCountsByTree(ctx context.Context, treeID uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int, len(f.counts))
	for group, n := range f.counts {
		counts[group] = n
	}
	return counts, nil
}

func (f *fakeParameterStore) SoftDelete(ctx context.Context, baseID uuid.UUID) error {
	head, ok := f.heads[baseID]
	if !ok || head.DeletedAt != nil {
		return fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}
	now := time.Now()
	head.DeletedAt = &now
	return nil
}

// fakeViewStore records created views
type fakeViewStore struct {
	views      map[uuid.UUID]*models.ReqTreeView
	selections map[uuid.UUID][]models.ViewSelection
	members    map[uuid.UUID][]uuid.UUID
	versions   *fakeRequirementStore
}

func newFakeViewStore(versions *fakeRequirementStore) *fakeViewStore {
	return &fakeViewStore{
		views:      make(map[uuid.UUID]*models.ReqTreeView),
		selections: make(map[uuid.UUID][]models.ViewSelection),
		members:    make(map[uuid.UUID][]uuid.UUID),
		versions:   versions,
	}
}

func (f *fakeViewStore) Create(ctx context.Context, view *models.ReqTreeView, selections []models.ViewSelection, memberVersionIDs []uuid.UUID) error {
	f.views[view.ID] = view
	f.selections[view.ID] = selections
	f.members[view.ID] = memberVersionIDs
	return nil
}

func (f *fakeViewStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ReqTreeView, error) {
	view, ok := f.views[id]
	if !ok {
		return nil, fmt.Errorf("view %s: %w", id, errs.ErrNotFound)
	}
	return view, nil
}

func (f *fakeViewStore) ListByTree(ctx context.Context, treeID uuid.UUID) ([]*models.ReqTreeView, error) {
	var result []*models.ReqTreeView
	for _, view := range f.views {
		if view.TreeID == treeID {
			result = append(result, view)
		}
	}
	return result, nil
}

func (f *fakeViewStore) GetSelections(ctx context.Context, viewID uuid.UUID) ([]models.ViewSelection, error) {
	return f.selections[viewID], nil
}

func (f *fakeViewStore) GetMemberVersions(ctx context.Context, viewID uuid.UUID) ([]*models.RequirementVersion, error) {
	var result []*models.RequirementVersion
	for _, id := range f.members[viewID] {
		if v, ok := f.versions.versions[id]; ok {
			result = append(result, v)
		}
	}
	return result, nil
}

// fakeReleaseStore is an in-memory releaseStore with the real repository's
// transactional semantics: membership writes check the draft flag, and
// Finalize re-evaluates group abstractness at the moment it commits. The
// beforeFinalize hook runs between the draft check and the abstractness
// check, where a concurrent writer would interleave.
type fakeReleaseStore struct {
	releases       map[uuid.UUID]*models.Release
	members        map[uuid.UUID][]*models.ReleaseMember
	params         *fakeParameterStore
	treeIDs        []uuid.UUID
	beforeFinalize func()
}

func newFakeReleaseStore(params *fakeParameterStore) *fakeReleaseStore {
	return &fakeReleaseStore{
		releases: make(map[uuid.UUID]*models.Release),
		members:  make(map[uuid.UUID][]*models.ReleaseMember),
		params:   params,
	}
}

func (f *fakeReleaseStore) Create(ctx context.Context, r *models.Release) error {
	f.releases[r.ID] = r
	return nil
}

func (f *fakeReleaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Release, error) {
	r, ok := f.releases[id]
	if !ok {
		return nil, fmt.Errorf("release %s: %w", id, errs.ErrNotFound)
	}
	return r, nil
}

func (f *fakeReleaseStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Release, error) {
	var result []*models.Release
	for _, r := range f.releases {
		if r.WorkspaceID == workspaceID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeReleaseStore) SetPrevRelease(ctx context.Context, id uuid.UUID, prevID *uuid.UUID) error {
	r, ok := f.releases[id]
	if !ok {
		return fmt.Errorf("release %s: %w", id, errs.ErrNotFound)
	}
	if !r.Draft {
		return fmt.Errorf("release %s is final: %w", id, errs.ErrImmutableVersion)
	}
	r.PrevReleaseID = prevID
	return nil
}

func (f *fakeReleaseStore) Finalize(ctx context.Context, id uuid.UUID) error {
	r, ok := f.releases[id]
	if !ok {
		return fmt.Errorf("release %s: %w", id, errs.ErrNotFound)
	}
	if !r.Draft {
		return fmt.Errorf("release %s already finalized: %w", id, errs.ErrImmutableVersion)
	}

	if f.beforeFinalize != nil {
		f.beforeFinalize()
	}

	if len(f.treeIDs) > 0 {
		var groups []string
		for group, n := range f.params.counts {
			if n > 1 {
				groups = append(groups, group)
			}
		}
		if len(groups) > 0 {
			sort.Strings(groups)
			return fmt.Errorf("release %s has unresolved groups [%s]: %w",
				id, strings.Join(groups, ", "), errs.ErrAbstractTree)
		}
	}

	now := time.Now()
	r.Draft = false
	r.FinalizedAt = &now
	return nil
}

func (f *fakeReleaseStore) AddMember(ctx context.Context, m *models.ReleaseMember) error {
	r, ok := f.releases[m.ReleaseID]
	if !ok {
		return fmt.Errorf("release %s: %w", m.ReleaseID, errs.ErrNotFound)
	}
	if !r.Draft {
		return fmt.Errorf("release %s is final: %w", m.ReleaseID, errs.ErrImmutableVersion)
	}
	f.members[m.ReleaseID] = append(f.members[m.ReleaseID], m)
	return nil
}

func (f *fakeReleaseStore) RemoveMember(ctx context.Context, releaseID, versionID uuid.UUID) error {
	r, ok := f.releases[releaseID]
	if !ok {
		return fmt.Errorf("release %s: %w", releaseID, errs.ErrNotFound)
	}
	if !r.Draft {
		return fmt.Errorf("release %s is final: %w", releaseID, errs.ErrImmutableVersion)
	}
	members := f.members[releaseID]
	for i, m := range members {
		if m.VersionID == versionID {
			f.members[releaseID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("member %s: %w", versionID, errs.ErrNotFound)
}

func (f *fakeReleaseStore) ListMembers(ctx context.Context, releaseID uuid.UUID) ([]*models.ReleaseMember, error) {
	return f.members[releaseID], nil
}

// fakeNotifier records redis channel publishes
type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) PublishEvent(ctx context.Context, channel string, message string) error {
	f.messages = append(f.messages, message)
	return nil
}
