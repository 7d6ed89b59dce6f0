package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
	"github.com/dklimov/circles/internal/storage"
)

// Store is an in-memory implementation of the storage interface for
// testing. It enforces the same uniqueness constraints as the SQL
// schema: one membership per (user_id, group_id) pair and one pending
// request per pair.
type Store struct {
	mu sync.RWMutex

	groups   map[string]*domain.Group        // key: id
	members  map[string]*domain.GroupMember  // key: id
	requests map[string]*domain.GroupRequest // key: id
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		groups:   make(map[string]*domain.Group),
		members:  make(map[string]*domain.GroupMember),
		requests: make(map[string]*domain.GroupRequest),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{store: s}, nil
}

// Groups

func (s *Store) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *group
	return &cp, nil
}

func (s *Store) ListGroups(ctx context.Context, fs *filter.FilterSet) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*domain.Group
	for _, group := range s.groups {
		if fs.Match(group) {
			cp := *group
			groups = append(groups, &cp)
		}
	}
	sortByCreatedAt(groups, func(g *domain.Group) (time.Time, string) {
		return g.CreatedAt, g.ID
	})
	return groups, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*domain.Group
	for _, member := range s.members {
		if member.UserID != userID {
			continue
		}
		if group, ok := s.groups[member.GroupID]; ok {
			cp := *group
			groups = append(groups, &cp)
		}
	}
	sortByCreatedAt(groups, func(g *domain.Group) (time.Time, string) {
		return g.CreatedAt, g.ID
	})
	return groups, nil
}

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGroupLocked(group)
}

func (s *Store) CreateGroups(ctx context.Context, groups []*domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range groups {
		if err := s.createGroupLocked(group); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createGroupLocked(group *domain.Group) error {
	if _, ok := s.groups[group.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (s *Store) UpdateGroup(ctx context.Context, group *domain.Group, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

// Members

func (s *Store) GetMember(ctx context.Context, id string) (*domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *member
	return &cp, nil
}

func (s *Store) ListMembers(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*domain.GroupMember
	for _, member := range s.members {
		if fs.Match(member) {
			cp := *member
			members = append(members, &cp)
		}
	}
	sortByCreatedAt(members, func(m *domain.GroupMember) (time.Time, string) {
		return m.CreatedAt, m.ID
	})
	return members, nil
}

func (s *Store) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createMemberLocked(member)
}

func (s *Store) CreateMembers(ctx context.Context, members []*domain.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, member := range members {
		if err := s.createMemberLocked(member); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createMemberLocked(member *domain.GroupMember) error {
	if _, ok := s.members[member.ID]; ok {
		return domain.ErrAlreadyExists
	}
	// Mirror of the UNIQUE(user_id, group_id) constraint.
	for _, existing := range s.members {
		if existing.UserID == member.UserID && existing.GroupID == member.GroupID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[member.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *Store) GetMemberByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, member := range s.members {
		if member.UserID == userID && member.GroupID == groupID {
			cp := *member
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) DeleteMembersByGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, member := range s.members {
		if member.GroupID == groupID {
			delete(s.members, id)
		}
	}
	return nil
}

// Requests

func (s *Store) GetRequest(ctx context.Context, id string) (*domain.GroupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *request
	return &cp, nil
}

func (s *Store) ListRequests(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []*domain.GroupRequest
	for _, request := range s.requests {
		if fs.Match(request) {
			cp := *request
			requests = append(requests, &cp)
		}
	}
	sortByCreatedAt(requests, func(r *domain.GroupRequest) (time.Time, string) {
		return r.CreatedAt, r.ID
	})
	return requests, nil
}

func (s *Store) CreateRequest(ctx context.Context, request *domain.GroupRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRequestLocked(request)
}

func (s *Store) CreateRequests(ctx context.Context, requests []*domain.GroupRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, request := range requests {
		if err := s.createRequestLocked(request); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createRequestLocked(request *domain.GroupRequest) error {
	if _, ok := s.requests[request.ID]; ok {
		return domain.ErrAlreadyExists
	}
	// Mirror of the partial unique index on pending requests.
	if request.Status == domain.RequestPending {
		for _, existing := range s.requests {
			if existing.UserID == request.UserID &&
				existing.GroupID == request.GroupID &&
				existing.Status == domain.RequestPending {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, request *domain.GroupRequest, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *Store) GetPendingRequestByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, request := range s.requests {
		if request.UserID == userID && request.GroupID == groupID && request.Status == domain.RequestPending {
			cp := *request
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) DeleteRequestsByGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, request := range s.requests {
		if request.GroupID == groupID {
			delete(s.requests, id)
		}
	}
	return nil
}

// sortByCreatedAt orders entities by creation time, falling back to id
// so listings are deterministic.
func sortByCreatedAt[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ci, idi := key(items[i])
		cj, idj := key(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return idi < idj
	})
}

// Tx is a no-op transaction for the in-memory store. Writes apply
// immediately; Commit and Rollback do nothing.
type Tx struct {
	store *Store
}

func (t *Tx) Commit() error   { return nil }
func (t *Tx) Rollback() error { return nil }
func (t *Tx) Close() error    { return nil }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, domain.ErrInvalidInput
}

// Forward all Tx methods to the underlying store.

func (t *Tx) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return t.store.GetGroup(ctx, id)
}
func (t *Tx) ListGroups(ctx context.Context, fs *filter.FilterSet) ([]*domain.Group, error) {
	return t.store.ListGroups(ctx, fs)
}
func (t *Tx) ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return t.store.ListGroupsForUser(ctx, userID)
}
func (t *Tx) CreateGroup(ctx context.Context, group *domain.Group) error {
	return t.store.CreateGroup(ctx, group)
}
func (t *Tx) CreateGroups(ctx context.Context, groups []*domain.Group) error {
	return t.store.CreateGroups(ctx, groups)
}
func (t *Tx) UpdateGroup(ctx context.Context, group *domain.Group, fields ...string) error {
	return t.store.UpdateGroup(ctx, group, fields...)
}
func (t *Tx) DeleteGroup(ctx context.Context, id string) error {
	return t.store.DeleteGroup(ctx, id)
}
func (t *Tx) GetMember(ctx context.Context, id string) (*domain.GroupMember, error) {
	return t.store.GetMember(ctx, id)
}
func (t *Tx) ListMembers(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupMember, error) {
	return t.store.ListMembers(ctx, fs)
}
func (t *Tx) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	return t.store.CreateMember(ctx, member)
}
func (t *Tx) CreateMembers(ctx context.Context, members []*domain.GroupMember) error {
	return t.store.CreateMembers(ctx, members)
}
func (t *Tx) UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error {
	return t.store.UpdateMember(ctx, member, fields...)
}
func (t *Tx) DeleteMember(ctx context.Context, id string) error {
	return t.store.DeleteMember(ctx, id)
}
func (t *Tx) GetMemberByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupMember, error) {
	return t.store.GetMemberByUserAndGroup(ctx, userID, groupID)
}
func (t *Tx) DeleteMembersByGroup(ctx context.Context, groupID string) error {
	return t.store.DeleteMembersByGroup(ctx, groupID)
}
func (t *Tx) GetRequest(ctx context.Context, id string) (*domain.GroupRequest, error) {
	return t.store.GetRequest(ctx, id)
}
func (t *Tx) ListRequests(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupRequest, error) {
	return t.store.ListRequests(ctx, fs)
}
func (t *Tx) CreateRequest(ctx context.Context, request *domain.GroupRequest) error {
	return t.store.CreateRequest(ctx, request)
}
func (t *Tx) CreateRequests(ctx context.Context, requests []*domain.GroupRequest) error {
	return t.store.CreateRequests(ctx, requests)
}
func (t *Tx) UpdateRequest(ctx context.Context, request *domain.GroupRequest, fields ...string) error {
	return t.store.UpdateRequest(ctx, request, fields...)
}
func (t *Tx) DeleteRequest(ctx context.Context, id string) error {
	return t.store.DeleteRequest(ctx, id)
}
func (t *Tx) GetPendingRequestByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupRequest, error) {
	return t.store.GetPendingRequestByUserAndGroup(ctx, userID, groupID)
}
func (t *Tx) DeleteRequestsByGroup(ctx context.Context, groupID string) error {
	return t.store.DeleteRequestsByGroup(ctx, groupID)
}
