package storage

import (
	"context"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	// GetGroup returns the group with the given id, or domain.ErrNotFound.
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	// ListGroups returns groups matching the filter set. A nil set
	// matches everything.
	ListGroups(ctx context.Context, fs *filter.FilterSet) ([]*domain.Group, error)
	// ListGroupsForUser returns every group the user holds a membership in.
	ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error)
	// CreateGroup inserts a group, or domain.ErrAlreadyExists.
	CreateGroup(ctx context.Context, group *domain.Group) error
	// CreateGroups inserts several groups, or domain.ErrAlreadyExists.
	CreateGroups(ctx context.Context, groups []*domain.Group) error
	// UpdateGroup persists the group. With a field list only the named
	// fields are written; otherwise everything except id and created_at.
	UpdateGroup(ctx context.Context, group *domain.Group, fields ...string) error
	// DeleteGroup removes the group with the given id.
	DeleteGroup(ctx context.Context, id string) error
}

// GroupMemberRepository defines persistence operations for memberships.
// The (user_id, group_id) pair is unique; implementations enforce this
// with a constraint, which is the race-safe authority behind the
// service-level existence checks.
type GroupMemberRepository interface {
	GetMember(ctx context.Context, id string) (*domain.GroupMember, error)
	ListMembers(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupMember, error)
	CreateMember(ctx context.Context, member *domain.GroupMember) error
	CreateMembers(ctx context.Context, members []*domain.GroupMember) error
	UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error
	DeleteMember(ctx context.Context, id string) error
	// GetMemberByUserAndGroup returns the user's membership in the
	// group, or domain.ErrNotFound.
	GetMemberByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupMember, error)
	// DeleteMembersByGroup removes every membership of the group.
	DeleteMembersByGroup(ctx context.Context, groupID string) error
}

// GroupRequestRepository defines persistence operations for join
// requests. At most one pending request exists per (user_id, group_id)
// pair, enforced by a constraint.
type GroupRequestRepository interface {
	GetRequest(ctx context.Context, id string) (*domain.GroupRequest, error)
	ListRequests(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupRequest, error)
	CreateRequest(ctx context.Context, request *domain.GroupRequest) error
	CreateRequests(ctx context.Context, requests []*domain.GroupRequest) error
	UpdateRequest(ctx context.Context, request *domain.GroupRequest, fields ...string) error
	DeleteRequest(ctx context.Context, id string) error
	// GetPendingRequestByUserAndGroup returns the user's pending request
	// for the group, or domain.ErrNotFound.
	GetPendingRequestByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupRequest, error)
	// DeleteRequestsByGroup removes every request for the group.
	DeleteRequestsByGroup(ctx context.Context, groupID string) error
}

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	GroupRepository
	GroupMemberRepository
	GroupRequestRepository

	// BeginTx starts a transaction. Writes inside the transaction become
	// visible atomically on Commit and are discarded on Rollback.
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}
