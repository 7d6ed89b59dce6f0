// Package service implements the group membership use cases: creating
// and managing groups, admitting members directly or through join
// requests, promoting admins, transferring ownership and removing
// members, all gated by role-based permission rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
	"github.com/dklimov/circles/internal/storage"
	"github.com/dklimov/circles/internal/validation"
	"github.com/google/uuid"
)

// GroupService orchestrates all group operations. It holds no state of
// its own; everything lives behind the storage interface, and the
// storage layer's uniqueness constraints are the race-safe authority
// behind every service-level existence check.
type GroupService struct {
	store storage.Storage
}

// NewGroupService creates a new GroupService.
func NewGroupService(store storage.Storage) *GroupService {
	return &GroupService{store: store}
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *GroupService) withTx(ctx context.Context, fn func(tx storage.Transaction) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// findMember looks up a user's membership in a group, distinguishing
// absence from failure.
func findMember(ctx context.Context, store storage.Storage, userID, groupID string) (*domain.GroupMember, bool, error) {
	member, err := store.GetMemberByUserAndGroup(ctx, userID, groupID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return member, true, nil
}

// findPendingRequest looks up a user's pending join request for a group,
// distinguishing absence from failure.
func findPendingRequest(ctx context.Context, store storage.Storage, userID, groupID string) (*domain.GroupRequest, bool, error) {
	request, err := store.GetPendingRequestByUserAndGroup(ctx, userID, groupID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return request, true, nil
}

// CreateGroup creates a group and its owner membership for the creator.
// Both writes happen in one transaction so a failed member insert never
// leaves an ownerless group behind.
func (s *GroupService) CreateGroup(ctx context.Context, userID string, params domain.CreateGroupParams) (*domain.Group, error) {
	var errs validation.ValidationErrors
	if err := validation.ValidateGroupName(params.Name); err != nil {
		errs.Add("name", params.Name, err.Error())
	}
	if err := validation.ValidateGroupDescription(params.Description); err != nil {
		errs.Add("description", "", err.Error())
	}
	if errs.HasErrors() {
		return nil, errs
	}

	now := time.Now()
	group := &domain.Group{
		ID:          uuid.New().String(),
		Name:        params.Name,
		Description: params.Description,
		IsPrivate:   params.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &domain.GroupMember{
		ID:        uuid.New().String(),
		UserID:    userID,
		GroupID:   group.ID,
		IsAdmin:   false,
		IsOwner:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.withTx(ctx, func(tx storage.Transaction) error {
		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		return tx.CreateMember(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup applies a partial update to a group. Only the owner may
// update; only the fields present in params are persisted.
func (s *GroupService) UpdateGroup(ctx context.Context, requestUserID, groupID string, params domain.UpdateGroupParams) (*domain.Group, error) {
	var errs validation.ValidationErrors
	if params.Name != nil {
		if err := validation.ValidateGroupName(*params.Name); err != nil {
			errs.Add("name", *params.Name, err.Error())
		}
	}
	if params.Description != nil {
		if err := validation.ValidateGroupDescription(*params.Description); err != nil {
			errs.Add("description", "", err.Error())
		}
	}
	if errs.HasErrors() {
		return nil, errs
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotMember
	}
	if !member.IsOwner {
		return nil, domain.ErrNotOwner
	}

	var fields []string
	if params.Name != nil {
		group.Name = *params.Name
		fields = append(fields, "name")
	}
	if params.Description != nil {
		group.Description = *params.Description
		fields = append(fields, "description")
	}
	if params.IsPrivate != nil {
		group.IsPrivate = *params.IsPrivate
		fields = append(fields, "is_private")
	}
	if len(fields) == 0 {
		return group, nil
	}

	group.UpdatedAt = time.Now()
	if err := s.store.UpdateGroup(ctx, group, fields...); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup deletes a group with all its memberships and join
// requests. Only the owner may delete. The cascade runs members first,
// then requests, then the group, inside one transaction.
func (s *GroupService) DeleteGroup(ctx context.Context, requestUserID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	if !member.IsOwner {
		return domain.ErrNotOwner
	}

	return s.withTx(ctx, func(tx storage.Transaction) error {
		if err := tx.DeleteMembersByGroup(ctx, group.ID); err != nil {
			return err
		}
		if err := tx.DeleteRequestsByGroup(ctx, group.ID); err != nil {
			return err
		}
		return tx.DeleteGroup(ctx, group.ID)
	})
}

// GetGroup returns a group by id. Visibility of private groups is not
// gated here; see DESIGN.md.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups returns all groups matching the given conditions.
func (s *GroupService) ListGroups(ctx context.Context, in filter.GroupInput) ([]*domain.Group, error) {
	return s.store.ListGroups(ctx, in.FilterSet())
}

// ListGroupsForUser returns every group the user is a member of.
func (s *GroupService) ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// CreateGroupRequest creates a pending join request for the user. A user
// cannot request twice while a request is pending, and members cannot
// request at all. The partial unique index on pending requests backs
// the pre-checks under concurrency.
func (s *GroupService) CreateGroupRequest(ctx context.Context, userID, groupID string, params domain.CreateRequestParams) (*domain.GroupRequest, error) {
	if err := validation.ValidateRequestMessage(params.Message); err != nil {
		return nil, validation.NewValidationError("message", "", err.Error())
	}

	if _, ok, err := findPendingRequest(ctx, s.store, userID, groupID); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrAlreadyRequested
	}

	if _, ok, err := findMember(ctx, s.store, userID, groupID); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrAlreadyMember
	}

	now := time.Now()
	request := &domain.GroupRequest{
		ID:        uuid.New().String(),
		UserID:    userID,
		GroupID:   groupID,
		Message:   params.Message,
		Status:    domain.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyRequested
		}
		return nil, err
	}
	return request, nil
}

// UpdateGroupRequest resolves a pending join request to accepted or
// declined. Only an owner or admin of the group may resolve requests.
// Acceptance admits the requester as a plain member in the same
// transaction as the status change.
func (s *GroupService) UpdateGroupRequest(ctx context.Context, requestUserID, groupID, requestID string, status domain.RequestStatus) error {
	if err := validation.ValidateRequestResolution(string(status)); err != nil {
		return validation.NewValidationError("status", string(status), err.Error())
	}

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.GroupID != groupID {
		return fmt.Errorf("invalid request id: %w", domain.ErrNotFound)
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	if !member.IsOwner && !member.IsAdmin {
		return domain.ErrNotOwnerOrAdmin
	}

	if request.Status != domain.RequestPending {
		return domain.ErrRequestNotPending
	}

	return s.withTx(ctx, func(tx storage.Transaction) error {
		request.Status = status
		request.UpdatedAt = time.Now()
		if err := tx.UpdateRequest(ctx, request, "status"); err != nil {
			return err
		}
		if status == domain.RequestDeclined {
			return nil
		}
		_, err := createMember(ctx, tx, domain.CreateMemberParams{
			UserID:  request.UserID,
			GroupID: request.GroupID,
		})
		return err
	})
}

// DeleteGroupRequest withdraws a pending join request. Only its author
// may withdraw it; a request belonging to another group or another user
// is reported as not found so existence is not leaked.
func (s *GroupService) DeleteGroupRequest(ctx context.Context, requestUserID, groupID, requestID string) error {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.GroupID != groupID {
		return fmt.Errorf("invalid request id: %w", domain.ErrNotFound)
	}
	if request.UserID != requestUserID {
		return fmt.Errorf("invalid request id: %w", domain.ErrNotFound)
	}
	if request.Status != domain.RequestPending {
		return domain.ErrRequestNotPending
	}
	return s.store.DeleteRequest(ctx, request.ID)
}

// GetGroupRequest returns a join request. Owners and admins of the group
// see every request; everyone else sees only their own.
func (s *GroupService) GetGroupRequest(ctx context.Context, requestUserID, groupID, requestID string) (*domain.GroupRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.GroupID != groupID {
		return nil, fmt.Errorf("invalid request id: %w", domain.ErrNotFound)
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return nil, err
	}
	if ok {
		if !member.IsAdmin && !member.IsOwner {
			return nil, domain.ErrNotOwnerOrAdmin
		}
	} else if request.UserID != requestUserID {
		return nil, domain.ErrNotRequestOwner
	}

	return request, nil
}

// ListGroupRequestsForGroup returns the pending join requests of a
// group. Owners and admins see all of them; for anyone else the caller's
// user id becomes an implicit filter, so a non-member sees only their
// own submissions.
func (s *GroupService) ListGroupRequestsForGroup(ctx context.Context, requestUserID, groupID string) ([]*domain.GroupRequest, error) {
	pending := string(domain.RequestPending)
	in := filter.RequestInput{
		GroupIDEq: &groupID,
		StatusEq:  &pending,
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok || (!member.IsAdmin && !member.IsOwner) {
		in.UserIDEq = &requestUserID
	}

	return s.store.ListRequests(ctx, in.FilterSet())
}

// ListGroupRequestsForUser returns the user's own pending join requests
// across all groups.
func (s *GroupService) ListGroupRequestsForUser(ctx context.Context, userID string) ([]*domain.GroupRequest, error) {
	pending := string(domain.RequestPending)
	in := filter.RequestInput{
		UserIDEq: &userID,
		StatusEq: &pending,
	}
	return s.store.ListRequests(ctx, in.FilterSet())
}

// createMember inserts a membership after checking that the group exists
// and the user is not already a member. The UNIQUE(user_id, group_id)
// constraint catches the race where two inserts pass the check at once.
func createMember(ctx context.Context, store storage.Storage, params domain.CreateMemberParams) (*domain.GroupMember, error) {
	if _, err := store.GetGroup(ctx, params.GroupID); err != nil {
		return nil, err
	}

	if _, ok, err := findMember(ctx, store, params.UserID, params.GroupID); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrAlreadyMember
	}

	now := time.Now()
	member := &domain.GroupMember{
		ID:        uuid.New().String(),
		UserID:    params.UserID,
		GroupID:   params.GroupID,
		IsAdmin:   params.IsAdmin,
		IsOwner:   params.IsOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateMember(ctx, member); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}
	return member, nil
}

// CreateGroupMember admits a user into a group directly with the role
// flags given in params.
func (s *GroupService) CreateGroupMember(ctx context.Context, params domain.CreateMemberParams) (*domain.GroupMember, error) {
	return createMember(ctx, s.store, params)
}

// UpdateGroupMember grants or revokes a member's admin flag. Only the
// owner may do this. Setting the flag to its current value performs no
// write.
func (s *GroupService) UpdateGroupMember(ctx context.Context, requestUserID, groupID, memberID string, isAdmin bool) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	if !member.IsOwner {
		return domain.ErrNotOwner
	}

	target, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if target.GroupID != groupID {
		return fmt.Errorf("invalid member id: %w", domain.ErrNotFound)
	}
	if target.IsAdmin == isAdmin {
		return nil
	}

	target.IsAdmin = isAdmin
	target.UpdatedAt = time.Now()
	return s.store.UpdateMember(ctx, target, "is_admin")
}

// ChangeGroupOwner transfers ownership from the caller to another
// member. Both flag flips happen in one transaction so the group never
// has zero or two owners. Transferring to oneself is rejected.
func (s *GroupService) ChangeGroupOwner(ctx context.Context, requestUserID, groupID, memberID string) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}

	target, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if target.GroupID != groupID {
		return fmt.Errorf("invalid member id: %w", domain.ErrNotFound)
	}

	if !member.IsOwner {
		return domain.ErrNotOwner
	}
	if target.UserID == requestUserID {
		return domain.ErrAlreadyOwner
	}

	return s.withTx(ctx, func(tx storage.Transaction) error {
		now := time.Now()
		member.IsOwner = false
		member.UpdatedAt = now
		target.IsOwner = true
		target.UpdatedAt = now

		if err := tx.UpdateMember(ctx, member, "is_owner"); err != nil {
			return err
		}
		return tx.UpdateMember(ctx, target, "is_owner")
	})
}

// DeleteGroupMember removes a member from a group. Owners and admins may
// remove plain members; only the owner may remove an admin; the owner
// can never be removed.
func (s *GroupService) DeleteGroupMember(ctx context.Context, requestUserID, groupID, memberID string) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}

	member, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	if !member.IsAdmin && !member.IsOwner {
		return domain.ErrNotOwnerOrAdmin
	}

	target, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if target.GroupID != groupID {
		return fmt.Errorf("invalid member id: %w", domain.ErrNotFound)
	}
	if target.IsOwner {
		return domain.ErrCannotDeleteOwner
	}
	if target.IsAdmin && !member.IsOwner {
		return domain.ErrNotOwner
	}

	return s.store.DeleteMember(ctx, target.ID)
}

// LeaveGroup removes the caller's own membership. The owner must
// transfer ownership before leaving.
func (s *GroupService) LeaveGroup(ctx context.Context, requestUserID, groupID string) error {
	member, err := s.store.GetMemberByUserAndGroup(ctx, requestUserID, groupID)
	if err != nil {
		return err
	}
	if member.IsOwner {
		return domain.ErrCannotLeaveAsOwner
	}
	return s.store.DeleteMember(ctx, member.ID)
}

// GetGroupMember returns a member of a group. Members of a private group
// are visible only to other members; public groups are visible to
// anyone.
func (s *GroupService) GetGroupMember(ctx context.Context, requestUserID, groupID, memberID string) (*domain.GroupMember, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	_, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok && group.IsPrivate {
		return nil, domain.ErrNotMember
	}

	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.GroupID != groupID {
		return nil, fmt.Errorf("invalid member id: %w", domain.ErrNotFound)
	}
	return member, nil
}

// ListGroupMembers returns the members of a group matching the given
// conditions, under the same privacy gate as GetGroupMember.
func (s *GroupService) ListGroupMembers(ctx context.Context, requestUserID, groupID string, in filter.MemberInput) ([]*domain.GroupMember, error) {
	in.GroupIDEq = &groupID
	in.UserIDEq = nil

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	_, ok, err := findMember(ctx, s.store, requestUserID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok && group.IsPrivate {
		return nil, domain.ErrNotMember
	}

	return s.store.ListMembers(ctx, in.FilterSet())
}
