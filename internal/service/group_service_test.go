package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
	"github.com/dklimov/circles/internal/storage"
	"github.com/dklimov/circles/internal/storage/memory"
	"github.com/dklimov/circles/internal/validation"
)

func newTestService(t *testing.T) *GroupService {
	t.Helper()
	return NewGroupService(memory.New())
}

func createTestGroup(t *testing.T, svc *GroupService, userID, name string, private bool) *domain.Group {
	t.Helper()
	group, err := svc.CreateGroup(context.Background(), userID, domain.CreateGroupParams{
		Name:      name,
		IsPrivate: private,
	})
	if err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}
	return group
}

func addTestMember(t *testing.T, svc *GroupService, userID, groupID string, isAdmin bool) *domain.GroupMember {
	t.Helper()
	member, err := svc.CreateGroupMember(context.Background(), domain.CreateMemberParams{
		UserID:  userID,
		GroupID: groupID,
		IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
	return member
}

func listOwners(t *testing.T, svc *GroupService, userID, groupID string) []*domain.GroupMember {
	t.Helper()
	isOwner := true
	owners, err := svc.ListGroupMembers(context.Background(), userID, groupID, filter.MemberInput{IsOwnerEq: &isOwner})
	if err != nil {
		t.Fatalf("Failed to list owners: %v", err)
	}
	return owners
}

func TestCreateGroup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	group := createTestGroup(t, svc, "alice", "Hikers", false)
	if group.ID == "" {
		t.Error("Expected group to have an id")
	}
	if group.Name != "Hikers" {
		t.Errorf("Unexpected group name: %q", group.Name)
	}

	members, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(members))
	}
	if members[0].UserID != "alice" || !members[0].IsOwner || members[0].IsAdmin {
		t.Errorf("Expected creator to be a non-admin owner, got %+v", members[0])
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, "alice", domain.CreateGroupParams{Name: ""})
	if err == nil {
		t.Fatal("Expected error for empty name")
	}
	var errs validation.ValidationErrors
	if !errors.As(err, &errs) {
		t.Errorf("Expected validation errors, got %T", err)
	}
}

func TestUpdateGroup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)

	desc := "weekend hikes"
	updated, err := svc.UpdateGroup(ctx, "alice", group.ID, domain.UpdateGroupParams{Description: &desc})
	if err != nil {
		t.Fatalf("Failed to update group: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("Unexpected description: %q", updated.Description)
	}
	if updated.Name != "Hikers" {
		t.Errorf("Expected untouched field to survive, got name %q", updated.Name)
	}

	got, err := svc.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("Failed to get group: %v", err)
	}
	if got.Description != desc {
		t.Errorf("Expected update to be persisted, got %q", got.Description)
	}
}

func TestUpdateGroupPermissions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, true)

	name := "Bikers"
	if _, err := svc.UpdateGroup(ctx, "mallory", group.ID, domain.UpdateGroupParams{Name: &name}); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember for stranger, got %v", err)
	}
	if _, err := svc.UpdateGroup(ctx, "bob", group.ID, domain.UpdateGroupParams{Name: &name}); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner for admin, got %v", err)
	}
	if _, err := svc.UpdateGroup(ctx, "alice", "missing", domain.UpdateGroupParams{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing group, got %v", err)
	}
}

func TestDeleteGroupCascade(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, false)
	request, err := svc.CreateGroupRequest(ctx, "carol", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.DeleteGroup(ctx, "bob", group.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner for plain member, got %v", err)
	}
	if err := svc.DeleteGroup(ctx, "alice", group.ID); err != nil {
		t.Fatalf("Failed to delete group: %v", err)
	}

	if _, err := svc.GetGroup(ctx, group.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected group to be gone, got %v", err)
	}
	if _, err := svc.GetGroupRequest(ctx, "carol", group.ID, request.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected requests to be cascaded, got %v", err)
	}
	groups, err := svc.ListGroupsForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to list groups: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Expected memberships to be cascaded, got %d groups", len(groups))
	}
}

func TestListGroups(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	createTestGroup(t, svc, "alice", "Hikers", false)
	createTestGroup(t, svc, "bob", "Bikers", true)

	groups, err := svc.ListGroups(ctx, filter.GroupInput{})
	if err != nil {
		t.Fatalf("Failed to list groups: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("Expected 2 groups, got %d", len(groups))
	}

	private := true
	groups, err = svc.ListGroups(ctx, filter.GroupInput{IsPrivateEq: &private})
	if err != nil {
		t.Fatalf("Failed to list groups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Bikers" {
		t.Errorf("Expected only the private group, got %+v", groups)
	}

	mine, err := svc.ListGroupsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("Failed to list groups for user: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Hikers" {
		t.Errorf("Expected alice's single group, got %+v", mine)
	}
}

func TestCreateGroupRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)

	request, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{Message: "let me in"})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if request.Status != domain.RequestPending {
		t.Errorf("Expected pending status, got %q", request.Status)
	}

	// A second request while one is pending is rejected.
	if _, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{}); !errors.Is(err, domain.ErrAlreadyRequested) {
		t.Errorf("Expected ErrAlreadyRequested, got %v", err)
	}

	// Members cannot request to join.
	if _, err := svc.CreateGroupRequest(ctx, "alice", group.ID, domain.CreateRequestParams{}); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("Expected ErrAlreadyMember, got %v", err)
	}
}

func TestAcceptGroupRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	request, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, domain.RequestAccepted); err != nil {
		t.Fatalf("Failed to accept request: %v", err)
	}

	members, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("Expected 2 members after acceptance, got %d", len(members))
	}
	for _, m := range members {
		if m.UserID == "bob" && (m.IsOwner || m.IsAdmin) {
			t.Errorf("Expected admitted member to have default role flags, got %+v", m)
		}
	}

	got, err := svc.GetGroupRequest(ctx, "alice", group.ID, request.ID)
	if err != nil {
		t.Fatalf("Failed to get request: %v", err)
	}
	if got.Status != domain.RequestAccepted {
		t.Errorf("Expected accepted status, got %q", got.Status)
	}

	// A resolved request cannot be resolved again.
	if err := svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, domain.RequestDeclined); !errors.Is(err, domain.ErrRequestNotPending) {
		t.Errorf("Expected ErrRequestNotPending, got %v", err)
	}
}

func TestDeclineGroupRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	request, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, domain.RequestDeclined); err != nil {
		t.Fatalf("Failed to decline request: %v", err)
	}

	members, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("Expected no member added on decline, got %d members", len(members))
	}

	// Declining frees the pair for a new request.
	if _, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{}); err != nil {
		t.Errorf("Expected a new request after decline, got %v", err)
	}
}

func TestUpdateGroupRequestValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	request, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	err = svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, domain.RequestPending)
	var validationErr *validation.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected validation error for pending status, got %v", err)
	}
	err = svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, "rejected")
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
}

func TestUpdateGroupRequestPermissions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	other := createTestGroup(t, svc, "alice", "Bikers", false)
	addTestMember(t, svc, "bob", group.ID, false)
	addTestMember(t, svc, "dan", group.ID, true)
	request, err := svc.CreateGroupRequest(ctx, "carol", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.UpdateGroupRequest(ctx, "mallory", group.ID, request.ID, domain.RequestAccepted); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember for stranger, got %v", err)
	}
	if err := svc.UpdateGroupRequest(ctx, "bob", group.ID, request.ID, domain.RequestAccepted); !errors.Is(err, domain.ErrNotOwnerOrAdmin) {
		t.Errorf("Expected ErrNotOwnerOrAdmin for plain member, got %v", err)
	}
	if err := svc.UpdateGroupRequest(ctx, "alice", other.ID, request.ID, domain.RequestAccepted); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for mismatched group, got %v", err)
	}

	// Admins may resolve requests.
	if err := svc.UpdateGroupRequest(ctx, "dan", group.ID, request.ID, domain.RequestAccepted); err != nil {
		t.Errorf("Expected admin to accept, got %v", err)
	}
}

func TestDeleteGroupRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	other := createTestGroup(t, svc, "alice", "Bikers", false)
	request, err := svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.DeleteGroupRequest(ctx, "mallory", group.ID, request.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-author, got %v", err)
	}
	if err := svc.DeleteGroupRequest(ctx, "bob", other.ID, request.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for mismatched group, got %v", err)
	}
	if err := svc.DeleteGroupRequest(ctx, "bob", group.ID, request.ID); err != nil {
		t.Fatalf("Failed to withdraw request: %v", err)
	}
	if _, err := svc.GetGroupRequest(ctx, "bob", group.ID, request.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected request to be gone, got %v", err)
	}

	request, err = svc.CreateGroupRequest(ctx, "bob", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if err := svc.UpdateGroupRequest(ctx, "alice", group.ID, request.ID, domain.RequestDeclined); err != nil {
		t.Fatalf("Failed to decline request: %v", err)
	}
	if err := svc.DeleteGroupRequest(ctx, "bob", group.ID, request.ID); !errors.Is(err, domain.ErrRequestNotPending) {
		t.Errorf("Expected ErrRequestNotPending for resolved request, got %v", err)
	}
}

func TestGetGroupRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, false)
	request, err := svc.CreateGroupRequest(ctx, "carol", group.ID, domain.CreateRequestParams{})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if _, err := svc.GetGroupRequest(ctx, "alice", group.ID, request.ID); err != nil {
		t.Errorf("Expected owner to see the request, got %v", err)
	}
	if _, err := svc.GetGroupRequest(ctx, "carol", group.ID, request.ID); err != nil {
		t.Errorf("Expected author to see the request, got %v", err)
	}
	if _, err := svc.GetGroupRequest(ctx, "bob", group.ID, request.ID); !errors.Is(err, domain.ErrNotOwnerOrAdmin) {
		t.Errorf("Expected ErrNotOwnerOrAdmin for plain member, got %v", err)
	}
	if _, err := svc.GetGroupRequest(ctx, "mallory", group.ID, request.ID); !errors.Is(err, domain.ErrNotRequestOwner) {
		t.Errorf("Expected ErrNotRequestOwner for stranger, got %v", err)
	}
}

func TestListGroupRequests(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, false)
	if _, err := svc.CreateGroupRequest(ctx, "carol", group.ID, domain.CreateRequestParams{}); err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if _, err := svc.CreateGroupRequest(ctx, "dan", group.ID, domain.CreateRequestParams{}); err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	requests, err := svc.ListGroupRequestsForGroup(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(requests) != 2 {
		t.Errorf("Expected owner to see 2 requests, got %d", len(requests))
	}

	// A requester sees only their own submission.
	requests, err = svc.ListGroupRequestsForGroup(ctx, "carol", group.ID)
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(requests) != 1 || requests[0].UserID != "carol" {
		t.Errorf("Expected carol to see only her request, got %+v", requests)
	}

	// A plain member with no request of their own sees nothing.
	requests, err = svc.ListGroupRequestsForGroup(ctx, "bob", group.ID)
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("Expected plain member to see no requests, got %d", len(requests))
	}

	mine, err := svc.ListGroupRequestsForUser(ctx, "dan")
	if err != nil {
		t.Fatalf("Failed to list user requests: %v", err)
	}
	if len(mine) != 1 || mine[0].GroupID != group.ID {
		t.Errorf("Expected dan's single pending request, got %+v", mine)
	}
}

func TestCreateGroupMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)

	member := addTestMember(t, svc, "bob", group.ID, false)
	if member.IsOwner {
		t.Error("Expected direct admission to never grant ownership")
	}

	if _, err := svc.CreateGroupMember(ctx, domain.CreateMemberParams{UserID: "bob", GroupID: group.ID}); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("Expected ErrAlreadyMember for duplicate, got %v", err)
	}
	if _, err := svc.CreateGroupMember(ctx, domain.CreateMemberParams{UserID: "bob", GroupID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing group, got %v", err)
	}
}

// countingStore counts member writes so no-op updates can be detected.
type countingStore struct {
	storage.Storage
	memberUpdates int
}

func (c *countingStore) UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error {
	c.memberUpdates++
	return c.Storage.UpdateMember(ctx, member, fields...)
}

func TestUpdateGroupMember(t *testing.T) {
	store := &countingStore{Storage: memory.New()}
	svc := NewGroupService(store)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	member := addTestMember(t, svc, "bob", group.ID, false)

	if err := svc.UpdateGroupMember(ctx, "alice", group.ID, member.ID, true); err != nil {
		t.Fatalf("Failed to promote member: %v", err)
	}
	if store.memberUpdates != 1 {
		t.Fatalf("Expected 1 member write, got %d", store.memberUpdates)
	}

	// Setting the flag to its current value performs no write.
	if err := svc.UpdateGroupMember(ctx, "alice", group.ID, member.ID, true); err != nil {
		t.Fatalf("Failed on repeated promote: %v", err)
	}
	if store.memberUpdates != 1 {
		t.Errorf("Expected no write for unchanged flag, got %d", store.memberUpdates)
	}

	got, err := svc.GetGroupMember(ctx, "alice", group.ID, member.ID)
	if err != nil {
		t.Fatalf("Failed to get member: %v", err)
	}
	if !got.IsAdmin {
		t.Error("Expected member to be an admin")
	}

	if err := svc.UpdateGroupMember(ctx, "bob", group.ID, member.ID, false); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner for admin caller, got %v", err)
	}
	if err := svc.UpdateGroupMember(ctx, "mallory", group.ID, member.ID, false); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember for stranger, got %v", err)
	}
}

func TestChangeGroupOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	bob := addTestMember(t, svc, "bob", group.ID, false)

	if err := svc.ChangeGroupOwner(ctx, "alice", group.ID, bob.ID); err != nil {
		t.Fatalf("Failed to transfer ownership: %v", err)
	}

	owners := listOwners(t, svc, "alice", group.ID)
	if len(owners) != 1 || owners[0].UserID != "bob" {
		t.Fatalf("Expected bob to be the single owner, got %+v", owners)
	}

	// The previous owner lost the role.
	if err := svc.ChangeGroupOwner(ctx, "alice", group.ID, bob.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner for former owner, got %v", err)
	}

	// A transfer to oneself is rejected.
	if err := svc.ChangeGroupOwner(ctx, "bob", group.ID, bob.ID); !errors.Is(err, domain.ErrAlreadyOwner) {
		t.Errorf("Expected ErrAlreadyOwner for self-transfer, got %v", err)
	}

	owners = listOwners(t, svc, "alice", group.ID)
	if len(owners) != 1 {
		t.Errorf("Expected exactly one owner after failed transfers, got %d", len(owners))
	}
}

func TestDeleteGroupMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	bob := addTestMember(t, svc, "bob", group.ID, true)
	carol := addTestMember(t, svc, "carol", group.ID, false)
	dan := addTestMember(t, svc, "dan", group.ID, true)

	alice, err := svc.GetGroupMember(ctx, "alice", group.ID, listOwners(t, svc, "alice", group.ID)[0].ID)
	if err != nil {
		t.Fatalf("Failed to get owner member: %v", err)
	}

	// Plain members cannot remove anyone.
	if err := svc.DeleteGroupMember(ctx, "carol", group.ID, bob.ID); !errors.Is(err, domain.ErrNotOwnerOrAdmin) {
		t.Errorf("Expected ErrNotOwnerOrAdmin, got %v", err)
	}
	// Nobody can remove the owner.
	if err := svc.DeleteGroupMember(ctx, "bob", group.ID, alice.ID); !errors.Is(err, domain.ErrCannotDeleteOwner) {
		t.Errorf("Expected ErrCannotDeleteOwner, got %v", err)
	}
	// An admin cannot remove another admin.
	if err := svc.DeleteGroupMember(ctx, "bob", group.ID, dan.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	// An admin can remove a plain member.
	if err := svc.DeleteGroupMember(ctx, "bob", group.ID, carol.ID); err != nil {
		t.Errorf("Expected admin to remove plain member, got %v", err)
	}
	// The owner can remove an admin.
	if err := svc.DeleteGroupMember(ctx, "alice", group.ID, dan.ID); err != nil {
		t.Errorf("Expected owner to remove admin, got %v", err)
	}

	members, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("Expected 2 members left, got %d", len(members))
	}
}

func TestLeaveGroup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, false)

	if err := svc.LeaveGroup(ctx, "alice", group.ID); !errors.Is(err, domain.ErrCannotLeaveAsOwner) {
		t.Errorf("Expected ErrCannotLeaveAsOwner, got %v", err)
	}
	if err := svc.LeaveGroup(ctx, "mallory", group.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-member, got %v", err)
	}
	if err := svc.LeaveGroup(ctx, "bob", group.ID); err != nil {
		t.Fatalf("Failed to leave group: %v", err)
	}

	members, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("Expected only the owner left, got %d members", len(members))
	}
}

func TestPrivateGroupMemberVisibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	private := createTestGroup(t, svc, "alice", "Secret", true)
	public := createTestGroup(t, svc, "alice", "Open", false)
	secretOwner := listOwners(t, svc, "alice", private.ID)[0]

	if _, err := svc.ListGroupMembers(ctx, "mallory", private.ID, filter.MemberInput{}); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember for stranger on private group, got %v", err)
	}
	if _, err := svc.GetGroupMember(ctx, "mallory", private.ID, secretOwner.ID); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember for stranger on private group, got %v", err)
	}
	if _, err := svc.ListGroupMembers(ctx, "mallory", public.ID, filter.MemberInput{}); err != nil {
		t.Errorf("Expected public group members to be visible, got %v", err)
	}

	// A member id from another group is reported as not found.
	if _, err := svc.GetGroupMember(ctx, "alice", public.ID, secretOwner.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for cross-group member id, got %v", err)
	}
}

func TestCrossGroupMemberIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	g1 := createTestGroup(t, svc, "alice", "Hikers", false)
	g2 := createTestGroup(t, svc, "bob", "Bikers", false)
	carol := addTestMember(t, svc, "carol", g2.ID, false)

	// A member id from another group is rejected on every write path.
	if err := svc.ChangeGroupOwner(ctx, "alice", g1.ID, carol.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for cross-group transfer, got %v", err)
	}
	if err := svc.UpdateGroupMember(ctx, "alice", g1.ID, carol.ID, true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for cross-group promote, got %v", err)
	}
	if err := svc.DeleteGroupMember(ctx, "alice", g1.ID, carol.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for cross-group delete, got %v", err)
	}

	// Both groups still have exactly one owner and carol is untouched.
	for _, tc := range []struct {
		caller  string
		groupID string
		owner   string
	}{
		{"alice", g1.ID, "alice"},
		{"bob", g2.ID, "bob"},
	} {
		owners := listOwners(t, svc, tc.caller, tc.groupID)
		if len(owners) != 1 || owners[0].UserID != tc.owner {
			t.Errorf("Group %s: expected %s as the single owner, got %+v", tc.groupID, tc.owner, owners)
		}
	}
	got, err := svc.GetGroupMember(ctx, "bob", g2.ID, carol.ID)
	if err != nil {
		t.Fatalf("Failed to get member: %v", err)
	}
	if got.IsAdmin || got.IsOwner {
		t.Errorf("Expected carol's flags untouched, got %+v", got)
	}
}

// raceStore simulates the window where a concurrent insert lands between
// the service pre-check and the write: reads see nothing, inserts hit
// the uniqueness constraint.
type raceStore struct {
	storage.Storage
}

func (r *raceStore) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	return domain.ErrAlreadyExists
}

func (r *raceStore) CreateRequest(ctx context.Context, request *domain.GroupRequest) error {
	return domain.ErrAlreadyExists
}

func TestConstraintRaceTranslation(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	if err := mem.CreateGroup(ctx, &domain.Group{ID: "g1", Name: "Hikers"}); err != nil {
		t.Fatalf("Failed to seed group: %v", err)
	}
	svc := NewGroupService(&raceStore{Storage: mem})

	if _, err := svc.CreateGroupRequest(ctx, "bob", "g1", domain.CreateRequestParams{}); !errors.Is(err, domain.ErrAlreadyRequested) {
		t.Errorf("Expected ErrAlreadyRequested when the constraint fires, got %v", err)
	}
	if _, err := svc.CreateGroupMember(ctx, domain.CreateMemberParams{UserID: "bob", GroupID: "g1"}); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("Expected ErrAlreadyMember when the constraint fires, got %v", err)
	}
}

func TestListGroupMembersFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	group := createTestGroup(t, svc, "alice", "Hikers", false)
	addTestMember(t, svc, "bob", group.ID, true)
	addTestMember(t, svc, "carol", group.ID, false)

	isAdmin := true
	admins, err := svc.ListGroupMembers(ctx, "alice", group.ID, filter.MemberInput{IsAdminEq: &isAdmin})
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(admins) != 1 || admins[0].UserID != "bob" {
		t.Errorf("Expected bob as the only admin, got %+v", admins)
	}
}
