package domain

import "time"

// GroupMember is a user's membership in a group. Every group has exactly
// one member with IsOwner set, and at most one row exists per
// (UserID, GroupID) pair.
type GroupMember struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	GroupID   string    `json:"group_id" db:"group_id"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	IsOwner   bool      `json:"is_owner" db:"is_owner"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FilterField exposes the filterable attributes of a member by name.
func (m *GroupMember) FilterField(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "user_id":
		return m.UserID, true
	case "group_id":
		return m.GroupID, true
	case "is_admin":
		return m.IsAdmin, true
	case "is_owner":
		return m.IsOwner, true
	default:
		return nil, false
	}
}

// CreateMemberParams is the input for admitting a user into a group.
type CreateMemberParams struct {
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
	IsAdmin bool   `json:"is_admin"`
	IsOwner bool   `json:"-"`
}

// UpdateMemberParams is the input for toggling a member's admin flag.
type UpdateMemberParams struct {
	IsAdmin bool `json:"is_admin"`
}
