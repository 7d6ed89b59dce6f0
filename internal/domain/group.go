package domain

import "time"

// Group is a user-created community that people join directly or through
// join requests. Membership and roles live in GroupMember rows; a group
// references its members by id only.
type Group struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsPrivate   bool      `json:"is_private" db:"is_private"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FilterField exposes the filterable attributes of a group by name.
func (g *Group) FilterField(name string) (any, bool) {
	switch name {
	case "id":
		return g.ID, true
	case "name":
		return g.Name, true
	case "description":
		return g.Description, true
	case "is_private":
		return g.IsPrivate, true
	default:
		return nil, false
	}
}

// CreateGroupParams is the input for creating a group.
type CreateGroupParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private"`
}

// UpdateGroupParams is the input for a partial group update. Nil fields
// are left unchanged.
type UpdateGroupParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}
