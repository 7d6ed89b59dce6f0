package domain

import "time"

// RequestStatus is the lifecycle state of a join request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// GroupRequest is a user's application to join a group. Requests start
// pending and resolve exactly once, to accepted or declined; at most one
// pending request exists per (UserID, GroupID) pair.
type GroupRequest struct {
	ID        string        `json:"id" db:"id"`
	UserID    string        `json:"user_id" db:"user_id"`
	GroupID   string        `json:"group_id" db:"group_id"`
	Message   string        `json:"message,omitempty" db:"message"`
	Status    RequestStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// FilterField exposes the filterable attributes of a request by name.
// Status is exposed as a plain string so the filter engine compares it
// without knowing the enum.
func (r *GroupRequest) FilterField(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "user_id":
		return r.UserID, true
	case "group_id":
		return r.GroupID, true
	case "status":
		return string(r.Status), true
	default:
		return nil, false
	}
}

// CreateRequestParams is the input for creating a join request.
type CreateRequestParams struct {
	Message string `json:"message,omitempty"`
}

// UpdateRequestParams is the input for resolving a join request.
type UpdateRequestParams struct {
	Status RequestStatus `json:"status"`
}
