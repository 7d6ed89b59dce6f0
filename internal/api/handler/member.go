package handler

import (
	"net/http"
	"strconv"

	"github.com/dklimov/circles/internal/api/middleware"
	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
	"github.com/dklimov/circles/internal/service"
	"github.com/dklimov/circles/internal/validation"
	"github.com/go-chi/chi/v5"
)

// MemberHandler handles group member endpoints.
type MemberHandler struct {
	groups *service.GroupService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(groups *service.GroupService) *MemberHandler {
	return &MemberHandler{groups: groups}
}

// List lists the members of a group, optionally filtered by role flags.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	var in filter.MemberInput
	for _, q := range []struct {
		key  string
		dest **bool
	}{
		{"is_admin__eq", &in.IsAdminEq},
		{"is_owner__eq", &in.IsOwnerEq},
	} {
		raw := r.URL.Query().Get(q.key)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(w, validation.NewValidationError(q.key, raw, "must be a boolean"))
			return
		}
		*q.dest = &value
	}

	members, err := h.groups.ListGroupMembers(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), in)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// Get gets a member of a group.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.groups.GetGroupMember(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "member_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Update grants or revokes a member's admin flag.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params domain.UpdateMemberParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	err := h.groups.UpdateGroupMember(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "member_id"), params.IsAdmin)
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a member from a group.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.groups.DeleteGroupMember(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "member_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changeOwnerRequest is the request body for transferring ownership.
type changeOwnerRequest struct {
	MemberID string `json:"member_id"`
}

// ChangeOwner transfers group ownership to another member.
func (h *MemberHandler) ChangeOwner(w http.ResponseWriter, r *http.Request) {
	var params changeOwnerRequest
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	err := h.groups.ChangeGroupOwner(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), params.MemberID)
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave removes the caller's own membership.
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	err := h.groups.LeaveGroup(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "group_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
