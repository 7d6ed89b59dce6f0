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

// GroupHandler handles group endpoints.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create creates a new group owned by the caller.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateGroupParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), middleware.UserID(r.Context()), params)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

// List lists groups, optionally filtered by name and privacy flag.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	var in filter.GroupInput
	if name := r.URL.Query().Get("name__eq"); name != "" {
		in.NameEq = &name
	}
	if raw := r.URL.Query().Get("is_private__eq"); raw != "" {
		isPrivate, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(w, validation.NewValidationError("is_private__eq", raw, "must be a boolean"))
			return
		}
		in.IsPrivateEq = &isPrivate
	}

	groups, err := h.groups.ListGroups(r.Context(), in)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// ListMine lists the groups the caller is a member of.
func (h *GroupHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroupsForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// Get gets a group by id.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), chi.URLParam(r, "group_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// Update applies a partial update to a group.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params domain.UpdateGroupParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	group, err := h.groups.UpdateGroup(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), params)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// Delete deletes a group with all its members and requests.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "group_id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
