package handler

import (
	"net/http"

	"github.com/dklimov/circles/internal/api/middleware"
	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/service"
	"github.com/go-chi/chi/v5"
)

// RequestHandler handles join request endpoints.
type RequestHandler struct {
	groups *service.GroupService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(groups *service.GroupService) *RequestHandler {
	return &RequestHandler{groups: groups}
}

// Create creates a pending join request for the caller.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateRequestParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	request, err := h.groups.CreateGroupRequest(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), params)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// List lists the pending join requests of a group. Owners and admins see
// all of them; everyone else only their own.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.groups.ListGroupRequestsForGroup(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// ListMine lists the caller's own pending join requests across groups.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.groups.ListGroupRequestsForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// Get gets a join request.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	request, err := h.groups.GetGroupRequest(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "request_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// Update resolves a pending join request to accepted or declined.
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params domain.UpdateRequestParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, err)
		return
	}

	err := h.groups.UpdateGroupRequest(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "request_id"), params.Status)
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete withdraws the caller's own pending join request.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.groups.DeleteGroupRequest(r.Context(),
		middleware.UserID(r.Context()), chi.URLParam(r, "group_id"), chi.URLParam(r, "request_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
