package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/animeverse-dev/animeverse/internal/api"
	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/middleware"
	"github.com/animeverse-dev/animeverse/internal/utils"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	// Re-fetch through the service so presentation fields (avatar URL) are
	// resolved the same way as everywhere else.
	user, err := h.users.Get(principal.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUser(user))
}

// GetProfile serves the public member page by username.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, entries, err := h.users.Profile(chi.URLParam(r, "username"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewPublicProfile(user, entries))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.users.UpdateProfile(*principal, domain.ProfilePatch{Name: req.Name, Bio: req.Bio, ShowActivity: req.ShowActivity})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUser(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.URL.Query().Get("search"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUsers(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(chi.URLParam(r, "userId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUser(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateRoleRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.users.SetRole(*principal, chi.URLParam(r, "userId"), domain.Role(req.Role))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUser(user))
}

func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateStatusRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.users.SetStatus(*principal, chi.URLParam(r, "userId"), req.Status)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewUser(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	if err := h.users.Delete(*principal, chi.URLParam(r, "userId")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
