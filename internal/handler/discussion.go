package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/animeverse-dev/animeverse/internal/api"
	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/middleware"
	"github.com/animeverse-dev/animeverse/internal/service"
	"github.com/animeverse-dev/animeverse/internal/utils"
)

// Anime comments.

func (h *Handler) ListAnimeComments(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, domain.AnimeSurface(chi.URLParam(r, "animeId")))
}

func (h *Handler) PostAnimeComment(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, domain.AnimeSurface(chi.URLParam(r, "animeId")))
}

func (h *Handler) EditAnimeComment(w http.ResponseWriter, r *http.Request) {
	h.editNode(w, r, domain.AnimeSurface(chi.URLParam(r, "animeId")))
}

func (h *Handler) DeleteAnimeComment(w http.ResponseWriter, r *http.Request) {
	h.deleteNode(w, r, domain.AnimeSurface(chi.URLParam(r, "animeId")))
}

// Episode comments.

func (h *Handler) ListEpisodeComments(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, domain.EpisodeSurface(chi.URLParam(r, "episodeId")))
}

func (h *Handler) PostEpisodeComment(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, domain.EpisodeSurface(chi.URLParam(r, "episodeId")))
}

func (h *Handler) EditEpisodeComment(w http.ResponseWriter, r *http.Request) {
	h.editNode(w, r, domain.EpisodeSurface(chi.URLParam(r, "episodeId")))
}

func (h *Handler) DeleteEpisodeComment(w http.ResponseWriter, r *http.Request) {
	h.deleteNode(w, r, domain.EpisodeSurface(chi.URLParam(r, "episodeId")))
}

// Staff chat.

func (h *Handler) ListStaffMessages(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, domain.StaffSurface())
}

func (h *Handler) PostStaffMessage(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, domain.StaffSurface())
}

func (h *Handler) EditStaffMessage(w http.ResponseWriter, r *http.Request) {
	h.editNode(w, r, domain.StaffSurface())
}

func (h *Handler) DeleteStaffMessage(w http.ResponseWriter, r *http.Request) {
	h.deleteNode(w, r, domain.StaffSurface())
}

// Every surface shares the same create/edit/delete/list machinery; only the
// surface identity and the route-level access rules differ.

func (h *Handler) createNode(w http.ResponseWriter, r *http.Request, surface domain.Surface) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateNodeRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	node, err := h.discussion.Post(surface, principal, service.PostData{
		Text:     req.Text,
		MediaUrl: req.MediaUrl,
		ParentId: req.ParentId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.NewNode(node))
}

func (h *Handler) editNode(w http.ResponseWriter, r *http.Request, surface domain.Surface) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var req api.EditNodeRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	node, err := h.discussion.Edit(surface, chi.URLParam(r, "commentId"), principal, req.Text)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.NewNode(node))
}

func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request, surface domain.Surface) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	if err := h.discussion.Delete(surface, chi.URLParam(r, "commentId"), principal); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request, surface domain.Surface) {
	nodes, err := h.discussion.ListSurface(surface)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.NewNodes(nodes))
}
