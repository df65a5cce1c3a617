package handler

import (
	"encoding/json"
	"net/http"

	"github.com/animeverse-dev/animeverse/internal/config"
	"github.com/animeverse-dev/animeverse/internal/logger"
	"github.com/animeverse-dev/animeverse/internal/service"
	"github.com/animeverse-dev/animeverse/internal/storage/pg"
)

type Handler struct {
	auth       service.AuthService
	users      service.UserService
	discussion service.DiscussionService
	storage    *pg.Storage
	cfg        *config.Config
}

func New(auth service.AuthService, users service.UserService, discussion service.DiscussionService, storage *pg.Storage, cfg *config.Config) *Handler {
	return &Handler{auth, users, discussion, storage, cfg}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response body", "error", err)
	}
}
