package setup

import (
	"github.com/animeverse-dev/animeverse/internal/config"
	"github.com/animeverse-dev/animeverse/internal/handler"
	"github.com/animeverse-dev/animeverse/internal/jwt"
	"github.com/animeverse-dev/animeverse/internal/media"
	"github.com/animeverse-dev/animeverse/internal/middleware"
	"github.com/animeverse-dev/animeverse/internal/service"
	"github.com/animeverse-dev/animeverse/internal/storage/pg"
	"github.com/animeverse-dev/animeverse/internal/utils"
)

// Dependencies holds every initialized component the router needs.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Jwt            jwt.JwtService
}

// SetupDependencies wires storage, services, handlers and middleware
// together, then seeds the owner account from configuration.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	resolver := media.NewResolver(cfg.Public.PublicBaseUrl)

	auth := service.NewAuth(storage, jwtService, resolver)
	users := service.NewUsers(storage, resolver)
	discussion := service.NewDiscussion(storage, storage, resolver, &utils.NodeTextValidator{})

	if err := auth.EnsureOwner(cfg.OwnerCredentials()); err != nil {
		storage.Cleanup()
		return nil, err
	}

	h := handler.New(auth, users, discussion, storage, cfg)
	authMw := middleware.NewAuth(jwtService, storage)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: authMw,
		Jwt:            jwtService,
	}, nil
}
