package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/animeverse-dev/animeverse/internal/domain"
	internal_errors "github.com/animeverse-dev/animeverse/internal/errors"
	jwt_internal "github.com/animeverse-dev/animeverse/internal/jwt"
	"github.com/animeverse-dev/animeverse/internal/logger"
	"github.com/animeverse-dev/animeverse/internal/utils"
)

// PrincipalStore loads the user row behind a token. Role and status are read
// fresh on every request so demotions and disabled accounts apply immediately.
type PrincipalStore interface {
	UserById(id domain.UserId) (domain.User, error)
}

// Key to store the principal in the request context
type key int

const PrincipalKey key = 0

type Auth struct {
	jwtService jwt_internal.JwtService
	users      PrincipalStore
}

func NewAuth(jwtService jwt_internal.JwtService, users PrincipalStore) *Auth {
	return &Auth{jwtService: jwtService, users: users}
}

// NeedAuth returns middleware that requires an authenticated principal.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(domain.RoleUser)
}

// StaffOnly returns middleware that requires role admin or above.
func (a *Auth) StaffOnly() func(http.Handler) http.Handler {
	return a.auth(domain.RoleAdmin)
}

// MinRole returns middleware that requires the given role or above.
func (a *Auth) MinRole(role domain.Role) func(http.Handler) http.Handler {
	return a.auth(role)
}

// Sentinel errors for extractPrincipal
var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
	errUnknownUser   = errorString("unknown user")
	errDisabled      = errorString("account disabled")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// extractPrincipal resolves the inbound credential to a principal.
func (a *Auth) extractPrincipal(r *http.Request) (*domain.User, error) {
	// Cookie for browser clients, Authorization header for API clients.
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return nil, errInvalidClaims
	}

	user, err := a.users.UserById(uid)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			// Token references a user that no longer exists.
			return nil, errUnknownUser
		}
		return nil, err
	}
	if user.Disabled() {
		return nil, errDisabled
	}

	return &user, nil
}

func (a *Auth) auth(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.extractPrincipal(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errUnknownUser:
					http.Error(w, "Unknown user", http.StatusUnauthorized)
				case errDisabled:
					http.Error(w, "account-disabled", http.StatusForbidden)
				case errInvalidClaims:
					logger.Log.Error("invalid jwt claims")
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if !principal.Role.AtLeast(minRole) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(r *http.Request) *domain.User {
	principal, ok := r.Context().Value(PrincipalKey).(*domain.User)
	if !ok {
		return nil
	}
	return principal
}
