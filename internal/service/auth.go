package service

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/errors"
	"github.com/animeverse-dev/animeverse/internal/logger"
)

type AuthService interface {
	Register(name string, email domain.Email, password domain.Password) (domain.User, error)
	Login(email domain.Email, password domain.Password) (string, domain.User, error)
}

type AuthStorage interface {
	SaveUser(data domain.UserCreationData) (domain.User, error)
	UserByEmail(email domain.Email) (domain.User, error)
	UsernameTaken(username string) (bool, error)
	CountUsers() (int, error)
	UpdateUserRole(id domain.UserId, role domain.Role) error
	UpdatePasswordHash(id domain.UserId, passwordHash string) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

type Auth struct {
	storage AuthStorage
	jwt     Jwt
	media   MediaResolver
}

func NewAuth(storage AuthStorage, jwt Jwt, media MediaResolver) *Auth {
	return &Auth{storage, jwt, media}
}

// Register creates an account with a generated unique username. The very
// first registered account becomes the owner.
func (a *Auth) Register(name string, email domain.Email, password domain.Password) (domain.User, error) {
	email = strings.ToLower(email)

	if _, err := a.storage.UserByEmail(email); err == nil {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Email already registered", StatusCode: http.StatusBadRequest}
	} else if !errors.IsNotFound(err) {
		return domain.User{}, err
	}

	count, err := a.storage.CountUsers()
	if err != nil {
		return domain.User{}, err
	}
	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleOwner
	}

	username, err := a.generateUsername(name)
	if err != nil {
		return domain.User{}, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	return a.storage.SaveUser(domain.UserCreationData{
		Username:     username,
		Name:         name,
		Email:        email,
		PasswordHash: string(passHash),
		Role:         role,
	})
}

// Login verifies credentials and issues an access token. Disabled accounts
// authenticate but are refused with a marker the frontend recognizes.
func (a *Auth) Login(email domain.Email, password domain.Password) (string, domain.User, error) {
	invalidCreds := &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}

	user, err := a.storage.UserByEmail(strings.ToLower(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return "", domain.User{}, invalidCreds
		}
		return "", domain.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, invalidCreds
	}

	if user.Disabled() {
		return "", domain.User{}, &errors.ErrorWithStatusCode{Message: "account-disabled", StatusCode: http.StatusForbidden}
	}

	token, err := a.jwt.NewToken(user)
	if err != nil {
		return "", domain.User{}, err
	}
	resolveAvatar(&user, a.media)
	return token, user, nil
}

// EnsureOwner creates or refreshes the owner account from configuration.
// Called once at startup.
func (a *Auth) EnsureOwner(email domain.Email, password domain.Password) error {
	if email == "" || password == "" {
		return nil
	}
	email = strings.ToLower(email)

	owner, err := a.storage.UserByEmail(email)
	if err != nil {
		if !errors.IsNotFound(err) {
			return err
		}
		passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		username, err := a.generateUsername("Site Owner")
		if err != nil {
			return err
		}
		_, err = a.storage.SaveUser(domain.UserCreationData{
			Username:     username,
			Name:         "Site Owner",
			Email:        email,
			PasswordHash: string(passHash),
			Role:         domain.RoleOwner,
		})
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)) != nil {
		passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := a.storage.UpdatePasswordHash(owner.Id, string(passHash)); err != nil {
			return err
		}
	}
	if owner.Role != domain.RoleOwner {
		return a.storage.UpdateUserRole(owner.Id, domain.RoleOwner)
	}
	return nil
}

// generateUsername derives a unique lowercase username from a display name,
// appending a numeric suffix on collision.
func (a *Auth) generateUsername(name string) (string, error) {
	var base strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			base.WriteRune(r)
		}
	}
	candidate := base.String()
	if candidate == "" {
		candidate = "user"
	}

	username := candidate
	for suffix := 1; ; suffix++ {
		taken, err := a.storage.UsernameTaken(username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", candidate, suffix)
	}
}
