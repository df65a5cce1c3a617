package service

import (
	"net/http"

	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/errors"
)

type UserService interface {
	Get(id domain.UserId) (domain.User, error)
	Profile(username string) (domain.User, []domain.ProfileEntry, error)
	UpdateProfile(principal domain.User, patch domain.ProfilePatch) (domain.User, error)
	List(search string) ([]domain.User, error)
	SetRole(principal domain.User, id domain.UserId, role domain.Role) (domain.User, error)
	SetStatus(principal domain.User, id domain.UserId, status string) (domain.User, error)
	Delete(principal domain.User, id domain.UserId) error
}

type UserStorage interface {
	UserById(id domain.UserId) (domain.User, error)
	UserByUsername(username string) (domain.User, error)
	Users(search string) ([]domain.User, error)
	RecentAnimeCommentsByAuthor(authorId domain.UserId, limit int) ([]domain.ProfileEntry, error)
	UpdateProfile(id domain.UserId, patch domain.ProfilePatch) error
	UpdateUserRole(id domain.UserId, role domain.Role) error
	UpdateUserStatus(id domain.UserId, status string) error
	DeleteUser(id domain.UserId) error
}

// profileFeedLimit caps the activity feed on a public profile.
const profileFeedLimit = 10

type Users struct {
	storage UserStorage
	media   MediaResolver
}

func NewUsers(storage UserStorage, media MediaResolver) *Users {
	return &Users{storage, media}
}

func (u *Users) Get(id domain.UserId) (domain.User, error) {
	user, err := u.storage.UserById(id)
	if err != nil {
		return domain.User{}, err
	}
	resolveAvatar(&user, u.media)
	return user, nil
}

// Profile returns a member's public page: the user plus their most recent
// surviving anime comments. Disabled accounts are hidden, and the feed is
// empty when the member has opted out of showing activity.
func (u *Users) Profile(username string) (domain.User, []domain.ProfileEntry, error) {
	user, err := u.storage.UserByUsername(username)
	if err != nil {
		return domain.User{}, nil, err
	}
	if user.Disabled() {
		return domain.User{}, nil, &errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
	}
	resolveAvatar(&user, u.media)

	entries := []domain.ProfileEntry{}
	if user.ShowActivity {
		fetched, err := u.storage.RecentAnimeCommentsByAuthor(user.Id, profileFeedLimit)
		if err != nil {
			return domain.User{}, nil, err
		}
		if fetched != nil {
			entries = fetched
		}
	}
	return user, entries, nil
}

func (u *Users) UpdateProfile(principal domain.User, patch domain.ProfilePatch) (domain.User, error) {
	if err := u.storage.UpdateProfile(principal.Id, patch); err != nil {
		return domain.User{}, err
	}
	return u.Get(principal.Id)
}

func (u *Users) List(search string) ([]domain.User, error) {
	users, err := u.storage.Users(search)
	if err != nil {
		return nil, err
	}
	for i := range users {
		resolveAvatar(&users[i], u.media)
	}
	return users, nil
}

// SetRole changes a member's role. The owner role is immutable and can be
// neither granted nor revoked; only the owner appoints co-owners.
func (u *Users) SetRole(principal domain.User, id domain.UserId, role domain.Role) (domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin && role != domain.RoleCoOwner {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Invalid role", StatusCode: http.StatusBadRequest}
	}

	target, err := u.storage.UserById(id)
	if err != nil {
		return domain.User{}, err
	}
	if target.Role == domain.RoleOwner {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Cannot change the owner's role", StatusCode: http.StatusForbidden}
	}
	if role == domain.RoleCoOwner && principal.Role != domain.RoleOwner {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Only the owner can appoint co-owners", StatusCode: http.StatusForbidden}
	}

	if err := u.storage.UpdateUserRole(id, role); err != nil {
		return domain.User{}, err
	}
	return u.Get(id)
}

func (u *Users) SetStatus(principal domain.User, id domain.UserId, status string) (domain.User, error) {
	if status != domain.StatusActive && status != domain.StatusDisabled {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Invalid status", StatusCode: http.StatusBadRequest}
	}

	target, err := u.storage.UserById(id)
	if err != nil {
		return domain.User{}, err
	}
	if target.Role == domain.RoleOwner {
		return domain.User{}, &errors.ErrorWithStatusCode{Message: "Cannot change the owner's status", StatusCode: http.StatusForbidden}
	}

	if err := u.storage.UpdateUserStatus(id, status); err != nil {
		return domain.User{}, err
	}
	return u.Get(id)
}

func (u *Users) Delete(principal domain.User, id domain.UserId) error {
	if principal.Id == id {
		return &errors.ErrorWithStatusCode{Message: "Cannot delete your own account", StatusCode: http.StatusForbidden}
	}

	target, err := u.storage.UserById(id)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		return &errors.ErrorWithStatusCode{Message: "Cannot delete the owner", StatusCode: http.StatusForbidden}
	}

	return u.storage.DeleteUser(id)
}
