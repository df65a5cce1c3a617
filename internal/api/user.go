package api

import (
	"time"

	"github.com/animeverse-dev/animeverse/internal/domain"
)

// Request DTOs

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	ShowActivity *bool   `json:"showActivity,omitempty"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Response DTOs

type User struct {
	Id           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	AvatarUrl    *string   `json:"avatarUrl"`
	Bio          *string   `json:"bio"`
	ShowActivity bool      `json:"showActivity"`
	Joined       time.Time `json:"joined"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func NewUser(u domain.User) User {
	return User{
		Id:           u.Id,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Status:       u.Status,
		AvatarUrl:    u.AvatarUrl,
		Bio:          u.Bio,
		ShowActivity: u.ShowActivity,
		Joined:       u.Joined,
	}
}

// PublicProfile is the anonymous-viewable member page: no email, no status,
// plus the member's recent activity.
type PublicProfile struct {
	Id        string           `json:"id"`
	Username  string           `json:"username"`
	Name      string           `json:"name"`
	AvatarUrl *string          `json:"avatarUrl"`
	Bio       *string          `json:"bio"`
	Joined    time.Time        `json:"joined"`
	Comments  []ProfileComment `json:"comments"`
}

// ProfileComment is one activity feed item: an anime comment with its title
// context.
type ProfileComment struct {
	AnimeId    string    `json:"animeId"`
	AnimeTitle string    `json:"animeTitle"`
	Text       *string   `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewPublicProfile(u domain.User, entries []domain.ProfileEntry) PublicProfile {
	comments := make([]ProfileComment, 0, len(entries))
	for _, e := range entries {
		comments = append(comments, ProfileComment{
			AnimeId:    e.AnimeId,
			AnimeTitle: e.AnimeTitle,
			Text:       e.Text,
			Timestamp:  e.CreatedAt,
		})
	}
	return PublicProfile{
		Id:        u.Id,
		Username:  u.Username,
		Name:      u.Name,
		AvatarUrl: u.AvatarUrl,
		Bio:       u.Bio,
		Joined:    u.Joined,
		Comments:  comments,
	}
}

func NewUsers(users []domain.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, NewUser(u))
	}
	return out
}
