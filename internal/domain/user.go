package domain

import "time"

// Role hierarchy is a total order for authorization purposes:
// user < admin < co-owner < owner.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleCoOwner Role = "co-owner"
	RoleOwner   Role = "owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleCoOwner, RoleOwner:
		return true
	}
	return false
}

func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleCoOwner:
		return 2
	case RoleAdmin:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r dominates other in the hierarchy.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// IsStaff reports whether the role grants access to staff-only surfaces.
func (r Role) IsStaff() bool {
	return r.AtLeast(RoleAdmin)
}

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	Id           UserId
	Username     string
	Name         string
	Email        Email
	PasswordHash string
	Role         Role
	Status       string
	AvatarUrl    *string
	Bio          *string
	ShowActivity bool
	Joined       time.Time
}

func (u *User) Disabled() bool {
	return u.Status == StatusDisabled
}

// to iterate thru layers: handler -> service -> storage
type UserCreationData struct {
	Username     string
	Name         string
	Email        Email
	PasswordHash string
	Role         Role
}

type ProfilePatch struct {
	Name         *string
	Bio          *string
	ShowActivity *bool
}

// ProfileEntry is one item of a member's public activity feed: an anime
// comment with just enough context to link back to the title.
type ProfileEntry struct {
	AnimeId    SurfaceId
	AnimeTitle string
	Text       *NodeText
	CreatedAt  time.Time
}
