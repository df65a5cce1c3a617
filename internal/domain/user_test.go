package domain

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role     Role
		min      Role
		expected bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleCoOwner, false},
		{RoleCoOwner, RoleAdmin, true},
		{RoleCoOwner, RoleOwner, false},
		{RoleOwner, RoleUser, true},
		{RoleOwner, RoleOwner, true},
	}
	for _, c := range cases {
		if got := c.role.AtLeast(c.min); got != c.expected {
			t.Errorf("%s.AtLeast(%s) = %v, expected %v", c.role, c.min, got, c.expected)
		}
	}
}

func TestRoleIsStaff(t *testing.T) {
	staff := []Role{RoleAdmin, RoleCoOwner, RoleOwner}
	for _, r := range staff {
		if !r.IsStaff() {
			t.Errorf("expected %s to be staff", r)
		}
	}
	if RoleUser.IsStaff() {
		t.Error("expected user role not to be staff")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAdmin, RoleCoOwner, RoleOwner} {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if Role("moderator").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}

func TestSurfaceOrder(t *testing.T) {
	if AnimeSurface("a1").Order() != NewestFirst {
		t.Error("anime surfaces should list newest first")
	}
	if EpisodeSurface("e1").Order() != NewestFirst {
		t.Error("episode surfaces should list newest first")
	}
	if StaffSurface().Order() != OldestFirst {
		t.Error("staff surface should list oldest first")
	}
}

func TestUserDisabled(t *testing.T) {
	u := User{Status: StatusActive}
	if u.Disabled() {
		t.Error("active user reported disabled")
	}
	u.Status = StatusDisabled
	if !u.Disabled() {
		t.Error("disabled user reported active")
	}
}
