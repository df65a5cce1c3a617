package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/animeverse-dev/animeverse/internal/domain"
	internal_errors "github.com/animeverse-dev/animeverse/internal/errors"
)

const userColumns = "id, username, name, email, password_hash, role, status, avatar_url, bio, show_activity, joined"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.Id, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Status, &u.AvatarUrl, &u.Bio, &u.ShowActivity, &u.Joined)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (s *Storage) SaveUser(data domain.UserCreationData) (domain.User, error) {
	id := uuid.NewString()
	joined := time.Now().UTC().Round(time.Microsecond)
	_, err := s.db.Exec(`
	INSERT INTO users(id, username, name, email, password_hash, role, joined)
	VALUES($1, $2, $3, $4, $5, $6, $7)`,
		id, data.Username, data.Name, data.Email, data.PasswordHash, string(data.Role), joined)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.UserById(id)
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) UserByUsername(username string) (domain.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = $1", username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) UsernameTaken(username string) (bool, error) {
	var taken bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&taken)
	return taken, err
}

func (s *Storage) CountUsers() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// Users lists all users, optionally filtered by a name/email substring.
func (s *Storage) Users(search string) ([]domain.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if search != "" {
		query += " WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Storage) UpdateProfile(id domain.UserId, patch domain.ProfilePatch) error {
	result, err := s.db.Exec(`
	UPDATE users SET
		name = COALESCE($2, name),
		bio = COALESCE($3, bio),
		show_activity = COALESCE($4, show_activity)
	WHERE id = $1`, id, patch.Name, patch.Bio, patch.ShowActivity)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "User not found")
}

func (s *Storage) UpdateUserRole(id domain.UserId, role domain.Role) error {
	result, err := s.db.Exec("UPDATE users SET role = $2 WHERE id = $1", id, string(role))
	if err != nil {
		return err
	}
	return requireRowAffected(result, "User not found")
}

func (s *Storage) UpdateUserStatus(id domain.UserId, status string) error {
	result, err := s.db.Exec("UPDATE users SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "User not found")
}

func (s *Storage) UpdatePasswordHash(id domain.UserId, passwordHash string) error {
	result, err := s.db.Exec("UPDATE users SET password_hash = $2 WHERE id = $1", id, passwordHash)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "User not found")
}

// DeleteUser removes the user row; their discussion nodes cascade.
func (s *Storage) DeleteUser(id domain.UserId) error {
	result, err := s.db.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "User not found")
}

func requireRowAffected(result sql.Result, notFoundMsg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: notFoundMsg, StatusCode: http.StatusNotFound}
	}
	return nil
}
