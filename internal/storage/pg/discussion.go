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

const nodeColumns = `
	n.id, n.surface_kind, n.surface_id, n.text, n.media_url, n.created, n.parent_id, n.is_deleted,
	u.id, u.username, u.name, u.role, u.avatar_url`

func scanNode(row interface{ Scan(...any) error }) (domain.DiscussionNode, error) {
	var n domain.DiscussionNode
	var kind, role string
	err := row.Scan(
		&n.Id, &kind, &n.Surface.Id, &n.Text, &n.MediaUrl, &n.CreatedAt, &n.ParentId, &n.IsDeleted,
		&n.Author.Id, &n.Author.Username, &n.Author.Name, &role, &n.Author.AvatarUrl,
	)
	if err != nil {
		return domain.DiscussionNode{}, err
	}
	n.Surface.Kind = domain.SurfaceKind(kind)
	n.Author.Role = domain.Role(role)
	return n, nil
}

// CreateNode assigns identity and server timestamp and persists the node.
// The whole operation runs in one transaction: the parent check and the
// insert either both happen or neither does.
func (s *Storage) CreateNode(data domain.NodeCreationData) (domain.DiscussionNode, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return domain.DiscussionNode{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	// A declared parent must exist on the same surface instance.
	if data.ParentId != nil {
		var parentKind, parentSurfaceId string
		err = tx.QueryRow(
			"SELECT surface_kind, surface_id FROM discussion_nodes WHERE id = $1",
			*data.ParentId,
		).Scan(&parentKind, &parentSurfaceId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.DiscussionNode{}, &internal_errors.ErrorWithStatusCode{Message: "Parent comment not found", StatusCode: http.StatusNotFound}
			}
			return domain.DiscussionNode{}, fmt.Errorf("failed to validate parent: %w", err)
		}
		if domain.SurfaceKind(parentKind) != data.Surface.Kind || parentSurfaceId != data.Surface.Id {
			return domain.DiscussionNode{}, &internal_errors.ErrorWithStatusCode{Message: "Parent comment not found", StatusCode: http.StatusNotFound}
		}
	}

	id := uuid.NewString()
	createdTs := time.Now().UTC().Round(time.Microsecond) // database anyway rounds to microsecond
	_, err = tx.Exec(`
	INSERT INTO discussion_nodes(id, surface_kind, surface_id, author_id, text, media_url, created, parent_id)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(data.Surface.Kind), data.Surface.Id, data.Author.Id, data.Text, data.MediaUrl, createdTs, data.ParentId)
	if err != nil {
		return domain.DiscussionNode{}, fmt.Errorf("failed to insert node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.DiscussionNode{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return domain.DiscussionNode{
		Id:        id,
		Surface:   data.Surface,
		Author:    data.Author,
		Text:      data.Text,
		MediaUrl:  data.MediaUrl,
		CreatedAt: createdTs,
		ParentId:  data.ParentId,
	}, nil
}

// Node fetches a single node scoped to a surface instance. A node id that
// exists on a different surface is NotFound here, which keeps the three
// surfaces isolated from each other.
func (s *Storage) Node(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
	row := s.db.QueryRow(`
	SELECT`+nodeColumns+`
	FROM discussion_nodes n
	JOIN users u ON u.id = n.author_id
	WHERE n.id = $1 AND n.surface_kind = $2 AND n.surface_id = $3`,
		id, string(surface.Kind), surface.Id)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DiscussionNode{}, &internal_errors.ErrorWithStatusCode{Message: "Comment not found", StatusCode: http.StatusNotFound}
		}
		return domain.DiscussionNode{}, fmt.Errorf("failed to fetch node: %w", err)
	}
	return node, nil
}

// NodesBySurface returns every node of a surface instance with its author,
// in creation order. Tree assembly happens in the service layer.
func (s *Storage) NodesBySurface(surface domain.Surface) ([]domain.DiscussionNode, error) {
	rows, err := s.db.Query(`
	SELECT`+nodeColumns+`
	FROM discussion_nodes n
	JOIN users u ON u.id = n.author_id
	WHERE n.surface_kind = $1 AND n.surface_id = $2
	ORDER BY n.created, n.id`,
		string(surface.Kind), surface.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch surface nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.DiscussionNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// Children returns the direct replies of a node in insertion order.
func (s *Storage) Children(surface domain.Surface, id domain.NodeId) ([]domain.DiscussionNode, error) {
	rows, err := s.db.Query(`
	SELECT`+nodeColumns+`
	FROM discussion_nodes n
	JOIN users u ON u.id = n.author_id
	WHERE n.parent_id = $1 AND n.surface_kind = $2 AND n.surface_id = $3
	ORDER BY n.created, n.id`,
		id, string(surface.Kind), surface.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch children: %w", err)
	}
	defer rows.Close()

	var nodes []domain.DiscussionNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// RecentAnimeCommentsByAuthor returns the author's latest surviving anime
// comments with their title context, newest first. Feeds public profiles.
func (s *Storage) RecentAnimeCommentsByAuthor(authorId domain.UserId, limit int) ([]domain.ProfileEntry, error) {
	rows, err := s.db.Query(`
	SELECT a.id, a.title, n.text, n.created
	FROM discussion_nodes n
	JOIN animes a ON a.id = n.surface_id
	WHERE n.author_id = $1 AND n.surface_kind = $2 AND n.is_deleted = FALSE
	ORDER BY n.created DESC, n.id
	LIMIT $3`,
		authorId, string(domain.SurfaceAnime), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch author comments: %w", err)
	}
	defer rows.Close()

	var entries []domain.ProfileEntry
	for rows.Next() {
		var e domain.ProfileEntry
		if err := rows.Scan(&e.AnimeId, &e.AnimeTitle, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Storage) HasReplies(id domain.NodeId) (bool, error) {
	var has bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM discussion_nodes WHERE parent_id = $1)", id).Scan(&has)
	return has, err
}

func (s *Storage) UpdateNodeText(surface domain.Surface, id domain.NodeId, text domain.NodeText) error {
	result, err := s.db.Exec(`
	UPDATE discussion_nodes SET text = $4
	WHERE id = $1 AND surface_kind = $2 AND surface_id = $3`,
		id, string(surface.Kind), surface.Id, text)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "Comment not found")
}

// SoftDeleteNode marks the node deleted, replaces its text with the fixed
// placeholder and clears its media reference. Idempotent.
func (s *Storage) SoftDeleteNode(surface domain.Surface, id domain.NodeId) error {
	result, err := s.db.Exec(`
	UPDATE discussion_nodes SET
		is_deleted = TRUE,
		text = $4,
		media_url = NULL
	WHERE id = $1 AND surface_kind = $2 AND surface_id = $3`,
		id, string(surface.Kind), surface.Id, domain.DeletedPlaceholder)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "Comment not found")
}

// RemoveNode physically deletes a node. The engine only calls this for
// leaves; the in-transaction re-check is the last line of defense against a
// reply racing in between the engine's check and the delete.
func (s *Storage) RemoveNode(surface domain.Surface, id domain.NodeId) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var hasReplies bool
	if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM discussion_nodes WHERE parent_id = $1)", id).Scan(&hasReplies); err != nil {
		return fmt.Errorf("failed to check replies: %w", err)
	}
	if hasReplies {
		return &internal_errors.ErrorWithStatusCode{Message: "Cannot remove a comment that has replies", StatusCode: http.StatusInternalServerError}
	}

	result, err := tx.Exec(`
	DELETE FROM discussion_nodes
	WHERE id = $1 AND surface_kind = $2 AND surface_id = $3`,
		id, string(surface.Kind), surface.Id)
	if err != nil {
		return err
	}
	if err := requireRowAffected(result, "Comment not found"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
