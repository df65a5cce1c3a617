package service

import (
	"net/http"
	"sort"

	"github.com/microcosm-cc/bluemonday"

	"github.com/animeverse-dev/animeverse/internal/domain"
	"github.com/animeverse-dev/animeverse/internal/errors"
)

type DiscussionService interface {
	Post(surface domain.Surface, principal *domain.User, data PostData) (*domain.DiscussionNode, error)
	Edit(surface domain.Surface, id domain.NodeId, principal *domain.User, text domain.NodeText) (*domain.DiscussionNode, error)
	Delete(surface domain.Surface, id domain.NodeId, principal *domain.User) error
	ListSurface(surface domain.Surface) ([]*domain.DiscussionNode, error)
}

type PostData struct {
	Text     *domain.NodeText
	MediaUrl *domain.MediaRef
	ParentId *domain.NodeId
}

type DiscussionStorage interface {
	CreateNode(data domain.NodeCreationData) (domain.DiscussionNode, error)
	Node(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error)
	NodesBySurface(surface domain.Surface) ([]domain.DiscussionNode, error)
	HasReplies(id domain.NodeId) (bool, error)
	UpdateNodeText(surface domain.Surface, id domain.NodeId, text domain.NodeText) error
	SoftDeleteNode(surface domain.Surface, id domain.NodeId) error
	RemoveNode(surface domain.Surface, id domain.NodeId) error
}

// SurfaceChecker answers "does surface X exist". Titles and episodes are
// delegated to the catalog tables; the staff channel always exists.
type SurfaceChecker interface {
	SurfaceExists(surface domain.Surface) (bool, error)
}

type MediaResolver interface {
	Resolve(ref string) string
}

type TextValidator interface {
	Text(text string) error
}

type Discussion struct {
	storage   DiscussionStorage
	surfaces  SurfaceChecker
	media     MediaResolver
	validator TextValidator
	sanitizer *bluemonday.Policy
}

func NewDiscussion(storage DiscussionStorage, surfaces SurfaceChecker, media MediaResolver, validator TextValidator) *Discussion {
	// Comments are plain text; strip all markup rather than allowlisting tags.
	return &Discussion{storage, surfaces, media, validator, bluemonday.StrictPolicy()}
}

// canModerate is the single mutation-permission rule shared by every
// surface: the author may touch their own node, staff may touch any.
func canModerate(principal *domain.User, node *domain.DiscussionNode) bool {
	return principal.Id == node.Author.Id || principal.Role.AtLeast(domain.RoleAdmin)
}

func surfaceNotFound(kind domain.SurfaceKind) error {
	msg := "Surface not found"
	switch kind {
	case domain.SurfaceAnime:
		msg = "Anime not found"
	case domain.SurfaceEpisode:
		msg = "Episode not found"
	}
	return &errors.ErrorWithStatusCode{Message: msg, StatusCode: http.StatusNotFound}
}

func (d *Discussion) checkText(text *domain.NodeText) (*domain.NodeText, error) {
	if text == nil {
		return nil, nil
	}
	if err := d.validator.Text(*text); err != nil {
		return nil, err
	}
	clean := d.sanitizer.Sanitize(*text)
	return &clean, nil
}

// Post validates and persists a new node, then returns it fully hydrated:
// resolved media, a shallow parent snapshot, and an empty reply list (a
// fresh node has none).
func (d *Discussion) Post(surface domain.Surface, principal *domain.User, data PostData) (*domain.DiscussionNode, error) {
	text, err := d.checkText(data.Text)
	if err != nil {
		return nil, err
	}
	// Emptiness is judged after sanitization: markup-only input strips
	// down to nothing and must not produce a blank node.
	if text != nil && *text == "" {
		text = nil
	}
	hasMedia := data.MediaUrl != nil && *data.MediaUrl != ""
	if text == nil && !hasMedia {
		return nil, &errors.ErrorWithStatusCode{Message: "Comment cannot be empty", StatusCode: http.StatusBadRequest}
	}

	exists, err := d.surfaces.SurfaceExists(surface)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, surfaceNotFound(surface.Kind)
	}

	var mediaUrl *domain.MediaRef
	if hasMedia {
		mediaUrl = data.MediaUrl
	}

	node, err := d.storage.CreateNode(domain.NodeCreationData{
		Surface:  surface,
		Author:   *principal,
		Text:     text,
		MediaUrl: mediaUrl,
		ParentId: data.ParentId,
	})
	if err != nil {
		return nil, err
	}

	resolveMedia(&node, d.media)
	node.Replies = []*domain.DiscussionNode{}

	// One-level parent snapshot for the "replying to" display.
	if node.ParentId != nil {
		parent, err := d.storage.Node(surface, *node.ParentId)
		if err != nil {
			return nil, err
		}
		resolveMedia(&parent, d.media)
		node.Parent = snapshot(&parent)
	}

	return &node, nil
}

// Edit mutates the text of a node and returns the re-hydrated node with its
// full reply subtree.
func (d *Discussion) Edit(surface domain.Surface, id domain.NodeId, principal *domain.User, text domain.NodeText) (*domain.DiscussionNode, error) {
	node, err := d.storage.Node(surface, id)
	if err != nil {
		return nil, err
	}
	if !canModerate(principal, &node) {
		return nil, &errors.ErrorWithStatusCode{Message: "You do not have permission to edit this comment", StatusCode: http.StatusForbidden}
	}

	clean, err := d.checkText(&text)
	if err != nil {
		return nil, err
	}
	if err := d.storage.UpdateNodeText(surface, id, *clean); err != nil {
		return nil, err
	}

	return d.hydrated(surface, id)
}

// Delete soft-deletes a node that has replies, preserving the shape of
// descendant threads, and physically removes a leaf. The removal re-checks
// inside its own transaction, so a racing reply turns into an error instead
// of an orphan.
func (d *Discussion) Delete(surface domain.Surface, id domain.NodeId, principal *domain.User) error {
	node, err := d.storage.Node(surface, id)
	if err != nil {
		return err
	}
	if !canModerate(principal, &node) {
		return &errors.ErrorWithStatusCode{Message: "You do not have permission to delete this comment", StatusCode: http.StatusForbidden}
	}

	hasReplies, err := d.storage.HasReplies(id)
	if err != nil {
		return err
	}
	if hasReplies {
		return d.storage.SoftDeleteNode(surface, id)
	}
	return d.storage.RemoveNode(surface, id)
}

// ListSurface returns the hydrated root nodes of a surface, ordered by its
// policy, with the complete reply subtree nested under each root.
func (d *Discussion) ListSurface(surface domain.Surface) ([]*domain.DiscussionNode, error) {
	exists, err := d.surfaces.SurfaceExists(surface)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, surfaceNotFound(surface.Kind)
	}

	forest, _, err := d.assemble(surface)
	if err != nil {
		return nil, err
	}

	switch surface.Order() {
	case domain.OldestFirst:
		// storage already returns creation order
	default:
		sort.SliceStable(forest, func(i, j int) bool {
			return forest[i].CreatedAt.After(forest[j].CreatedAt)
		})
	}
	return forest, nil
}

// hydrated returns a single node with parent snapshot and full subtree.
func (d *Discussion) hydrated(surface domain.Surface, id domain.NodeId) (*domain.DiscussionNode, error) {
	_, byId, err := d.assemble(surface)
	if err != nil {
		return nil, err
	}
	node, ok := byId[id]
	if !ok {
		return nil, &errors.ErrorWithStatusCode{Message: "Comment not found", StatusCode: http.StatusNotFound}
	}
	return node, nil
}

// assemble loads every node of a surface once and links the forest in
// memory: an adjacency map from parent id to children, replies kept in
// insertion order, each node carrying a shallow parent snapshot and
// resolved media. Trees are materialized eagerly and fully.
func (d *Discussion) assemble(surface domain.Surface) ([]*domain.DiscussionNode, map[domain.NodeId]*domain.DiscussionNode, error) {
	flat, err := d.storage.NodesBySurface(surface)
	if err != nil {
		return nil, nil, err
	}

	byId := make(map[domain.NodeId]*domain.DiscussionNode, len(flat))
	for i := range flat {
		node := flat[i]
		node.Replies = []*domain.DiscussionNode{}
		resolveMedia(&node, d.media)
		byId[node.Id] = &node
	}

	var roots []*domain.DiscussionNode
	for i := range flat {
		node := byId[flat[i].Id]
		if node.ParentId == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byId[*node.ParentId]
		if !ok {
			// parent row vanished between queries; treat as root rather than drop
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
		node.Parent = snapshot(parent)
	}
	if roots == nil {
		roots = []*domain.DiscussionNode{}
	}
	return roots, byId, nil
}

// snapshot copies a node without its own parent/replies links.
func snapshot(n *domain.DiscussionNode) *domain.DiscussionNode {
	copied := *n
	copied.Parent = nil
	copied.Replies = nil
	return &copied
}

func resolveMedia(n *domain.DiscussionNode, media MediaResolver) {
	if n.MediaUrl != nil {
		resolved := media.Resolve(*n.MediaUrl)
		n.MediaUrl = &resolved
	}
	resolveAvatar(&n.Author, media)
}

func resolveAvatar(u *domain.User, media MediaResolver) {
	if u.AvatarUrl != nil {
		resolved := media.Resolve(*u.AvatarUrl)
		u.AvatarUrl = &resolved
	}
}
