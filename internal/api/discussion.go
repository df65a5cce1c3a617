package api

import (
	"time"

	"github.com/animeverse-dev/animeverse/internal/domain"
)

// Request DTOs

type CreateNodeRequest struct {
	Text     *string `json:"text,omitempty"`
	MediaUrl *string `json:"mediaUrl,omitempty"`
	ParentId *string `json:"parentId,omitempty"`
}

type EditNodeRequest struct {
	Text string `json:"text" validate:"required"`
}

// Response DTOs

// Author is the shallow user shape embedded in every node.
type Author struct {
	Id        string  `json:"id"`
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	AvatarUrl *string `json:"avatarUrl"`
}

// ParentNode is the shallow "replying to" snapshot: no grandparent, no
// replies of its own, to bound response size.
type ParentNode struct {
	Id        string  `json:"id"`
	Text      *string `json:"text"`
	Author    Author  `json:"author"`
	IsDeleted bool    `json:"isDeleted"`
}

// Node is the external representation of a hydrated discussion node.
// Replies nests the complete subtree.
type Node struct {
	Id        string      `json:"id"`
	Text      *string     `json:"text"`
	Author    Author      `json:"author"`
	Timestamp time.Time   `json:"timestamp"`
	MediaUrl  *string     `json:"mediaUrl"`
	IsDeleted bool        `json:"isDeleted"`
	Parent    *ParentNode `json:"parent,omitempty"`
	Replies   []*Node     `json:"replies"`
}

func newAuthor(u domain.User) Author {
	return Author{
		Id:        u.Id,
		Username:  u.Username,
		Name:      u.Name,
		Role:      string(u.Role),
		AvatarUrl: u.AvatarUrl,
	}
}

// NewNode shapes a hydrated node (and its full reply subtree) into the
// external representation.
func NewNode(n *domain.DiscussionNode) *Node {
	out := &Node{
		Id:        n.Id,
		Text:      n.Text,
		Author:    newAuthor(n.Author),
		Timestamp: n.CreatedAt,
		MediaUrl:  n.MediaUrl,
		IsDeleted: n.IsDeleted,
		Replies:   make([]*Node, 0, len(n.Replies)),
	}
	if n.Parent != nil {
		out.Parent = &ParentNode{
			Id:        n.Parent.Id,
			Text:      n.Parent.Text,
			Author:    newAuthor(n.Parent.Author),
			IsDeleted: n.Parent.IsDeleted,
		}
	}
	for _, reply := range n.Replies {
		out.Replies = append(out.Replies, NewNode(reply))
	}
	return out
}

func NewNodes(nodes []*domain.DiscussionNode) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NewNode(n))
	}
	return out
}
