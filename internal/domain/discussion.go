package domain

import "time"

// SurfaceKind identifies which content surface a discussion tree hangs off.
type SurfaceKind string

const (
	SurfaceAnime   SurfaceKind = "anime"
	SurfaceEpisode SurfaceKind = "episode"
	SurfaceStaff   SurfaceKind = "staff"
)

// StaffSurfaceId is the id of the singleton staff channel.
const StaffSurfaceId SurfaceId = "staff"

// Surface is one container of discussion nodes: a title's comment section,
// an episode's comment section, or the staff chat channel.
type Surface struct {
	Kind SurfaceKind
	Id   SurfaceId
}

func AnimeSurface(id SurfaceId) Surface   { return Surface{SurfaceAnime, id} }
func EpisodeSurface(id SurfaceId) Surface { return Surface{SurfaceEpisode, id} }
func StaffSurface() Surface               { return Surface{SurfaceStaff, StaffSurfaceId} }

// OrderPolicy controls root-level ordering when listing a surface.
// Replies always keep insertion order regardless of policy.
type OrderPolicy int

const (
	NewestFirst OrderPolicy = iota // comment feeds
	OldestFirst                    // chat history
)

// Order returns the root ordering for a surface: comment feeds show the
// newest thread first, the staff chat reads chronologically.
func (s Surface) Order() OrderPolicy {
	if s.Kind == SurfaceStaff {
		return OldestFirst
	}
	return NewestFirst
}

// DeletedPlaceholder replaces the text of a soft-deleted node.
const DeletedPlaceholder = "[deleted]"

// DiscussionNode is one comment/message/reply entry. Parent and Replies are
// hydration fields: Parent is a shallow snapshot (no grandparent, no replies
// of its own), Replies nests the complete subtree.
type DiscussionNode struct {
	Id        NodeId
	Surface   Surface
	Author    User
	Text      *NodeText
	MediaUrl  *MediaRef
	CreatedAt time.Time
	ParentId  *NodeId
	IsDeleted bool

	Parent  *DiscussionNode
	Replies []*DiscussionNode
}

// to iterate thru layers: handler -> service -> storage
type NodeCreationData struct {
	Surface  Surface
	Author   User
	Text     *NodeText
	MediaUrl *MediaRef
	ParentId *NodeId
}
