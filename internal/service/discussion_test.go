package service

import (
	"errors"
	"testing"
	"time"

	"github.com/animeverse-dev/animeverse/internal/domain"
	internal_errors "github.com/animeverse-dev/animeverse/internal/errors"
)

// Mock structs

type MockDiscussionStorage struct {
	CreateNodeFunc     func(data domain.NodeCreationData) (domain.DiscussionNode, error)
	NodeFunc           func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error)
	NodesBySurfaceFunc func(surface domain.Surface) ([]domain.DiscussionNode, error)
	HasRepliesFunc     func(id domain.NodeId) (bool, error)
	UpdateNodeTextFunc func(surface domain.Surface, id domain.NodeId, text domain.NodeText) error
	SoftDeleteNodeFunc func(surface domain.Surface, id domain.NodeId) error
	RemoveNodeFunc     func(surface domain.Surface, id domain.NodeId) error
}

func (m *MockDiscussionStorage) CreateNode(data domain.NodeCreationData) (domain.DiscussionNode, error) {
	if m.CreateNodeFunc != nil {
		return m.CreateNodeFunc(data)
	}
	return domain.DiscussionNode{
		Id:       "n1",
		Surface:  data.Surface,
		Author:   data.Author,
		Text:     data.Text,
		MediaUrl: data.MediaUrl,
		ParentId: data.ParentId,
	}, nil
}

func (m *MockDiscussionStorage) Node(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
	if m.NodeFunc != nil {
		return m.NodeFunc(surface, id)
	}
	return domain.DiscussionNode{Id: id, Surface: surface}, nil
}

func (m *MockDiscussionStorage) NodesBySurface(surface domain.Surface) ([]domain.DiscussionNode, error) {
	if m.NodesBySurfaceFunc != nil {
		return m.NodesBySurfaceFunc(surface)
	}
	return nil, nil
}

func (m *MockDiscussionStorage) HasReplies(id domain.NodeId) (bool, error) {
	if m.HasRepliesFunc != nil {
		return m.HasRepliesFunc(id)
	}
	return false, nil
}

func (m *MockDiscussionStorage) UpdateNodeText(surface domain.Surface, id domain.NodeId, text domain.NodeText) error {
	if m.UpdateNodeTextFunc != nil {
		return m.UpdateNodeTextFunc(surface, id, text)
	}
	return nil
}

func (m *MockDiscussionStorage) SoftDeleteNode(surface domain.Surface, id domain.NodeId) error {
	if m.SoftDeleteNodeFunc != nil {
		return m.SoftDeleteNodeFunc(surface, id)
	}
	return nil
}

func (m *MockDiscussionStorage) RemoveNode(surface domain.Surface, id domain.NodeId) error {
	if m.RemoveNodeFunc != nil {
		return m.RemoveNodeFunc(surface, id)
	}
	return nil
}

type MockSurfaceChecker struct {
	SurfaceExistsFunc func(surface domain.Surface) (bool, error)
}

func (m *MockSurfaceChecker) SurfaceExists(surface domain.Surface) (bool, error) {
	if m.SurfaceExistsFunc != nil {
		return m.SurfaceExistsFunc(surface)
	}
	return true, nil
}

type MockMediaResolver struct {
	ResolveFunc func(ref string) string
}

func (m *MockMediaResolver) Resolve(ref string) string {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ref)
	}
	return ref
}

type MockTextValidator struct {
	TextFunc func(text string) error
}

func (m *MockTextValidator) Text(text string) error {
	if m.TextFunc != nil {
		return m.TextFunc(text)
	}
	return nil
}

func newTestDiscussion() (*Discussion, *MockDiscussionStorage, *MockSurfaceChecker, *MockTextValidator) {
	storage := &MockDiscussionStorage{}
	surfaces := &MockSurfaceChecker{}
	validator := &MockTextValidator{}
	service := NewDiscussion(storage, surfaces, &MockMediaResolver{}, validator)
	return service, storage, surfaces, validator
}

func strPtr(s string) *string { return &s }

func statusCode(t *testing.T, err error) int {
	t.Helper()
	var withStatus *internal_errors.ErrorWithStatusCode
	if !errors.As(err, &withStatus) {
		t.Fatalf("expected ErrorWithStatusCode, got %v", err)
	}
	return withStatus.StatusCode
}

func TestDiscussionPost(t *testing.T) {
	service, storage, surfaces, validator := newTestDiscussion()
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}

	// Successful text-only post: empty reply list, no parent snapshot.
	node, err := service.Post(surface, &author, PostData{Text: strPtr("nice episode")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if node.Text == nil || *node.Text != "nice episode" {
		t.Errorf("Unexpected text: %v", node.Text)
	}
	if node.Replies == nil || len(node.Replies) != 0 {
		t.Errorf("Expected empty reply list, got %v", node.Replies)
	}
	if node.Parent != nil {
		t.Errorf("Expected no parent snapshot, got %v", node.Parent)
	}

	// Media-only post is allowed.
	if _, err := service.Post(surface, &author, PostData{MediaUrl: strPtr("/media/pic.png")}); err != nil {
		t.Errorf("Media-only post failed: %v", err)
	}

	// Neither text nor media.
	_, err = service.Post(surface, &author, PostData{})
	if statusCode(t, err) != 400 {
		t.Errorf("Expected 400 for empty post, got %v", err)
	}

	// Blank text counts as empty.
	_, err = service.Post(surface, &author, PostData{Text: strPtr("")})
	if statusCode(t, err) != 400 {
		t.Errorf("Expected 400 for blank post, got %v", err)
	}

	// Markup is stripped before persisting.
	var savedText *domain.NodeText
	storage.CreateNodeFunc = func(data domain.NodeCreationData) (domain.DiscussionNode, error) {
		savedText = data.Text
		return domain.DiscussionNode{Id: "n2", Surface: data.Surface, Author: data.Author, Text: data.Text}, nil
	}
	if _, err := service.Post(surface, &author, PostData{Text: strPtr("<b>bold</b> take")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if savedText == nil || *savedText != "bold take" {
		t.Errorf("Expected sanitized text, got %v", savedText)
	}
	storage.CreateNodeFunc = nil

	// Validation failure propagates.
	validator.TextFunc = func(text string) error {
		return &internal_errors.ErrorWithStatusCode{Message: "Text is too long", StatusCode: 400}
	}
	_, err = service.Post(surface, &author, PostData{Text: strPtr("x")})
	if err == nil || err.Error() != "Text is too long" {
		t.Errorf("Expected validation error, got %v", err)
	}
	validator.TextFunc = nil

	// Missing surface, message named after the surface kind.
	surfaces.SurfaceExistsFunc = func(surface domain.Surface) (bool, error) { return false, nil }
	_, err = service.Post(surface, &author, PostData{Text: strPtr("x")})
	if statusCode(t, err) != 404 || err.Error() != "Anime not found" {
		t.Errorf("Expected 'Anime not found', got %v", err)
	}
	_, err = service.Post(domain.EpisodeSurface("e1"), &author, PostData{Text: strPtr("x")})
	if err == nil || err.Error() != "Episode not found" {
		t.Errorf("Expected 'Episode not found', got %v", err)
	}
	surfaces.SurfaceExistsFunc = nil
}

func TestDiscussionPostReplySnapshot(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}
	parentId := "p1"

	storage.NodeFunc = func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
		if id != parentId {
			t.Errorf("Expected parent lookup for %s, got %s", parentId, id)
		}
		return domain.DiscussionNode{
			Id:      parentId,
			Surface: surface,
			Author:  domain.User{Id: "u2"},
			Text:    strPtr("original"),
			Replies: []*domain.DiscussionNode{{Id: "other"}},
		}, nil
	}

	node, err := service.Post(surface, &author, PostData{Text: strPtr("reply"), ParentId: &parentId})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if node.Parent == nil || node.Parent.Id != parentId {
		t.Fatalf("Expected parent snapshot for %s, got %v", parentId, node.Parent)
	}
	// Snapshot is shallow: no grandparent, no reply list.
	if node.Parent.Parent != nil || node.Parent.Replies != nil {
		t.Errorf("Parent snapshot should not carry links: %+v", node.Parent)
	}
}

func TestDiscussionPostMarkupOnlyIsEmpty(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}

	created := false
	storage.CreateNodeFunc = func(data domain.NodeCreationData) (domain.DiscussionNode, error) {
		created = true
		return domain.DiscussionNode{Id: "n1", Surface: data.Surface, Author: data.Author, Text: data.Text}, nil
	}

	// Input that sanitizes down to nothing is as empty as a blank post.
	for _, text := range []string{"<script>alert(1)</script>", "<b></b>", "<img src=x>"} {
		_, err := service.Post(surface, &author, PostData{Text: strPtr(text)})
		if statusCode(t, err) != 400 {
			t.Errorf("Expected 400 for markup-only %q, got %v", text, err)
		}
	}
	if created {
		t.Error("Markup-only post must not reach storage")
	}

	// With media attached the same text is fine; the blank text is dropped.
	var savedText *domain.NodeText
	storage.CreateNodeFunc = func(data domain.NodeCreationData) (domain.DiscussionNode, error) {
		savedText = data.Text
		return domain.DiscussionNode{Id: "n1", Surface: data.Surface, Author: data.Author, Text: data.Text, MediaUrl: data.MediaUrl}, nil
	}
	if _, err := service.Post(surface, &author, PostData{Text: strPtr("<b></b>"), MediaUrl: strPtr("/media/pic.png")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if savedText != nil {
		t.Errorf("Expected stripped text to be dropped, got %v", *savedText)
	}
}

func TestDiscussionPostResolvesParentSnapshotMedia(t *testing.T) {
	storage := &MockDiscussionStorage{}
	resolver := &MockMediaResolver{ResolveFunc: func(ref string) string { return "https://cdn.example" + ref }}
	service := NewDiscussion(storage, &MockSurfaceChecker{}, resolver, &MockTextValidator{})
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}
	parentId := "p1"

	storage.NodeFunc = func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
		return domain.DiscussionNode{
			Id:       parentId,
			Surface:  surface,
			Author:   domain.User{Id: "u2", AvatarUrl: strPtr("/avatars/u2.png")},
			MediaUrl: strPtr("/media/parent.png"),
		}, nil
	}

	node, err := service.Post(surface, &author, PostData{Text: strPtr("reply"), ParentId: &parentId})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if node.Parent == nil {
		t.Fatal("Expected parent snapshot")
	}
	if node.Parent.MediaUrl == nil || *node.Parent.MediaUrl != "https://cdn.example/media/parent.png" {
		t.Errorf("Parent media not resolved: %v", node.Parent.MediaUrl)
	}
	if node.Parent.Author.AvatarUrl == nil || *node.Parent.Author.AvatarUrl != "https://cdn.example/avatars/u2.png" {
		t.Errorf("Parent author avatar not resolved: %v", node.Parent.Author.AvatarUrl)
	}
}

func TestDiscussionEdit(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}
	stranger := domain.User{Id: "u2", Role: domain.RoleUser}
	admin := domain.User{Id: "u3", Role: domain.RoleAdmin}

	storage.NodeFunc = func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
		return domain.DiscussionNode{Id: id, Surface: surface, Author: author}, nil
	}
	storage.NodesBySurfaceFunc = func(surface domain.Surface) ([]domain.DiscussionNode, error) {
		return []domain.DiscussionNode{{Id: "n1", Surface: surface, Author: author, Text: strPtr("updated")}}, nil
	}

	// Author edits their own node.
	node, err := service.Edit(surface, "n1", &author, "updated")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if node.Text == nil || *node.Text != "updated" {
		t.Errorf("Unexpected text: %v", node.Text)
	}

	// A non-author regular user may not.
	_, err = service.Edit(surface, "n1", &stranger, "nope")
	if statusCode(t, err) != 403 {
		t.Errorf("Expected 403 for stranger, got %v", err)
	}

	// Staff may edit anyone's node.
	if _, err := service.Edit(surface, "n1", &admin, "moderated"); err != nil {
		t.Errorf("Admin edit failed: %v", err)
	}

	// Sanitized text reaches storage.
	var savedText domain.NodeText
	storage.UpdateNodeTextFunc = func(surface domain.Surface, id domain.NodeId, text domain.NodeText) error {
		savedText = text
		return nil
	}
	if _, err := service.Edit(surface, "n1", &author, "<i>fixed</i>"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if savedText != "fixed" {
		t.Errorf("Expected sanitized text, got %q", savedText)
	}

	// Unknown node.
	storage.NodeFunc = func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
		return domain.DiscussionNode{}, &internal_errors.ErrorWithStatusCode{Message: "Comment not found", StatusCode: 404}
	}
	_, err = service.Edit(surface, "missing", &author, "x")
	if statusCode(t, err) != 404 {
		t.Errorf("Expected 404, got %v", err)
	}
}

func TestDiscussionDelete(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.EpisodeSurface("e1")
	author := domain.User{Id: "u1", Role: domain.RoleUser}
	stranger := domain.User{Id: "u2", Role: domain.RoleUser}

	storage.NodeFunc = func(surface domain.Surface, id domain.NodeId) (domain.DiscussionNode, error) {
		return domain.DiscussionNode{Id: id, Surface: surface, Author: author}, nil
	}

	// Leaf node is physically removed.
	var removed, softDeleted bool
	storage.RemoveNodeFunc = func(surface domain.Surface, id domain.NodeId) error {
		removed = true
		return nil
	}
	storage.SoftDeleteNodeFunc = func(surface domain.Surface, id domain.NodeId) error {
		softDeleted = true
		return nil
	}
	if err := service.Delete(surface, "leaf", &author); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !removed || softDeleted {
		t.Errorf("Expected physical removal for leaf: removed=%v softDeleted=%v", removed, softDeleted)
	}

	// Node with replies is soft-deleted to keep the subtree attached.
	removed, softDeleted = false, false
	storage.HasRepliesFunc = func(id domain.NodeId) (bool, error) { return true, nil }
	if err := service.Delete(surface, "branch", &author); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !softDeleted || removed {
		t.Errorf("Expected soft delete for branch: removed=%v softDeleted=%v", removed, softDeleted)
	}

	// Strangers may not delete.
	err := service.Delete(surface, "n1", &stranger)
	if statusCode(t, err) != 403 {
		t.Errorf("Expected 403 for stranger, got %v", err)
	}
}

func TestCanModerate(t *testing.T) {
	node := &domain.DiscussionNode{Id: "n1", Author: domain.User{Id: "author"}}
	cases := []struct {
		name      string
		principal domain.User
		expected  bool
	}{
		{"author", domain.User{Id: "author", Role: domain.RoleUser}, true},
		{"other user", domain.User{Id: "other", Role: domain.RoleUser}, false},
		{"admin", domain.User{Id: "other", Role: domain.RoleAdmin}, true},
		{"co-owner", domain.User{Id: "other", Role: domain.RoleCoOwner}, true},
		{"owner", domain.User{Id: "other", Role: domain.RoleOwner}, true},
	}
	for _, c := range cases {
		if got := canModerate(&c.principal, node); got != c.expected {
			t.Errorf("canModerate(%s) = %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestListSurfaceAssemblesForest(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.AnimeSurface("a1")
	author := domain.User{Id: "u1"}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rootA := "rootA"
	rootB := "rootB"
	storage.NodesBySurfaceFunc = func(surface domain.Surface) ([]domain.DiscussionNode, error) {
		return []domain.DiscussionNode{
			{Id: rootA, Surface: surface, Author: author, Text: strPtr("first"), CreatedAt: base},
			{Id: "childA1", Surface: surface, Author: author, Text: strPtr("reply 1"), CreatedAt: base.Add(time.Minute), ParentId: &rootA},
			{Id: rootB, Surface: surface, Author: author, Text: strPtr("second"), CreatedAt: base.Add(2 * time.Minute)},
			{Id: "childA2", Surface: surface, Author: author, Text: strPtr("reply 2"), CreatedAt: base.Add(3 * time.Minute), ParentId: &rootA},
			{Id: "grandchild", Surface: surface, Author: author, Text: strPtr("deep"), CreatedAt: base.Add(4 * time.Minute), ParentId: strPtr("childA1")},
		}, nil
	}

	forest, err := service.ListSurface(surface)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(forest) != 2 {
		t.Fatalf("Expected 2 roots, got %d", len(forest))
	}

	// Anime surfaces list roots newest-first.
	if forest[0].Id != rootB || forest[1].Id != rootA {
		t.Errorf("Expected newest-first roots [rootB rootA], got [%s %s]", forest[0].Id, forest[1].Id)
	}

	// Replies stay in creation order under their parent.
	a := forest[1]
	if len(a.Replies) != 2 || a.Replies[0].Id != "childA1" || a.Replies[1].Id != "childA2" {
		t.Fatalf("Unexpected replies under rootA: %+v", a.Replies)
	}

	// The full subtree is materialized.
	if len(a.Replies[0].Replies) != 1 || a.Replies[0].Replies[0].Id != "grandchild" {
		t.Errorf("Expected grandchild nested under childA1")
	}

	// Children carry a shallow parent snapshot.
	child := a.Replies[0]
	if child.Parent == nil || child.Parent.Id != rootA {
		t.Fatalf("Expected parent snapshot on child, got %v", child.Parent)
	}
	if child.Parent.Replies != nil || child.Parent.Parent != nil {
		t.Errorf("Parent snapshot should not carry links")
	}
}

func TestListSurfaceStaffOrder(t *testing.T) {
	service, storage, _, _ := newTestDiscussion()
	surface := domain.StaffSurface()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	storage.NodesBySurfaceFunc = func(surface domain.Surface) ([]domain.DiscussionNode, error) {
		return []domain.DiscussionNode{
			{Id: "m1", Surface: surface, Text: strPtr("old"), CreatedAt: base},
			{Id: "m2", Surface: surface, Text: strPtr("new"), CreatedAt: base.Add(time.Hour)},
		}, nil
	}

	forest, err := service.ListSurface(surface)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(forest) != 2 || forest[0].Id != "m1" || forest[1].Id != "m2" {
		t.Errorf("Expected chat order oldest-first, got %+v", forest)
	}
}

func TestListSurfaceEmptyAndMissing(t *testing.T) {
	service, _, surfaces, _ := newTestDiscussion()

	// Empty surface returns an empty slice, not nil.
	forest, err := service.ListSurface(domain.AnimeSurface("a1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if forest == nil || len(forest) != 0 {
		t.Errorf("Expected empty forest, got %v", forest)
	}

	surfaces.SurfaceExistsFunc = func(surface domain.Surface) (bool, error) { return false, nil }
	_, err = service.ListSurface(domain.AnimeSurface("missing"))
	if statusCode(t, err) != 404 {
		t.Errorf("Expected 404 for missing surface, got %v", err)
	}
}

func TestListSurfaceMediaResolved(t *testing.T) {
	storage := &MockDiscussionStorage{}
	media := &MockMediaResolver{ResolveFunc: func(ref string) string { return "http://cdn.test" + ref }}
	service := NewDiscussion(storage, &MockSurfaceChecker{}, media, &MockTextValidator{})

	storage.NodesBySurfaceFunc = func(surface domain.Surface) ([]domain.DiscussionNode, error) {
		return []domain.DiscussionNode{
			{
				Id:        "n1",
				Surface:   surface,
				Author:    domain.User{Id: "u1", AvatarUrl: strPtr("/avatars/u1.png")},
				MediaUrl:  strPtr("/media/clip.webm"),
				CreatedAt: time.Now(),
			},
		}, nil
	}

	forest, err := service.ListSurface(domain.AnimeSurface("a1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := *forest[0].MediaUrl; got != "http://cdn.test/media/clip.webm" {
		t.Errorf("Expected resolved media url, got %q", got)
	}
	if got := *forest[0].Author.AvatarUrl; got != "http://cdn.test/avatars/u1.png" {
		t.Errorf("Expected resolved avatar url, got %q", got)
	}
}
