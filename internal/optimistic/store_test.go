package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpsertGetRemove(t *testing.T) {
	s := NewStore()
	s.UpsertPost(Post{ID: "p1", LikesCount: 1})
	s.UpsertPost(Post{ID: "p2"})
	s.UpsertComment(Comment{ID: "c1", PostID: "p1"})
	s.UpsertComment(Comment{ID: "c2", PostID: "p1"})

	p, ok := s.Post("p1")
	require.True(t, ok)
	assert.Equal(t, int64(1), p.LikesCount)

	s.UpsertPost(Post{ID: "p1", LikesCount: 7})
	p, _ = s.Post("p1")
	assert.Equal(t, int64(7), p.LikesCount)
	assert.Len(t, s.Posts(), 2, "upsert of existing id must not duplicate")

	_, ok = s.Post("missing")
	assert.False(t, ok)

	assert.True(t, s.Remove("c1"))
	assert.Equal(t, []Comment{{ID: "c2", PostID: "p1"}}, s.Comments("p1"))
	assert.False(t, s.Remove("c1"))

	assert.True(t, s.Remove("p1"))
	_, ok = s.Comment("c2")
	assert.False(t, ok, "removing a post drops its comments")
	posts, comments := s.Len()
	assert.Equal(t, 1, posts)
	assert.Equal(t, 0, comments)
}

func TestStore_ReplaceIDKeepsOrder(t *testing.T) {
	s := NewStore()
	s.UpsertPost(Post{ID: "p1"})
	s.UpsertComment(Comment{ID: "c1", PostID: "p1"})
	s.UpsertComment(Comment{ID: "temp-1", PostID: "p1", Content: "draft"})
	s.UpsertComment(Comment{ID: "c3", PostID: "p1"})

	require.NoError(t, s.ReplaceID("temp-1", "c-789"))

	ids := []string{}
	for _, c := range s.Comments("p1") {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c-789", "c3"}, ids)
	c, ok := s.Comment("c-789")
	require.True(t, ok)
	assert.Equal(t, "draft", c.Content)
	_, ok = s.Comment("temp-1")
	assert.False(t, ok)

	assert.ErrorIs(t, s.ReplaceID("nope", "x"), ErrNotFound)
}

func TestStore_ReplaceIDWhenCanonicalAlreadyPresent(t *testing.T) {
	s := NewStore()
	s.UpsertPost(Post{ID: "p1"})
	s.UpsertComment(Comment{ID: "temp-1", PostID: "p1"})
	s.UpsertComment(Comment{ID: "c-1", PostID: "p1"})

	require.NoError(t, s.ReplaceID("temp-1", "c-1"))
	assert.Len(t, s.Comments("p1"), 1)
}

func TestStore_ReplacePostID(t *testing.T) {
	s := NewStore()
	s.UpsertPost(Post{ID: "temp-p"})
	s.UpsertComment(Comment{ID: "c1", PostID: "temp-p"})

	require.NoError(t, s.ReplaceID("temp-p", "p9"))
	c, _ := s.Comment("c1")
	assert.Equal(t, "p9", c.PostID)
	assert.Len(t, s.Comments("p9"), 1)
	assert.Empty(t, s.Comments("temp-p"))
}

func TestStore_ResetBumpsGeneration(t *testing.T) {
	s := NewStore()
	s.UpsertPost(Post{ID: "old"})
	g := s.Generation()

	s.Reset([]Post{{ID: "p1"}, {ID: "p2"}}, []Comment{{ID: "c1", PostID: "p2"}})

	assert.NotEqual(t, g, s.Generation())
	_, ok := s.Post("old")
	assert.False(t, ok)
	assert.Equal(t, "p1", s.Posts()[0].ID)
	assert.Len(t, s.Comments("p2"), 1)
}
