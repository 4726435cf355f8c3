package optimistic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, posts ...Post) (*Session, *gatedExecutor, *Recorder) {
	t.Helper()
	store := NewStore()
	for _, p := range posts {
		store.UpsertPost(p)
	}
	exec := newGatedExecutor()
	rec := &Recorder{}
	return NewSession(store, exec, WithNotifier(rec)), exec, rec
}

func TestSession_RejectedLikeRollsBack(t *testing.T) {
	s, exec, toasts := newTestSession(t, Post{ID: "P1", LikesCount: 5})
	ctx := context.Background()

	p, err := s.TogglePostLike(ctx, "P1")
	require.NoError(t, err)

	got, _ := s.Post("P1")
	assert.Equal(t, int64(6), got.LikesCount)
	assert.True(t, got.Liked)
	assert.Equal(t, StatePending, p.State())

	exec.next(t).release <- reply{err: rejection{"already liked elsewhere"}}
	assert.Equal(t, StateRolledBack, wait(t, p))

	got, _ = s.Post("P1")
	assert.Equal(t, Post{ID: "P1", LikesCount: 5}, got)
	assert.Equal(t, []Toast{{Level: LevelError, Message: "already liked elsewhere", IntentID: p.ID()}}, toasts.Toasts())
	assert.Equal(t, Rejected, p.Outcome().Kind)
}

func TestSession_ConfirmedCommentReplacesTempID(t *testing.T) {
	s, exec, toasts := newTestSession(t, Post{ID: "P1", CommentsCount: 2})
	ctx := context.Background()

	p, err := s.AddComment(ctx, "P1", "Great point!", false)
	require.NoError(t, err)

	tmp, ok := s.Comment(p.TempID())
	require.True(t, ok)
	assert.Equal(t, "Great point!", tmp.Content)
	post, _ := s.Post("P1")
	assert.Equal(t, int64(3), post.CommentsCount)

	c := exec.next(t)
	assert.Equal(t, "Great point!", c.content)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.release <- reply{comment: &Comment{ID: "c-789", PostID: "P1", Content: "Great point!", AuthorName: "Ada", CreatedAt: created}}
	assert.Equal(t, StateConfirmed, wait(t, p))

	_, ok = s.Comment(p.TempID())
	assert.False(t, ok)
	final, ok := s.Comment("c-789")
	require.True(t, ok)
	assert.Equal(t, created, final.CreatedAt)
	post, _ = s.Post("P1")
	assert.Equal(t, int64(3), post.CommentsCount)
	assert.Equal(t, []Toast{{Level: LevelSuccess, Message: "Comment added", IntentID: p.ID()}}, toasts.Toasts())
}

func TestSession_DoubleToggleIsNetNoop(t *testing.T) {
	s, exec, toasts := newTestSession(t, Post{ID: "P1"})
	ctx := context.Background()

	p1, err := s.TogglePostLike(ctx, "P1")
	require.NoError(t, err)
	first := exec.next(t)
	p2, err := s.TogglePostLike(ctx, "P1")
	require.NoError(t, err)
	second := exec.next(t)

	got, _ := s.Post("P1")
	assert.Equal(t, Post{ID: "P1"}, got, "second synchronous toggle restores the original state")

	// 响应乱序到达：后发的先回
	second.release <- reply{like: &LikeResult{Liked: false, LikesCount: 0}}
	assert.Equal(t, StateConfirmed, wait(t, p2))
	first.release <- reply{like: &LikeResult{Liked: true, LikesCount: 1}}
	assert.Equal(t, StateConfirmed, wait(t, p1))

	got, _ = s.Post("P1")
	assert.Equal(t, Post{ID: "P1"}, got, "a stale confirmation must not overwrite the newer toggle")
	assert.Len(t, toasts.Toasts(), 2)
}

func TestSession_DoubleToggleFirstRejected(t *testing.T) {
	s, exec, _ := newTestSession(t, Post{ID: "P1"})
	ctx := context.Background()

	p1, _ := s.TogglePostLike(ctx, "P1")
	first := exec.next(t)
	p2, _ := s.TogglePostLike(ctx, "P1")
	second := exec.next(t)

	first.release <- reply{err: rejection{"rate limited"}}
	assert.Equal(t, StateRolledBack, wait(t, p1))
	// 只剩第二次切换生效
	got, _ := s.Post("P1")
	assert.Equal(t, Post{ID: "P1", Liked: true, LikesCount: 1}, got)

	second.release <- reply{like: &LikeResult{Liked: true, LikesCount: 1}}
	assert.Equal(t, StateConfirmed, wait(t, p2))
	got, _ = s.Post("P1")
	assert.Equal(t, Post{ID: "P1", Liked: true, LikesCount: 1}, got)
}

func TestSession_ConfirmationDoesNotClobberNewerToggle(t *testing.T) {
	s, exec, _ := newTestSession(t, Post{ID: "P1", LikesCount: 4})
	ctx := context.Background()

	p1, _ := s.TogglePostLike(ctx, "P1")
	first := exec.next(t)
	_, _ = s.TogglePostLike(ctx, "P1")
	second := exec.next(t)

	first.release <- reply{like: &LikeResult{Liked: true, LikesCount: 5}}
	wait(t, p1)
	got, _ := s.Post("P1")
	assert.Equal(t, Post{ID: "P1", LikesCount: 4}, got)

	second.release <- reply{like: &LikeResult{Liked: false, LikesCount: 4}}
	s.Wait()
}

func TestSession_OutOfOrderResolutionIsOrderIndependent(t *testing.T) {
	run := func(reverse bool) Snapshot {
		s, exec, _ := newTestSession(t, Post{ID: "A", LikesCount: 1}, Post{ID: "B", CommentsCount: 0})
		ctx := context.Background()

		_, err := s.TogglePostLike(ctx, "A")
		require.NoError(t, err)
		m2, err := s.AddComment(ctx, "B", "hello", true)
		require.NoError(t, err)
		c1, c2 := exec.next(t), exec.next(t)
		if c1.kind != KindTogglePostLike {
			c1, c2 = c2, c1
		}

		r1 := reply{err: rejection{"nope"}}
		r2 := reply{comment: &Comment{ID: "c-1", PostID: "B", Content: "hello", IsAnonymous: true}}
		if reverse {
			c2.release <- r2
			wait(t, m2)
			c1.release <- r1
		} else {
			c1.release <- r1
			c2.release <- r2
		}
		s.Wait()
		return s.Snapshot()
	}

	inOrder, reversed := run(false), run(true)
	assert.Equal(t, inOrder, reversed)
	assert.Equal(t, int64(1), inOrder.Posts[0].LikesCount)
	assert.False(t, inOrder.Posts[0].Liked)
	assert.Equal(t, int64(1), inOrder.Posts[1].CommentsCount)
	assert.Len(t, inOrder.Comments["B"], 1)
}

func TestSession_EmptyCommentShortCircuits(t *testing.T) {
	for _, draft := range []string{"", "   "} {
		s, exec, toasts := newTestSession(t, Post{ID: "P1", CommentsCount: 1})

		p, err := s.AddComment(context.Background(), "P1", draft, false)
		require.Error(t, err)
		assert.Nil(t, p)
		assert.True(t, IsValidation(err))

		exec.assertNoCall(t)
		assert.Empty(t, s.Snapshot().Comments["P1"])
		got, _ := s.Post("P1")
		assert.Equal(t, int64(1), got.CommentsCount)
		assert.Equal(t, []Toast{{Level: LevelError, Message: "Please enter a comment"}}, toasts.Toasts())
		assert.Equal(t, 0, s.InFlight())
	}
}

func TestSession_NetworkFailureRollsBackWithGenericMessage(t *testing.T) {
	s, exec, toasts := newTestSession(t, Post{ID: "P1", CommentsCount: 2})
	p, err := s.AddComment(context.Background(), "P1", "hi", false)
	require.NoError(t, err)

	exec.next(t).release <- reply{err: errOffline}
	assert.Equal(t, StateRolledBack, wait(t, p))

	got, _ := s.Post("P1")
	assert.Equal(t, int64(2), got.CommentsCount)
	assert.Empty(t, s.Snapshot().Comments["P1"])
	assert.Equal(t, GenericFailure, toasts.Toasts()[0].Message)
	assert.Equal(t, NetworkFailed, p.Outcome().Kind)
}

func TestSession_TimeoutCountsAsNetworkFailure(t *testing.T) {
	store := NewStore()
	store.UpsertPost(Post{ID: "P1", LikesCount: 2})
	exec := newGatedExecutor()
	var observed []OutcomeKind
	s := NewSession(store, exec,
		WithTimeout(10*time.Millisecond),
		WithObserver(func(k Kind, o OutcomeKind, _ time.Duration) { observed = append(observed, o) }),
	)

	p, err := s.TogglePostLike(context.Background(), "P1")
	require.NoError(t, err)
	exec.next(t) // never released

	assert.Equal(t, StateRolledBack, wait(t, p))
	got, _ := s.Post("P1")
	assert.Equal(t, Post{ID: "P1", LikesCount: 2}, got)
	assert.ErrorIs(t, p.Outcome().Cause, context.DeadlineExceeded)
	assert.Equal(t, []OutcomeKind{NetworkFailed}, observed)
}

func TestSession_CommentCountMatchesConfirmedComments(t *testing.T) {
	s, exec, _ := newTestSession(t, Post{ID: "P1"})
	ctx := context.Background()

	var pend []*Pending
	for _, text := range []string{"a", "b", "c", "d"} {
		p, err := s.AddComment(ctx, "P1", text, false)
		require.NoError(t, err)
		pend = append(pend, p)
	}
	for i := 0; i < len(pend); i++ {
		c := exec.next(t)
		if c.content == "c" {
			c.release <- reply{err: rejection{"spam"}}
			continue
		}
		c.release <- reply{comment: &Comment{ID: "srv-" + c.content, PostID: "P1", Content: c.content}}
	}
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, int64(len(snap.Comments["P1"])), snap.Posts[0].CommentsCount)
	assert.Equal(t, int64(3), snap.Posts[0].CommentsCount)
}

func TestSession_RefreshRebuildsAndIgnoresStaleResolutions(t *testing.T) {
	f := &staticFetcher{
		posts:    []Post{{ID: "P1", LikesCount: 10, Liked: true}},
		comments: map[string][]Comment{"P1": {{ID: "c1", PostID: "P1"}}},
	}
	store := NewStore()
	store.UpsertPost(Post{ID: "P1", LikesCount: 9})
	exec := newGatedExecutor()
	s := NewSession(store, exec, WithFetcher(f))
	ctx := context.Background()

	p, err := s.TogglePostLike(ctx, "P1")
	require.NoError(t, err)
	call := exec.next(t)

	require.NoError(t, s.Refresh(ctx))
	call.release <- reply{err: rejection{"too late"}}
	assert.Equal(t, StateRolledBack, wait(t, p))

	got, _ := s.Post("P1")
	assert.Equal(t, Post{ID: "P1", LikesCount: 10, Liked: true}, got, "undo must not touch refreshed state")
	assert.Len(t, s.Snapshot().Comments["P1"], 1)
}

func TestSession_RefreshWithoutFetcher(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNoFetcher)
}

func TestSession_UnknownTarget(t *testing.T) {
	s, exec, toasts := newTestSession(t)
	_, err := s.TogglePostLike(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ToggleCommentLike(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	exec.assertNoCall(t)
	assert.Empty(t, toasts.Toasts())
}

func TestSession_CommentLikeRoundTrip(t *testing.T) {
	store := NewStore()
	store.UpsertPost(Post{ID: "P1"})
	store.UpsertComment(Comment{ID: "c1", PostID: "P1", LikesCount: 1})
	exec := newGatedExecutor()
	rec := &Recorder{}
	s := NewSession(store, exec, WithNotifier(rec))

	p, err := s.ToggleCommentLike(context.Background(), "c1")
	require.NoError(t, err)
	c, _ := s.Comment("c1")
	assert.Equal(t, int64(2), c.LikesCount)

	exec.next(t).release <- reply{like: &LikeResult{Liked: true, LikesCount: 7}}
	assert.Equal(t, StateConfirmed, wait(t, p))
	c, _ = s.Comment("c1")
	assert.Equal(t, int64(7), c.LikesCount, "server count is canonical")
	assert.Equal(t, "Comment liked", rec.Toasts()[0].Message)
}
