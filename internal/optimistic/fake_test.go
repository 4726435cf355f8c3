package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type reply struct {
	like    *LikeResult
	comment *Comment
	err     error
}

type call struct {
	kind    Kind
	target  string
	content string
	release chan reply
}

// gatedExecutor parks every call until the test releases it, so tests
// control resolution order.
type gatedExecutor struct {
	calls chan *call
}

func newGatedExecutor() *gatedExecutor { return &gatedExecutor{calls: make(chan *call, 16)} }

func (g *gatedExecutor) park(ctx context.Context, c *call) reply {
	c.release = make(chan reply, 1)
	g.calls <- c
	select {
	case r := <-c.release:
		return r
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
}

func (g *gatedExecutor) TogglePostLike(ctx context.Context, postID string) (*LikeResult, error) {
	r := g.park(ctx, &call{kind: KindTogglePostLike, target: postID})
	return r.like, r.err
}

func (g *gatedExecutor) ToggleCommentLike(ctx context.Context, commentID string) (*LikeResult, error) {
	r := g.park(ctx, &call{kind: KindToggleCommentLike, target: commentID})
	return r.like, r.err
}

func (g *gatedExecutor) CreateComment(ctx context.Context, postID, content string, anonymous bool) (*Comment, error) {
	r := g.park(ctx, &call{kind: KindAddComment, target: postID, content: content})
	return r.comment, r.err
}

func (g *gatedExecutor) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a network call")
		return nil
	}
}

func (g *gatedExecutor) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected network call %s %s", c.kind, c.target)
	case <-time.After(20 * time.Millisecond):
	}
}

type rejection struct{ reason string }

func (r rejection) Error() string        { return "rejected: " + r.reason }
func (r rejection) RejectReason() string { return r.reason }

var errOffline = errors.New("dial tcp: connection refused")

func wait(t *testing.T, p *Pending) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := p.Wait(ctx)
	require.NoError(t, err)
	return st
}

type staticFetcher struct {
	mu       sync.Mutex
	posts    []Post
	comments map[string][]Comment
}

func (f *staticFetcher) FetchPosts(ctx context.Context) ([]Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Post(nil), f.posts...), nil
}

func (f *staticFetcher) FetchComments(ctx context.Context, postID string) ([]Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Comment(nil), f.comments[postID]...), nil
}
