package feedclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Email: "ada@networkqy.dev"})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestTogglePostLike_SendsCookieAndDecodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts/p-1/like", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		ck, err := r.Cookie(EmailCookie)
		if assert.NoError(t, err) {
			assert.Equal(t, "ada@networkqy.dev", ck.Value)
		}
		writeJSON(w, http.StatusOK, `{"code":0,"message":"success","data":{"liked":true,"likes_count":6}}`)
	})
	c := newTestServer(t, mux)

	res, err := c.TogglePostLike(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, &optimistic.LikeResult{Liked: true, LikesCount: 6}, res)
}

func TestToggleCommentLike_EmptyBodyIsConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/comments/c-1/like", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestServer(t, mux)

	res, err := c.ToggleCommentLike(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, optimistic.Confirmed, optimistic.Classify(err).Kind)
}

func TestErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts/gone/like", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"code":404,"error":"Post not found"}`)
	})
	mux.HandleFunc("/api/posts/proxy/like", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	c := newTestServer(t, mux)
	ctx := context.Background()

	_, err := c.TogglePostLike(ctx, "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	out := optimistic.Classify(err)
	assert.Equal(t, optimistic.Rejected, out.Kind)
	assert.Equal(t, "Post not found", out.Reason)

	_, err = c.TogglePostLike(ctx, "proxy")
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, optimistic.NetworkFailed, optimistic.Classify(err).Kind)
}

func TestTransportFailureIsNetworkFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.CreateComment(context.Background(), "p-1", "hi", true)
	require.Error(t, err)
	assert.Equal(t, optimistic.NetworkFailed, optimistic.Classify(err).Kind)
}

func TestCreateComment_MapsIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts/p-1/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, `{"code":0,"message":"created","data":{
			"id":"c-9","post_id":"p-1","content":"hi","is_anonymous":true,
			"likes_count":0,"liked":false,"anonymous_name":"Anonymous ADA"}}`)
	})
	c := newTestServer(t, mux)

	cm, err := c.CreateComment(context.Background(), "p-1", "hi", true)
	require.NoError(t, err)
	require.NotNil(t, cm)
	assert.Equal(t, "c-9", cm.ID)
	assert.Equal(t, "Anonymous ADA", cm.DisplayName())
	assert.Empty(t, cm.AuthorName)
}

func TestFetchPosts_UsesPageSize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "7", r.URL.Query().Get("page_size"))
		writeJSON(w, http.StatusOK, `{"code":0,"data":[
			{"id":"p-1","content":"a","is_anonymous":false,"likes_count":2,"author":{"id":"u1","name":"Ada"}},
			{"id":"p-2","content":"b","is_anonymous":true,"anonymous_name":"Anonymous LIN"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, FeedPageSize: 7})

	posts, err := c.FetchPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Ada", posts[0].DisplayName())
	assert.Equal(t, int64(2), posts[0].LikesCount)
	assert.Equal(t, "Anonymous LIN", posts[1].DisplayName())
}

func TestLogin_KeepsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, `{"code":0,"data":{"email":"ada@networkqy.dev"}}`)
	})
	mux.HandleFunc("/api/posts/p-1", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(SessionCookie)
		if err != nil || ck.Value != "tok" {
			writeJSON(w, http.StatusUnauthorized, `{"code":401,"error":"Authentication required"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"code":0,"data":{"id":"p-1"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})

	_, err := c.GetPost(context.Background(), "p-1")
	assert.True(t, IsUnauthorized(err))

	require.NoError(t, c.Login(context.Background(), "ada@networkqy.dev", "pw"))
	_, token := c.Session()
	assert.Equal(t, "tok", token)
	p, err := c.GetPost(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
}

func TestTogglePostLike_UndecodableSuccessIsConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts/p-1/like", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	c := newTestServer(t, mux)

	res, err := c.TogglePostLike(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Nil(t, res)

	// 服务端已生效，本地乐观状态保留
	store := optimistic.NewStore()
	store.UpsertPost(optimistic.Post{ID: "p-1", LikesCount: 5})
	s := optimistic.NewSession(store, c)
	p, err := s.TogglePostLike(context.Background(), "p-1")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, optimistic.StateConfirmed, state)
	got, ok := s.Post("p-1")
	require.True(t, ok)
	assert.True(t, got.Liked)
	assert.Equal(t, int64(6), got.LikesCount)
}

func TestListPosts_UndecodableSuccessIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	c := newTestServer(t, mux)

	_, err := c.ListPosts(context.Background(), "", 1, 10)
	assert.Error(t, err)
}

func TestFetchComments_PagesUntilShortPage(t *testing.T) {
	pages := map[string]string{
		"1": `[{"id":"c-1","post_id":"p-1","content":"a"},{"id":"c-2","post_id":"p-1","content":"b"}]`,
		"2": `[{"id":"c-3","post_id":"p-1","content":"c"}]`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":0,"data":[{"id":"p-1","content":"post","comments_count":3}]}`)
	})
	mux.HandleFunc("/api/posts/p-1/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			body = `[]`
		}
		writeJSON(w, http.StatusOK, `{"code":0,"data":`+body+`}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, FeedPageSize: 2})

	comments, err := c.FetchComments(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c-3", comments[2].ID)

	s := optimistic.NewSession(optimistic.NewStore(), c, optimistic.WithFetcher(c))
	require.NoError(t, s.Refresh(context.Background()))
	snap := s.Snapshot()
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, int64(3), snap.Posts[0].CommentsCount)
	assert.Len(t, snap.Comments["p-1"], int(snap.Posts[0].CommentsCount))
}
