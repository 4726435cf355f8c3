// Package feedclient talks to the feed service over HTTP. *Client implements
// optimistic.Executor and optimistic.Fetcher.
package feedclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

const (
	// EmailCookie carries the plain identity when the server runs without a JWT secret.
	EmailCookie = "userEmail"
	// SessionCookie carries a signed session token.
	SessionCookie = "session_token"

	userAgent = "networkqy-feedctl/0.1.0"

	// maxPageSize 服务端单页上限
	maxPageSize = 100
)

// errMalformedBody marks a 2xx response whose body is not a feed envelope.
// The server has applied the request; only the canonical data is missing.
var errMalformedBody = errors.New("malformed success body")

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Email and Token seed the session cookies; either may be empty.
	Email string
	Token string
	// FeedPageSize bounds FetchPosts and the page size used by FetchComments;
	// defaults to 50, capped at the server's limit of 100.
	FeedPageSize int
	Logger       *zap.Logger
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	http     *resty.Client
	log      *zap.Logger
	pageSize int
}

var (
	_ optimistic.Executor = (*Client)(nil)
	_ optimistic.Fetcher  = (*Client)(nil)
)

func New(opts Options) *Client {
	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	rc.SetBaseURL(opts.BaseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	// Every mutation is issued exactly once; the optimistic layer owns failure handling.
	rc.SetRetryCount(0)

	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		log.Debug("http request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.Debug("http response",
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("took", resp.Time()))
		return nil
	})

	c := &Client{http: rc, log: log, pageSize: opts.FeedPageSize}
	if c.pageSize <= 0 {
		c.pageSize = 50
	}
	if c.pageSize > maxPageSize {
		c.pageSize = maxPageSize
	}
	c.SetSession(opts.Email, opts.Token)
	return c
}

// SetSession replaces the identity cookies sent with every request.
func (c *Client) SetSession(email, token string) {
	c.http.Cookies = nil
	if email != "" {
		c.http.SetCookie(&http.Cookie{Name: EmailCookie, Value: email})
	}
	if token != "" {
		c.http.SetCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
}

// Login authenticates with email and password and keeps the cookies the
// server hands back.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		Post("/api/auth/login")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.IsSuccess() {
		return parseError(resp)
	}
	c.http.Cookies = nil
	c.http.SetCookies(resp.Cookies())
	return nil
}

func (c *Client) do(req *resty.Request, method, path string, out interface{}) error {
	resp, err := req.SetHeader("Content-Type", "application/json").Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		return parseError(resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		c.log.Warn("undecodable success body", zap.String("path", path), zap.Int("status", resp.StatusCode()), zap.Error(err))
		return fmt.Errorf("decode %s: %w: %v", path, errMalformedBody, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.log.Warn("undecodable success data", zap.String("path", path), zap.Int("status", resp.StatusCode()), zap.Error(err))
		return fmt.Errorf("decode %s data: %w: %v", path, errMalformedBody, err)
	}
	return nil
}

// ListPosts returns one page of the feed, newest first.
func (c *Client) ListPosts(ctx context.Context, topic string, page, pageSize int) ([]optimistic.Post, error) {
	req := c.http.R().SetContext(ctx).SetQueryParams(map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	})
	if topic != "" {
		req.SetQueryParam("topic", topic)
	}
	var payload []postPayload
	if err := c.do(req, resty.MethodGet, "/api/posts", &payload); err != nil {
		return nil, err
	}
	posts := make([]optimistic.Post, len(payload))
	for i, p := range payload {
		posts[i] = p.toPost()
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (*optimistic.Post, error) {
	var payload postPayload
	req := c.http.R().SetContext(ctx).SetPathParam("id", postID)
	if err := c.do(req, resty.MethodGet, "/api/posts/{id}", &payload); err != nil {
		return nil, err
	}
	p := payload.toPost()
	return &p, nil
}

func (c *Client) CreatePost(ctx context.Context, in NewPost) (*optimistic.Post, error) {
	var payload postPayload
	req := c.http.R().SetContext(ctx).SetBody(in)
	if err := c.do(req, resty.MethodPost, "/api/posts", &payload); err != nil {
		return nil, err
	}
	p := payload.toPost()
	return &p, nil
}

func (c *Client) ListComments(ctx context.Context, postID string, page, pageSize int) ([]optimistic.Comment, error) {
	var payload []commentPayload
	req := c.http.R().SetContext(ctx).SetPathParam("id", postID).SetQueryParams(map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	})
	if err := c.do(req, resty.MethodGet, "/api/posts/{id}/comments", &payload); err != nil {
		return nil, err
	}
	comments := make([]optimistic.Comment, len(payload))
	for i, cm := range payload {
		comments[i] = cm.toComment()
	}
	return comments, nil
}

// TogglePostLike implements optimistic.Executor.
func (c *Client) TogglePostLike(ctx context.Context, postID string) (*optimistic.LikeResult, error) {
	return c.toggle(ctx, "/api/posts/{id}/like", postID)
}

// ToggleCommentLike implements optimistic.Executor.
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (*optimistic.LikeResult, error) {
	return c.toggle(ctx, "/api/comments/{id}/like", commentID)
}

func (c *Client) toggle(ctx context.Context, path, id string) (*optimistic.LikeResult, error) {
	var payload *likePayload
	req := c.http.R().SetContext(ctx).SetPathParam("id", id)
	err := c.do(req, resty.MethodPost, path, &payload)
	if errors.Is(err, errMalformedBody) {
		// 已生效，只是没有可合并的计数
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return &optimistic.LikeResult{Liked: payload.Liked, LikesCount: payload.LikesCount}, nil
}

// CreateComment implements optimistic.Executor.
func (c *Client) CreateComment(ctx context.Context, postID, content string, anonymous bool) (*optimistic.Comment, error) {
	var payload *commentPayload
	req := c.http.R().SetContext(ctx).
		SetPathParam("id", postID).
		SetBody(newComment{Content: content, IsAnonymous: anonymous})
	err := c.do(req, resty.MethodPost, "/api/posts/{id}/comments", &payload)
	if errors.Is(err, errMalformedBody) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	cm := payload.toComment()
	return &cm, nil
}

// FetchPosts implements optimistic.Fetcher with the first feed page.
func (c *Client) FetchPosts(ctx context.Context) ([]optimistic.Post, error) {
	return c.ListPosts(ctx, "", 1, c.pageSize)
}

// FetchComments implements optimistic.Fetcher. It pages until a short page so
// the store holds every comment its post's CommentsCount accounts for.
func (c *Client) FetchComments(ctx context.Context, postID string) ([]optimistic.Comment, error) {
	var all []optimistic.Comment
	for page := 1; ; page++ {
		batch, err := c.ListComments(ctx, postID, page, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
}

// Session returns the identity cookies currently attached to requests.
func (c *Client) Session() (email, token string) {
	for _, ck := range c.http.Cookies {
		switch ck.Name {
		case EmailCookie:
			email = ck.Value
		case SessionCookie:
			token = ck.Value
		}
	}
	return email, token
}
