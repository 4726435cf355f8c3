package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/metrics"
	"github.com/d60-Lab/networkqy/pkg/response"
)

// Handler feed API 的 HTTP 入口
type Handler struct {
	feedService  service.FeedService
	authService  service.AuthService
	metrics      *metrics.Metrics
	cookieSecure bool
	tokenTTL     time.Duration
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithCookies 会话 cookie 的 Secure 标记与有效期
func WithCookies(secure bool, ttl time.Duration) Option {
	return func(h *Handler) {
		h.cookieSecure = secure
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

func NewHandler(feed service.FeedService, auth service.AuthService, opts ...Option) *Handler {
	h := &Handler{feedService: feed, authService: auth, tokenTTL: 7 * 24 * time.Hour}
	for _, o := range opts {
		o(h)
	}
	return h
}

// writeError 把 service 错误映射为状态码与用户可读的原因
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, "Post not found")
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, "Comment not found")
	case errors.Is(err, service.ErrEmptyContent):
		response.BadRequest(c, "Content is required")
	case errors.Is(err, service.ErrContentTooLong):
		response.BadRequest(c, "Content is too long")
	case errors.Is(err, service.ErrInvalidTopic):
		response.BadRequest(c, "Invalid topic")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid email or password")
	default:
		response.InternalError(c, err)
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

func (h *Handler) setSessionCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(h.tokenTTL.Seconds()), "/", "", h.cookieSecure, true)
}
