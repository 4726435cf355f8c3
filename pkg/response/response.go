package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/pkg/logger"
)

// Response 统一响应体；失败时 error 字段携带给用户看的原因
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Fail 以给定状态码返回 {code, error}
func Fail(c *gin.Context, status int, reason string) {
	if status >= http.StatusInternalServerError {
		logger.Error("api error", zap.Int("status", status), zap.String("path", c.FullPath()), zap.String("reason", reason))
	} else {
		logger.Warn("api error", zap.Int("status", status), zap.String("path", c.FullPath()), zap.String("reason", reason))
	}
	c.AbortWithStatusJSON(status, Response{Code: status, Error: reason})
}

func BadRequest(c *gin.Context, reason string) { Fail(c, http.StatusBadRequest, reason) }

func Unauthorized(c *gin.Context, reason string) { Fail(c, http.StatusUnauthorized, reason) }

func NotFound(c *gin.Context, reason string) { Fail(c, http.StatusNotFound, reason) }

func TooManyRequests(c *gin.Context) {
	Fail(c, http.StatusTooManyRequests, "Too many requests, slow down")
}

// InternalError 不向客户端暴露内部错误细节
func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Error: "Internal server error"})
}
