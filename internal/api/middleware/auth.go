package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/logger"
	"github.com/d60-Lab/networkqy/pkg/response"
)

const (
	EmailCookie   = "userEmail"
	SessionCookie = "session_token"

	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
)

// Auth 从 cookie 解析调用者身份：启用签名时读取 session_token，否则读取明文 userEmail
func Auth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := sessionEmail(c, auth)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}
		u, err := auth.UserByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, service.ErrUnknownUser) {
				response.Unauthorized(c, "Unknown user")
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(ctxUserID, u.ID)
		c.Set(ctxUserEmail, u.Email)
		c.Next()
	}
}

func sessionEmail(c *gin.Context, auth service.AuthService) (string, bool) {
	if auth.SignedSessions() {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			return "", false
		}
		email, err := auth.ParseToken(token)
		if err != nil {
			logger.Debug("rejecting session token", zap.Error(err))
			return "", false
		}
		return email, true
	}
	email, err := c.Cookie(EmailCookie)
	if err != nil || email == "" {
		return "", false
	}
	return email, true
}

// UserID 返回 Auth 写入的用户 ID
func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func UserEmail(c *gin.Context) string { return c.GetString(ctxUserEmail) }
