package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/networkqy/internal/api/middleware"
	"github.com/d60-Lab/networkqy/pkg/response"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	AnonymousHandle string `json:"anonymous_handle"`
}

// Login 登录并写入会话 cookie
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response{data=sessionUser}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email and password are required")
		return
	}
	u, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.authService.SignedSessions() {
		token, err := h.authService.IssueToken(u.Email)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		h.setSessionCookie(c, middleware.SessionCookie, token)
	} else {
		h.setSessionCookie(c, middleware.EmailCookie, u.Email)
	}
	response.Success(c, sessionUser{ID: u.ID, Email: u.Email, Name: u.Name, AnonymousHandle: u.AnonymousHandle})
}
