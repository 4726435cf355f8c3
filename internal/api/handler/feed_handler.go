package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/networkqy/internal/api/middleware"
	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/response"
)

type createPostRequest struct {
	Content     string `json:"content" binding:"required"`
	IsAnonymous bool   `json:"is_anonymous"`
	Topic       string `json:"topic" binding:"omitempty,topic"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	Company     string `json:"company" binding:"max=100"`
	Industry    string `json:"industry" binding:"max=100"`
}

type createCommentRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// ListPosts 分页查询 feed，liked 为当前用户视角
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param topic query string false "话题" Enums(company_culture, workplace_issues, career_advice, general)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=[]service.PostView}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, pageSize := pageParams(c)
	posts, err := h.feedService.ListPosts(c.Request.Context(), middleware.UserID(c), model.Topic(c.Query("topic")), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}

// CreatePost 发帖
// @Summary 发布帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=service.PostView}
// @Failure 400 {object} response.Response
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindReason(err))
		return
	}
	post, err := h.feedService.CreatePost(c.Request.Context(), middleware.UserID(c), service.CreatePostInput{
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		Topic:       model.Topic(req.Topic),
		ImageURL:    req.ImageURL,
		Company:     req.Company,
		Industry:    req.Industry,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, post)
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=service.PostView}
// @Failure 404 {object} response.Response
// @Router /posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.feedService.GetPost(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// TogglePostLike 点赞/取消点赞帖子，返回权威状态
// @Summary 切换帖子点赞
// @Tags 点赞
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=repository.LikeState}
// @Failure 404 {object} response.Response
// @Router /posts/{id}/like [post]
func (h *Handler) TogglePostLike(c *gin.Context) {
	st, err := h.feedService.TogglePostLike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LikesTotal.WithLabelValues("post", strconv.FormatBool(st.Liked)).Inc()
	}
	response.Success(c, st)
}

// ListComments 帖子评论，按时间正序
// @Summary 评论列表
// @Tags 评论
// @Produce json
// @Param id path string true "帖子ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=[]service.CommentView}
// @Failure 404 {object} response.Response
// @Router /posts/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	page, pageSize := pageParams(c)
	comments, err := h.feedService.ListComments(c.Request.Context(), middleware.UserID(c), c.Param("id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, comments)
}

// CreateComment 评论，同一事务内递增帖子评论数
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param request body createCommentRequest true "评论内容"
// @Success 201 {object} response.Response{data=service.CommentView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid comment")
		return
	}
	comment, err := h.feedService.CreateComment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Content, req.IsAnonymous)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CommentsTotal.Inc()
	}
	response.Created(c, comment)
}

// ToggleCommentLike 点赞/取消点赞评论
// @Summary 切换评论点赞
// @Tags 点赞
// @Produce json
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response{data=repository.LikeState}
// @Failure 404 {object} response.Response
// @Router /comments/{id}/like [post]
func (h *Handler) ToggleCommentLike(c *gin.Context) {
	st, err := h.feedService.ToggleCommentLike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LikesTotal.WithLabelValues("comment", strconv.FormatBool(st.Liked)).Inc()
	}
	response.Success(c, st)
}
