package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/internal/repository"
	"github.com/d60-Lab/networkqy/pkg/logger"
)

const maxContentLen = 5000

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyContent    = errors.New("content must not be empty")
	ErrContentTooLong  = errors.New("content is too long")
	ErrInvalidTopic    = errors.New("invalid topic")
)

// CreatePostInput 发帖参数
type CreatePostInput struct {
	Content     string
	IsAnonymous bool
	Topic       model.Topic
	ImageURL    string
	Company     string
	Industry    string
}

// FeedService 匿名 feed：帖子、评论、点赞
type FeedService interface {
	ListPosts(ctx context.Context, viewerID string, topic model.Topic, page, pageSize int) ([]PostView, error)
	GetPost(ctx context.Context, viewerID, postID string) (*PostView, error)
	CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*PostView, error)
	TogglePostLike(ctx context.Context, userID, postID string) (repository.LikeState, error)
	ListComments(ctx context.Context, viewerID, postID string, page, pageSize int) ([]CommentView, error)
	CreateComment(ctx context.Context, authorID, postID, content string, anonymous bool) (*CommentView, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (repository.LikeState, error)
}

type feedService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	cache       *FeedCache
}

func NewFeedService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, likeRepo repository.LikeRepository, cache *FeedCache) FeedService {
	return &feedService{postRepo: postRepo, commentRepo: commentRepo, likeRepo: likeRepo, cache: cache}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func cleanContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(s) > maxContentLen {
		return "", ErrContentTooLong
	}
	return s, nil
}

func (s *feedService) ListPosts(ctx context.Context, viewerID string, topic model.Topic, page, pageSize int) ([]PostView, error) {
	if topic != "" && !topic.Valid() {
		return nil, ErrInvalidTopic
	}
	page, pageSize = normalizePage(page, pageSize)

	views, version, ok := s.cache.GetPage(ctx, topic, page, pageSize)
	if !ok {
		posts, err := s.postRepo.List(ctx, topic, (page-1)*pageSize, pageSize)
		if err != nil {
			return nil, err
		}
		views = make([]PostView, len(posts))
		for i, p := range posts {
			views[i] = toPostView(p, false)
		}
		s.cache.SetPage(ctx, version, topic, page, pageSize, views)
	}

	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	liked, err := s.likeRepo.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Liked = liked[views[i].ID]
	}
	return views, nil
}

func (s *feedService) GetPost(ctx context.Context, viewerID, postID string) (*PostView, error) {
	p, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}
	liked, err := s.likeRepo.LikedPostIDs(ctx, viewerID, []string{p.ID})
	if err != nil {
		return nil, err
	}
	v := toPostView(p, liked[p.ID])
	return &v, nil
}

func (s *feedService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*PostView, error) {
	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	topic := in.Topic
	if topic == "" {
		topic = model.TopicGeneral
	}
	if !topic.Valid() {
		return nil, ErrInvalidTopic
	}
	p := &model.Post{
		AuthorID:    authorID,
		Content:     content,
		IsAnonymous: in.IsAnonymous,
		Topic:       topic,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Company:     strings.TrimSpace(in.Company),
		Industry:    strings.TrimSpace(in.Industry),
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	logger.Info("post created", zap.String("post_id", p.ID), zap.String("topic", string(topic)), zap.Bool("anonymous", p.IsAnonymous))
	v := toPostView(p, false)
	return &v, nil
}

func (s *feedService) TogglePostLike(ctx context.Context, userID, postID string) (repository.LikeState, error) {
	st, err := s.likeRepo.TogglePost(ctx, postID, userID)
	if err != nil {
		return st, mapNotFound(err, ErrPostNotFound)
	}
	s.cache.Invalidate(ctx)
	logger.Debug("post like toggled", zap.String("post_id", postID), zap.String("user_id", userID), zap.Bool("liked", st.Liked))
	return st, nil
}

func (s *feedService) ListComments(ctx context.Context, viewerID, postID string, page, pageSize int) ([]CommentView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}
	page, pageSize = normalizePage(page, pageSize)
	items, err := s.commentRepo.ListByPost(ctx, postID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}
	liked, err := s.likeRepo.LikedCommentIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	res := make([]CommentView, len(items))
	for i, c := range items {
		res[i] = toCommentView(c, liked[c.ID])
	}
	return res, nil
}

func (s *feedService) CreateComment(ctx context.Context, authorID, postID, content string, anonymous bool) (*CommentView, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	c := &model.Comment{PostID: postID, AuthorID: authorID, Content: content, IsAnonymous: anonymous}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}
	s.cache.Invalidate(ctx)
	v := toCommentView(c, false)
	return &v, nil
}

func (s *feedService) ToggleCommentLike(ctx context.Context, userID, commentID string) (repository.LikeState, error) {
	st, err := s.likeRepo.ToggleComment(ctx, commentID, userID)
	if err != nil {
		return st, mapNotFound(err, ErrCommentNotFound)
	}
	return st, nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
