package service

import (
	"time"

	"github.com/d60-Lab/networkqy/internal/model"
)

// AuthorView 公开身份
type AuthorView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
}

// PostView 帖子对外表示。Author 与 AnonymousName 二者只会出现一个
type PostView struct {
	ID            string      `json:"id"`
	Content       string      `json:"content"`
	IsAnonymous   bool        `json:"is_anonymous"`
	Topic         model.Topic `json:"topic"`
	LikesCount    int64       `json:"likes_count"`
	CommentsCount int64       `json:"comments_count"`
	Liked         bool        `json:"liked"`
	ImageURL      string      `json:"image_url,omitempty"`
	Company       string      `json:"company,omitempty"`
	Industry      string      `json:"industry,omitempty"`
	Author        *AuthorView `json:"author,omitempty"`
	AnonymousName string      `json:"anonymous_name,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CommentView 评论对外表示
type CommentView struct {
	ID            string      `json:"id"`
	PostID        string      `json:"post_id"`
	Content       string      `json:"content"`
	IsAnonymous   bool        `json:"is_anonymous"`
	LikesCount    int64       `json:"likes_count"`
	Liked         bool        `json:"liked"`
	Author        *AuthorView `json:"author,omitempty"`
	AnonymousName string      `json:"anonymous_name,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func identity(u model.User, anonymous bool) (*AuthorView, string) {
	if anonymous {
		name := u.AnonymousHandle
		if name == "" {
			name = "Anonymous"
		}
		return nil, name
	}
	return &AuthorView{ID: u.ID, Name: u.Name, Headline: u.Headline}, ""
}

func toPostView(p *model.Post, liked bool) PostView {
	v := PostView{
		ID:            p.ID,
		Content:       p.Content,
		IsAnonymous:   p.IsAnonymous,
		Topic:         p.Topic,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		Liked:         liked,
		ImageURL:      p.ImageURL,
		Company:       p.Company,
		Industry:      p.Industry,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	v.Author, v.AnonymousName = identity(p.Author, p.IsAnonymous)
	return v
}

func toCommentView(c *model.Comment, liked bool) CommentView {
	v := CommentView{
		ID:          c.ID,
		PostID:      c.PostID,
		Content:     c.Content,
		IsAnonymous: c.IsAnonymous,
		LikesCount:  c.LikesCount,
		Liked:       liked,
		CreatedAt:   c.CreatedAt,
	}
	v.Author, v.AnonymousName = identity(c.Author, c.IsAnonymous)
	return v
}
