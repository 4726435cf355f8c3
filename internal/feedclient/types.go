package feedclient

import (
	"time"

	json "github.com/json-iterator/go"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

// envelope mirrors the server's response body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Headline string `json:"headline"`
}

type postPayload struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	IsAnonymous   bool      `json:"is_anonymous"`
	Topic         string    `json:"topic"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	Liked         bool      `json:"liked"`
	ImageURL      string    `json:"image_url"`
	Company       string    `json:"company"`
	Industry      string    `json:"industry"`
	Author        *author   `json:"author"`
	AnonymousName string    `json:"anonymous_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p postPayload) toPost() optimistic.Post {
	out := optimistic.Post{
		ID:            p.ID,
		Content:       p.Content,
		IsAnonymous:   p.IsAnonymous,
		Topic:         p.Topic,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		Liked:         p.Liked,
		AnonymousName: p.AnonymousName,
		ImageURL:      p.ImageURL,
		Company:       p.Company,
		Industry:      p.Industry,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Author != nil {
		out.AuthorName = p.Author.Name
	}
	return out
}

type commentPayload struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	Content       string    `json:"content"`
	IsAnonymous   bool      `json:"is_anonymous"`
	LikesCount    int64     `json:"likes_count"`
	Liked         bool      `json:"liked"`
	Author        *author   `json:"author"`
	AnonymousName string    `json:"anonymous_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c commentPayload) toComment() optimistic.Comment {
	out := optimistic.Comment{
		ID:            c.ID,
		PostID:        c.PostID,
		Content:       c.Content,
		IsAnonymous:   c.IsAnonymous,
		LikesCount:    c.LikesCount,
		Liked:         c.Liked,
		AnonymousName: c.AnonymousName,
		CreatedAt:     c.CreatedAt,
	}
	if c.Author != nil {
		out.AuthorName = c.Author.Name
	}
	return out
}

type likePayload struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// NewPost is the body of POST /api/posts.
type NewPost struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
	Topic       string `json:"topic,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Company     string `json:"company,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

type newComment struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
