package optimistic

import (
	"strings"
	"time"
)

// TempIDPrefix marks client-generated ids that the server has not assigned yet.
const TempIDPrefix = "temp-"

// IsTempID reports whether id is a client placeholder.
func IsTempID(id string) bool { return strings.HasPrefix(id, TempIDPrefix) }

// Post is the UI-visible snapshot of a feed post.
type Post struct {
	ID            string
	Content       string
	IsAnonymous   bool
	Topic         string
	LikesCount    int64
	CommentsCount int64
	Liked         bool
	// AuthorName is set for public posts, AnonymousName for anonymous ones.
	AuthorName    string
	AnonymousName string
	ImageURL      string
	Company       string
	Industry      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the single identity shown for the post's authorship mode.
func (p Post) DisplayName() string {
	if p.IsAnonymous {
		if p.AnonymousName == "" {
			return "Anonymous"
		}
		return p.AnonymousName
	}
	return p.AuthorName
}

// Comment is the UI-visible snapshot of a comment.
type Comment struct {
	ID            string
	PostID        string
	Content       string
	IsAnonymous   bool
	LikesCount    int64
	Liked         bool
	AuthorName    string
	AnonymousName string
	CreatedAt     time.Time
}

func (c Comment) DisplayName() string {
	if c.IsAnonymous {
		if c.AnonymousName == "" {
			return "Anonymous"
		}
		return c.AnonymousName
	}
	return c.AuthorName
}
