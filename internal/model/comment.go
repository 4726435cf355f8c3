package model

import "time"

// Comment 帖子评论
type Comment struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	PostID      string    `gorm:"type:varchar(36);index:idx_comment_post_created;not null"`
	AuthorID    string    `gorm:"type:varchar(36);not null"`
	Content     string    `gorm:"type:text;not null"`
	IsAnonymous bool      `gorm:"not null"`
	LikesCount  int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"index:idx_comment_post_created"`
	UpdatedAt   time.Time

	Author User `gorm:"foreignKey:AuthorID"`
}

func (Comment) TableName() string { return "comments" }
