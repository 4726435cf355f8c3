package model

import "time"

// Topic 匿名 feed 的话题分类
type Topic string

const (
	TopicCompanyCulture  Topic = "company_culture"
	TopicWorkplaceIssues Topic = "workplace_issues"
	TopicCareerAdvice    Topic = "career_advice"
	TopicGeneral         Topic = "general"
)

// Valid 是否为已知话题
func (t Topic) Valid() bool {
	switch t {
	case TopicCompanyCulture, TopicWorkplaceIssues, TopicCareerAdvice, TopicGeneral:
		return true
	}
	return false
}

// Post 匿名 feed 帖子；计数字段冗余存储，与点赞/评论表在同一事务内维护
type Post struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID      string    `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Content       string    `gorm:"type:text;not null"`
	IsAnonymous   bool      `gorm:"not null"`
	Topic         Topic     `gorm:"type:varchar(32);index:idx_post_topic_created;not null;default:general"`
	LikesCount    int64     `gorm:"not null;default:0"`
	CommentsCount int64     `gorm:"not null;default:0"`
	ImageURL      string    `gorm:"type:varchar(512)"`
	Company       string    `gorm:"type:varchar(128)"`
	Industry      string    `gorm:"type:varchar(128)"`
	CreatedAt     time.Time `gorm:"index:idx_post_topic_created"`
	UpdatedAt     time.Time

	Author User `gorm:"foreignKey:AuthorID"`
}

func (Post) TableName() string { return "posts" }
