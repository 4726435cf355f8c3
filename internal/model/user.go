package model

import "time"

// User 会话 cookie 中的 email 对应的用户
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string `gorm:"type:varchar(128)"`
	PasswordHash string `gorm:"type:varchar(255)"`
	// AnonymousHandle 匿名发帖时展示的名字
	AnonymousHandle string `gorm:"type:varchar(64)"`
	Headline        string `gorm:"type:varchar(255)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }

// All 需要迁移的表
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Comment{}, &PostLike{}, &CommentLike{}}
}
