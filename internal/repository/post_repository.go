package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/networkqy/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// List 按创建时间倒序；topic 为空表示全部话题
	List(ctx context.Context, topic model.Topic, offset, limit int) ([]*model.Post, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Author").Create(p).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").First(p, "id = ?", p.ID).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, topic model.Topic, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	q := r.db.WithContext(ctx).Preload("Author")
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}
