package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/networkqy/internal/model"
)

// LikeState 切换后的点赞状态
type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type LikeRepository interface {
	TogglePost(ctx context.Context, postID, userID string) (LikeState, error)
	ToggleComment(ctx context.Context, commentID, userID string) (LikeState, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	LikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error)
}

type likeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

// 计数减到 0 为止
var decrementLikes = gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")

func (r *likeRepository) TogglePost(ctx context.Context, postID, userID string) (LikeState, error) {
	var st LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Select("id").Where("id = ?", postID).First(&post).Error; err != nil {
			return err
		}
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		counter := tx.Model(&model.Post{}).Where("id = ?", postID)
		if res.RowsAffected > 0 {
			if err := counter.UpdateColumn("likes_count", decrementLikes).Error; err != nil {
				return err
			}
		} else {
			like := &model.PostLike{ID: uuid.New().String(), PostID: postID, UserID: userID}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
			if err := counter.UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
				return err
			}
			st.Liked = true
		}
		return tx.Model(&model.Post{}).Where("id = ?", postID).Select("likes_count").Scan(&st.LikesCount).Error
	})
	return st, err
}

func (r *likeRepository) ToggleComment(ctx context.Context, commentID, userID string) (LikeState, error) {
	var st LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Comment
		if err := tx.Select("id").Where("id = ?", commentID).First(&c).Error; err != nil {
			return err
		}
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&model.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		counter := tx.Model(&model.Comment{}).Where("id = ?", commentID)
		if res.RowsAffected > 0 {
			if err := counter.UpdateColumn("likes_count", decrementLikes).Error; err != nil {
				return err
			}
		} else {
			like := &model.CommentLike{ID: uuid.New().String(), CommentID: commentID, UserID: userID}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
			if err := counter.UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
				return err
			}
			st.Liked = true
		}
		return tx.Model(&model.Comment{}).Where("id = ?", commentID).Select("likes_count").Scan(&st.LikesCount).Error
	})
	return st, err
}

func (r *likeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *likeRepository) LikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(commentIDs))
	if userID == "" || len(commentIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
