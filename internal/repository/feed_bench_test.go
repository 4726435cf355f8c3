package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/networkqy/internal/model"
)

func setupFeedBenchDB(b *testing.B) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", b.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		b.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		b.Fatalf("migrate: %v", err)
	}
	return db
}

func seedBenchFeed(b *testing.B, db *gorm.DB, users, posts int) ([]model.User, []*model.Post) {
	us := make([]model.User, users)
	for i := range us {
		id := fmt.Sprintf("u%04d", i)
		us[i] = model.User{ID: id, Email: id + "@example.com", Name: id, AnonymousHandle: "Anonymous " + id}
	}
	if err := db.CreateInBatches(&us, 500).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}
	postRepo := NewPostRepository(db)
	ps := make([]*model.Post, posts)
	for i := range ps {
		ps[i] = &model.Post{AuthorID: us[i%users].ID, Content: fmt.Sprintf("post %d", i), Topic: model.TopicGeneral, IsAnonymous: i%2 == 0}
		if err := postRepo.Create(context.Background(), ps[i]); err != nil {
			b.Fatalf("seed post: %v", err)
		}
	}
	return us, ps
}

func BenchmarkTogglePostLike(b *testing.B) {
	db := setupFeedBenchDB(b)
	users, posts := seedBenchFeed(b, db, 500, 50)
	likes := NewLikeRepository(db)
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u := users[rnd.Intn(len(users))].ID
		p := posts[rnd.Intn(len(posts))].ID
		if _, err := likes.TogglePost(ctx, p, u); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFeedReads(b *testing.B) {
	db := setupFeedBenchDB(b)
	users, posts := seedBenchFeed(b, db, 200, 500)
	ctx := context.Background()
	comments := NewCommentRepository(db)
	likes := NewLikeRepository(db)
	hot := posts[0].ID
	for i := 0; i < 300; i++ {
		_ = comments.Create(ctx, &model.Comment{PostID: hot, AuthorID: users[i%len(users)].ID, Content: "c"})
		_, _ = likes.TogglePost(ctx, posts[i%len(posts)].ID, users[0].ID)
	}
	postRepo := NewPostRepository(db)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = posts[i].ID
	}

	b.ResetTimer()
	b.Run("ListPosts", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = postRepo.List(ctx, "", 0, 50)
		}
	})
	b.Run("ListComments", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = comments.ListByPost(ctx, hot, 0, 50)
		}
	})
	b.Run("LikedPostIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = likes.LikedPostIDs(ctx, users[0].ID, ids)
		}
	})
}
