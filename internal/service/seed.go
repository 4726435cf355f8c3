package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/pkg/logger"
)

// DemoPassword 本地演示账号的密码
const DemoPassword = "networkqy"

type seedPost struct {
	author    string
	content   string
	topic     model.Topic
	anonymous bool
	company   string
}

var demoUsers = []struct{ email, name string }{
	{"ada@networkqy.dev", "Ada"},
	{"lin@networkqy.dev", "Lin"},
	{"sam@networkqy.dev", "Sam"},
}

var demoPosts = []seedPost{
	{"ada@networkqy.dev", "Our team finally adopted no-meeting Wednesdays. Productivity is way up.", model.TopicCompanyCulture, true, "Acme"},
	{"lin@networkqy.dev", "How do you ask for a promotion without sounding entitled?", model.TopicCareerAdvice, true, ""},
	{"sam@networkqy.dev", "Hiring backend engineers, DM me.", model.TopicGeneral, false, "Globex"},
}

// Seed 写入演示用户与帖子；用户已存在时跳过
func Seed(ctx context.Context, auth AuthService, feed FeedService) error {
	ids := make(map[string]string, len(demoUsers))
	for _, du := range demoUsers {
		u, err := auth.UserByEmail(ctx, du.email)
		if errors.Is(err, ErrUnknownUser) {
			u, err = auth.Register(ctx, du.email, du.name, DemoPassword)
		}
		if err != nil {
			return err
		}
		ids[du.email] = u.ID
	}

	existing, err := feed.ListPosts(ctx, "", "", 1, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, sp := range demoPosts {
		if _, err := feed.CreatePost(ctx, ids[sp.author], CreatePostInput{
			Content:     sp.content,
			IsAnonymous: sp.anonymous,
			Topic:       sp.topic,
			Company:     sp.company,
		}); err != nil {
			return err
		}
	}
	logger.Info("demo data seeded", zap.Int("users", len(demoUsers)), zap.Int("posts", len(demoPosts)))
	return nil
}
