package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/networkqy/config"
	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/internal/repository"
	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/database"
)

type request struct {
	viewer string
	topic  model.Topic
	page   int
	size   int
	// like 非空时本次请求是一次点赞切换，会使缓存失效
	like string
}

func main() {
	ctx := context.Background()

	cfg := must(config.Load())
	db := must(database.InitDB(cfg))

	const (
		userCount = 2000
		postCount = 5000
		requests  = 6000
	)

	fmt.Println("Setting up feed data...")
	users, posts := seed(db, userCount, postCount)
	fmt.Printf("Test data ready: %d users, %d posts\n", len(users), len(posts))

	// 未配置 redis 时使用进程内 miniredis
	addr := cfg.Redis.Addr
	if addr == "" {
		mr := must(miniredis.Run())
		defer mr.Close()
		addr = mr.Addr()
		fmt.Println("Using in-process redis at", addr)
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
	}

	readOnly := makeRequests(users, posts, requests, 0)
	mixed := makeRequests(users, posts, requests, 0.05)

	newFeed := func(cache *service.FeedCache) service.FeedService {
		return service.NewFeedService(
			repository.NewPostRepository(db),
			repository.NewCommentRepository(db),
			repository.NewLikeRepository(db),
			cache,
		)
	}

	results := []struct {
		name string
		res  scenarioResult
	}{
		{"No cache", runScenario(ctx, newFeed, nil, client, readOnly)},
		{"Versioned cache", runScenario(ctx, newFeed, service.NewFeedCache(client, 10*time.Minute), client, readOnly)},
		{"Cache + 5% likes", runScenario(ctx, newFeed, service.NewFeedCache(client, 10*time.Minute), client, mixed)},
	}

	fmt.Printf("\nFeed list latency (%d req, %d users, %d posts, %s)\n", requests, userCount, postCount, cfg.Database.Driver)
	for _, r := range results {
		fmt.Printf("%-18s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.counters.Hits, r.res.counters.Misses, r.res.cacheKeys, formatBytes(r.res.memoryBytes),
		)
	}
}

type scenarioResult struct {
	durations   []time.Duration
	counters    service.FeedCacheCounters
	cacheKeys   int
	memoryBytes int64
}

// runScenario 先预热一遍再计时；cache 为 nil 时直接读库
func runScenario(ctx context.Context, newFeed func(*service.FeedCache) service.FeedService, cache *service.FeedCache, client *redis.Client, reqs []request) scenarioResult {
	client.FlushAll(ctx)
	feed := newFeed(cache)

	if cache != nil {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			if r.like == "" {
				must(feed.ListPosts(ctx, r.viewer, r.topic, r.page, r.size))
			}
		}
		fmt.Println(" done")
	}
	before := cache.Counters()

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		var err error
		if r.like != "" {
			_, err = feed.TogglePostLike(ctx, r.viewer, r.like)
		} else {
			_, err = feed.ListPosts(ctx, r.viewer, r.topic, r.page, r.size)
		}
		if err != nil {
			panic(err)
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	keys, _ := client.Keys(ctx, "feed:*").Result()
	var memBytes int64
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		memBytes = parseRedisMemory(info)
	}
	return scenarioResult{
		durations:   out,
		counters:    diff(cache.Counters(), before),
		cacheKeys:   len(keys),
		memoryBytes: memBytes,
	}
}

func diff(a, b service.FeedCacheCounters) service.FeedCacheCounters {
	return service.FeedCacheCounters{Hits: a.Hits - b.Hits, Misses: a.Misses - b.Misses}
}

func seed(db *gorm.DB, userCount, postCount int) ([]string, []string) {
	topics := []model.Topic{model.TopicCompanyCulture, model.TopicWorkplaceIssues, model.TopicCareerAdvice, model.TopicGeneral}
	users := make([]model.User, userCount)
	userIDs := make([]string, userCount)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{
			ID:              id,
			Email:           fmt.Sprintf("bench_%d_%s@networkqy.dev", i, id[:8]),
			Name:            fmt.Sprintf("Bench %d", i),
			AnonymousHandle: fmt.Sprintf("Anonymous B%02d", i%100),
		}
		userIDs[i] = id
	}
	mustDo(db.CreateInBatches(&users, 500).Error)

	base := time.Now()
	posts := make([]model.Post, postCount)
	postIDs := make([]string, postCount)
	for i := range posts {
		id := uuid.NewString()
		posts[i] = model.Post{
			ID:          id,
			AuthorID:    userIDs[i%userCount],
			Content:     fmt.Sprintf("bench post %d", i),
			IsAnonymous: i%3 != 0,
			Topic:       topics[i%len(topics)],
			CreatedAt:   base.Add(-time.Duration(i) * time.Second),
		}
		postIDs[i] = id
	}
	mustDo(db.CreateInBatches(&posts, 500).Error)
	return userIDs, postIDs
}

// makeRequests 大部分请求落在首页，likeRatio 比例的请求是点赞切换
func makeRequests(users, posts []string, n int, likeRatio float64) []request {
	topics := []model.Topic{"", "", model.TopicCareerAdvice, model.TopicCompanyCulture}
	sizes := []int{10, 20, 50}
	rnd := rand.New(rand.NewSource(42))
	out := make([]request, n)
	for i := range out {
		r := request{viewer: users[rnd.Intn(len(users))]}
		if rnd.Float64() < likeRatio {
			r.like = posts[rnd.Intn(100)]
			out[i] = r
			continue
		}
		r.topic = topics[rnd.Intn(len(topics))]
		r.size = sizes[rnd.Intn(len(sizes))]
		r.page = 1
		if rnd.Float64() > 0.8 {
			r.page = 2 + rnd.Intn(10)
		}
		out[i] = r
	}
	return out
}

// parseRedisMemory extracts used_memory from Redis INFO
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
