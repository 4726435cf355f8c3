package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/networkqy/config"
	_ "github.com/d60-Lab/networkqy/docs"
	"github.com/d60-Lab/networkqy/internal/api/handler"
	"github.com/d60-Lab/networkqy/internal/api/middleware"
	"github.com/d60-Lab/networkqy/internal/service"
	"github.com/d60-Lab/networkqy/pkg/metrics"
)

// Deps 组装路由所需的依赖
type Deps struct {
	Config  *config.Config
	Feed    service.FeedService
	Auth    service.AuthService
	Metrics *metrics.Metrics
	// Gatherer 为 nil 时 /metrics 使用默认 registry
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	gin.SetMode(cfg.Server.Mode)
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Endpoint != "" {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger())
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := handler.NewHandler(d.Feed, d.Auth,
		handler.WithMetrics(d.Metrics),
		handler.WithCookies(cfg.Auth.CookieSecure, cfg.Auth.TokenTTL),
	)

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), d.Metrics))
	{
		apiGroup.POST("/auth/login", h.Login)

		authed := apiGroup.Group("", middleware.Auth(d.Auth))
		authed.GET("/posts", h.ListPosts)
		authed.POST("/posts", h.CreatePost)
		authed.GET("/posts/:id", h.GetPost)
		authed.POST("/posts/:id/like", h.TogglePostLike)
		authed.GET("/posts/:id/comments", h.ListComments)
		authed.POST("/posts/:id/comments", h.CreateComment)
		authed.POST("/comments/:id/like", h.ToggleCommentLike)
	}
	return r, nil
}
