package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/response"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/authz"
	appsvc "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitCacheSize = 10_000
	rateLimitTTL       = time.Hour
)

type Deps struct {
	Service appsvc.Service
	Gate    *authz.Gate
	Store   Pinger
	Config  *config.Config
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewRouter собирает gin-движок. ctx ограничивает жизнь фоновых горутин
// middleware (очистка rate-limit кэша).
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	h := &Handler{
		svc:   d.Service,
		store: d.Store,
		cookies: cookieJar{
			domain:      d.Config.CookieDomain,
			refreshPath: d.Config.RefreshCookiePath,
		},
		metrics: d.Metrics,
		log:     d.Log,
	}

	router := gin.New()
	// gin по умолчанию доверяет любым прокси, и ClientIP (ключ rate limit)
	// подделывается через X-Forwarded-For
	if err := router.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		d.Log.Warn("invalid trusted proxies, forwarded headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Log))
	router.Use(middleware.Metrics(d.Metrics))

	router.Use(cors.New(corsConfig(d.Config, d.Log)))

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "route not found", nil)
	})

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := router.Group("/api", middleware.Timeout(d.Config.RequestTimeout))
	api.POST("/register", h.Register)
	api.POST("/login",
		middleware.NewRateLimitPerIP(ctx, d.Config.LoginRateLimit, d.Config.LoginRateBurst, rateLimitCacheSize, rateLimitTTL),
		h.Login,
	)
	api.GET("/refresh", h.Refresh)

	authed := api.Group("", middleware.RequireLogin(d.Gate))
	authed.POST("/logout", h.Logout)
	authed.GET("/users", h.Me)
	authed.GET("/users/me", h.Me)
	authed.GET("/users/:id", middleware.RequireRole(d.Gate, model.RoleAdmin), h.GetAccount)

	return router
}

// corsConfig: без явного списка источников разрешены все, но без credentials,
// иначе браузер отклонит ответ с "*".
func corsConfig(cfg *config.Config, log *zap.Logger) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		if cfg.AllowCredentials {
			log.Warn("ALLOWED_ORIGINS is empty: CORS credentials disabled, cross-site cookie sessions will not work")
		}
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = cfg.AllowCredentials
	return c
}
