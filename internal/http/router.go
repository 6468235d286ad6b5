package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pagedesk/blogapi/internal/auth"
	"github.com/pagedesk/blogapi/internal/captcha"
	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/http/handlers"
	"github.com/pagedesk/blogapi/internal/http/middlewares"
	"github.com/pagedesk/blogapi/internal/observability"
	"github.com/pagedesk/blogapi/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for any page payload

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("blogapi"))
	}

	// metrics get their own registry so building two routers in tests
	// never double-registers collectors
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool).WithProm(prom)
	pagesRepo := postgres.NewPagesRepo(pool, prom)
	contactsRepo := postgres.NewContactsRepo(pool, prom)

	// shared services
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	verifier := captcha.NewVerifier(cfg.CaptchaSecret, cfg.CaptchaVerifyURL, prom.ObserveCaptcha)
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, verifier)
	pagesHandler := handlers.NewPagesHandler(pagesRepo)
	contactsHandler := handlers.NewContactsHandler(contactsRepo, verifier)

	// public write endpoints get a per-IP limiter on top of the bot gate
	publicLimiter := middlewares.NewRateLimiter(10, time.Minute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.POST("/verify", authHandler.Verify)
	authGroup.POST("/create-user", authMw.RequireAuth(), publicLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), authHandler.CreateUser)

	// public blog surface
	api.GET("/pages", pagesHandler.ListPublic)
	api.GET("/pages/:id", pagesHandler.GetPublic)

	// control panel, bearer token required throughout
	cp := api.Group("/control-panel", authMw.RequireAuth())
	cp.GET("/pages/all", pagesHandler.ListAll)
	cp.GET("/pages/all/:id", pagesHandler.GetAny)
	cp.POST("/pages", pagesHandler.CreatePage)
	cp.PUT("/pages/:id", pagesHandler.UpdatePage)
	cp.DELETE("/pages/:id", pagesHandler.DeletePage)

	// contact intake
	api.POST("/contact", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), contactsHandler.Submit)
	api.GET("/contacts", authMw.RequireAuth(), contactsHandler.List)

	return r
}
