// internal/server/server.go
package server

import (
	"budget-tracker/internal/auth"
	"budget-tracker/internal/config"
	"budget-tracker/internal/handler"
	"budget-tracker/internal/middleware"
	"budget-tracker/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "budget-tracker"
	Version     = "1.0.0"
)

// Server wraps an http.Server with the API routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

func New(cfg config.Config, store storage.Storage, log *slog.Logger) *Server {
	limiter := middleware.NewRateLimiter(cfg.LoginRate, time.Minute)
	authSvc := auth.NewService(store, auth.NewTokenService(cfg))

	return &Server{
		inner: &http.Server{
			Addr:              cfg.HTTPAddress(),
			Handler:           NewRouter(cfg, store, authSvc, limiter, log),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
	}
}

func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start serves until Shutdown; http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}

// NewRouter builds the gin engine. limiter guards the register and login
// routes; nil disables it.
func NewRouter(cfg config.Config, store storage.Storage, authSvc *auth.Service, limiter *middleware.RateLimiter, log *slog.Logger) *gin.Engine {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// по умолчанию gin доверяет любому X-Forwarded-For, и ClientIP для лимитера подделывается
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigins))

	health := handler.NewHealthHandler(store, serviceName, Version)
	router.GET("/", health.Root)
	router.GET("/health", health.Health)

	authHandler := handler.NewAuthHandler(authSvc)
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	api := router.Group("/api")

	public := api.Group("/auth")
	if limiter != nil {
		public.Use(limiter.Middleware())
	}
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/refresh", authHandler.Refresh)
		protected.GET("/auth/me", authHandler.Me)
		protected.PATCH("/auth/me", authHandler.UpdateMe)
		protected.PUT("/auth/me", authHandler.UpdateMe)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		stats := handler.NewStatsHandler(store)
		protected.GET("/stats", stats.Stats)
		protected.GET("/stats/monthly", stats.Monthly)

		accounts := handler.NewAccountHandler(store, store)
		g := protected.Group("/accounts")
		crud(g, accounts.List, accounts.Get, accounts.Create, accounts.Update, accounts.Delete)
		g.GET("/:id/operations", accounts.Operations)

		operations := handler.NewOperationHandler(store)
		// /transactions остаётся для старых клиентов
		for _, path := range []string{"/operations", "/transactions"} {
			crud(protected.Group(path), operations.List, operations.Get, operations.Create, operations.Update, operations.Delete)
		}

		categories := handler.NewCategoryHandler(store, store)
		g = protected.Group("/categories")
		crud(g, categories.List, categories.Get, categories.Create, categories.Update, categories.Delete)
		g.GET("/:id/sub-categories", categories.SubCategories)
		g.GET("/name/:name", categories.GetByName)

		subCategories := handler.NewSubCategoryHandler(store, store)
		g = protected.Group("/sub-categories")
		crud(g, subCategories.List, subCategories.Get, subCategories.Create, subCategories.Update, subCategories.Delete)
		g.GET("/:id/operations", subCategories.Operations)
		g.GET("/name/:name", subCategories.GetByName)

		types := handler.NewTypeHandler(store)
		g = protected.Group("/types")
		crud(g, types.List, types.Get, types.Create, types.Update, types.Delete)
		g.GET("/name/:name", types.GetByName)
	}

	return router
}

// crud registers the standard collection routes. PUT and PATCH share the
// partial update handler.
func crud(g *gin.RouterGroup, list, get, create, update, del gin.HandlerFunc) {
	g.GET("", list)
	g.POST("", create)
	g.GET("/:id", get)
	g.PUT("/:id", update)
	g.PATCH("/:id", update)
	g.DELETE("/:id", del)
}
