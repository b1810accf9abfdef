package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinereviews/internal/config"
	"github.com/iliyamo/cinereviews/internal/handler"
	"github.com/iliyamo/cinereviews/internal/middleware"
	"github.com/iliyamo/cinereviews/internal/repository"
	"github.com/iliyamo/cinereviews/internal/service"
)

// Deps are the collaborators of the HTTP API.  Redis is optional (nil
// disables caching and rate limiting); Events may be nil.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Events    service.EventPublisher
	Logger    *slog.Logger
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	if d.Logger != nil {
		e.Use(requestLogger(d.Logger))
	}

	movies := repository.NewMovieRepo(d.DB)
	reviews := repository.NewReviewRepo(d.DB)
	users := repository.NewUserRepo(d.DB)
	accounts := repository.NewAccountRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	cache := Cache{
		Read:       middleware.NewRedisCache(d.Cache, d.Redis),
		Invalidate: middleware.InvalidateOnWrite(d.Cache, d.Redis),
	}

	RegisterRoutes(e, &handler.HealthHandler{DB: d.DB})
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, accounts, tokens), d.Cfg.JWTSecret, limit, cache.Invalidate)
	RegisterCatalog(e, Catalog{
		Movies:  handler.NewMovieHandler(movies),
		Reviews: handler.NewReviewHandler(reviews, movies, users, d.Events),
		Users:   handler.NewUserHandler(users),
	}, d.Cfg.JWTSecret, cache, limit)
	return e
}

// requestLogger feeds echo's request logger into slog.
func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	})
}

// RegisterRoutes registers routes that do not require authentication and
// are not part of the versioned API.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the authentication endpoints under /v1/auth.
// Sign-up, token and refresh are rate limited; /user requires a bearer.
// Sign-up creates a profile, so it purges cached profile lookups.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit, invalidate echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/signup", a.SignUp, limit, invalidate)
	g.POST("/token", a.Token, limit)
	g.POST("/refresh", a.Refresh, limit)
	// logout accepts either a bearer or a refresh_token body, so it is
	// deliberately outside JWTAuth
	g.POST("/logout", a.Logout)
	g.GET("/user", a.User, middleware.JWTAuth(jwtSecret))
}
