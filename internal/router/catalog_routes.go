package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/handler"
	"github.com/iliyamo/cinereviews/internal/middleware"
)

// Catalog groups the handlers behind the movie, review and profile tables.
type Catalog struct {
	Movies  *handler.MovieHandler
	Reviews *handler.ReviewHandler
	Users   *handler.UserHandler
}

// Cache pairs the read-through response cache with the purge that follows
// successful writes.
type Cache struct {
	Read       echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

// RegisterCatalog registers the /v1 catalog routes.  Reads are public and
// cached; writes require a valid JWT, are rate limited and purge the cache.
func RegisterCatalog(e *echo.Echo, h Catalog, jwtSecret string, cache Cache, limit echo.MiddlewareFunc) {
	pub := e.Group("/v1", cache.Read)
	pub.GET("/movies", h.Movies.List)
	pub.GET("/movies/:id", h.Movies.Get)
	pub.GET("/movies/:id/reviews", h.Reviews.ListByMovie)
	pub.GET("/reviews/latest", h.Reviews.Latest)
	pub.GET("/users", h.Users.Find)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), limit, cache.Invalidate)
	auth.POST("/movies", h.Movies.Create)
	auth.PUT("/movies/:id", h.Movies.Update)
	auth.DELETE("/movies/:id", h.Movies.Delete)
	auth.POST("/reviews", h.Reviews.Create)
	auth.PUT("/reviews/:id", h.Reviews.Update)
	auth.DELETE("/reviews/:id", h.Reviews.Delete)
	auth.POST("/users", h.Users.Create)
}
