package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hotel-info-panels/internal/config"     // config carries the rate-limit settings
	"github.com/iliyamo/hotel-info-panels/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hotel-info-panels/internal/middleware" // import middleware for JWT authentication and rate limiting
	"github.com/redis/go-redis/v9"                             // redis backs the distributed token bucket
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPanels registers the panel lifecycle endpoints under /v1.  Every
// route requires a gateway-issued bearer token carrying the owner's external
// identity in the subject claim, and all of them share the Redis-backed
// token-bucket rate limiter (which degrades to a pass-through when rdb is
// nil).
func RegisterPanels(e *echo.Echo, h *handler.PanelHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	g.Use(middleware.JWTAuth(jwtSecret))
	// Apply the distributed token-bucket rate limiter after authentication so
	// the key strategy can incorporate the owner identity.
	g.Use(middleware.NewTokenBucket(rl, rdb))

	// Panel set operations: create a batch from a form, list, bulk delete,
	// bulk refresh.  The bulk refresh route is registered before the :ref
	// routes purely for readability; Echo matches static segments first.
	g.POST("/panels", h.CreatePanels)
	g.GET("/panels", h.ListForms)
	g.DELETE("/panels", h.DeleteAll)
	g.POST("/panels/refresh", h.RefreshAll)

	// Single-panel operations addressed by the gateway's external reference.
	g.GET("/panels/:ref", h.GetPanel)
	g.DELETE("/panels/:ref", h.Delete)
	g.POST("/panels/:ref/cursor", h.Navigate)
	g.POST("/panels/:ref/list", h.NavigateList)
	g.POST("/panels/:ref/refresh", h.RefreshOne)

	// Cross-panel report over everything the owner holds.
	g.GET("/report", h.Report)
}
