package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ymaps2gpx/internal/pkg/metrics"
)

const (
	// Conversions may wait on the map site and the elevation API.
	convertTimeout = 90 * time.Second
	queryTimeout   = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into the request logger
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/convert", timeout.NewWithContext(ConvertHandler(deps), convertTimeout))
	v1.Post("/convert", timeout.NewWithContext(ConvertDocumentHandler(deps), convertTimeout))
	v1.Post("/merge", timeout.NewWithContext(MergeHandler(deps), queryTimeout))
	v1.Get("/conversions", timeout.NewWithContext(ListConversionsHandler(deps), queryTimeout))
	v1.Get("/conversions/:id", timeout.NewWithContext(GetConversionHandler(deps), queryTimeout))
	v1.Get("/conversions/:id/gpx", timeout.NewWithContext(ConversionGPXHandler(deps), queryTimeout))

	// Unversioned alias kept for old bookmarks
	app.Get("/convert", timeout.NewWithContext(ConvertHandler(deps), convertTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), convertTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
