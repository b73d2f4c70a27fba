// Package middleware provides HTTP middleware for the sandbox API.
//
// Middleware stack includes:
//   - RequestID: X-Request-ID propagation (UUID when absent)
//   - Logger: one zap line per request
//   - CORS: dashboard origins from CORS_ORIGINS
//   - RateLimit: per-IP token bucket on scan submission
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.CORS.Origins)))
//	router.POST("/analyze", middleware.RateLimit(middleware.DefaultRateLimitConfig()), h.Analyze)
package middleware
