// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/handler"
	"github.com/interna-ai/assessment-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers to
// verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated operations
// (register, login, refresh, logout) live under /v1/auth; /v1/me requires a
// valid access token. The rate limiter, when enabled, throttles credential
// guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STUDENT", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated offering catalog. The cache
// middleware, when enabled, serves repeat catalog reads from redis.
func RegisterPublic(e *echo.Echo, o *handler.OfferingHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/offerings")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("", o.List)
	g.GET("/:id", o.Get)
}

// RegisterPayments registers order creation (authenticated) and the gateway
// webhook (signature-authenticated, no JWT). The rate limiter, when
// enabled, protects order creation from checkout hammering.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler, w *handler.WebhookHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/payments")
	g.Use(middleware.JWTAuth(jwtSecret))
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/orders", p.CreateOrder)
	g.GET("/orders", p.ListOrders)

	// The webhook authenticates by HMAC signature, so it stays outside the
	// JWT group.
	if limiter != nil {
		e.POST("/v1/payments/webhook", w.Handle, limiter)
	} else {
		e.POST("/v1/payments/webhook", w.Handle)
	}
}

// RegisterAssessments registers the exam flow. Start uses OptionalJWTAuth:
// a bypass token fresh from checkout may authorize a request that carries
// no principal yet. The in-session routes key on the unguessable session id.
func RegisterAssessments(e *echo.Echo, a *handler.AssessmentHandler, jwtSecret string) {
	g := e.Group("/v1/assessments")
	g.Use(middleware.OptionalJWTAuth(jwtSecret))
	g.POST("/:offeringId/start", a.Start)
	g.POST("/sessions/:sessionId/answers", a.Answer)
	g.POST("/sessions/:sessionId/violations", a.Violation)
	g.GET("/sessions/:sessionId/result", a.Result)

	auth := e.Group("/v1/attempts")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("", a.ListAttempts)
}
