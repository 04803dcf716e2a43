// Package httpapi wires the HTTP transport (Gin) to the booking services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation ids, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, rate limiting, the webhook
// signature guard and the admin token guard.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-booking-engine/internal/config"
	"github.com/tbourn/go-booking-engine/internal/http/handlers"
	"github.com/tbourn/go-booking-engine/internal/http/middleware"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Holds        handlers.HoldService
	Slots        handlers.SlotService
	Bookings     handlers.BookingService
	Appointments handlers.AppointmentService
	Webhooks     handlers.WebhookService

	// Ready reports dependency health for /health; nil means always ready.
	Ready func() error
}

const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip, CORS and security headers
//
// Rate limiting is attached per group so the webhook route can verify the
// gateway signature first and skip the limiter for verified deliveries.
func RegisterRoutes(r *gin.Engine, svc Services, cfg config.Config) error {
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger/"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed)
	})

	r.GET("/health", func(c *gin.Context) {
		if svc.Ready != nil {
			if err := svc.Ready(); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc.Holds, svc.Slots, svc.Bookings, svc.Appointments, svc.Webhooks)
	h.MaxWebhookBody = maxBodyBytes
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP()).Handler()
	guard := middleware.WebhookSignature(middleware.SignatureOptions{
		Secret:    cfg.Payment.WebhookSecret,
		Tolerance: cfg.Payment.SignatureTolerance,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)

	public := api.Group("", limiter)
	{
		public.POST("/professionals/:id/holds", h.CreateHold)
		public.DELETE("/professionals/:id/holds", h.ReleaseHold)
		public.GET("/professionals/:id/slots", h.GetSlots)
		public.POST("/professionals/:id/appointments", h.CreateAppointment)

		public.GET("/appointments/:reference", h.GetAppointment)
		public.POST("/appointments/:reference/cancel", h.CancelAppointment)
		public.POST("/appointments/:reference/status", h.UpdateAppointmentStatus)
	}
	api.POST("/webhooks/payments", guard, limiter, h.HandlePaymentWebhook)

	// The event log holds raw payment payloads.
	if cfg.AdminToken != "" {
		admin := api.Group("", middleware.AdminToken(cfg.AdminToken), limiter)
		admin.GET("/webhooks/events", h.ListWebhookEvents)
	}

	return nil
}

// corsMiddleware allows every origin when none are configured, and echoes
// allow-listed origins otherwise.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", middleware.SessionHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(conf),
		}
	}
	conf.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(conf)}
}

// limitBody caps request bodies at maxBytes; reads beyond it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
