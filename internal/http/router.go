// Package httpapi wires the HTTP transport (Gin) to the intake pipeline, the
// admin services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, CORS, security headers and admin authentication.
//
// Route map:
//
//	GET  /health
//	GET  /metrics
//	ANY  /submit-application                       public intake
//	GET  /swagger/*any                             when enabled
//	     {API_BASE_PATH}/admin/...                 admin review API, only
//	                                               mounted when tokens exist
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
	"gorm.io/gorm"

	_ "github.com/tbourn/agency-intake/docs" // registers the swagger document
	"github.com/tbourn/agency-intake/internal/config"
	"github.com/tbourn/agency-intake/internal/http/handlers"
	"github.com/tbourn/agency-intake/internal/http/middleware"
	"github.com/tbourn/agency-intake/internal/intake"
	"github.com/tbourn/agency-intake/internal/ratelimit"
	"github.com/tbourn/agency-intake/internal/repo"
	"github.com/tbourn/agency-intake/internal/services"
)

// IntakePath is the public submission endpoint used by the web form.
const IntakePath = "/submit-application"

// Deps are the runtime collaborators the routes are built on.
type Deps struct {
	DB *gorm.DB
	// Limiter enforces the per-address intake window. Nil disables it.
	Limiter ratelimit.Counter
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. Security headers
//
// Intake routes then add their fixed CORS headers, the body cap and the
// Idempotency-Key check. Admin routes add CORS, bearer auth, the token-bucket
// limiter and gzip.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Client-Info"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/counter
	store := repo.Store{DB: deps.DB}
	intakeSvc := &intake.Service{
		Applications:   store,
		Audit:          store,
		Idempotency:    store,
		Limiter:        deps.Limiter,
		StoreTimeout:   cfg.DB.StoreTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	appSvc := &services.ApplicationService{DB: deps.DB}
	auditSvc := &services.AuditService{DB: deps.DB}
	h := handlers.New(intakeSvc, appSvc, auditSvc)

	// Public intake. Any method reaches the handler so the 405 carries the
	// intake error shape and CORS headers.
	r.Any(IntakePath,
		middleware.IntakeCORS(),
		limitBody(cfg.MaxBodyBytes),
		middleware.IdempotencyKey(middleware.IdempotencyOptions{MaxLen: 200}),
		h.SubmitApplication,
	)

	if len(cfg.AdminTokens) == 0 {
		return
	}

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByActorOrIP())
	admin := groupWithPrefix(r, cfg.APIBasePath).Group("/admin")
	admin.Use(
		adminCORS(cfg.CORS),
		limitBody(1<<20),
		middleware.AdminAuth(cfg.AdminTokens),
		rl.Handler(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	{
		admin.GET("/applications", h.ListApplications)
		admin.GET("/applications/summary", h.ApplicationSummary)
		admin.GET("/applications/:id", h.GetApplication)
		admin.GET("/applications/:id/audit-events", h.ApplicationAuditTrail)
		admin.PUT("/applications/:id/status", h.UpdateApplicationStatus)
		admin.GET("/audit-events", h.ListAuditEvents)

		// Preflights are answered by adminCORS before auth runs.
		admin.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
}

// adminCORS allows any origin when no allowlist is configured. The admin API
// authenticates with bearer tokens, never cookies, so credentials stay off.
func adminCORS(c config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes; downstream reads past the cap
// fail with *http.MaxBytesError. maxBytes <= 0 disables the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
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
