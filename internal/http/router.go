// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS, and
// response compression.
//
// Middleware ordering: tracing first, then RequestID so every log line and
// error carries a correlation id, then logging, then recovery so panics are
// logged with context.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/jdmnt1999/line-claude-viewer/internal/config"
	"github.com/jdmnt1999/line-claude-viewer/internal/http/handlers"
	"github.com/jdmnt1999/line-claude-viewer/internal/http/middleware"
	"github.com/jdmnt1999/line-claude-viewer/internal/importer"
	"github.com/jdmnt1999/line-claude-viewer/internal/llm"
	"github.com/jdmnt1999/line-claude-viewer/internal/logbuf"
	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

// Deps carries everything the router needs beyond configuration.
type Deps struct {
	DB     *gorm.DB
	LLM    llm.Client
	LogBuf *logbuf.Ring
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability, CORS, compression, health and metrics endpoints, and
// the versioned public API.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	// Backup payloads can be large in both directions.
	r.Use(limitBody(64 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/provider.
	convSvc := services.NewConversationService(deps.DB)
	msgSvc := services.NewMessageService(deps.DB)
	chatSvc := services.NewChatService(msgSvc, deps.LLM, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	xferSvc := services.NewTransferService(deps.DB, msgSvc, log.With().Str("component", "transfer").Logger())
	repairSvc := services.NewRepairService(deps.DB)

	rec := importer.NewReconciler(deps.DB, msgSvc, xferSvc,
		log.With().Str("component", "importer").Logger())
	if cfg.Import.RatePerSec > 0 {
		rec.Pace = rate.NewLimiter(rate.Limit(cfg.Import.RatePerSec), cfg.Import.RateBurst)
	}

	h := handlers.New(convSvc, msgSvc, chatSvc, xferSvc, rec, repairSvc, deps.LogBuf)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Conversations
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/search", h.SearchConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.DELETE("/conversations/:id", h.DeleteConversation)

		// Messages and chat
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.POST("/conversations/:id/messages", h.PostMessage)
		api.POST("/conversations/:id/chat", h.PostChat)

		// Transfer
		api.GET("/conversations/:id/export", h.ExportConversation)
		api.POST("/conversations/import", h.ImportConversation)
		api.GET("/backup", h.ExportDatabase)
		api.POST("/restore", h.RestoreDatabase)

		// Batch import
		api.POST("/import/batch", h.BatchImport)
		api.POST("/import/cancel", h.CancelImport)
		api.GET("/import/status", h.ImportStatus)

		// Maintenance and diagnostics
		api.POST("/repair", h.Repair)
		api.GET("/logs", h.Logs)
	}
}

// corsMiddleware allows everything when no origins are configured, which fits
// a local single-user deployment; otherwise it enforces the allowlist.
func corsMiddleware(origins []string) gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
	} else {
		base.AllowOrigins = origins
	}
	return cors.New(base)
}

// limitBody caps the request body size using http.MaxBytesReader; reads past
// the cap error downstream.
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
