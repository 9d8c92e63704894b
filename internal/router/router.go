package router

import (
	"github.com/gin-gonic/gin"

	"docfill/internal/handler"
	"docfill/internal/logger"
	"docfill/internal/metrics"
	"docfill/internal/middleware"
	"docfill/internal/port"
	"docfill/internal/session"
)

// Options carries the cross-cutting settings the router needs.
type Options struct {
	AllowedOrigins     []string
	MaxMultipartMemory int64
	// Metrics is nil when the prometheus endpoint is disabled.
	Metrics *metrics.Metrics
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log logger.Logger,
	opts Options,
	cookies *session.Cookies,
	store port.SessionStore,
	formH *handler.FormHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(opts.Metrics.Middleware())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.GET("/document-types", formH.ListDocumentTypes)

	// Session-scoped form routes
	form := r.Group("")
	form.Use(middleware.Session(cookies, store, log))
	form.POST("/analyze-document", formH.AnalyzeDocument)
	form.GET("/get-session-data", formH.GetSessionData)
	form.GET("/get-session-data/export", formH.ExportSessionData)
	form.POST("/submit-form", formH.SubmitForm)

	return r
}
