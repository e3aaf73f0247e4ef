package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/dipex/internal/server/handler"
	"github.com/joseph-ayodele/dipex/internal/server/middleware"
)

// RouterConfig carries what the routes need beyond the handlers.
type RouterConfig struct {
	AppName        string
	MaxUploadBytes int64
	Metrics        http.Handler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	cfg RouterConfig,
	extraction *handler.ExtractionHandler,
	records *handler.RecordsHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handler.HealthResponse{Status: "ok", App: cfg.AppName})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := r.Group("/api/v1")
	{
		ocr := v1.Group("/ocr", middleware.BodyLimit(uploadLimit(cfg.MaxUploadBytes)))
		{
			ocr.POST("/extract", extraction.Extract)
			ocr.POST("/extract-and-save", extraction.ExtractAndSave)
		}

		v1.POST("/extractions/commit", middleware.BodyLimit(1<<20), extraction.Commit)

		users := v1.Group("/users/:user_id")
		{
			users.GET("/expenses", records.ListExpenses)
			users.GET("/expenses/export", records.ExportExpenses)
			users.GET("/payments", records.ListPayments)
		}
	}
}

// uploadLimit leaves room for multipart framing around the file itself.
func uploadLimit(maxUpload int64) int64 {
	if maxUpload <= 0 {
		return 0
	}
	return maxUpload + 64<<10
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(logger *slog.Logger, cfg RouterConfig, svc handler.ExtractionService) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	setupRouter(logger, r, cfg,
		handler.NewExtractionHandler(logger, svc, cfg.MaxUploadBytes),
		handler.NewRecordsHandler(logger, svc),
	)
	return r
}
