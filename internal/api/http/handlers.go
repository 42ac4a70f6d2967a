package http

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kinuseka/QuickFileManager/internal/api/middleware"
	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/config"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/logging"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/monitoring"
	"github.com/Kinuseka/QuickFileManager/internal/providers/filesystem"
)

// Publisher receives change notifications after successful mutations
type Publisher interface {
	Publish(change ws.Change)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	fs      *filesystem.Provider
	events  Publisher
	metrics *monitoring.Metrics
	logger  *logging.Logger
	upload  config.UploadConfig
}

// NewHandlers creates a new handler set. events and metrics may be nil.
func NewHandlers(
	fs *filesystem.Provider,
	events Publisher,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
	upload config.UploadConfig,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		fs:      fs,
		events:  events,
		metrics: metrics,
		logger:  logger,
		upload:  upload,
	}
}

// Register mounts every file route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/files", h.ListFiles)
		api.GET("/files/*path", h.ListFiles)
		api.GET("/file/content", h.GetFileContent)
		api.POST("/file/content", h.SaveFileContent)
		api.POST("/create/folder", h.CreateFolder)
		api.POST("/delete", h.DeleteItem)
		api.POST("/batch-delete", h.BatchDelete)
		api.POST("/rename", h.RenameItem)
		api.POST("/move", h.MoveItem)
		api.GET("/search", h.Search)
		api.GET("/stat", h.Stat)
		api.POST("/preview/intent", h.PreviewIntent)

		api.POST("/upload", h.Upload)
		api.POST("/upload/chunk", h.UploadChunk)
		api.POST("/upload/cancel", h.CancelUpload)
		api.GET("/upload/status/:id", h.UploadStatus)
		api.GET("/upload/config", h.UploadConfig)

		api.POST("/zip", h.Zip)
		api.POST("/unzip", h.Unzip)
		api.GET("/archive/contents", h.ArchiveContents)
		api.GET("/zip/contents", h.ZipContents)
	}

	r.GET("/download/*path", h.Download)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := gin.H{
		"status":          "healthy",
		"service":         "QuickFileManager",
		"upload_sessions": h.fs.Uploads.ActiveSessions(),
		"archive_types":   h.fs.Archives.Registry.Types(),
	}
	if h.metrics != nil {
		status["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, status)
}

// StatusFor maps an engine error kind to its HTTP status
func StatusFor(kind filesystem.Kind) int {
	switch kind {
	case filesystem.KindForbidden:
		return http.StatusForbidden
	case filesystem.KindNotFound:
		return http.StatusNotFound
	case filesystem.KindAlreadyExists:
		return http.StatusConflict
	case filesystem.KindSizeExceeded:
		return http.StatusRequestEntityTooLarge
	case filesystem.KindUnsupportedFormat, filesystem.KindDecodeFailure:
		return http.StatusUnsupportedMediaType
	case filesystem.KindCorruptArchive:
		return http.StatusUnprocessableEntity
	case filesystem.KindSupportUnavailable:
		return http.StatusNotImplemented
	case filesystem.KindIOFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// fail writes err with the status of its kind and records denied or failed
// operations in the activity log.
func (h *Handlers) fail(c *gin.Context, op, detail string, err error) {
	kind := filesystem.KindOf(err)
	status := StatusFor(kind)

	switch {
	case kind == filesystem.KindForbidden:
		h.activity(c, "access_denied", fmt.Sprintf("Attempted: %s, %s, Error: %v", op, detail, err))
	case status >= http.StatusInternalServerError:
		h.activity(c, "operation_error", fmt.Sprintf("Operation: %s, %s, Error: %v", op, detail, err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (h *Handlers) activity(c *gin.Context, action, detail string) {
	h.logger.Activity(action, detail,
		zap.String("client", c.ClientIP()),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
}

// track starts a timer for op; the returned func records the outcome.
func (h *Handlers) track(op string) func(error) {
	timer := monitoring.NewTimer(h.metrics, op)
	return func(err error) {
		if err != nil {
			timer.Stop("error")
			return
		}
		timer.Stop("success")
	}
}

func (h *Handlers) publish(change ws.Change) {
	if h.events != nil {
		h.events.Publish(change)
	}
}

// parentOf returns the slash-separated parent of rel, "" for the root.
func parentOf(rel string) string {
	dir := path.Dir(strings.Trim(rel, "/"))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
