package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/Kinuseka/QuickFileManager/internal/api/http"
	"github.com/Kinuseka/QuickFileManager/internal/api/middleware"
	"github.com/Kinuseka/QuickFileManager/internal/api/ws"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/config"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/logging"
	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/monitoring"
	"github.com/Kinuseka/QuickFileManager/internal/providers/filesystem"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	fs      *filesystem.Provider
	hub     *ws.Hub
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	}
	if cfg.Logging.ActivityFile != "" {
		logCfg.ActivityPaths = []string{cfg.Logging.ActivityFile}
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing QuickFileManager",
		zap.String("addr", cfg.Addr()),
		zap.String("managed_directory", cfg.ManagedDirectory),
	)

	metrics := monitoring.NewMetrics()

	fs, err := filesystem.NewProvider(filesystem.Options{
		Root:             cfg.ManagedDirectory,
		Exclude:          cfg.Listing.Exclude,
		DisabledArchives: cfg.Archive.Disabled,
		Upload: filesystem.UploadConfig{
			TempDir:       cfg.Upload.TempDir,
			ChunkSize:     cfg.Upload.ChunkSize(),
			MaxFileSize:   cfg.Upload.MaxFileSize(),
			IdleTimeout:   cfg.Upload.IdleTimeout(),
			SweepInterval: cfg.Upload.Sweep(),
		},
		UploadOptions: []filesystem.UploadOption{
			filesystem.WithReclaimHook(func(uploadID string) {
				metrics.IncUploadsReclaimed()
				logger.Activity("upload_expired", "Upload: "+uploadID)
			}),
		},
		Logger: logger.Logger,
	})
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to open managed directory: %w", err)
	}
	metrics.TrackActiveUploads(fs.Uploads.ActiveSessions)
	logger.Info("Managed directory ready",
		zap.String("root", fs.Resolver.Root()),
		zap.Any("archive_types", fs.Archives.Registry.Types()),
	)

	hub := ws.NewHub(logger.Logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// Chunks up to the configured size are parsed in memory.
	router.MaxMultipartMemory = cfg.Upload.ChunkSize() + 1<<20

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := apihttp.NewHandlers(fs, hub, metrics, logger, cfg.Upload)
	handlers.Register(router)
	router.GET("/updates", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		fs:      fs,
		hub:     hub,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the router serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
// A graceful Shutdown makes Run return nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then releases everything Close does.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	// Hijacked websocket connections are not tracked by http.Server.
	s.hub.Close()
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close discards unfinished uploads, disconnects listeners and flushes logs
func (s *Server) Close() error {
	s.hub.Close()

	var err error
	if cerr := s.fs.Close(); cerr != nil {
		s.logger.Error("Failed to close upload coordinator", zap.Error(cerr))
		err = fmt.Errorf("failed to close upload coordinator: %w", cerr)
	}

	// Sync logger before exit
	s.logger.Sync()
	return err
}
