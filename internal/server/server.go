package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "pixelflow/docs"
	"pixelflow/internal/logging"
	"pixelflow/internal/orchestrator"
	"pixelflow/internal/processor"
	"pixelflow/internal/workspace"
	"pixelflow/pkg/config"
	"pixelflow/pkg/model"
)

const (
	RFC3339Millis   = "2006-01-02T15:04:05.000Z07:00"
	shutdownTimeout = 30 * time.Second
)

// Orchestrator is what the handlers need from the orchestration layer.
type Orchestrator interface {
	Process(ctx context.Context, req model.ProcessingRequest) (*model.ProcessingResult, error)
	Demo(ctx context.Context, imageBytes []byte, progress orchestrator.Progress) (*model.DemoReport, error)
	Stats() orchestrator.Stats
}

// ProcessorProbe reports on the configured external executable.
type ProcessorProbe interface {
	Path() string
	Available() error
}

type Server struct {
	orchestrator   Orchestrator
	probe          ProcessorProbe
	workspaceDir   string
	maxUploadBytes int64
	clientURL      string
}

type Options struct {
	Orchestrator   Orchestrator
	Probe          ProcessorProbe
	WorkspaceDir   string
	MaxUploadBytes int64
	ClientURL      string
}

func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &Server{
		orchestrator:   opts.Orchestrator,
		probe:          opts.Probe,
		workspaceDir:   opts.WorkspaceDir,
		maxUploadBytes: opts.MaxUploadBytes,
		clientURL:      opts.ClientURL,
	}
}

// Router godoc
// @title pixelflow API
// @version 1.0
// @description Runs image operations through an external processor and compares serial and parallel execution
// @BasePath /
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{Formatter: logFormatter}), gin.Recovery())
	r.Use(cors.New(s.corsConfig()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", s.HealthHandler)

	r.POST("/process-image", s.ProcessImageHandler)
	r.POST("/demo", s.DemoHandler)

	v1 := r.Group("/api/v1")
	v1.POST("/process-image", s.ProcessImageHandler)
	v1.POST("/demo", s.DemoHandler)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if s.clientURL == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{s.clientURL}
	}
	return cfg
}

// StartServer wires the service from cfg and serves until ctx is cancelled.
func StartServer(ctx context.Context, cfg config.ServiceConfig) error {
	logging.SetLevel(cfg.Log.Level)
	logger := logging.BuildLogger()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	workspaces := workspace.NewManager(cfg.Workspace.Dir)
	if removed, err := workspaces.Sweep(cfg.Workspace.StaleAfter); err != nil {
		logger.WithError(err).Warn("Stale workspace sweep failed", "removed", removed)
	} else if removed > 0 {
		logger.Info("Removed stale workspace files", "removed", removed, "dir", workspaces.Dir())
	}

	proc := processor.New(cfg.Processor, logger)
	if err := proc.Available(); err != nil {
		logger.WithError(err).Warn("Processor is not executable, requests will fail until it is", "path", proc.Path())
	}

	srv := New(Options{
		Orchestrator:   orchestrator.New(workspaces, proc, cfg.Orchestrator, logger),
		Probe:          proc,
		WorkspaceDir:   workspaces.Dir(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ClientURL:      cfg.Server.ClientURL,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Server listening", "addr", httpServer.Addr, "processor", proc.Path(), "max_concurrent_invocations", cfg.Orchestrator.MaxConcurrentInvocations)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func logFormatter(param gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}

	return fmt.Sprintf("{\"timestamp\":%q, \"status_code\": %d, \"latency\": %q, \"latency_raw\": %d, \"request_size\": %q, \"request_size_raw\": %d, \"response_size\": %q, \"client_ip\":%q, \"method\": %q, \"path\": %q, \"error\": %q}\n",
		param.TimeStamp.Format(RFC3339Millis),
		param.StatusCode,
		param.Latency.String(),
		param.Latency,
		humanize.Bytes(uint64(max(param.Request.ContentLength, 0))),
		param.Request.ContentLength,
		humanize.Bytes(uint64(max(param.BodySize, 0))),
		param.ClientIP,
		param.Method,
		param.Path,
		param.ErrorMessage,
	)
}
