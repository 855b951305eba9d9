package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/audit"
	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/internal/middleware"
	"github.com/clinical-evidence-server/internal/service"
)

// HealthCheck is a named dependency probe run by the health endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	config        domain.ServerConfig
	gatherTimeout time.Duration
	pipeline      *service.Pipeline
	auditStore    audit.Store
	healthChecks  []HealthCheck
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. AuditStore may be nil, in
// which case the audit listing endpoint is not registered.
func NewServer(cfg *domain.Config, pipeline *service.Pipeline, auditStore audit.Store, checks []HealthCheck, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.AccessLogger(logger))

	server := &Server{
		config:        cfg.Server,
		gatherTimeout: cfg.Gather.OverallTimeout,
		pipeline:      pipeline,
		auditStore:    auditStore,
		healthChecks:  checks,
		logger:        logger,
		router:        router,
	}
	server.setupRoutes()
	return server
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/classify", s.handleClassify)
		v1.POST("/evidence", s.handleEvidence)
		v1.POST("/validate", s.handleValidate)
		v1.POST("/answer", s.handleAnswer)
		if s.auditStore != nil {
			v1.GET("/audit", s.handleAuditList)
		}
	}
}

// gatherContext bounds evidence gathering with the configured overall
// deadline. The gatherer itself imposes no timeout.
func (s *Server) gatherContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.gatherTimeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), s.gatherTimeout)
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type validateRequest struct {
	Query    string                  `json:"query" binding:"required"`
	Answer   string                  `json:"answer" binding:"required"`
	Evidence *domain.EvidencePackage `json:"evidence,omitempty"`
}

// handleHealth reports service health, probing each registered dependency.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := gin.H{}
	for _, check := range s.healthChecks {
		if err := check.Probe(ctx); err != nil {
			deps[check.Name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			deps[check.Name] = "ok"
		}
	}

	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().UTC(),
		"dependencies": deps,
	})
}

// handleClassify runs the deterministic classification contract.
func (s *Server) handleClassify(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prepared, err := s.pipeline.ClassifyAndPrepare(req.Query)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, prepared)
}

// handleEvidence runs the gather contract: classify, fan out, filter, score.
func (s *Server) handleEvidence(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.gatherContext(c)
	defer cancel()

	result, err := s.pipeline.GatherEvidence(ctx, req.Query)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleValidate audits a caller-supplied answer. When the caller omits the
// evidence package, the pipeline gathers one for the query first.
func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg := req.Evidence
	if pkg == nil {
		ctx, cancel := s.gatherContext(c)
		defer cancel()

		result, err := s.pipeline.GatherEvidence(ctx, req.Query)
		if err != nil {
			s.renderError(c, err)
			return
		}
		pkg = result.Evidence
	}

	report := s.pipeline.ValidateAnswer(c.Request.Context(), req.Answer, req.Query, pkg)
	c.JSON(http.StatusOK, report)
}

// handleAnswer runs the full pipeline and returns the generated answer with
// its evidence and validation report.
func (s *Server) handleAnswer(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// No gather deadline here: generation dominates, and the server write
	// timeout already bounds the request.
	result, err := s.pipeline.Answer(c.Request.Context(), req.Query)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleAuditList returns recent audit records, newest first.
func (s *Server) handleAuditList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	records, err := s.auditStore.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.renderError(c, err)
		return
	}
	total, err := s.auditStore.Count(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "evidence gathering timed out"})
	default:
		s.logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
