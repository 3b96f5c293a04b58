package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/middleware"
	"github.com/pharmaguard-server/internal/service"
)

// Analyzer is the part of the analysis pipeline the HTTP layer depends on.
type Analyzer interface {
	Analyze(ctx context.Context, vcfText string, drugs []string, patientID string) []domain.AnalysisResult
}

// Server represents the HTTP server
type Server struct {
	config   *domain.ServerConfig
	logger   *logrus.Logger
	analyzer Analyzer
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(config *domain.ServerConfig, logger *logrus.Logger, analyzer Analyzer) *Server {
	if logger.GetLevel() == logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	server := &Server{
		config:   config,
		logger:   logger,
		analyzer: analyzer,
		router:   router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/drugs", s.handleSupportedDrugs)
		v1.GET("/genes", s.handleSupportedGenes)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "pharmaguard-server",
		"timestamp": time.Now().UTC(),
	})
}

// handleAnalyze accepts a multipart VCF upload plus a comma-separated drug
// list and returns one result object per drug.
func (s *Server) handleAnalyze(c *gin.Context) {
	requestID := c.GetString("request_id")

	fileHeader, err := c.FormFile("vcf")
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrValidation,
			"A 'vcf' file upload is required.", err.Error(), requestID))
		return
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".vcf") {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrInvalidInput,
			"Invalid file format. Please upload a .vcf file.", fileHeader.Filename, requestID))
		return
	}

	maxBytes := s.config.MaxUploadMB * 1024 * 1024
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, domain.NewAPIError(domain.ErrInvalidInput,
			fmt.Sprintf("VCF upload exceeds the %dMB limit.", s.config.MaxUploadMB), "", requestID))
		return
	}

	drugs := splitDrugs(c.PostForm("drugs"))
	if len(drugs) == 0 {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrValidation,
			"A comma-separated 'drugs' form field is required.", "", requestID))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(domain.ErrInternalServer,
			"Failed to read uploaded file.", err.Error(), requestID))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(domain.ErrInternalServer,
			"Failed to read uploaded file.", err.Error(), requestID))
		return
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"filename":   fileHeader.Filename,
		"drugs":      drugs,
	}).Info("Analysis request received")

	results := s.analyzer.Analyze(c.Request.Context(), string(content), drugs, c.PostForm("patient_id"))
	c.JSON(http.StatusOK, results)
}

// handleSupportedDrugs lists the drugs the guideline tables cover.
func (s *Server) handleSupportedDrugs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"drugs": service.SupportedDrugs()})
}

// handleSupportedGenes lists the pharmacogenes the pipeline analyzes.
func (s *Server) handleSupportedGenes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"genes": service.SupportedGenes()})
}

// splitDrugs parses a comma-separated drug list, trimming and uppercasing
// entries and dropping empties.
func splitDrugs(raw string) []string {
	var drugs []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.ToUpper(strings.TrimSpace(entry))
		if entry != "" {
			drugs = append(drugs, entry)
		}
	}
	return drugs
}
