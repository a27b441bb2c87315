// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/analysis"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// Server wires the HTTP handlers to the analyzer and the monitor
// dependencies.
type Server struct {
	analyzer *analysis.Analyzer
	rpc      solana.RPCClient
	logger   *logrus.Logger

	wsEndpoint      string
	monitorInterval time.Duration
	visitLogFile    string
}

// Options configures a Server.
type Options struct {
	Analyzer *analysis.Analyzer
	RPC      solana.RPCClient
	Logger   *logrus.Logger

	// WSEndpoint enables the WebSocket wakeup for monitor sessions when
	// set; polling alone is used otherwise.
	WSEndpoint string

	// MonitorInterval overrides the monitor poll cadence (tests).
	MonitorInterval time.Duration

	// VisitLogFile is where the access log rotates. Empty disables it.
	VisitLogFile string
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		analyzer:        opts.Analyzer,
		rpc:             opts.RPC,
		logger:          logger,
		wsEndpoint:      opts.WSEndpoint,
		monitorInterval: opts.MonitorInterval,
		visitLogFile:    opts.VisitLogFile,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if s.visitLogFile != "" {
		router.Use(AccessLogger(s.visitLogFile, "/health"))
	}

	router.GET("/health", s.handleHealth)
	router.GET("/api/token-price", s.handleTokenPrice)
	router.GET("/api/monitor", s.handleMonitor)

	api := router.Group("/api")
	{
		api.POST("/search", s.handleSearch)
		api.POST("/health-score", s.handleHealthScore)
		api.POST("/timeline", s.handleTimeline)
		api.POST("/token-transfers", s.handleTransfers)
		api.POST("/rug-check", s.handleRugCheck)
		api.POST("/compare-tokens", s.handleCompare)
		api.POST("/copy-trade", s.handleCopyTrade)
	}

	return router
}

// fail maps pipeline errors onto HTTP statuses and writes the error
// payload.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Failed to process request"

	switch {
	case errors.Is(err, solana.ErrRateLimited):
		status = http.StatusTooManyRequests
		message = "Too many requests to upstream RPC. Please try again later."
	case errors.Is(err, analysis.ErrMintNotFound):
		status = http.StatusBadRequest
		message = "Token mint account not found"
	case errors.Is(err, analysis.ErrTxNotFound):
		status = http.StatusNotFound
		message = "Transaction not found"
	case errors.Is(err, analysis.ErrTransferNotFound):
		status = http.StatusNotFound
		message = "No token transfer found in this transaction"
	}

	s.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	}).Error("request failed")

	c.JSON(status, gin.H{"error": message})
}
