// Package server exposes the extraction pipeline over a thin REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/internal/config"
	"github.com/ensworks/prodgraph/internal/manager"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.StoreManager
	cfg     *config.Config
	log     *zap.Logger
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.StoreManager, cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.Default()
	s := &Server{
		manager: mgr,
		cfg:     cfg,
		log:     log,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/parse", s.handleParse)
	s.router.POST("/v1/d3", s.handleD3)
	s.router.POST("/v1/import", s.handleImport)
	s.router.GET("/v1/verify", s.handleVerify)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
