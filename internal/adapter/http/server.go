// Package http exposes the discovery service over a REST API, plus the
// usual health and metrics endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wanderplan/places-discovery/internal/domain"
)

// DiscoveryService is the application surface the API exposes.
type DiscoveryService interface {
	ResolveWithFallback(ctx context.Context, address string) (domain.GeocodeResult, error)
	SearchPlaces(ctx context.Context, destination, category string, radiusMeters int) ([]domain.Place, error)
	Discover(ctx context.Context, destination string, categories []string, radiusMeters int, rctx domain.RankingContext) ([]domain.ScoredPlace, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the discovery API along with health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	service    DiscoveryService
	logger     *slog.Logger
}

// NewServer creates the API server listening on addr.
func NewServer(addr string, service DiscoveryService, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:  engine,
		service: service,
		logger:  logger,
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		api.GET("/geocode", s.handleGeocode)
		api.GET("/places", s.handlePlaces)
		api.POST("/discover", s.handleDiscover)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleGeocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})
		return
	}

	result, err := s.service.ResolveWithFallback(c.Request.Context(), address)
	if err != nil {
		s.logger.Error("geocode request failed", "address", address, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding provider unavailable"})
		return
	}

	// Exhausted lookups come back as a fallback pin. The client still
	// gets usable coordinates but the status says they are approximate.
	if result.ProviderID == "fallback" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "geocoding failed",
			"query":    address,
			"fallback": gin.H{"lat": result.Latitude, "lng": result.Longitude},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePlaces(c *gin.Context) {
	destination := c.Query("destination")
	category := c.Query("category")
	if destination == "" || category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination and category query parameters are required"})
		return
	}

	radius := 0
	if raw := c.Query("radius"); raw != "" {
		var err error
		radius, err = strconv.Atoi(raw)
		if err != nil || radius < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a non-negative integer"})
			return
		}
	}

	places, err := s.service.SearchPlaces(c.Request.Context(), destination, category, radius)
	if err != nil {
		var gerr *domain.GeocodingError
		if errors.As(err, &gerr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "destination could not be resolved", "query": gerr.Query})
			return
		}
		s.logger.Error("place search failed", "destination", destination, "category", category, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "place search unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": places, "count": len(places)})
}

type discoverRequest struct {
	Destination string                `json:"destination" binding:"required"`
	Categories  []string              `json:"categories" binding:"required,min=1"`
	Radius      int                   `json:"radius"`
	Context     domain.RankingContext `json:"context"`
}

func (s *Server) handleDiscover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Absent context fields get permissive defaults; explicit bad
	// values are still rejected downstream.
	if req.Context.BudgetTier == "" {
		req.Context.BudgetTier = domain.BudgetTierModerate
	}
	if req.Context.TimeSlot == "" {
		req.Context.TimeSlot = domain.TimeSlotAny
	}

	ranked, err := s.service.Discover(c.Request.Context(), req.Destination, req.Categories, req.Radius, req.Context)
	if err != nil {
		var rerr *domain.RankingInputError
		if errors.As(err, &rerr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": rerr.Error()})
			return
		}
		var gerr *domain.GeocodingError
		if errors.As(err, &gerr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "destination could not be resolved", "query": gerr.Query})
			return
		}
		s.logger.Error("discovery failed", "destination", req.Destination, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "discovery unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": ranked, "count": len(ranked)})
}
