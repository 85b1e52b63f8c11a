// Package api exposes the inventory orchestrator over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/orchestration"
	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/events"
)

// Server serves the orchestrator as a JSON API. Mutating routes act at the server clock's now.
type Server struct {
	orch     *orchestration.InventoryOrchestrator
	clock    clock.Clock
	gatherer prometheus.Gatherer
	restocks *events.RestockLog
	logger   *zap.Logger
}

type traysRequest struct {
	Trays int `json:"trays"`
}

// NewServer creates a server. A nil gatherer serves the default prometheus registry;
// a nil restock log serves an empty order list.
func NewServer(
	orch *orchestration.InventoryOrchestrator,
	clk clock.Clock,
	gatherer prometheus.Gatherer,
	restocks *events.RestockLog,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		orch:     orch,
		clock:    clk,
		gatherer: gatherer,
		restocks: restocks,
		logger:   logger.Named("api"),
	}
}

// Handler builds the gin engine with every route registered
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.logger), ErrorHandlingMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	router.GET("/batches", s.ListBatches)
	router.POST("/batches/release", s.ReleaseFromFrozen)
	router.POST("/batches/consume", s.ConsumeReady)
	router.POST("/batches/:id/advance", s.AdvanceDefrostToProve)
	router.GET("/plan", s.ComputePlan)
	router.GET("/summary", s.Summary)
	router.GET("/events", s.ListEvents)
	router.GET("/restocks", s.ListRestocks)

	return router
}

// ListBatches returns the current snapshot in store order
func (s *Server) ListBatches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.orch.GetSnapshot()})
}

// ReleaseFromFrozen starts defrosting {"trays": n} trays of frozen stock
func (s *Server) ReleaseFromFrozen(c *gin.Context) {
	var req traysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	result, err := s.orch.ReleaseFromFrozen(c.Request.Context(), req.Trays, s.clock.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ConsumeReady takes {"trays": n} trays from the Ready pool, reporting any unfulfilled units
func (s *Server) ConsumeReady(c *gin.Context) {
	var req traysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	result, err := s.orch.ConsumeReady(c.Request.Context(), req.Trays)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AdvanceDefrostToProve moves the :id batch into Proving and answers 204
func (s *Server) AdvanceDefrostToProve(c *gin.Context) {
	id := entities.BatchID(c.Param("id"))
	if err := s.orch.AdvanceDefrostToProve(c.Request.Context(), id, s.clock.Now()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ComputePlan reads the forecast from the query string, defaulting missing fields
func (s *Server) ComputePlan(c *gin.Context) {
	forecast := entities.DefaultForecast()
	if err := c.ShouldBindQuery(&forecast); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	plan, err := s.orch.ComputePlan(c.Request.Context(), forecast, s.clock.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plan, "forecast": forecast})
}

// Summary returns the inventory summary as of now
func (s *Server) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.orch.Summary(c.Request.Context(), s.clock.Now())})
}

// ListEvents pages the event history from the ?from= offset; next is the offset to resume at
func (s *Server) ListEvents(c *gin.Context) {
	from := 0
	if raw := c.Query("from"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, fmt.Errorf("%w: from must be a non-negative integer", errInvalidRequest))
			return
		}
		from = parsed
	}

	history, err := s.orch.History(from)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history, "next": from + len(history)})
}

// ListRestocks returns the restock orders recorded so far
func (s *Server) ListRestocks(c *gin.Context) {
	orders := []events.RestockOrder{}
	if s.restocks != nil {
		orders = s.restocks.Orders()
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
