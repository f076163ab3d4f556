package gateway

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/ledger"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

// Feed is the engine surface the gateway serves.
type Feed interface {
	Snapshot() models.Snapshot
	Instrument(symbol string) (models.StockDetail, error)
	Alerts() []models.Alert
	TogglePause() bool
	Paused() bool
	Reset()
	Subscribe() *hub.Subscription
	Unsubscribe(id int64)
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	feed   Feed
	logger *zap.Logger
}

func NewHandler(feed Feed, logger *zap.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger), cors())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	api.GET("/snapshot", h.GetSnapshot)
	api.GET("/stock/:sym", h.GetStock)
	api.GET("/alerts", h.GetAlerts)
	api.POST("/pause", h.TogglePause)
	api.POST("/reset", h.Reset)

	router.GET("/stream", h.Stream)
	router.GET("/ws", h.ServeWS)

	router.NoRoute(h.NotFound)

	return router
}

// GetSnapshot handles GET /api/snapshot
func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Snapshot())
}

// GetStock handles GET /api/stock/:sym
// Symbols are matched case-insensitively.
func (h *Handler) GetStock(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("sym")))

	detail, err := h.feed.Instrument(symbol)
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, protocol.ErrorResponse{Error: "Symbol not found: " + symbol})
		return
	}
	if err != nil {
		h.logger.Error("Instrument lookup failed", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, protocol.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetAlerts handles GET /api/alerts
func (h *Handler) GetAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.feed.Alerts()})
}

// TogglePause handles POST /api/pause
func (h *Handler) TogglePause(c *gin.Context) {
	paused := h.feed.TogglePause()
	c.JSON(http.StatusOK, protocol.PauseResponse{MarketOpen: !paused, Paused: paused})
}

// Reset handles POST /api/reset
func (h *Handler) Reset(c *gin.Context) {
	h.feed.Reset()
	c.JSON(http.StatusOK, protocol.ResetResponse{OK: true, Message: "Session reset"})
}

// NotFound answers every unrouted request.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, protocol.ErrorResponse{Error: "Not found", Path: c.Request.URL.Path})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    "feed",
		"marketOpen": !h.feed.Paused(),
	})
}

// Stream handles GET /stream as server-sent events. The first frame is a
// tick carrying the current snapshot; heartbeats are sent as comments.
func (h *Handler) Stream(c *gin.Context) {
	sub := h.feed.Subscribe()
	defer h.feed.Unsubscribe(sub.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	if _, err := io.WriteString(c.Writer, ":ok\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	h.logger.Info("SSE client connected", zap.Int64("id", sub.ID), zap.String("remote", c.ClientIP()))

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-sub.Events:
			if !ok {
				h.logger.Info("SSE subscription closed", zap.Int64("id", sub.ID))
				return false
			}
			if evt.Name == protocol.EventHeartbeat {
				_, err := io.WriteString(w, ":heartbeat\n\n")
				return err == nil
			}
			c.SSEvent(evt.Name, evt.Payload)
			return true
		}
	})

	h.logger.Info("SSE client disconnected", zap.Int64("id", sub.ID))
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// long-lived streams are logged by their own handlers
		if c.FullPath() == "/stream" || c.FullPath() == "/ws" {
			return
		}
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
