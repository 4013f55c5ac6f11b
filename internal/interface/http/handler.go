package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	"github.com/yanqian/stockwatch/internal/domain/watcher"
	apperrors "github.com/yanqian/stockwatch/pkg/errors"
)

const (
	proxyErrorMessage  = "Failed to fetch data from external API"
	defaultChangeLimit = 20
	maxChangeLimit     = 200
)

// Upstream fetches the AllData payload relayed by the proxy route.
type Upstream interface {
	FetchAllData(ctx context.Context) (stock.Payload, error)
}

// Monitor exposes the polling watcher to the transport.
type Monitor interface {
	Status() watcher.Status
	RecentChanges(ctx context.Context, limit int) ([]watcher.ChangeEvent, error)
	Permission() *watcher.Permission
}

// Handler wires the HTTP transport to the proxy and the watcher.
type Handler struct {
	upstream Upstream
	monitor  Monitor
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(upstream Upstream, monitor Monitor, logger *slog.Logger) *Handler {
	return &Handler{
		upstream: upstream,
		monitor:  monitor,
		logger:   logger.With("component", "http.handler"),
	}
}

// AllData relays one upstream fetch. The body is passed through untouched;
// any failure collapses to a generic 500 envelope.
func (h *Handler) AllData(c *gin.Context) {
	payload, err := h.upstream.FetchAllData(c.Request.Context())
	if err != nil {
		h.logger.Error("proxy fetch failed", "code", apperrors.CodeOf(err), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   proxyErrorMessage,
			"details": errMessage(err),
		})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload.Raw)
}

// Dashboard returns the latest server-side render and cycle status.
func (h *Handler) Dashboard(c *gin.Context) {
	status := h.monitor.Status()
	if status.Dashboard == nil {
		message := "no successful poll cycle yet"
		if status.LastError != "" {
			message = status.LastError
		}
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "dashboard_unavailable", message, nil))
		return
	}
	c.JSON(http.StatusOK, status)
}

// Changes lists recent stock increases, newest first.
func (h *Handler) Changes(c *gin.Context) {
	limit := defaultChangeLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a positive integer", err))
			return
		}
		limit = min(parsed, maxChangeLimit)
	}

	events, err := h.monitor.RecentChanges(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": events})
}

// Permission reports the notification permission state.
func (h *Handler) Permission(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permission": h.monitor.Permission().State()})
}

type permissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

// RequestPermission records the user's explicit notification decision.
func (h *Handler) RequestPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	state, err := h.monitor.Permission().Request(*req.Granted)
	if err != nil {
		abortWithError(c, permissionError(err))
		return
	}
	h.logger.Info("notification permission decided", "permission", state)
	c.JSON(http.StatusOK, gin.H{"permission": state})
}

func permissionError(err error) *HTTPError {
	if apperrors.IsCode(err, watcher.CodePermissionLocked) {
		return NewHTTPError(http.StatusConflict, watcher.CodePermissionLocked, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, "permission_failed", errMessage(err), err)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
