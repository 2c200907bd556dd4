package fraud

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/pagination"
)

// AlertReader lists persisted alerts
type AlertReader interface {
	GetAlertsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudAlert, int64, error)
}

// Handler serves the admin fraud endpoints
type Handler struct {
	recorder *Recorder
	alerts   AlertReader
}

// NewHandler creates a new fraud handler. alerts may be nil when no durable
// store is configured.
func NewHandler(recorder *Recorder, alerts AlertReader) *Handler {
	return &Handler{recorder: recorder, alerts: alerts}
}

// ListSuspiciousActivity returns buffered entries, newest first
func (h *Handler) ListSuspiciousActivity(c *gin.Context) {
	filter := Filter{
		EventType: c.Query("event_type"),
		Limit:     pagination.DefaultLimit,
	}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = userID
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit > h.recorder.Capacity() {
			limit = h.recorder.Capacity()
		}
		filter.Limit = limit
	}

	entries := h.recorder.List(filter)
	common.SuccessResponse(c, gin.H{
		"entries":  entries,
		"count":    len(entries),
		"buffered": h.recorder.Len(),
		"capacity": h.recorder.Capacity(),
	})
}

// GetUserAlerts returns persisted fraud alerts for a user
func (h *Handler) GetUserAlerts(c *gin.Context) {
	if h.alerts == nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "fraud alert store not configured")
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user_id")
		return
	}

	params := pagination.ParseParams(c)
	alerts, total, err := h.alerts.GetAlertsByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get fraud alerts")
		return
	}

	common.SuccessResponseWithMeta(c, alerts, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes mounts the admin routes on an already-guarded group
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/suspicious-activity", h.ListSuspiciousActivity)
	admin.GET("/fraud-alerts/:user_id", h.GetUserAlerts)
}
