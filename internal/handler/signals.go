package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insiderwatch/internal/models"
	"insiderwatch/internal/signals"
)

type SignalHandler struct {
	Service *signals.Service
	Logger  *zap.Logger
}

func (h *SignalHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/signals")
	group.GET("", h.listSignals)
	group.GET("/unread-count", h.unreadCount)
	group.POST("/:id/read", h.markAsRead)
	group.POST("/read-all", h.markAllAsRead)
}

// @Summary List insider signals, newest first
// @Tags signals
// @Param type query string false "insider_new | insider_large_trade | insider_cluster"
// @Param severity query string false "low | medium | high"
// @Param unread_only query bool false "only unread signals"
// @Param since query int false "inclusive lower bound, epoch ms"
// @Param limit query int false "page size (default 20, max 100)"
// @Success 200 {object} apiResponse
// @Router /api/v1/signals [get]
func (h *SignalHandler) listSignals(c *gin.Context) {
	if h.Service == nil {
		Fail(c, errServiceMissing)
		return
	}
	typ := models.SignalType(strQuery(c, "type"))
	if typ != "" && !typ.Valid() {
		BadRequest(c, "unknown signal type")
		return
	}
	severity := models.SignalSeverity(strQuery(c, "severity"))
	if severity != "" && !severity.Valid() {
		BadRequest(c, "unknown severity")
		return
	}
	unreadOnly, err := boolQueryDefault(c, "unread_only", false)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	since, err := int64Query(c, "since", 0)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.Service.Signals(signals.QueryParams{
		Type:       typ,
		Severity:   severity,
		UnreadOnly: unreadOnly,
		Since:      since,
		Limit:      limit,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result.Signals, map[string]any{
		"total":       result.Total,
		"returned":    len(result.Signals),
		"unreadCount": result.UnreadCount,
	})
}

// @Summary Count unread signals
// @Tags signals
// @Success 200 {object} apiResponse
// @Router /api/v1/signals/unread-count [get]
func (h *SignalHandler) unreadCount(c *gin.Context) {
	if h.Service == nil {
		Fail(c, errServiceMissing)
		return
	}
	count, err := h.Service.UnreadCount()
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"unreadCount": count}, nil)
}

// @Summary Mark one signal as read
// @Tags signals
// @Param id path string true "signal id"
// @Success 200 {object} apiResponse
// @Router /api/v1/signals/{id}/read [post]
func (h *SignalHandler) markAsRead(c *gin.Context) {
	if h.Service == nil {
		Fail(c, errServiceMissing)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, "signal id required")
		return
	}
	changed, err := h.Service.MarkAsRead(id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"success": changed, "id": id}, nil)
}

// @Summary Mark every signal as read
// @Tags signals
// @Success 200 {object} apiResponse
// @Router /api/v1/signals/read-all [post]
func (h *SignalHandler) markAllAsRead(c *gin.Context) {
	if h.Service == nil {
		Fail(c, errServiceMissing)
		return
	}
	count, err := h.Service.MarkAllAsRead()
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"success": true, "markedCount": count}, nil)
}
