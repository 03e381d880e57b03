package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/model"
	"gorm.io/gorm"
)

// LogHandler is the admin-only audit log query surface.
type LogHandler struct {
	db *gorm.DB
}

func NewLogHandler(db *gorm.DB) *LogHandler {
	return &LogHandler{db: db}
}

// List handles GET /listLogs with eventType/operator/time-range filters,
// newest first. Times are RFC3339.
func (h *LogHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	q := h.db.Model(&model.AuditLog{})
	if et := c.Query("eventType"); et != "" {
		q = q.Where("event_type = ?", et)
	}
	if op := c.Query("operator"); op != "" {
		q = q.Where("operator = ?", op)
	}
	if traceID := c.Query("traceId"); traceID != "" {
		q = q.Where("trace_id = ?", traceID)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, "bad from time")
			return
		}
		q = q.Where("created_at >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			fail(c, http.StatusBadRequest, CodeBadRequest, "bad to time")
			return
		}
		q = q.Where("created_at <= ?", t)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}
	var logs []model.AuditLog
	if err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		internalError(c, err)
		return
	}
	ok(c, gin.H{"total": total, "logs": logs})
}
