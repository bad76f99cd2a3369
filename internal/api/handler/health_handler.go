package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler 创建 HealthHandler；cache 为 nil 时不检查 Redis
func NewHealthHandler(db Pinger, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check 检查数据库与 Redis 连通性
// GET /health
// 数据库不可用返回 503；Redis 仅用于限流，不可用时标记 degraded 但仍返回 200
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "database": "up", "redis": "disabled"}

	if err := h.db.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "down"
		body["database"] = "down"
	}

	if h.cache != nil {
		body["redis"] = "up"
		if err := h.cache.Ping(ctx); err != nil {
			body["redis"] = "down"
			if status == http.StatusOK {
				body["status"] = "degraded"
			}
		}
	}

	c.JSON(status, body)
}
