package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-timetable/backend/pkg/redis"
	"campus-timetable/backend/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的写接口限流中间件
// 按操作人（缺省时按客户端 IP）与路由计数；rdb 为 nil 或 Redis 出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if op := GetOperatorID(c); op != nil {
			subject = "op:" + *op
		}
		key := fmt.Sprintf("rate_limit:%s:%s:%s", subject, c.Request.Method, c.FullPath())

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("限流检查失败，降级放行", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
