package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger 访问日志中间件，需挂在 RequestID 与 Operator 之后。
// 写操作（课次、课表、教室、课程的增改删）按操作人记一条 Info；
// 查询与健康检查只在 Debug 级别出现，避免刷屏。
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("operator_id", operatorOrAnonymous(c)),
			zap.String("action", c.Request.Method+" "+route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("target_id", id))
		}
		if c.Request.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", c.Request.URL.RawQuery))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("排课请求失败", append(fields, zap.String("ip", c.ClientIP()))...)
		case status == http.StatusConflict:
			logger.Info("排课冲突被拒绝", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("排课请求无效", fields...)
		case isWrite(c.Request.Method):
			logger.Info("排课数据已变更", fields...)
		default:
			logger.Debug("排课查询", fields...)
		}
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func operatorOrAnonymous(c *gin.Context) string {
	if op := GetOperatorID(c); op != nil {
		return *op
	}
	return "anonymous"
}
