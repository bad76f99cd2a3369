package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders 响应头加固。
// 课表数据随时可能被改动，JSON 响应一律不缓存；
// 导出的 xlsx 附件禁止浏览器直接打开。
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}
		if strings.HasSuffix(c.Request.URL.Path, "/export") {
			h.Set("X-Download-Options", "noopen")
		}

		c.Next()
	}
}
