package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 供排课前端跨域调用。
// 白名单为 "*" 时放行任意来源；未登记来源的预检请求直接 403。
// 导出接口以附件返回 xlsx，前端需要读取 Content-Disposition 拿到文件名。
func CORS(allowOrigins []string) gin.HandlerFunc {
	anyOrigin := false
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
			continue
		}
		allowed[o] = struct{}{}
	}

	allowHeaders := strings.Join([]string{"Content-Type", requestIDHeader, OperatorHeader}, ", ")
	exposeHeaders := strings.Join([]string{requestIDHeader, "Content-Disposition"}, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, ok := allowed[origin]
		ok = ok || anyOrigin
		if ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		c.Header("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
