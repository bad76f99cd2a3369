package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"campus-timetable/backend/pkg/response"
)

// OperatorHeader 网关在完成认证后透传的操作人标识
const OperatorHeader = "X-Operator-ID"

const (
	operatorIDKey    = "operator_id"
	operatorIDMaxLen = 64
)

// Operator 读取网关透传的操作人标识并注入上下文
// 认证与鉴权由上游网关负责，此处只做格式校验；缺省时视为匿名操作
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if id == "" {
			c.Next()
			return
		}

		if len(id) > operatorIDMaxLen || strings.ContainsAny(id, "\r\n") {
			response.BadRequest(c, 10002, "操作人标识无效")
			c.Abort()
			return
		}

		c.Set(operatorIDKey, id)
		c.Next()
	}
}

// GetOperatorID 从上下文中提取操作人标识，匿名时返回 nil
func GetOperatorID(c *gin.Context) *string {
	v, exists := c.Get(operatorIDKey)
	if !exists {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
