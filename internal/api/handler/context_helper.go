package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-timetable/backend/internal/api/middleware"
	"campus-timetable/backend/pkg/response"
)

// operatorID 当前请求的操作人，匿名时为 nil
func operatorID(c *gin.Context) *string {
	return middleware.GetOperatorID(c)
}

// MustGetUUIDParam 读取并校验 UUID 路径参数。
// 校验失败时写入 400 响应并返回 false，调用方应直接 return。
func MustGetUUIDParam(c *gin.Context, name, label string) (string, bool) {
	id := c.Param(name)
	if id == "" {
		response.BadRequest(c, 10001, label+"不能为空")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, 10001, label+"格式无效")
		return "", false
	}
	return id, true
}
