package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-timetable/backend/internal/service"
	"campus-timetable/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTimetable 导出课表，未指定 timetable_id 时导出当前激活课表
// GET /api/v1/export/timetable?timetable_id=xxx
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	timetableID := c.Query("timetable_id")
	if timetableID != "" {
		if _, err := uuid.Parse(timetableID); err != nil {
			response.BadRequest(c, 10001, "timetable_id 格式无效")
			return
		}
	}

	buf, filename, err := h.exportSvc.ExportTimetable(c.Request.Context(), timetableID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveTimetable):
		response.NotFound(c, 21003, "当前没有激活的课表")
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 21001, "课表不存在")
	case errors.Is(err, service.ErrExportNoLectures):
		response.NotFound(c, 24001, "课表中没有可见课次")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}
