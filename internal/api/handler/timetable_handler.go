package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/service"
	"campus-timetable/backend/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// ListTimetables 获取课表列表
// GET /api/v1/timetables
func (h *TimetableHandler) ListTimetables(c *gin.Context) {
	timetables, err := h.timetableSvc.List(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OKList(c, timetables, len(timetables))
}

// GetActiveTimetable 获取当前激活课表，没有时 data 为空
// GET /api/v1/timetables/active
func (h *TimetableHandler) GetActiveTimetable(c *gin.Context) {
	timetable, err := h.timetableSvc.GetActive(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveTimetable) {
			response.OK(c, nil)
			return
		}
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, timetable)
}

// GetTimetable 获取课表详情
// GET /api/v1/timetables/:id
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	timetable, err := h.timetableSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, timetable)
}

// CreateTimetable 创建课表
// POST /api/v1/timetables
func (h *TimetableHandler) CreateTimetable(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	timetable, err := h.timetableSvc.Create(c.Request.Context(), &req, operatorID(c))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, timetable)
}

// UpdateTimetable 更新课表
// PUT /api/v1/timetables/:id
func (h *TimetableHandler) UpdateTimetable(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	timetable, err := h.timetableSvc.Update(c.Request.Context(), id, &req, operatorID(c))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, timetable)
}

// DeleteTimetable 删除课表
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) DeleteTimetable(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	if err := h.timetableSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// ActivateTimetable 激活课表
// PUT /api/v1/timetables/:id/activate
func (h *TimetableHandler) ActivateTimetable(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	result, err := h.timetableSvc.Activate(c.Request.Context(), id, operatorID(c))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// ────────────────────── 课表关联 ──────────────────────

// LinkLecture 将课次关联到课表
// POST /api/v1/timetables/:id/links
func (h *TimetableHandler) LinkLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	var req dto.LinkLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	link, err := h.timetableSvc.Link(c.Request.Context(), id, req.LectureID, operatorID(c))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, link)
}

// ListLinks 列出课表中的全部关联（含隐藏）
// GET /api/v1/timetables/:id/links
func (h *TimetableHandler) ListLinks(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}

	links, err := h.timetableSvc.ListLinks(c.Request.Context(), id)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OKList(c, links, len(links))
}

// UpdateLink 切换课次在课表中的可见性
// PUT /api/v1/timetables/:id/links/:lecture_id
func (h *TimetableHandler) UpdateLink(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}
	lectureID, ok := MustGetUUIDParam(c, "lecture_id", "课次ID")
	if !ok {
		return
	}

	var req dto.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.timetableSvc.SetLinkActive(c.Request.Context(), id, lectureID, *req.IsActive, operatorID(c)); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// UnlinkLecture 取消课次与课表的关联
// DELETE /api/v1/timetables/:id/links/:lecture_id
func (h *TimetableHandler) UnlinkLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课表ID")
	if !ok {
		return
	}
	lectureID, ok := MustGetUUIDParam(c, "lecture_id", "课次ID")
	if !ok {
		return
	}

	if err := h.timetableSvc.Unlink(c.Request.Context(), id, lectureID); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTimetableError 统一处理课表模块业务错误
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 21001, "课表不存在")
	case errors.Is(err, service.ErrAlreadyLinked):
		response.Conflict(c, 21002, "课次已在该课表中")
	case errors.Is(err, service.ErrNoActiveTimetable):
		response.NotFound(c, 21003, "当前没有激活的课表")
	case errors.Is(err, service.ErrTimetableDerived):
		response.Conflict(c, 21004, "教室派生课表随教室维护，不能直接删除")
	case errors.Is(err, service.ErrLinkNotFound):
		response.NotFound(c, 21005, "课表中没有该课次")
	case errors.Is(err, service.ErrLectureNotFound):
		response.NotFound(c, 20004, "课次不存在")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}
