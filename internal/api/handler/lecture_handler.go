package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/service"
	pkgerrors "campus-timetable/backend/pkg/errors"
	"campus-timetable/backend/pkg/response"
)

// LectureHandler 课次模块 HTTP 处理器（含讲师视图）
type LectureHandler struct {
	lectureSvc service.LectureService
}

// NewLectureHandler 创建 LectureHandler
func NewLectureHandler(lectureSvc service.LectureService) *LectureHandler {
	return &LectureHandler{lectureSvc: lectureSvc}
}

// CreateLecture 创建课次并关联激活课表
// POST /api/v1/lectures
func (h *LectureHandler) CreateLecture(c *gin.Context) {
	var req dto.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lectureSvc.Create(c.Request.Context(), &req, operatorID(c))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.Created(c, result)
}

// CheckLecture 冲突预检
// POST /api/v1/lectures/check
func (h *LectureHandler) CheckLecture(c *gin.Context) {
	var req dto.CheckLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lectureSvc.Check(c.Request.Context(), &req)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, result)
}

// ListLectures 按条件列出课次
// GET /api/v1/lectures?day=&classroom_id=&lecturer_id=&timetable_id=&active_only=&today=&include_canceled=
func (h *LectureHandler) ListLectures(c *gin.Context) {
	var query dto.LectureListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	lectures, err := h.lectureSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OKList(c, lectures, len(lectures))
}

// GetLecture 获取课次详情
// GET /api/v1/lectures/:id
func (h *LectureHandler) GetLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课次ID")
	if !ok {
		return
	}

	lecture, err := h.lectureSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// UpdateLecture 修改课次（需携带版本号）
// PUT /api/v1/lectures/:id
func (h *LectureHandler) UpdateLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课次ID")
	if !ok {
		return
	}

	var req dto.UpdateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	lecture, err := h.lectureSvc.Update(c.Request.Context(), id, &req, operatorID(c))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// CancelLecture 取消课次，请求体可选
// POST /api/v1/lectures/:id/cancel
func (h *LectureHandler) CancelLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课次ID")
	if !ok {
		return
	}

	var req dto.CancelLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	lecture, err := h.lectureSvc.Cancel(c.Request.Context(), id, req.Note, operatorID(c))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// SetLectureNote 设置课次备注（通知学生）
// PUT /api/v1/lectures/:id/note
func (h *LectureHandler) SetLectureNote(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课次ID")
	if !ok {
		return
	}

	var req dto.LectureNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	lecture, err := h.lectureSvc.SetNote(c.Request.Context(), id, req.Note, operatorID(c))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// DeleteLecture 删除课次
// DELETE /api/v1/lectures/:id
func (h *LectureHandler) DeleteLecture(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课次ID")
	if !ok {
		return
	}

	if err := h.lectureSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 讲师视图 ──────────────────────

// ListLecturerLectures 讲师在激活课表中的课次
// GET /api/v1/lecturers/:id/lectures
func (h *LectureHandler) ListLecturerLectures(c *gin.Context) {
	h.listLecturerLectures(c, false)
}

// ListLecturerLecturesToday 讲师今天的课次
// GET /api/v1/lecturers/:id/lectures/today
func (h *LectureHandler) ListLecturerLecturesToday(c *gin.Context) {
	h.listLecturerLectures(c, true)
}

func (h *LectureHandler) listLecturerLectures(c *gin.Context, todayOnly bool) {
	lectures, err := h.lectureSvc.ListByLecturer(c.Request.Context(), c.Param("id"), todayOnly)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OKList(c, lectures, len(lectures))
}

// GetLecturerStats 讲师课次统计
// GET /api/v1/lecturers/:id/stats
func (h *LectureHandler) GetLecturerStats(c *gin.Context) {
	stats, err := h.lectureSvc.LecturerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleLectureError 统一处理课次模块业务错误
func (h *LectureHandler) handleLectureError(c *gin.Context, err error) {
	var cerr *service.ConflictError
	if errors.As(err, &cerr) {
		code := 20003
		if cerr.Has(service.ConflictClassroom) {
			code = 20002
		}
		response.ErrorWithDetails(c, http.StatusConflict, code, cerr.Error(), cerr.Details())
		return
	}

	switch {
	case errors.Is(err, service.ErrLectureTimeOrder):
		response.BadRequest(c, 20001, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrClassroomConflict):
		response.Conflict(c, 20002, "教室在该时间段已被占用")
	case errors.Is(err, service.ErrLecturerConflict):
		response.Conflict(c, 20003, "讲师在该时间段已有课次")
	case errors.Is(err, service.ErrLectureNotFound):
		response.NotFound(c, 20004, "课次不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20005, "课次已被修改，请刷新后重试")
	case errors.Is(err, service.ErrLectureInvalidSlot):
		response.BadRequest(c, 20006, "课次时间段无效")
	case errors.Is(err, service.ErrLectureNoteEmpty):
		response.BadRequest(c, 20007, "备注内容不能为空")
	case errors.Is(err, service.ErrLecturerIDMissing):
		response.BadRequest(c, 20008, "讲师ID不能为空")
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 22001, "教室不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 23002, "课程不存在")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}
