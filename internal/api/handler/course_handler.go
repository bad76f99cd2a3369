package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/service"
	"campus-timetable/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 获取课程列表
// GET /api/v1/courses?classroom_id=&lecturer_id=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var query dto.CourseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses, err := h.courseSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OKList(c, courses, len(courses))
}

// GetCourse 获取课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课程ID")
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse 创建课程
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, operatorID(c))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse 更新课程
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, &req, operatorID(c))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "课程ID")
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	// 换讲师与新讲师已有课次冲突
	var cerr *service.ConflictError
	if errors.As(err, &cerr) {
		response.ErrorWithDetails(c, http.StatusConflict, 20003, cerr.Error(), cerr.Details())
		return
	}

	switch {
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 23001, "课程代码已存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 23002, "课程不存在")
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 22001, "教室不存在")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}
