package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/service"
	"campus-timetable/backend/pkg/response"
)

// ClassroomHandler 教室模块 HTTP 处理器
type ClassroomHandler struct {
	classroomSvc service.ClassroomService
}

// NewClassroomHandler 创建 ClassroomHandler
func NewClassroomHandler(classroomSvc service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroomSvc: classroomSvc}
}

// ListClassrooms 获取教室列表
// GET /api/v1/classrooms
func (h *ClassroomHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.classroomSvc.List(c.Request.Context())
	if err != nil {
		h.handleClassroomError(c, err)
		return
	}

	response.OKList(c, classrooms, len(classrooms))
}

// GetClassroom 获取教室详情
// GET /api/v1/classrooms/:id
func (h *ClassroomHandler) GetClassroom(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "教室ID")
	if !ok {
		return
	}

	classroom, err := h.classroomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleClassroomError(c, err)
		return
	}

	response.OK(c, classroom)
}

// CreateClassroom 创建教室（同时创建派生课表）
// POST /api/v1/classrooms
func (h *ClassroomHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	classroom, err := h.classroomSvc.Create(c.Request.Context(), &req, operatorID(c))
	if err != nil {
		h.handleClassroomError(c, err)
		return
	}

	response.Created(c, classroom)
}

// UpdateClassroom 更新教室
// PUT /api/v1/classrooms/:id
func (h *ClassroomHandler) UpdateClassroom(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "教室ID")
	if !ok {
		return
	}

	var req dto.UpdateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	classroom, err := h.classroomSvc.Update(c.Request.Context(), id, &req, operatorID(c))
	if err != nil {
		h.handleClassroomError(c, err)
		return
	}

	response.OK(c, classroom)
}

// DeleteClassroom 删除教室（级联删除课程、课次与派生课表）
// DELETE /api/v1/classrooms/:id
func (h *ClassroomHandler) DeleteClassroom(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "教室ID")
	if !ok {
		return
	}

	if err := h.classroomSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleClassroomError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ClassroomHandler) handleClassroomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 22001, "教室不存在")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}
