package handler

import (
	"context"

	"campus-timetable/backend/internal/service"
)

// Pinger 可做健康检查的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Classroom *ClassroomHandler
	Course    *CourseHandler
	Lecture   *LectureHandler
	Timetable *TimetableHandler
	Export    *ExportHandler
	Health    *HealthHandler
}

// NewHandler 创建 Handler 聚合；cache 为 nil 表示未启用 Redis
func NewHandler(svc *service.Service, db Pinger, cache Pinger) *Handler {
	return &Handler{
		Classroom: NewClassroomHandler(svc.Classroom),
		Course:    NewCourseHandler(svc.Course),
		Lecture:   NewLectureHandler(svc.Lecture),
		Timetable: NewTimetableHandler(svc.Timetable),
		Export:    NewExportHandler(svc.Export),
		Health:    NewHealthHandler(db, cache),
	}
}
