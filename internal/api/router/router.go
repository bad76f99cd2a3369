package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"campus-timetable/backend/config"
	"campus-timetable/backend/internal/api/handler"
	"campus-timetable/backend/internal/api/middleware"
	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时写接口不限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	// ── 自定义校验规则 ──
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, err
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Operator())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Check)

	// 写接口限流
	var write gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		write = middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 教室模块
		classrooms := v1.Group("/classrooms")
		{
			classrooms.GET("", h.Classroom.ListClassrooms)
			classrooms.GET("/:id", h.Classroom.GetClassroom)
			classrooms.POST("", write, h.Classroom.CreateClassroom)
			classrooms.PUT("/:id", write, h.Classroom.UpdateClassroom)
			classrooms.DELETE("/:id", write, h.Classroom.DeleteClassroom)
		}

		// 课程模块
		courses := v1.Group("/courses")
		{
			courses.GET("", h.Course.ListCourses)
			courses.GET("/:id", h.Course.GetCourse)
			courses.POST("", write, h.Course.CreateCourse)
			courses.PUT("/:id", write, h.Course.UpdateCourse)
			courses.DELETE("/:id", write, h.Course.DeleteCourse)
		}

		// 课次模块
		lectures := v1.Group("/lectures")
		{
			lectures.GET("", h.Lecture.ListLectures)
			lectures.POST("/check", h.Lecture.CheckLecture)
			lectures.GET("/:id", h.Lecture.GetLecture)
			lectures.POST("", write, h.Lecture.CreateLecture)
			lectures.PUT("/:id", write, h.Lecture.UpdateLecture)
			lectures.POST("/:id/cancel", write, h.Lecture.CancelLecture)
			lectures.PUT("/:id/note", write, h.Lecture.SetLectureNote)
			lectures.DELETE("/:id", write, h.Lecture.DeleteLecture)
		}

		// 讲师视图（讲师账号由外部系统维护）
		lecturers := v1.Group("/lecturers")
		{
			lecturers.GET("/:id/lectures", h.Lecture.ListLecturerLectures)
			lecturers.GET("/:id/lectures/today", h.Lecture.ListLecturerLecturesToday)
			lecturers.GET("/:id/stats", h.Lecture.GetLecturerStats)
		}

		// 课表模块
		timetables := v1.Group("/timetables")
		{
			timetables.GET("", h.Timetable.ListTimetables)
			timetables.GET("/active", h.Timetable.GetActiveTimetable)
			timetables.GET("/:id", h.Timetable.GetTimetable)
			timetables.POST("", write, h.Timetable.CreateTimetable)
			timetables.PUT("/:id", write, h.Timetable.UpdateTimetable)
			timetables.DELETE("/:id", write, h.Timetable.DeleteTimetable)
			timetables.PUT("/:id/activate", write, h.Timetable.ActivateTimetable)
			timetables.GET("/:id/links", h.Timetable.ListLinks)
			timetables.POST("/:id/links", write, h.Timetable.LinkLecture)
			timetables.PUT("/:id/links/:lecture_id", write, h.Timetable.UpdateLink)
			timetables.DELETE("/:id/links/:lecture_id", write, h.Timetable.UnlinkLecture)
		}

		// 导出模块
		v1.GET("/export/timetable", h.Export.ExportTimetable)
	}

	return r, nil
}
