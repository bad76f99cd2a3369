package dto

// ── 课次模块 DTO ──

// CreateLectureRequest 创建课次请求
type CreateLectureRequest struct {
	ClassroomID string  `json:"classroom_id" binding:"required,uuid"`
	CourseID    string  `json:"course_id"    binding:"required,uuid"`
	DayOfWeek   string  `json:"day_of_week"  binding:"required,weekday"` // "MON"
	StartTime   string  `json:"start_time"   binding:"required,clock"`   // "09:00"
	EndTime     string  `json:"end_time"     binding:"required,clock"`   // "10:30"
	Note        *string `json:"note"         binding:"omitempty,max=255"`
}

// CheckLectureRequest 课次冲突预检请求（不落库）
type CheckLectureRequest struct {
	CreateLectureRequest
	// LectureID 修改已有课次时传入，检测时排除自身
	LectureID string `json:"lecture_id" binding:"omitempty,uuid"`
}

// UpdateLectureRequest 修改课次请求，未传字段保持不变
type UpdateLectureRequest struct {
	ClassroomID *string `json:"classroom_id" binding:"omitempty,uuid"`
	CourseID    *string `json:"course_id"    binding:"omitempty,uuid"`
	DayOfWeek   *string `json:"day_of_week"  binding:"omitempty,weekday"`
	StartTime   *string `json:"start_time"   binding:"omitempty,clock"`
	EndTime     *string `json:"end_time"     binding:"omitempty,clock"`
	Note        *string `json:"note"         binding:"omitempty,max=255"`
	IsCanceled  *bool   `json:"is_canceled"`
	Version     *int    `json:"version"      binding:"omitempty,min=1"` // 乐观锁版本，未传时不校验
}

// CancelLectureRequest 取消课次请求，可附带给学生的说明
type CancelLectureRequest struct {
	Note *string `json:"note" binding:"omitempty,max=255"`
}

// LectureNoteRequest 课次备注（通知学生）请求
type LectureNoteRequest struct {
	Note string `json:"note" binding:"required,max=255"`
}

// LectureListQuery 课次列表过滤
type LectureListQuery struct {
	Day         string `form:"day"          binding:"omitempty,weekday"`
	ClassroomID string `form:"classroom_id" binding:"omitempty,uuid"`
	CourseID    string `form:"course_id"    binding:"omitempty,uuid"`
	LecturerID  string `form:"lecturer_id"  binding:"omitempty,max=64"`
	TimetableID string `form:"timetable_id" binding:"omitempty,uuid"`
	ActiveOnly  bool   `form:"active_only"`
	// Today 为 true 时按业务时区取今天的星期，覆盖 Day
	Today bool `form:"today"`
	// IncludeCanceled 未传时包含已取消课次
	IncludeCanceled *bool `form:"include_canceled"`
}

// LectureResponse 课次信息响应
type LectureResponse struct {
	ID            string  `json:"id"`
	ClassroomID   string  `json:"classroom_id"`
	ClassroomName string  `json:"classroom_name,omitempty"`
	CourseID      string  `json:"course_id"`
	CourseCode    string  `json:"course_code,omitempty"`
	CourseName    string  `json:"course_name,omitempty"`
	LecturerID    string  `json:"lecturer_id,omitempty"`
	DayOfWeek     string  `json:"day_of_week"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	IsCanceled    bool    `json:"is_canceled"`
	Note          *string `json:"note,omitempty"`
	Version       int     `json:"version"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CreateLectureResponse 创建课次响应
type CreateLectureResponse struct {
	LectureResponse
	// LinkedTimetableID 自动关联的激活课表；创建时无激活课表则为 null
	LinkedTimetableID *string `json:"linked_timetable_id"`
}

// ConflictDetail 单条冲突明细
type ConflictDetail struct {
	Kind        string `json:"kind"` // classroom / lecturer
	LectureID   string `json:"lecture_id"`
	ClassroomID string `json:"classroom_id"`
	LecturerID  string `json:"lecturer_id,omitempty"`
	DayOfWeek   string `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsCanceled  bool   `json:"is_canceled"`
}

// CheckLectureResponse 冲突预检结果
type CheckLectureResponse struct {
	Available bool             `json:"available"`
	Conflicts []ConflictDetail `json:"conflicts"`
}

// LecturerStatsResponse 讲师课次统计
type LecturerStatsResponse struct {
	LecturerID string `json:"lecturer_id"`
	Total      int64  `json:"total"`
	Active     int64  `json:"active"`
	Canceled   int64  `json:"canceled"`
}
