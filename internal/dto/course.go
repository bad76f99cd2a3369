package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code        string  `json:"code"         binding:"required,min=1,max=20"`
	Name        string  `json:"name"         binding:"required,min=1,max=100"`
	Description *string `json:"description"`
	LecturerID  string  `json:"lecturer_id"  binding:"required,max=64"`
	ClassroomID string  `json:"classroom_id" binding:"required,uuid"`
	NumStudents int     `json:"num_students" binding:"omitempty,min=0"`
}

// UpdateCourseRequest 更新课程请求
// 修改讲师时会用课程的全部课次检测新讲师的时间冲突
type UpdateCourseRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	LecturerID  *string `json:"lecturer_id"  binding:"omitempty,min=1,max=64"`
	NumStudents *int    `json:"num_students" binding:"omitempty,min=0"`
}

// CourseListQuery 课程列表过滤
type CourseListQuery struct {
	ClassroomID string `form:"classroom_id" binding:"omitempty,uuid"`
	LecturerID  string `form:"lecturer_id"  binding:"omitempty,max=64"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	LecturerID    string  `json:"lecturer_id"`
	ClassroomID   string  `json:"classroom_id"`
	ClassroomName string  `json:"classroom_name,omitempty"`
	NumStudents   int     `json:"num_students"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}
