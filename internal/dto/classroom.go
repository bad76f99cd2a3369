package dto

// ── 教室模块 DTO ──

// CreateClassroomRequest 创建教室请求
type CreateClassroomRequest struct {
	Name     string `json:"name"     binding:"required,min=1,max=100"`
	Location string `json:"location" binding:"omitempty,max=200"`
	Capacity int    `json:"capacity" binding:"omitempty,min=0"`
}

// UpdateClassroomRequest 更新教室请求
type UpdateClassroomRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=100"`
	Location *string `json:"location" binding:"omitempty,max=200"`
	Capacity *int    `json:"capacity" binding:"omitempty,min=0"`
}

// ClassroomResponse 教室信息响应
type ClassroomResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	TimetableID *string `json:"timetable_id,omitempty"` // 派生课表
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
