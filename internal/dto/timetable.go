package dto

// ── 课表模块 DTO ──

// CreateTimetableRequest 创建课表请求
type CreateTimetableRequest struct {
	Name        string  `json:"name"        binding:"required,min=1,max=255"`
	Description *string `json:"description"`
}

// UpdateTimetableRequest 更新课表请求
type UpdateTimetableRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

// TimetableResponse 课表信息响应
type TimetableResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
	ClassroomID *string `json:"classroom_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ActivateTimetableResponse 激活课表响应
type ActivateTimetableResponse struct {
	TimetableID      string  `json:"timetable_id"`
	PreviousActiveID *string `json:"previous_active_id"`
}

// LinkLectureRequest 课表关联课次请求
type LinkLectureRequest struct {
	LectureID string `json:"lecture_id" binding:"required,uuid"`
}

// UpdateLinkRequest 切换课次在课表中的可见性
type UpdateLinkRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// TimetableLinkResponse 课表关联信息响应
type TimetableLinkResponse struct {
	ID          string           `json:"id"`
	TimetableID string           `json:"timetable_id"`
	LectureID   string           `json:"lecture_id"`
	IsActive    bool             `json:"is_active"`
	Lecture     *LectureResponse `json:"lecture,omitempty"`
	CreatedAt   string           `json:"created_at"`
}
