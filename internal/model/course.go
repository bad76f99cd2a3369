package model

// Course 课程表，对应 courses
type Course struct {
	CourseID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code        string  `gorm:"type:varchar(20);not null;uniqueIndex:uniq_courses_code" json:"code"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Description *string `gorm:"type:text"                                      json:"description,omitempty"`
	LecturerID  string  `gorm:"type:varchar(64);not null;index"                json:"lecturer_id"` // 外部账号系统的讲师标识
	ClassroomID string  `gorm:"type:uuid;not null;index"                       json:"classroom_id"`
	NumStudents int     `gorm:"not null;default:0"                             json:"num_students"`
	BaseModel

	// 关联
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID;constraint:OnDelete:CASCADE" json:"classroom,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
