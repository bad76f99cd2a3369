package model

// Lecture 课次表，对应 lectures
// 某课程在某教室、每周某天的一个固定时段
type Lecture struct {
	LectureID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecture_id"`
	ClassroomID string  `gorm:"type:uuid;not null"                             json:"classroom_id"`
	CourseID    string  `gorm:"type:uuid;not null;index"                       json:"course_id"`
	DayOfWeek   Weekday `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周日 … 6=周六
	StartTime   string  `gorm:"type:time;not null"                             json:"start_time"`
	EndTime     string  `gorm:"type:time;not null"                             json:"end_time"`
	IsCanceled  bool    `gorm:"not null;default:false"                         json:"is_canceled"`
	Note        *string `gorm:"type:varchar(255)"                              json:"note,omitempty"`
	VersionedModel

	// 关联
	Classroom *Classroom      `gorm:"foreignKey:ClassroomID;references:ClassroomID;constraint:OnDelete:CASCADE" json:"classroom,omitempty"`
	Course    *Course         `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE"       json:"course,omitempty"`
	Links     []TimetableLink `gorm:"foreignKey:LectureID"                                                      json:"links,omitempty"`
}

// TableName 指定表名
func (Lecture) TableName() string { return "lectures" }

// Interval 解析课次所占时间区间
func (l *Lecture) Interval() (Interval, error) {
	return NewInterval(l.DayOfWeek, l.StartTime, l.EndTime)
}

// LecturerID 课次的实际授课讲师即所属课程的讲师；未预加载课程时返回空串
func (l *Lecture) LecturerID() string {
	if l.Course == nil {
		return ""
	}
	return l.Course.LecturerID
}
