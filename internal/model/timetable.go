package model

// Timetable 课表，对应 timetables
// 全局至多一个 is_active=true（部分唯一索引 uniq_timetables_active 保证）
type Timetable struct {
	TimetableID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	Name        string  `gorm:"type:varchar(255);not null"                     json:"name"`
	Description *string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive    bool    `gorm:"not null;default:false"                         json:"is_active"`
	ClassroomID *string `gorm:"type:uuid;uniqueIndex:uniq_timetables_classroom" json:"classroom_id,omitempty"` // 教室派生课表的归属教室
	BaseModel

	// 关联
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID;constraint:OnDelete:CASCADE" json:"classroom,omitempty"`
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// TimetableLink 课表-课次关联表，对应 timetable_links
// (timetable_id, lecture_id) 唯一；is_active 控制课次在该课表中是否可见
type TimetableLink struct {
	LinkID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                  json:"link_id"`
	TimetableID string `gorm:"type:uuid;not null;uniqueIndex:uniq_timetable_links_pair,priority:1" json:"timetable_id"`
	LectureID   string `gorm:"type:uuid;not null;uniqueIndex:uniq_timetable_links_pair,priority:2" json:"lecture_id"`
	IsActive    bool   `gorm:"not null;default:true"                                           json:"is_active"`
	BaseModel

	// 关联
	Timetable *Timetable `gorm:"foreignKey:TimetableID;references:TimetableID;constraint:OnDelete:CASCADE" json:"timetable,omitempty"`
	Lecture   *Lecture   `gorm:"foreignKey:LectureID;references:LectureID;constraint:OnDelete:CASCADE"     json:"lecture,omitempty"`
}

// TableName 指定表名
func (TimetableLink) TableName() string { return "timetable_links" }
