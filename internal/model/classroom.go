package model

// Classroom 教室表，对应 classrooms
type Classroom struct {
	ClassroomID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Location    string `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	Capacity    int    `gorm:"not null;default:0"                             json:"capacity"`
	BaseModel
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }
