package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// LectureFilter 课次列表过滤条件，零值字段不参与过滤
type LectureFilter struct {
	DayOfWeek   *model.Weekday
	ClassroomID string
	CourseID    string
	LecturerID  string
	// TimetableID 仅返回在该课表中可见（关联 is_active）的课次
	TimetableID string
	// ActiveTimetableOnly 仅返回在当前激活课表中可见的课次；无激活课表时结果为空
	ActiveTimetableOnly bool
	// Canceled 为 nil 时不过滤取消状态
	Canceled *bool
}

// LecturerStats 讲师课次统计
type LecturerStats struct {
	Total    int64
	Active   int64
	Canceled int64
}

// LectureRepository 课次数据访问接口
type LectureRepository interface {
	Create(ctx context.Context, lecture *model.Lecture) error
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	List(ctx context.Context, filter LectureFilter) ([]model.Lecture, error)
	// ListSameDay 返回同一天内与指定教室或讲师相关的全部课次（含已取消），供冲突检测使用
	// classroomID 或 lecturerID 为空时忽略该条件
	ListSameDay(ctx context.Context, day model.Weekday, classroomID, lecturerID string) ([]model.Lecture, error)
	Update(ctx context.Context, lecture *model.Lecture) error
	Delete(ctx context.Context, id string) error
	StatsByLecturer(ctx context.Context, lecturerID string) (*LecturerStats, error)
}

type lectureRepo struct {
	db *gorm.DB
}

// NewLectureRepo 创建 LectureRepository 实例
func NewLectureRepo(db *gorm.DB) LectureRepository {
	return &lectureRepo{db: db}
}

func (r *lectureRepo) Create(ctx context.Context, lecture *model.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Course").
		Where("lecture_id = ?", id).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *lectureRepo) List(ctx context.Context, filter LectureFilter) ([]model.Lecture, error) {
	var lectures []model.Lecture
	db := r.db.WithContext(ctx).Model(&model.Lecture{})

	if filter.DayOfWeek != nil {
		db = db.Where("lectures.day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.ClassroomID != "" {
		db = db.Where("lectures.classroom_id = ?", filter.ClassroomID)
	}
	if filter.CourseID != "" {
		db = db.Where("lectures.course_id = ?", filter.CourseID)
	}
	if filter.LecturerID != "" {
		db = db.Where("lectures.course_id IN (?)",
			r.db.Model(&model.Course{}).Select("course_id").Where("lecturer_id = ?", filter.LecturerID))
	}
	if filter.TimetableID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM timetable_links tl WHERE tl.lecture_id = lectures.lecture_id AND tl.is_active AND tl.timetable_id = ?)",
			filter.TimetableID)
	}
	if filter.ActiveTimetableOnly {
		db = db.Where(`EXISTS (SELECT 1 FROM timetable_links tl
			JOIN timetables t ON t.timetable_id = tl.timetable_id AND t.is_active
			WHERE tl.lecture_id = lectures.lecture_id AND tl.is_active)`)
	}
	if filter.Canceled != nil {
		db = db.Where("lectures.is_canceled = ?", *filter.Canceled)
	}

	err := db.Preload("Classroom").Preload("Course").
		Order("lectures.day_of_week ASC, lectures.start_time ASC, lectures.lecture_id ASC").
		Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepo) ListSameDay(ctx context.Context, day model.Weekday, classroomID, lecturerID string) ([]model.Lecture, error) {
	var lectures []model.Lecture
	if classroomID == "" && lecturerID == "" {
		return lectures, nil
	}

	// 教室或讲师为空时只按另一项匹配
	match := r.db.Where("1 = 0")
	if classroomID != "" {
		match = match.Or("classroom_id = ?", classroomID)
	}
	if lecturerID != "" {
		match = match.Or("course_id IN (?)",
			r.db.Model(&model.Course{}).Select("course_id").Where("lecturer_id = ?", lecturerID))
	}

	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("day_of_week = ?", day).
		Where(match).
		Order("start_time ASC").
		Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepo) Update(ctx context.Context, lecture *model.Lecture) error {
	oldVersion := lecture.Version
	result := r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("lecture_id = ? AND version = ?", lecture.LectureID, oldVersion).
		Updates(map[string]interface{}{
			"classroom_id": lecture.ClassroomID,
			"course_id":    lecture.CourseID,
			"day_of_week":  lecture.DayOfWeek,
			"start_time":   lecture.StartTime,
			"end_time":     lecture.EndTime,
			"is_canceled":  lecture.IsCanceled,
			"note":         lecture.Note,
			"updated_by":   lecture.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lecture.Version = oldVersion + 1
	return nil
}

func (r *lectureRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("lecture_id = ?", id).
		Delete(&model.Lecture{}).Error
}

func (r *lectureRepo) StatsByLecturer(ctx context.Context, lecturerID string) (*LecturerStats, error) {
	var stats LecturerStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT l.is_canceled AND EXISTS (
				SELECT 1 FROM timetable_links tl
				JOIN timetables t ON t.timetable_id = tl.timetable_id AND t.is_active
				WHERE tl.lecture_id = l.lecture_id AND tl.is_active)) AS active,
			COUNT(*) FILTER (WHERE l.is_canceled) AS canceled
		FROM lectures l
		JOIN courses c ON c.course_id = l.course_id
		WHERE c.lecturer_id = ?`, lecturerID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
