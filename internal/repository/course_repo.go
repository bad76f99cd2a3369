package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, classroomID, lecturerID string) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, classroomID, lecturerID string) ([]model.Course, error) {
	var courses []model.Course
	db := r.db.WithContext(ctx).Preload("Classroom")

	if classroomID != "" {
		db = db.Where("classroom_id = ?", classroomID)
	}
	if lecturerID != "" {
		db = db.Where("lecturer_id = ?", lecturerID)
	}

	err := db.Order("code ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).
		Model(course).
		Where("course_id = ?", course.CourseID).
		Updates(map[string]interface{}{
			"code":         course.Code,
			"name":         course.Name,
			"description":  course.Description,
			"lecturer_id":  course.LecturerID,
			"classroom_id": course.ClassroomID,
			"num_students": course.NumStudents,
			"updated_by":   course.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", id).
		Delete(&model.Course{}).Error
}
