package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
)

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	List(ctx context.Context) ([]model.Classroom, error)
	Update(ctx context.Context, classroom *model.Classroom) error
	Delete(ctx context.Context, id string) error
}

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) Create(ctx context.Context, classroom *model.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepo) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", id).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) List(ctx context.Context) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepo) Update(ctx context.Context, classroom *model.Classroom) error {
	return r.db.WithContext(ctx).
		Model(classroom).
		Where("classroom_id = ?", classroom.ClassroomID).
		Updates(map[string]interface{}{
			"name":       classroom.Name,
			"location":   classroom.Location,
			"capacity":   classroom.Capacity,
			"updated_by": classroom.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

// Delete 硬删除；课程、课次及其课表关联由外键级联删除
func (r *classroomRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("classroom_id = ?", id).
		Delete(&model.Classroom{}).Error
}
