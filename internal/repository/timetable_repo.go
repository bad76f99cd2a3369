package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-timetable/backend/internal/model"
)

// TimetableRepository 课表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, timetable *model.Timetable) error
	GetByID(ctx context.Context, id string) (*model.Timetable, error)
	GetByClassroom(ctx context.Context, classroomID string) (*model.Timetable, error)
	GetActive(ctx context.Context) (*model.Timetable, error)
	// LockActive 以 FOR UPDATE 读取当前激活课表，须在事务内调用
	LockActive(ctx context.Context) (*model.Timetable, error)
	List(ctx context.Context) ([]model.Timetable, error)
	Update(ctx context.Context, timetable *model.Timetable) error
	SetActive(ctx context.Context, id string, active bool, updatedBy *string) error
	Delete(ctx context.Context, id string) error
	// DeleteByClassroom 删除教室派生课表，返回删除行数
	DeleteByClassroom(ctx context.Context, classroomID string) (int64, error)
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, timetable *model.Timetable) error {
	return r.db.WithContext(ctx).Create(timetable).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Where("timetable_id = ?", id).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) GetByClassroom(ctx context.Context, classroomID string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) GetActive(ctx context.Context) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) LockActive(ctx context.Context) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_active = ?", true).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) List(ctx context.Context) ([]model.Timetable, error) {
	var timetables []model.Timetable
	err := r.db.WithContext(ctx).
		Order("is_active DESC, name ASC").
		Find(&timetables).Error
	return timetables, err
}

// Update 仅更新展示字段；激活状态只能经 SetActive 修改
func (r *timetableRepo) Update(ctx context.Context, timetable *model.Timetable) error {
	return r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ?", timetable.TimetableID).
		Updates(map[string]interface{}{
			"name":        timetable.Name,
			"description": timetable.Description,
			"updated_by":  timetable.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *timetableRepo) SetActive(ctx context.Context, id string, active bool, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("timetable_id = ?", id).
		Delete(&model.Timetable{}).Error
}

func (r *timetableRepo) DeleteByClassroom(ctx context.Context, classroomID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Delete(&model.Timetable{})
	return result.RowsAffected, result.Error
}
