package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
)

// TimetableLinkRepository 课表-课次关联数据访问接口
type TimetableLinkRepository interface {
	Create(ctx context.Context, link *model.TimetableLink) error
	Get(ctx context.Context, timetableID, lectureID string) (*model.TimetableLink, error)
	ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableLink, error)
	SetActive(ctx context.Context, timetableID, lectureID string, active bool, updatedBy *string) (int64, error)
	Delete(ctx context.Context, timetableID, lectureID string) (int64, error)
}

type timetableLinkRepo struct {
	db *gorm.DB
}

// NewTimetableLinkRepo 创建 TimetableLinkRepository 实例
func NewTimetableLinkRepo(db *gorm.DB) TimetableLinkRepository {
	return &timetableLinkRepo{db: db}
}

func (r *timetableLinkRepo) Create(ctx context.Context, link *model.TimetableLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *timetableLinkRepo) Get(ctx context.Context, timetableID, lectureID string) (*model.TimetableLink, error) {
	var link model.TimetableLink
	err := r.db.WithContext(ctx).
		Where("timetable_id = ? AND lecture_id = ?", timetableID, lectureID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *timetableLinkRepo) ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableLink, error) {
	var links []model.TimetableLink
	err := r.db.WithContext(ctx).
		Preload("Lecture").
		Preload("Lecture.Course").
		Preload("Lecture.Classroom").
		Joins("JOIN lectures ON lectures.lecture_id = timetable_links.lecture_id").
		Where("timetable_links.timetable_id = ?", timetableID).
		Order("lectures.day_of_week ASC, lectures.start_time ASC").
		Find(&links).Error
	return links, err
}

func (r *timetableLinkRepo) SetActive(ctx context.Context, timetableID, lectureID string, active bool, updatedBy *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TimetableLink{}).
		Where("timetable_id = ? AND lecture_id = ?", timetableID, lectureID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

func (r *timetableLinkRepo) Delete(ctx context.Context, timetableID, lectureID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timetable_id = ? AND lecture_id = ?", timetableID, lectureID).
		Delete(&model.TimetableLink{})
	return result.RowsAffected, result.Error
}
