package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/model"
	"campus-timetable/backend/internal/repository"
)

// ── 教室模块业务错误 ──

var (
	ErrClassroomNotFound = errors.New("教室不存在")
)

// ClassroomService 教室业务接口
//
// 每个教室拥有一个派生课表（timetables.classroom_id 指向教室），
// 随教室创建、改名、删除同步维护，均与教室写入处于同一事务。
type ClassroomService interface {
	Create(ctx context.Context, req *dto.CreateClassroomRequest, operatorID *string) (*dto.ClassroomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error)
	List(ctx context.Context) ([]dto.ClassroomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, operatorID *string) (*dto.ClassroomResponse, error)
	Delete(ctx context.Context, id string) error
}

type classroomService struct {
	repo          *repository.Repository
	derivedSuffix string
	logger        *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例，derivedSuffix 为派生课表名称后缀
func NewClassroomService(repo *repository.Repository, derivedSuffix string, logger *zap.Logger) ClassroomService {
	return &classroomService{repo: repo, derivedSuffix: derivedSuffix, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classroomService) Create(ctx context.Context, req *dto.CreateClassroomRequest, operatorID *string) (*dto.ClassroomResponse, error) {
	var (
		classroom   *model.Classroom
		timetableID *string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c := &model.Classroom{
			Name:     req.Name,
			Location: req.Location,
			Capacity: req.Capacity,
		}
		c.SetCreator(operatorID)
		if err := tx.Classroom.Create(ctx, c); err != nil {
			return storeError(s.logger, "创建教室失败", err)
		}

		classroomID := c.ClassroomID
		timetable := &model.Timetable{
			Name:        s.derivedName(c.Name),
			ClassroomID: &classroomID,
		}
		timetable.SetCreator(operatorID)
		if err := tx.Timetable.Create(ctx, timetable); err != nil {
			return storeError(s.logger, "创建教室派生课表失败", err, zap.String("classroom_id", classroomID))
		}

		classroom = c
		timetableID = &timetable.TimetableID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toClassroomResponse(classroom, timetableID), nil
}

// ────────────────────── Query ──────────────────────

func (s *classroomService) GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error) {
	classroom, err := s.getClassroom(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	var timetableID *string
	timetable, err := s.repo.Timetable.GetByClassroom(ctx, id)
	switch {
	case err == nil:
		timetableID = &timetable.TimetableID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storeError(s.logger, "查询教室派生课表失败", err, zap.String("classroom_id", id))
	}

	return toClassroomResponse(classroom, timetableID), nil
}

func (s *classroomService) List(ctx context.Context) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.repo.Classroom.List(ctx)
	if err != nil {
		return nil, storeError(s.logger, "列出教室失败", err)
	}

	result := make([]dto.ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		result = append(result, *toClassroomResponse(&classrooms[i], nil))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *classroomService) Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, operatorID *string) (*dto.ClassroomResponse, error) {
	var (
		classroom   *model.Classroom
		timetableID *string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		timetableID = nil

		c, err := s.getClassroom(ctx, tx, id)
		if err != nil {
			return err
		}

		renamed := req.Name != nil && *req.Name != c.Name
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Location != nil {
			c.Location = *req.Location
		}
		if req.Capacity != nil {
			c.Capacity = *req.Capacity
		}
		c.UpdatedBy = operatorID

		if err := tx.Classroom.Update(ctx, c); err != nil {
			return storeError(s.logger, "更新教室失败", err, zap.String("id", id))
		}
		classroom = c

		timetable, err := tx.Timetable.GetByClassroom(ctx, id)
		if err != nil {
			// 派生课表不存在时跳过同步
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return storeError(s.logger, "查询教室派生课表失败", err, zap.String("classroom_id", id))
		}
		timetableID = &timetable.TimetableID

		if renamed {
			timetable.Name = s.derivedName(c.Name)
			timetable.UpdatedBy = operatorID
			if err := tx.Timetable.Update(ctx, timetable); err != nil {
				return storeError(s.logger, "同步派生课表名称失败", err, zap.String("classroom_id", id))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toClassroomResponse(classroom, timetableID), nil
}

// ────────────────────── Delete ──────────────────────

func (s *classroomService) Delete(ctx context.Context, id string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getClassroom(ctx, tx, id); err != nil {
			return err
		}

		// 派生课表不存在不视为错误
		if _, err := tx.Timetable.DeleteByClassroom(ctx, id); err != nil {
			return storeError(s.logger, "删除教室派生课表失败", err, zap.String("classroom_id", id))
		}
		// 课程、课次及其关联随外键级联删除
		if err := tx.Classroom.Delete(ctx, id); err != nil {
			return storeError(s.logger, "删除教室失败", err, zap.String("id", id))
		}
		return nil
	})
}

// ── 辅助函数 ──

func (s *classroomService) derivedName(classroomName string) string {
	return classroomName + s.derivedSuffix
}

func (s *classroomService) getClassroom(ctx context.Context, repo *repository.Repository, id string) (*model.Classroom, error) {
	classroom, err := repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, storeError(s.logger, "查询教室失败", err, zap.String("id", id))
	}
	return classroom, nil
}

func toClassroomResponse(c *model.Classroom, timetableID *string) *dto.ClassroomResponse {
	return &dto.ClassroomResponse{
		ID:          c.ClassroomID,
		Name:        c.Name,
		Location:    c.Location,
		Capacity:    c.Capacity,
		TimetableID: timetableID,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}
