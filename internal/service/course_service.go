package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/model"
	"campus-timetable/backend/internal/repository"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrCourseCodeExists = errors.New("课程代码已存在")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, operatorID *string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, query *dto.CourseListQuery) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, operatorID *string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, operatorID *string) (*dto.CourseResponse, error) {
	var course *model.Course
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		classroom, err := tx.Classroom.GetByID(ctx, req.ClassroomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClassroomNotFound
			}
			return storeError(s.logger, "查询教室失败", err, zap.String("classroom_id", req.ClassroomID))
		}

		if _, err := tx.Course.GetByCode(ctx, req.Code); err == nil {
			return ErrCourseCodeExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeError(s.logger, "查询课程代码失败", err, zap.String("code", req.Code))
		}

		c := &model.Course{
			Code:        req.Code,
			Name:        req.Name,
			Description: req.Description,
			LecturerID:  req.LecturerID,
			ClassroomID: req.ClassroomID,
			NumStudents: req.NumStudents,
		}
		c.SetCreator(operatorID)
		if err := tx.Course.Create(ctx, c); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrCourseCodeExists
			}
			return storeError(s.logger, "创建课程失败", err)
		}
		c.Classroom = classroom
		course = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, query *dto.CourseListQuery) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx, query.ClassroomID, query.LecturerID)
	if err != nil {
		return nil, storeError(s.logger, "列出课程失败", err)
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, operatorID *string) (*dto.CourseResponse, error) {
	var course *model.Course
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := s.getCourseOn(ctx, tx, id)
		if err != nil {
			return err
		}

		// 课次的讲师即课程讲师，换讲师等同于改动该课程的全部课次
		if req.LecturerID != nil && *req.LecturerID != c.LecturerID {
			if err := s.checkLecturerFree(ctx, tx, c.CourseID, *req.LecturerID); err != nil {
				return err
			}
			c.LecturerID = *req.LecturerID
		}

		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Description != nil {
			c.Description = req.Description
		}
		if req.NumStudents != nil {
			c.NumStudents = *req.NumStudents
		}
		c.UpdatedBy = operatorID

		if err := tx.Course.Update(ctx, c); err != nil {
			return storeError(s.logger, "更新课程失败", err, zap.String("id", id))
		}
		course = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

// checkLecturerFree 检测课程的已有课次与新讲师的其他课次是否重叠
func (s *courseService) checkLecturerFree(ctx context.Context, tx *repository.Repository, courseID, lecturerID string) error {
	lectures, err := tx.Lecture.List(ctx, repository.LectureFilter{CourseID: courseID})
	if err != nil {
		return storeError(s.logger, "查询课程课次失败", err, zap.String("course_id", courseID))
	}

	var conflicts []Conflict
	for _, l := range lectures {
		iv, err := l.Interval()
		if err != nil {
			return storeError(s.logger, "解析课次时间段失败", err, zap.String("lecture_id", l.LectureID))
		}

		sameDay, err := tx.Lecture.ListSameDay(ctx, iv.Day, "", lecturerID)
		if err != nil {
			return storeError(s.logger, "查询同日课次失败", err, zap.String("lecturer_id", lecturerID))
		}
		others := sameDay[:0]
		for _, o := range sameDay {
			if o.CourseID != courseID {
				others = append(others, o)
			}
		}

		slot := LectureSlot{LecturerID: lecturerID, Interval: iv}
		if err := CheckSlot(slot, others, l.LectureID); err != nil {
			var cerr *ConflictError
			if !errors.As(err, &cerr) {
				return err
			}
			conflicts = append(conflicts, cerr.Conflicts...)
		}
	}

	if len(conflicts) > 0 {
		s.logger.Info("换讲师被拒绝：与讲师已有课次冲突",
			zap.String("course_id", courseID),
			zap.String("lecturer_id", lecturerID),
			zap.Int("conflicts", len(conflicts)),
		)
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	if _, err := s.getCourse(ctx, id); err != nil {
		return err
	}
	// 课次及其关联随外键级联删除
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		return storeError(s.logger, "删除课程失败", err, zap.String("id", id))
	}
	return nil
}

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	return s.getCourseOn(ctx, s.repo, id)
}

func (s *courseService) getCourseOn(ctx context.Context, repo *repository.Repository, id string) (*model.Course, error) {
	course, err := repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, storeError(s.logger, "查询课程失败", err, zap.String("id", id))
	}
	return course, nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:          c.CourseID,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		LecturerID:  c.LecturerID,
		ClassroomID: c.ClassroomID,
		NumStudents: c.NumStudents,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
	if c.Classroom != nil {
		resp.ClassroomName = c.Classroom.Name
	}
	return resp
}
