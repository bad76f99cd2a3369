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

// ── 课表模块业务错误 ──

var (
	ErrTimetableNotFound = errors.New("课表不存在")
	ErrNoActiveTimetable = errors.New("当前没有激活的课表")
	ErrTimetableDerived  = errors.New("教室派生课表随教室维护，不能直接删除")
	ErrAlreadyLinked     = errors.New("课次已在该课表中")
	ErrLinkNotFound      = errors.New("课表中没有该课次")
)

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 全局至多一个激活课表，激活在单个可串行化事务中完成：
//     锁定当前激活行 → 取消激活 → 激活目标，部分唯一索引兜底。
//   - 关联 (timetable, lecture) 唯一，重复关联返回 ErrAlreadyLinked。
//   - 关联的 is_active 控制课次在该课表中是否可见，不影响冲突检测。
// ─────────────────────────────────────────────────────────────

// TimetableService 课表模块业务接口
type TimetableService interface {
	Create(ctx context.Context, req *dto.CreateTimetableRequest, operatorID *string) (*dto.TimetableResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TimetableResponse, error)
	// GetActive 返回当前激活课表，没有时返回 ErrNoActiveTimetable
	GetActive(ctx context.Context) (*dto.TimetableResponse, error)
	List(ctx context.Context) ([]dto.TimetableResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTimetableRequest, operatorID *string) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, id string) error
	// Activate 将课表设为唯一激活课表，返回此前的激活课表 ID
	Activate(ctx context.Context, id string, operatorID *string) (*dto.ActivateTimetableResponse, error)
	// Link 将课次关联到课表
	Link(ctx context.Context, timetableID, lectureID string, operatorID *string) (*dto.TimetableLinkResponse, error)
	ListLinks(ctx context.Context, timetableID string) ([]dto.TimetableLinkResponse, error)
	SetLinkActive(ctx context.Context, timetableID, lectureID string, active bool, operatorID *string) error
	Unlink(ctx context.Context, timetableID, lectureID string) error
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// ────────────────────── CRUD ──────────────────────

func (s *timetableService) Create(ctx context.Context, req *dto.CreateTimetableRequest, operatorID *string) (*dto.TimetableResponse, error) {
	timetable := &model.Timetable{
		Name:        req.Name,
		Description: req.Description,
	}
	timetable.SetCreator(operatorID)

	if err := s.repo.Timetable.Create(ctx, timetable); err != nil {
		return nil, storeError(s.logger, "创建课表失败", err)
	}
	return toTimetableResponse(timetable), nil
}

func (s *timetableService) GetByID(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	timetable, err := s.getTimetable(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toTimetableResponse(timetable), nil
}

func (s *timetableService) GetActive(ctx context.Context) (*dto.TimetableResponse, error) {
	timetable, err := s.repo.Timetable.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveTimetable
		}
		return nil, storeError(s.logger, "查询激活课表失败", err)
	}
	return toTimetableResponse(timetable), nil
}

func (s *timetableService) List(ctx context.Context) ([]dto.TimetableResponse, error) {
	timetables, err := s.repo.Timetable.List(ctx)
	if err != nil {
		return nil, storeError(s.logger, "列出课表失败", err)
	}

	result := make([]dto.TimetableResponse, 0, len(timetables))
	for i := range timetables {
		result = append(result, *toTimetableResponse(&timetables[i]))
	}
	return result, nil
}

func (s *timetableService) Update(ctx context.Context, id string, req *dto.UpdateTimetableRequest, operatorID *string) (*dto.TimetableResponse, error) {
	timetable, err := s.getTimetable(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		timetable.Name = *req.Name
	}
	if req.Description != nil {
		timetable.Description = req.Description
	}
	timetable.UpdatedBy = operatorID

	if err := s.repo.Timetable.Update(ctx, timetable); err != nil {
		return nil, storeError(s.logger, "更新课表失败", err, zap.String("id", id))
	}
	return toTimetableResponse(timetable), nil
}

func (s *timetableService) Delete(ctx context.Context, id string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		timetable, err := s.getTimetable(ctx, tx, id)
		if err != nil {
			return err
		}
		if timetable.ClassroomID != nil {
			return ErrTimetableDerived
		}
		if err := tx.Timetable.Delete(ctx, id); err != nil {
			return storeError(s.logger, "删除课表失败", err, zap.String("id", id))
		}
		if timetable.IsActive {
			s.logger.Warn("已删除激活课表，当前无激活课表", zap.String("id", id))
		}
		return nil
	})
}

// ────────────────────── Activate ──────────────────────

func (s *timetableService) Activate(ctx context.Context, id string, operatorID *string) (*dto.ActivateTimetableResponse, error) {
	var previous *string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		previous = nil

		target, err := s.getTimetable(ctx, tx, id)
		if err != nil {
			return err
		}

		current, err := tx.Timetable.LockActive(ctx)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeError(s.logger, "锁定激活课表失败", err)
		}
		if current != nil {
			prevID := current.TimetableID
			previous = &prevID
			// 目标已激活：幂等返回，不写库
			if current.TimetableID == target.TimetableID {
				return nil
			}
			if err := tx.Timetable.SetActive(ctx, current.TimetableID, false, operatorID); err != nil {
				return storeError(s.logger, "取消激活课表失败", err, zap.String("id", current.TimetableID))
			}
		}

		if err := tx.Timetable.SetActive(ctx, target.TimetableID, true, operatorID); err != nil {
			return storeError(s.logger, "激活课表失败", err, zap.String("id", id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("课表已激活", zap.String("timetable_id", id), zap.Stringp("previous_active_id", previous))
	return &dto.ActivateTimetableResponse{TimetableID: id, PreviousActiveID: previous}, nil
}

// ────────────────────── Link ──────────────────────

func (s *timetableService) Link(ctx context.Context, timetableID, lectureID string, operatorID *string) (*dto.TimetableLinkResponse, error) {
	var link *model.TimetableLink
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getTimetable(ctx, tx, timetableID); err != nil {
			return err
		}
		lecture, err := tx.Lecture.GetByID(ctx, lectureID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLectureNotFound
			}
			return storeError(s.logger, "查询课次失败", err, zap.String("lecture_id", lectureID))
		}

		_, err = tx.TimetableLink.Get(ctx, timetableID, lectureID)
		if err == nil {
			return ErrAlreadyLinked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeError(s.logger, "查询课表关联失败", err)
		}

		l := &model.TimetableLink{
			TimetableID: timetableID,
			LectureID:   lectureID,
			IsActive:    true,
		}
		l.SetCreator(operatorID)
		if err := tx.TimetableLink.Create(ctx, l); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrAlreadyLinked
			}
			return storeError(s.logger, "创建课表关联失败", err,
				zap.String("timetable_id", timetableID), zap.String("lecture_id", lectureID))
		}
		l.Lecture = lecture
		link = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTimetableLinkResponse(link), nil
}

func (s *timetableService) ListLinks(ctx context.Context, timetableID string) ([]dto.TimetableLinkResponse, error) {
	if _, err := s.getTimetable(ctx, s.repo, timetableID); err != nil {
		return nil, err
	}

	links, err := s.repo.TimetableLink.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, storeError(s.logger, "查询课表关联失败", err, zap.String("timetable_id", timetableID))
	}

	result := make([]dto.TimetableLinkResponse, 0, len(links))
	for i := range links {
		result = append(result, *toTimetableLinkResponse(&links[i]))
	}
	return result, nil
}

func (s *timetableService) SetLinkActive(ctx context.Context, timetableID, lectureID string, active bool, operatorID *string) error {
	n, err := s.repo.TimetableLink.SetActive(ctx, timetableID, lectureID, active, operatorID)
	if err != nil {
		return storeError(s.logger, "更新课表关联失败", err,
			zap.String("timetable_id", timetableID), zap.String("lecture_id", lectureID))
	}
	if n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (s *timetableService) Unlink(ctx context.Context, timetableID, lectureID string) error {
	n, err := s.repo.TimetableLink.Delete(ctx, timetableID, lectureID)
	if err != nil {
		return storeError(s.logger, "删除课表关联失败", err,
			zap.String("timetable_id", timetableID), zap.String("lecture_id", lectureID))
	}
	if n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// ── 辅助函数 ──

func (s *timetableService) getTimetable(ctx context.Context, repo *repository.Repository, id string) (*model.Timetable, error) {
	timetable, err := repo.Timetable.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, storeError(s.logger, "查询课表失败", err, zap.String("id", id))
	}
	return timetable, nil
}

func toTimetableResponse(t *model.Timetable) *dto.TimetableResponse {
	return &dto.TimetableResponse{
		ID:          t.TimetableID,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		ClassroomID: t.ClassroomID,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func toTimetableLinkResponse(l *model.TimetableLink) *dto.TimetableLinkResponse {
	resp := &dto.TimetableLinkResponse{
		ID:          l.LinkID,
		TimetableID: l.TimetableID,
		LectureID:   l.LectureID,
		IsActive:    l.IsActive,
		CreatedAt:   formatTime(l.CreatedAt),
	}
	if l.Lecture != nil {
		resp.Lecture = toLectureResponse(l.Lecture)
	}
	return resp
}
