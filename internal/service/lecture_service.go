package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/model"
	"campus-timetable/backend/internal/repository"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// ── 课次模块业务错误 ──

var (
	ErrLectureNotFound   = errors.New("课次不存在")
	ErrLectureNoteEmpty  = errors.New("备注内容不能为空")
	ErrLecturerIDMissing = errors.New("讲师ID不能为空")
)

// LectureService 课次业务接口
type LectureService interface {
	// Create 校验冲突后创建课次，并在同一事务内关联当前激活课表
	Create(ctx context.Context, req *dto.CreateLectureRequest, operatorID *string) (*dto.CreateLectureResponse, error)
	// Check 冲突预检，不落库；时间顺序错误以 error 返回，冲突以结果返回
	Check(ctx context.Context, req *dto.CheckLectureRequest) (*dto.CheckLectureResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LectureResponse, error)
	List(ctx context.Context, query *dto.LectureListQuery) ([]dto.LectureResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLectureRequest, operatorID *string) (*dto.LectureResponse, error)
	// Cancel 取消课次，note 非空时一并更新备注
	Cancel(ctx context.Context, id string, note *string, operatorID *string) (*dto.LectureResponse, error)
	SetNote(ctx context.Context, id string, note string, operatorID *string) (*dto.LectureResponse, error)
	Delete(ctx context.Context, id string) error
	// ListByLecturer 讲师在激活课表中的课次，todayOnly 时仅返回今天
	ListByLecturer(ctx context.Context, lecturerID string, todayOnly bool) ([]dto.LectureResponse, error)
	LecturerStats(ctx context.Context, lecturerID string) (*dto.LecturerStatsResponse, error)
}

type lectureService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewLectureService 创建 LectureService 实例，loc 用于计算"今天"是星期几
func NewLectureService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) LectureService {
	return &lectureService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *lectureService) Create(ctx context.Context, req *dto.CreateLectureRequest, operatorID *string) (*dto.CreateLectureResponse, error) {
	iv, err := parseSlot(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := validateInterval(iv); err != nil {
		return nil, err
	}

	var (
		lecture  *model.Lecture
		linkedID *string
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		linkedID = nil

		course, classroom, err := s.loadRefs(ctx, tx, req.ClassroomID, req.CourseID)
		if err != nil {
			return err
		}

		slot := LectureSlot{ClassroomID: req.ClassroomID, LecturerID: course.LecturerID, Interval: iv}
		if err := s.detect(ctx, tx, slot, ""); err != nil {
			return err
		}

		l := &model.Lecture{
			ClassroomID: req.ClassroomID,
			CourseID:    req.CourseID,
			DayOfWeek:   iv.Day,
			StartTime:   iv.Start.String(),
			EndTime:     iv.End.String(),
			Note:        req.Note,
		}
		l.SetCreator(operatorID)
		if err := tx.Lecture.Create(ctx, l); err != nil {
			return s.writeError("创建课次失败", err)
		}
		l.Course = course
		l.Classroom = classroom

		// 无激活课表时课次只落库不关联
		active, err := tx.Timetable.GetActive(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				lecture = l
				return nil
			}
			return storeError(s.logger, "查询激活课表失败", err)
		}

		link := &model.TimetableLink{
			TimetableID: active.TimetableID,
			LectureID:   l.LectureID,
			IsActive:    true,
		}
		link.SetCreator(operatorID)
		if err := tx.TimetableLink.Create(ctx, link); err != nil {
			return storeError(s.logger, "课次关联激活课表失败", err,
				zap.String("lecture_id", l.LectureID), zap.String("timetable_id", active.TimetableID))
		}

		activeID := active.TimetableID
		linkedID = &activeID
		lecture = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("课次已创建",
		zap.String("lecture_id", lecture.LectureID),
		zap.String("slot", iv.String()),
		zap.Stringp("linked_timetable_id", linkedID),
	)

	return &dto.CreateLectureResponse{
		LectureResponse:   *toLectureResponse(lecture),
		LinkedTimetableID: linkedID,
	}, nil
}

// ────────────────────── Check ──────────────────────

func (s *lectureService) Check(ctx context.Context, req *dto.CheckLectureRequest) (*dto.CheckLectureResponse, error) {
	iv, err := parseSlot(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := validateInterval(iv); err != nil {
		return nil, err
	}

	course, _, err := s.loadRefs(ctx, s.repo, req.ClassroomID, req.CourseID)
	if err != nil {
		return nil, err
	}

	slot := LectureSlot{ClassroomID: req.ClassroomID, LecturerID: course.LecturerID, Interval: iv}
	err = s.detect(ctx, s.repo, slot, req.LectureID)

	var cerr *ConflictError
	switch {
	case err == nil:
		return &dto.CheckLectureResponse{Available: true, Conflicts: []dto.ConflictDetail{}}, nil
	case errors.As(err, &cerr):
		return &dto.CheckLectureResponse{Available: false, Conflicts: cerr.Details()}, nil
	default:
		return nil, err
	}
}

// ────────────────────── GetByID ──────────────────────

func (s *lectureService) GetByID(ctx context.Context, id string) (*dto.LectureResponse, error) {
	lecture, err := s.getLecture(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toLectureResponse(lecture), nil
}

// ────────────────────── List ──────────────────────

func (s *lectureService) List(ctx context.Context, query *dto.LectureListQuery) ([]dto.LectureResponse, error) {
	filter := repository.LectureFilter{
		ClassroomID:         query.ClassroomID,
		CourseID:            query.CourseID,
		LecturerID:          query.LecturerID,
		TimetableID:         query.TimetableID,
		ActiveTimetableOnly: query.ActiveOnly,
	}

	switch {
	case query.Today:
		day := s.today()
		filter.DayOfWeek = &day
	case query.Day != "":
		day, err := model.ParseWeekday(query.Day)
		if err != nil {
			return nil, ErrLectureInvalidSlot
		}
		filter.DayOfWeek = &day
	}

	if query.IncludeCanceled != nil && !*query.IncludeCanceled {
		notCanceled := false
		filter.Canceled = &notCanceled
	}

	return s.list(ctx, filter)
}

// ────────────────────── Update ──────────────────────

func (s *lectureService) Update(ctx context.Context, id string, req *dto.UpdateLectureRequest, operatorID *string) (*dto.LectureResponse, error) {
	var lecture *model.Lecture
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		l, err := s.getLecture(ctx, tx, id)
		if err != nil {
			return err
		}
		// 携带版本号时才做乐观锁校验
		if req.Version != nil && l.Version != *req.Version {
			return pkgerrors.ErrOptimisticLock
		}

		// 仅当时间段、教室或课程变化时才重新检测冲突
		slotChanged := false
		if req.ClassroomID != nil && *req.ClassroomID != l.ClassroomID {
			l.ClassroomID = *req.ClassroomID
			slotChanged = true
		}
		if req.CourseID != nil && *req.CourseID != l.CourseID {
			l.CourseID = *req.CourseID
			slotChanged = true
		}

		day := l.DayOfWeek.String()
		start, end := l.StartTime, l.EndTime
		if req.DayOfWeek != nil {
			day = *req.DayOfWeek
		}
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		iv, err := parseSlot(day, start, end)
		if err != nil {
			return err
		}
		if err := validateInterval(iv); err != nil {
			return err
		}
		oldIv, err := l.Interval()
		if err != nil {
			return storeError(s.logger, "解析课次时间段失败", err, zap.String("id", id))
		}
		if iv != oldIv {
			slotChanged = true
		}
		l.DayOfWeek = iv.Day
		l.StartTime = iv.Start.String()
		l.EndTime = iv.End.String()

		if slotChanged {
			course, classroom, err := s.loadRefs(ctx, tx, l.ClassroomID, l.CourseID)
			if err != nil {
				return err
			}
			l.Course = course
			l.Classroom = classroom

			slot := LectureSlot{ClassroomID: l.ClassroomID, LecturerID: course.LecturerID, Interval: iv}
			if err := s.detect(ctx, tx, slot, l.LectureID); err != nil {
				return err
			}
		}

		if req.Note != nil {
			l.Note = req.Note
		}
		if req.IsCanceled != nil {
			l.IsCanceled = *req.IsCanceled
		}
		l.UpdatedBy = operatorID

		if err := tx.Lecture.Update(ctx, l); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return err
			}
			return s.writeError("更新课次失败", err, zap.String("id", id))
		}
		lecture = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toLectureResponse(lecture), nil
}

// ────────────────────── Cancel / SetNote ──────────────────────

func (s *lectureService) Cancel(ctx context.Context, id string, note *string, operatorID *string) (*dto.LectureResponse, error) {
	var newNote *string
	if note != nil {
		if trimmed := strings.TrimSpace(*note); trimmed != "" {
			newNote = &trimmed
		}
	}

	return s.modify(ctx, id, operatorID, func(l *model.Lecture) bool {
		changed := false
		if !l.IsCanceled {
			l.IsCanceled = true
			changed = true
		}
		if newNote != nil && (l.Note == nil || *l.Note != *newNote) {
			l.Note = newNote
			changed = true
		}
		return changed
	})
}

func (s *lectureService) SetNote(ctx context.Context, id string, note string, operatorID *string) (*dto.LectureResponse, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrLectureNoteEmpty
	}
	return s.modify(ctx, id, operatorID, func(l *model.Lecture) bool {
		l.Note = &note
		return true
	})
}

// modify 在事务内读取课次并应用 mutate，mutate 返回 false 时不写库
func (s *lectureService) modify(ctx context.Context, id string, operatorID *string, mutate func(l *model.Lecture) bool) (*dto.LectureResponse, error) {
	var lecture *model.Lecture
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		l, err := s.getLecture(ctx, tx, id)
		if err != nil {
			return err
		}
		lecture = l
		if !mutate(l) {
			return nil
		}
		l.UpdatedBy = operatorID
		if err := tx.Lecture.Update(ctx, l); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return err
			}
			return storeError(s.logger, "更新课次失败", err, zap.String("id", id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toLectureResponse(lecture), nil
}

// ────────────────────── Delete ──────────────────────

func (s *lectureService) Delete(ctx context.Context, id string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getLecture(ctx, tx, id); err != nil {
			return err
		}
		// 课表关联随外键级联删除
		if err := tx.Lecture.Delete(ctx, id); err != nil {
			return storeError(s.logger, "删除课次失败", err, zap.String("id", id))
		}
		return nil
	})
}

// ────────────────────── 讲师视图 ──────────────────────

func (s *lectureService) ListByLecturer(ctx context.Context, lecturerID string, todayOnly bool) ([]dto.LectureResponse, error) {
	if strings.TrimSpace(lecturerID) == "" {
		return nil, ErrLecturerIDMissing
	}

	filter := repository.LectureFilter{
		LecturerID:          lecturerID,
		ActiveTimetableOnly: true,
	}
	if todayOnly {
		day := s.today()
		filter.DayOfWeek = &day
	}
	return s.list(ctx, filter)
}

func (s *lectureService) LecturerStats(ctx context.Context, lecturerID string) (*dto.LecturerStatsResponse, error) {
	if strings.TrimSpace(lecturerID) == "" {
		return nil, ErrLecturerIDMissing
	}

	stats, err := s.repo.Lecture.StatsByLecturer(ctx, lecturerID)
	if err != nil {
		return nil, storeError(s.logger, "统计讲师课次失败", err, zap.String("lecturer_id", lecturerID))
	}

	return &dto.LecturerStatsResponse{
		LecturerID: lecturerID,
		Total:      stats.Total,
		Active:     stats.Active,
		Canceled:   stats.Canceled,
	}, nil
}

// ── 辅助函数 ──

func (s *lectureService) today() model.Weekday {
	return model.Weekday(s.now().In(s.loc).Weekday())
}

func (s *lectureService) list(ctx context.Context, filter repository.LectureFilter) ([]dto.LectureResponse, error) {
	lectures, err := s.repo.Lecture.List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, "查询课次列表失败", err)
	}

	result := make([]dto.LectureResponse, 0, len(lectures))
	for i := range lectures {
		result = append(result, *toLectureResponse(&lectures[i]))
	}
	return result, nil
}

func (s *lectureService) getLecture(ctx context.Context, repo *repository.Repository, id string) (*model.Lecture, error) {
	lecture, err := repo.Lecture.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLectureNotFound
		}
		return nil, storeError(s.logger, "查询课次失败", err, zap.String("id", id))
	}
	return lecture, nil
}

// loadRefs 加载课次引用的课程与教室，课程决定实际授课讲师
func (s *lectureService) loadRefs(ctx context.Context, repo *repository.Repository, classroomID, courseID string) (*model.Course, *model.Classroom, error) {
	classroom, err := repo.Classroom.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrClassroomNotFound
		}
		return nil, nil, storeError(s.logger, "查询教室失败", err, zap.String("classroom_id", classroomID))
	}

	course, err := repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, storeError(s.logger, "查询课程失败", err, zap.String("course_id", courseID))
	}
	return course, classroom, nil
}

// detect 读取同一天内同教室或同讲师的课次并检测冲突
func (s *lectureService) detect(ctx context.Context, repo *repository.Repository, slot LectureSlot, excludeID string) error {
	existing, err := repo.Lecture.ListSameDay(ctx, slot.Interval.Day, slot.ClassroomID, slot.LecturerID)
	if err != nil {
		return storeError(s.logger, "查询同日课次失败", err)
	}
	return CheckSlot(slot, existing, excludeID)
}

// writeError 将课次写入时的约束错误映射为业务错误
func (s *lectureService) writeError(msg string, err error, fields ...zap.Field) error {
	switch {
	case pkgerrors.IsExclusionViolation(err):
		// 并发写入时由排他约束兜底
		return ErrClassroomConflict
	case pkgerrors.IsCheckViolation(err):
		return ErrLectureTimeOrder
	}
	return storeError(s.logger, msg, err, fields...)
}

func toLectureResponse(l *model.Lecture) *dto.LectureResponse {
	resp := &dto.LectureResponse{
		ID:          l.LectureID,
		ClassroomID: l.ClassroomID,
		CourseID:    l.CourseID,
		LecturerID:  l.LecturerID(),
		DayOfWeek:   l.DayOfWeek.String(),
		StartTime:   clockText(l.StartTime),
		EndTime:     clockText(l.EndTime),
		IsCanceled:  l.IsCanceled,
		Note:        l.Note,
		Version:     l.Version,
		CreatedAt:   formatTime(l.CreatedAt),
		UpdatedAt:   formatTime(l.UpdatedAt),
	}
	if l.Classroom != nil {
		resp.ClassroomName = l.Classroom.Name
	}
	if l.Course != nil {
		resp.CourseCode = l.Course.Code
		resp.CourseName = l.Course.Name
	}
	return resp
}
