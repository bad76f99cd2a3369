package service

import (
	"errors"
	"fmt"
	"strings"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/model"
)

// ── 冲突检测业务错误 ──

var (
	ErrLectureTimeOrder   = model.ErrTimeOrder
	ErrLectureInvalidSlot = errors.New("课次时间段无效")
	ErrClassroomConflict  = errors.New("教室在该时间段已被占用")
	ErrLecturerConflict   = errors.New("讲师在该时间段已有课次")
)

// ConflictKind 冲突类型
type ConflictKind string

const (
	ConflictClassroom ConflictKind = "classroom"
	ConflictLecturer  ConflictKind = "lecturer"
)

// Conflict 与候选时间段重叠的已有课次
type Conflict struct {
	Kind    ConflictKind
	Lecture model.Lecture
}

// ConflictError 列出候选时间段的全部冲突
// errors.Is 可同时匹配 ErrClassroomConflict 与 ErrLecturerConflict
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	msgs := make([]string, 0, 2)
	for _, err := range e.Unwrap() {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "；")
}

// Unwrap 返回出现过的冲突类型对应的哨兵错误
func (e *ConflictError) Unwrap() []error {
	var errs []error
	if e.Has(ConflictClassroom) {
		errs = append(errs, ErrClassroomConflict)
	}
	if e.Has(ConflictLecturer) {
		errs = append(errs, ErrLecturerConflict)
	}
	return errs
}

// Has 是否包含指定类型的冲突
func (e *ConflictError) Has(kind ConflictKind) bool {
	for _, c := range e.Conflicts {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Details 转换为接口返回的冲突明细
func (e *ConflictError) Details() []dto.ConflictDetail {
	details := make([]dto.ConflictDetail, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		details = append(details, dto.ConflictDetail{
			Kind:        string(c.Kind),
			LectureID:   c.Lecture.LectureID,
			ClassroomID: c.Lecture.ClassroomID,
			LecturerID:  c.Lecture.LecturerID(),
			DayOfWeek:   c.Lecture.DayOfWeek.String(),
			StartTime:   clockText(c.Lecture.StartTime),
			EndTime:     clockText(c.Lecture.EndTime),
			IsCanceled:  c.Lecture.IsCanceled,
		})
	}
	return details
}

// LectureSlot 待检测的课次时间段
type LectureSlot struct {
	ClassroomID string
	LecturerID  string
	Interval    model.Interval
}

// validateInterval 将区间校验错误转换为课次业务错误
func validateInterval(iv model.Interval) error {
	if err := iv.Validate(); err != nil {
		if errors.Is(err, model.ErrTimeOrder) {
			return ErrLectureTimeOrder
		}
		return fmt.Errorf("%w: %v", ErrLectureInvalidSlot, err)
	}
	return nil
}

// CheckSlot 检测 slot 与 existing 的冲突，excludeID 为修改中的课次自身
//
// 时间顺序错误直接返回，不再检测冲突。
// existing 中的课次不论是否取消、是否出现在激活课表中都参与检测。
// 同一课次可能同时造成教室冲突与讲师冲突，两条都会列出。
func CheckSlot(slot LectureSlot, existing []model.Lecture, excludeID string) error {
	if err := validateInterval(slot.Interval); err != nil {
		return err
	}

	var conflicts []Conflict
	for _, other := range existing {
		if excludeID != "" && other.LectureID == excludeID {
			continue
		}
		otherIv, err := other.Interval()
		if err != nil {
			return fmt.Errorf("解析课次 %s 时间段失败: %w", other.LectureID, err)
		}
		if !slot.Interval.Overlaps(otherIv) {
			continue
		}
		if other.ClassroomID == slot.ClassroomID {
			conflicts = append(conflicts, Conflict{Kind: ConflictClassroom, Lecture: other})
		}
		if slot.LecturerID != "" && other.LecturerID() == slot.LecturerID {
			conflicts = append(conflicts, Conflict{Kind: ConflictLecturer, Lecture: other})
		}
	}

	if len(conflicts) == 0 {
		return nil
	}
	return &ConflictError{Conflicts: conflicts}
}

// parseSlot 由接口编码构造区间，不校验先后顺序
func parseSlot(day, start, end string) (model.Interval, error) {
	d, err := model.ParseWeekday(day)
	if err != nil {
		return model.Interval{}, fmt.Errorf("%w: %v", ErrLectureInvalidSlot, err)
	}
	iv, err := model.NewInterval(d, start, end)
	if err != nil {
		return model.Interval{}, fmt.Errorf("%w: %v", ErrLectureInvalidSlot, err)
	}
	return iv, nil
}

// clockText 将数据库 time 文本统一为 "HH:MM"，秒不为零时为 "HH:MM:SS"
func clockText(s string) string {
	c, err := model.ParseClock(s)
	if err != nil {
		return s
	}
	return c.String()
}
