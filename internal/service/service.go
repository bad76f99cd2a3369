package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campus-timetable/backend/config"
	"campus-timetable/backend/internal/repository"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// ErrStoreUnavailable 存储层失败，调用方可稍后重试
var ErrStoreUnavailable = pkgerrors.ErrStoreUnavailable

// Service 所有 Service 的聚合入口
type Service struct {
	Classroom ClassroomService
	Course    CourseService
	Lecture   LectureService
	Timetable TimetableService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) *Service {
	// Load 时已校验时区
	loc, err := cfg.Schedule.Location()
	if err != nil {
		loc = time.Local
	}

	return &Service{
		Classroom: NewClassroomService(repo, cfg.Schedule.DerivedSuffix, logger),
		Course:    NewCourseService(repo, logger),
		Lecture:   NewLectureService(repo, loc, logger),
		Timetable: NewTimetableService(repo, logger),
		Export:    NewExportService(repo, logger),
	}
}

// storeError 记录存储层错误并包装为 ErrStoreUnavailable，已包装的错误原样返回
// 原始错误保留在链上，事务据此判断是否可重试
func storeError(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}
