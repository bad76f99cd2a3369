package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold 超过该耗时的 SQL 以 Warn 级别输出
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger 将 GORM 日志转发到 Zap
type GormLogger struct {
	zl    *zap.Logger
	level gormlogger.LogLevel
}

// NewGormLogger 按应用日志级别创建 GORM 日志适配器
// debug 级别输出全部 SQL；info/warn 仅输出慢查询与错误；其余只输出错误
func NewGormLogger(zl *zap.Logger, appLevel string) *GormLogger {
	return &GormLogger{
		zl:    zl.WithOptions(zap.AddCallerSkip(3)).Named("gorm"),
		level: GormLevel(appLevel),
	}
}

// GormLevel 将应用日志级别映射为 GORM 日志级别
func GormLevel(appLevel string) gormlogger.LogLevel {
	switch appLevel {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.zl.Sugar().Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.zl.Sugar().Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.zl.Sugar().Errorf(msg, args...)
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	// 记录不存在属于正常业务分支，不作为错误输出
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.zl.Error("SQL 执行失败",
			zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.zl.Warn("慢查询",
			zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.zl.Debug("SQL",
			zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}
