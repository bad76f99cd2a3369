package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campus-timetable/backend/config"
)

// NewLogger 按配置构建排课服务的根日志器。
// json 格式面向日志采集，关闭采样以免冲突告警被丢弃；console 格式用于本地调试。
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("日志级别 %q 不合法: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.Sampling = nil
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("日志格式 %q 不支持，可选 json 或 console", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败（输出 %q）: %w", cfg.Output, err)
	}

	return logger.Named("timetable").With(zap.String("service", "campus-timetable")), nil
}
