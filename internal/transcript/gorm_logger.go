package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/teemow/workmate/internal/logging"
)

// SlowQueryThreshold marks queries logged at warn level.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm logs to slog. SQL text is logged at debug level
// only, so message bodies stay out of regular logs.
type GormLogger struct {
	logger *slog.Logger
	level  gormlogger.LogLevel
}

// NewGormLogger returns a gorm logger at warn level.
func NewGormLogger(logger *slog.Logger) *GormLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormLogger{
		logger: logging.WithOperation(logger, "transcript.db"),
		level:  gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		_, rows := fc()
		l.logger.ErrorContext(ctx, "query failed",
			logging.Err(err),
			slog.Int64("rows", rows),
			slog.Duration("duration", elapsed))
	case elapsed > SlowQueryThreshold && l.level >= gormlogger.Warn:
		_, rows := fc()
		l.logger.WarnContext(ctx, "slow query",
			slog.Int64("rows", rows),
			slog.Duration("duration", elapsed))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.DebugContext(ctx, "query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("duration", elapsed))
	}
}
