package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"membership-app-go/pkg/logger"
)

// gormLog routes gorm's query log into the service logger. Only failed and
// slow statements are reported; not-found lookups are ordinary control flow
// for the repositories and stay quiet.
type gormLog struct {
	log           logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLog(log logger.Logger, slowThreshold time.Duration) *gormLog {
	return &gormLog{log: log.With("component", "gorm"), level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (l *gormLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLog) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info("db: " + fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn("db: " + fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error("db: " + fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, context.Canceled):
		sql, rows := fc()
		l.log.InternalError("db: query failed", err, "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn("db: slow query", "elapsed_ms", elapsed.Milliseconds(), "threshold_ms", l.slowThreshold.Milliseconds(), "rows", rows, "sql", sql)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug("db: query", "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	}
}
