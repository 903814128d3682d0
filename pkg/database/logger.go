package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// zerologGorm adapts zerolog to gorm's logger.Interface.
type zerologGorm struct {
	log           zerolog.Logger
	slowThreshold time.Duration
}

// NewLogger returns a gorm logger writing to log. Statements slower than
// slowThreshold (default 200ms) are logged at warn.
func NewLogger(log zerolog.Logger, slowThreshold time.Duration) logger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &zerologGorm{log: log.With().Str("component", "gorm").Logger(), slowThreshold: slowThreshold}
}

func (l *zerologGorm) LogMode(level logger.LogLevel) logger.Interface {
	next := *l
	switch level {
	case logger.Silent:
		next.log = l.log.Level(zerolog.Disabled)
	case logger.Error:
		next.log = l.log.Level(zerolog.ErrorLevel)
	case logger.Warn:
		next.log = l.log.Level(zerolog.WarnLevel)
	}
	return &next
}

func (l *zerologGorm) Info(_ context.Context, msg string, args ...interface{}) {
	l.log.Info().Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologGorm) Warn(_ context.Context, msg string, args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologGorm) Error(_ context.Context, msg string, args ...interface{}) {
	l.log.Error().Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologGorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query failed")
	case elapsed > l.slowThreshold:
		l.log.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow query")
	default:
		l.log.Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
	}
}
