package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Setup configures the standard logrus logger. When file is set, output goes
// to both stderr and the file; the returned closer releases it.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("Setup: invalid log level %q: %w", level, err)
	}

	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if file == "" {
		logrus.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("Setup: failed to open log file %s: %w", file, err)
	}

	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// LogrusLogger routes gorm's SQL logging through logrus.
type LogrusLogger struct {
	logger *logrus.Logger
	level  logger.LogLevel
}

func NewLogrusLogger(l *logrus.Logger, level logger.LogLevel) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}

	return &LogrusLogger{
		logger: l,
		level:  level,
	}
}

func (l *LogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.level = level
	return &newLogger
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.WithContext(ctx).Infof(msg, data...)
	}
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.WithContext(ctx).Warnf(msg, data...)
	}
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.WithContext(ctx).Errorf(msg, data...)
	}
}

func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"elapsed": elapsed,
		"rows":    rows,
		"sql":     sql,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		entry.Error(err)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		entry.Warn("SLOW SQL >= 200ms")
	case l.level >= logger.Info:
		entry.Debug("SQL")
	}
}
