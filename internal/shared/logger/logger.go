package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"timeline/internal/shared/utils"

	"github.com/caarlos0/env/v6"
	"github.com/sirupsen/logrus"
)

const (
	logFormatJSON = "json"

	envProduction = "production"
	envProd       = "prod"

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// Config controls level and output format.
type Config struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Format      string `env:"LOG_FORMAT" envDefault:"text"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// LogrusLogger implements the Logger interface using logrus
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger configured from the environment.
func NewLogger() Logger {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		cfg = Config{Level: "info", Format: "text"}
	}
	return NewLoggerWithConfig(cfg, os.Stdout)
}

// NewLoggerWithConfig creates a logger writing to out.
func NewLoggerWithConfig(cfg Config, out io.Writer) Logger {
	logger := logrus.New()
	logger.SetLevel(parseLevel(cfg.Level))
	logger.SetFormatter(formatterFor(cfg))
	logger.SetOutput(out)

	return &LogrusLogger{
		entry: logrus.NewEntry(logger),
	}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *LogrusLogger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext copies request scoped values (request id, user id, locale) into the entry.
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	fields := logrus.Fields{}

	if id, err := utils.GetRequestIDFromContext(ctx); err == nil && id != "" {
		fields["request_id"] = id
	}
	if id, err := utils.GetUserIDFromContext(ctx); err == nil && id != "" {
		fields["user_id"] = id
	}
	if locale := utils.GetLocaleFromContext(ctx, ""); locale != "" {
		fields["locale"] = locale
	}

	return &LogrusLogger{
		entry: l.entry.WithFields(fields),
	}
}

// WithComponent adds component name to the logger
func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{
		entry: l.entry.WithField("component", component),
	}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func formatterFor(cfg Config) logrus.Formatter {
	if strings.ToLower(cfg.Format) == logFormatJSON || cfg.Environment == envProduction || cfg.Environment == envProd {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}

	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: textTimestamp,
	}
}

// NewNopLogger returns a Logger that discards everything. Used by tests and optional dependencies.
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})                          {}
func (nopLogger) Info(args ...interface{})                           {}
func (nopLogger) Warn(args ...interface{})                           {}
func (nopLogger) Error(args ...interface{})                          {}
func (nopLogger) Fatal(args ...interface{})                          {}
func (nopLogger) Debugf(format string, args ...interface{})          {}
func (nopLogger) Infof(format string, args ...interface{})           {}
func (nopLogger) Warnf(format string, args ...interface{})           {}
func (nopLogger) Errorf(format string, args ...interface{})          {}
func (nopLogger) Fatalf(format string, args ...interface{})          {}
func (n nopLogger) WithFields(fields map[string]interface{}) Logger  { return n }
func (n nopLogger) WithContext(ctx context.Context) Logger           { return n }
func (n nopLogger) WithComponent(component string) Logger            { return n }
