package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// badKey labels a trailing value that has no key.
const badKey = "!BADKEY"

type LogrusLogger struct {
	e *logrus.Entry
}

func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{e: logrus.NewEntry(l)}
}

// New builds a logger writing to w. level is any logrus level name; format
// is "text" or "json".
func New(level, format string, w io.Writer) (*LogrusLogger, error) {
	l := logrus.New()
	l.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return NewLogrusLogger(l), nil
}

// Discard returns a logger that drops everything.
func Discard() *LogrusLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewLogrusLogger(l)
}

func (s *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Debug(msg)
}

func (s *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Info(msg)
}

func (s *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Warn(msg)
}

func (s *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Error(msg)
}

func (s *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{e: s.e.WithFields(fields(args))}
}

func (s *LogrusLogger) entry(ctx context.Context, args []any) *logrus.Entry {
	e := s.e
	if ctx != nil {
		e = e.WithContext(ctx)
	}
	if len(args) > 0 {
		e = e.WithFields(fields(args))
	}
	return e
}

func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f[badKey] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
