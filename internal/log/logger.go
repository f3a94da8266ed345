// Package log is the structured logging layer for filesorter. It wraps
// logrus with a fixed line format, colored console output and an optional
// uncolored file copy. Components receive a Sink; only the composition root
// builds a Logger.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperr "filesorter/internal/errors"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// DefaultTimeFormat is the strftime layout used when none is configured.
const DefaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// Field is a single structured key/value attached to log lines.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Sink is the event emission capability the sorting components depend on.
type Sink interface {
	With(fields ...Field) Sink
	WithError(err error) Sink
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Logger implements Sink on top of a logrus entry.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

var _ Sink = (*Logger)(nil)

type options struct {
	out        io.Writer
	file       string
	level      logrus.Level
	timeFormat string
	json       bool
	color      *bool
}

// Option configures a Logger
type Option func(*options)

// WithOutput sets the console writer (stdout by default)
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithFile adds an uncolored copy of every line to the file at path
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel sets the minimum level
func WithLevel(level logrus.Level) Option {
	return func(o *options) { o.level = level }
}

// WithTimeFormat sets the strftime layout for timestamps
func WithTimeFormat(strftime string) Option {
	return func(o *options) { o.timeFormat = strftime }
}

// WithJSON switches the console output to JSON lines
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithColor forces console colors on or off
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = &enabled }
}

// Setup builds the process logger. It is called once by the CLI; the
// returned Logger must be closed to release the log file.
func Setup(opts ...Option) (*Logger, error) {
	o := options{
		out:        os.Stdout,
		level:      logrus.InfoLevel,
		timeFormat: DefaultTimeFormat,
	}
	for _, opt := range opts {
		opt(&o)
	}

	color := false
	if o.color != nil {
		color = *o.color
	} else if f, ok := o.out.(*os.File); ok {
		color = ColorEnabled(f)
	}

	base := logrus.New()
	base.SetOutput(o.out)
	base.SetLevel(o.level)
	layout := TimeLayout(o.timeFormat)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: layout,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&lineFormatter{timeLayout: layout, color: color})
	}

	l := &Logger{entry: logrus.NewEntry(base)}
	if o.file != "" {
		f, err := openLogFile(o.file)
		if err != nil {
			return nil, apperr.NewFileError("failed to open log file", o.file, apperr.FileAccessDenied, err)
		}
		base.AddHook(newFileHook(f, &lineFormatter{timeLayout: layout}))
		l.file = f
	}
	return l, nil
}

// NewLogger builds a Logger and falls back to console-only output when the
// log file cannot be opened.
func NewLogger(opts ...Option) *Logger {
	l, err := Setup(opts...)
	if err == nil {
		return l
	}
	fallback, _ := Setup(append(opts, WithFile(""))...)
	fallback.WithError(err).Warnf("Logging to console only")
	return fallback
}

// FromLogrus adapts an existing logrus logger, e.g. the null logger from
// logrus/hooks/test.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return FromLogrus(l)
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (logrus.Level, error) {
	return logrus.ParseLevel(strings.TrimSpace(s))
}

// ColorEnabled reports whether colored output should be written to f.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a Sink carrying additional fields
func (l *Logger) With(fields ...Field) Sink {
	return l.with(fields...)
}

func (l *Logger) with(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), file: l.file}
}

// WithError attaches err, and its kind for application errors.
func (l *Logger) WithError(err error) Sink {
	if err == nil {
		return l.with(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error())}
	if kind := apperr.KindOf(err); kind != apperr.Unknown {
		fields = append(fields, F("error_kind", kind.String()))
	}
	return l.with(fields...)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

// Warnf logs a formatted message at warning level
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
