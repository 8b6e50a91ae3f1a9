package logger

import (
	"fmt"
	"log"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

const (
	knownFrames = 2
	callerTmpl  = "%s:%d"
)

var modulePathRegex = regexp.MustCompile("retention/.*$")

// The Logger interface defines the levels a logging can occur at.
type Logger interface {
	Debug(msg string, ctx *LogContext)
	Error(msg string, ctx *LogContext)
	Fatal(msg string, ctx *LogContext)
	Info(msg string, ctx *LogContext)
	Warn(msg string, ctx *LogContext)

	LogLevel() LogLevel
}

// The SkipLogger interface defines a Logger that scrolls back
// the number of frames provided in order to ascertain the call site.
type SkipLogger interface {
	AddSkip(i int) SkipLogger
	Skip() int
	Logger
}

type LogLevel int

const (
	LogLevelUnk LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// NewLogLevel parses val, case-insensitively, into a LogLevel.
func NewLogLevel(val string) LogLevel {
	switch strings.ToUpper(val) {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "FATAL":
		return LogLevelFatal
	default:
		return LogLevelUnk
	}
}

func (ll LogLevel) String() string {
	return map[LogLevel]string{
		LogLevelDebug: "[DEBUG]",
		LogLevelInfo:  "[INFO]",
		LogLevelWarn:  "[WARN]",
		LogLevelError: "[ERROR]",
		LogLevelFatal: "[FATAL]",
		LogLevelUnk:   "[UNK]",
	}[ll]
}

// StdLogger implements Logger using log.
type StdLogger struct {
	env  string
	kind string
	l    *log.Logger
	ll   LogLevel
	skip int
}

// New constructs a StdLogger.
//
// Logs are printed to os.Stdout by default, using the std lib log pkg.
// The default environment is DEVELOPMENT.
// The default log level is INFO.
func New(opts ...LoggerOptFn) *StdLogger {
	l := &StdLogger{
		env: "DEVELOPMENT",
		l:   log.New(os.Stdout, "", log.LstdFlags),
		ll:  LogLevelInfo,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewLogger constructs a Logger, wrapping a StdLogger in a SentryLogger when dsn is set.
func NewLogger(dsn string, opts ...LoggerOptFn) Logger {
	l := New(opts...)
	if dsn == "" {
		return l
	}

	l.Info("SENTRY_DSN set, configuring SentryLogger", nil)
	return NewSentryLogger(l, dsn)
}

// AddSkip replaces the current number of frames to scroll back
// when logging a message.
//
// Use Skip to get the current skip amount
// when needing to add to it with AddSkip.
func (l *StdLogger) AddSkip(i int) SkipLogger {
	newl := *l
	newl.skip = i
	return &newl
}

// Debug writes a debug log.
func (l *StdLogger) Debug(msg string, ctx *LogContext) {
	if l.ll > LogLevelDebug {
		return
	}

	l.log(color.WhiteString, LogLevelDebug, msg, ctx)
}

// Error writes an error log.
func (l *StdLogger) Error(msg string, ctx *LogContext) {
	if l.ll > LogLevelError {
		return
	}

	l.log(color.RedString, LogLevelError, msg, ctx)
}

// Fatal writes a fatal log.
func (l *StdLogger) Fatal(msg string, ctx *LogContext) {
	if l.ll > LogLevelFatal {
		return
	}

	l.log(color.MagentaString, LogLevelFatal, msg, ctx)
}

// Info writes an info log.
func (l *StdLogger) Info(msg string, ctx *LogContext) {
	if l.ll > LogLevelInfo {
		return
	}

	l.log(color.BlueString, LogLevelInfo, msg, ctx)
}

// Warn writes a warning log.
func (l *StdLogger) Warn(msg string, ctx *LogContext) {
	if l.ll > LogLevelWarn {
		return
	}

	l.log(color.YellowString, LogLevelWarn, msg, ctx)
}

// LogLevel returns the LogLevel set for the StdLogger.
func (l *StdLogger) LogLevel() LogLevel { return l.ll }

// Skip returns the current amount of frames to scroll back
// when logging a message.
func (l *StdLogger) Skip() int { return l.skip }

// log executes printing the log message,
// including any context if available.
func (l *StdLogger) log(colorizer func(string, ...any) string, level LogLevel, msg string, ctx *LogContext) {
	site := ""
	if ctx != nil && ctx.Caller != "" {
		site = ctx.Caller
	} else {
		// NOTE: skip the frames StdLogger adds
		// and however many the StdLogger is configured with
		_, file, line, _ := runtime.Caller(knownFrames + l.skip)
		site = fmt.Sprintf(callerTmpl, immediateFilepath(file), line)
	}

	prefix := level.String()
	if l.kind != "" {
		prefix += " " + l.kind
	}

	msg = colorizer("%s %s '%s'", prefix, site, msg)
	if ctx == nil {
		l.l.Println(msg)
		return
	}

	l.l.Println(msg, "log_context:", ctx)
}

// immediateFilepath trims file down to the path within this module
// or the file and the directory it is in, e.g.:
//
//	/home/dev/retention/lifecycle/handler.go => retention/lifecycle/handler.go
//	/home/dev/my-project/main.go => my-project/main.go
func immediateFilepath(file string) string {
	if match := modulePathRegex.FindString(file); match != "" {
		return match
	}

	fullPath, file := path.Split(file)
	return path.Base(fullPath) + "/" + file
}
