package logger

import "log"

// A LoggerOptFn is a functional option configuring a StdLogger when constructing a new one.
type LoggerOptFn func(*StdLogger)

// WithEnv sets the environment StdLogger is operating in.
func WithEnv(env string) LoggerOptFn {
	return func(l *StdLogger) {
		l.env = env
	}
}

// WithKind tags every message with the kind of process logging it,
// e.g., retention.WorkerLogKind.
func WithKind(kind string) LoggerOptFn {
	return func(l *StdLogger) {
		l.kind = kind
	}
}

// WithLevel sets the log level StdLogger uses.
func WithLevel(level LogLevel) LoggerOptFn {
	return func(l *StdLogger) {
		if level != LogLevelUnk {
			l.ll = level
		}
	}
}

// WithLogger sets the log.Logger StdLogger uses.
func WithLogger(log *log.Logger) LoggerOptFn {
	return func(l *StdLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) LoggerOptFn {
	return func(l *StdLogger) {
		l.skip = skip
	}
}
