package logx

import (
	"fmt"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger(LoadFromEnv()))
}

func SetDefaultLogger(l *Logger) { defaultLogger.Store(l) }

func Default() *Logger { return defaultLogger.Load() }

func SetLevel(level Level) { Default().SetLevel(level) }

func Sync() error { return Default().Sync() }

// ============================================================================
// Package-level logging
// ============================================================================

func Debug(msg string) { Default().log(LevelDebug, msg, nil, nil) }
func Info(msg string)  { Default().log(LevelInfo, msg, nil, nil) }
func Warn(msg string)  { Default().log(LevelWarn, msg, nil, nil) }
func Error(msg string) { Default().log(LevelError, msg, nil, nil) }

// Fatal logs and exits the process.
func Fatal(msg string) { Default().log(LevelFatal, msg, nil, nil) }

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }
func Fatalf(format string, args ...any) { Fatal(fmt.Sprintf(format, args...)) }

func WithField(key string, value any) *Entry { return newEntry(Default()).WithField(key, value) }
func WithFields(fields Fields) *Entry        { return newEntry(Default()).WithFields(fields) }
func WithError(err error) *Entry             { return newEntry(Default()).WithError(err) }
