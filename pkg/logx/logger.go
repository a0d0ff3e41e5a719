package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields are structured key/value pairs attached to an entry.
type Fields map[string]any

// Logger wraps a zap logger behind the package's small API.
type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// NewLogger builds a logger writing to stdout.
func NewLogger(cfg Config) *Logger {
	level := zap.NewAtomicLevelAt(cfg.Level.zap())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	opts := []zap.Option{zap.AddCallerSkip(2)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)
	return &Logger{zl: zap.New(core, opts...), level: level}
}

// FromZap adapts an existing zap logger. Used by tests with an observer core.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{zl: zl.WithOptions(zap.AddCallerSkip(2)), level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func (l *Logger) SetLevel(level Level) { l.level.SetLevel(level.zap()) }

func (l *Logger) Level() Level {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.WarnLevel:
		return LevelWarn
	case zapcore.ErrorLevel:
		return LevelError
	case zapcore.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Zap exposes the underlying logger for libraries that take one.
func (l *Logger) Zap() *zap.Logger { return l.zl }

func (l *Logger) Sync() error { return l.zl.Sync() }

func (l *Logger) WithFields(fields Fields) *Entry { return newEntry(l).WithFields(fields) }

func (l *Logger) WithError(err error) *Entry { return newEntry(l).WithError(err) }

func (l *Logger) log(level Level, msg string, fields Fields, err error) {
	zf := make([]zap.Field, 0, len(fields)+1)
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	switch level {
	case LevelDebug:
		l.zl.Debug(msg, zf...)
	case LevelWarn:
		l.zl.Warn(msg, zf...)
	case LevelError:
		l.zl.Error(msg, zf...)
	case LevelFatal:
		l.zl.Fatal(msg, zf...)
	default:
		l.zl.Info(msg, zf...)
	}
}
