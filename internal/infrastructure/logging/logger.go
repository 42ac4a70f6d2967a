package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application logger. Activity entries go to a separate
// named logger that may be written to its own file.
type Logger struct {
	*zap.Logger
	activity *zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
	// ActivityPaths receive activity entries as JSON lines. Empty means the
	// main outputs.
	ActivityPaths []string
}

// DefaultConfig returns production logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", OutputPaths: []string{"stdout"}}
}

// DevelopmentConfig returns development logger configuration.
func DevelopmentConfig() Config {
	return Config{Level: "debug", Development: true, OutputPaths: []string{"stdout"}}
}

// New builds a logger: colored console output in development, JSON otherwise.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	main, err := build(level, cfg.Development, outputs)
	if err != nil {
		return nil, err
	}
	if len(cfg.ActivityPaths) == 0 {
		return Wrap(main), nil
	}

	activity, err := build(zapcore.InfoLevel, false, cfg.ActivityPaths)
	if err != nil {
		main.Sync()
		return nil, fmt.Errorf("activity log: %w", err)
	}
	return &Logger{Logger: main, activity: activity.Named("activity")}, nil
}

func build(level zapcore.Level, development bool, outputs []string) (*zap.Logger, error) {
	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       development,
		Encoding:          encodingFormat(development),
		EncoderConfig:     encoderConfig(development),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !development,
	}
	return zc.Build()
}

// Wrap adapts an existing zap logger. Activity entries use its "activity" child.
func Wrap(logger *zap.Logger) *Logger {
	return &Logger{Logger: logger, activity: logger.Named("activity")}
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	logger, err := New(DefaultConfig())
	if err != nil {
		return NewNop()
	}
	return logger
}

// NewDevelopment creates a logger with development configuration.
func NewDevelopment() *Logger {
	logger, err := New(DevelopmentConfig())
	if err != nil {
		return NewNop()
	}
	return logger
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return Wrap(zap.NewNop())
}

// Activity records a user-visible file operation such as "upload" or
// "access_denied" with a human readable detail string.
func (l *Logger) Activity(action, detail string, fields ...zap.Field) {
	l.activity.Info(action, append([]zap.Field{zap.String("detail", detail)}, fields...)...)
}

// Sync flushes both loggers.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if l.activity != nil {
		err = errors.Join(err, l.activity.Sync())
	}
	return err
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(level)
}

func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return ec
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}
