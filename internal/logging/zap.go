package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapCore forwards zap log entries to a Logger, so libraries speaking
// zap share the service's log stream and level filtering.
type zapCore struct {
	logger *Logger
	fields []zapcore.Field
}

// NewZap wraps a Logger in a *zap.Logger.
func NewZap(logger *Logger) *zap.Logger {
	return zap.New(&zapCore{logger: logger})
}

func zapLevelTo(level zapcore.Level) LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.WarnLevel:
		return WarnLevel
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (c *zapCore) Enabled(level zapcore.Level) bool {
	return c.logger.shouldLog(zapLevelTo(level))
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &zapCore{logger: c.logger, fields: merged}
}

func (c *zapCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *zapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	switch zapLevelTo(entry.Level) {
	case DebugLevel:
		c.logger.Debug(entry.Message, enc.Fields)
	case WarnLevel:
		c.logger.Warn(entry.Message, enc.Fields)
	case ErrorLevel:
		c.logger.Error(entry.Message, enc.Fields)
	default:
		c.logger.Info(entry.Message, enc.Fields)
	}
	return nil
}

func (c *zapCore) Sync() error {
	return nil
}
