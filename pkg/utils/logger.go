package utils

import (
	"math"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func float64FromBits(bits int64) float64 {
	return math.Float64frombits(uint64(bits))
}

// LogConfig controls how InitLogger builds a Logger.
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, text/pretty
	Development bool
	Output      string // file path; empty means stderr
}

// Logger wraps zap with the field helpers the venue/spread/executor
// packages use for structured events.
type Logger struct {
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitLogger builds a Logger from config, falling back to stderr if the
// requested output path can't be opened.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "text" || cfg.Format == "pretty" {
		if cfg.Development {
			encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug", "DEBUG":
		return zapcore.DebugLevel
	case "info", "INFO":
		return zapcore.InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return zapcore.WarnLevel
	case "error", "ERROR":
		return zapcore.ErrorLevel
	case "fatal", "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetGlobalLogger returns the process-wide logger, lazily creating a
// default one on first use.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// InitGlobalLogger builds a logger from cfg and installs it as the global.
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger installs an already-built logger as the global one.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// L is shorthand for GetGlobalLogger.
func L() *Logger {
	return GetGlobalLogger()
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{Logger: child, sugar: child.Sugar()}
}

// WithComponent tags the logger with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithExchange tags the logger with a venue name.
func (l *Logger) WithExchange(name string) *Logger {
	return l.With(Exchange(name))
}

// WithSymbol tags the logger with a trading symbol.
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithPairID tags the logger with a bot/pair identifier.
func (l *Logger) WithPairID(id int) *Logger {
	return l.With(PairID(id))
}

// Sugar returns the sugared logger for printf-style calls.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.Logger.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.Logger.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.Logger.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.Logger.Error(msg, fields...) }

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) { GetGlobalLogger().Info(msg, fields...) }

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) { GetGlobalLogger().Warn(msg, fields...) }

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }

// Debugf logs a formatted message at debug level on the global logger.
func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }

// Infof logs a formatted message at info level on the global logger.
func Infof(format string, args ...interface{}) { GetGlobalLogger().sugar.Infof(format, args...) }

// Warnf logs a formatted message at warn level on the global logger.
func Warnf(format string, args ...interface{}) { GetGlobalLogger().sugar.Warnf(format, args...) }

// Errorf logs a formatted message at error level on the global logger.
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// Field constructors used across venue/spread/executor for consistent
// structured keys.
func Exchange(v string) zap.Field    { return zap.String("exchange", v) }
func Symbol(v string) zap.Field      { return zap.String("symbol", v) }
func PairID(v int) zap.Field         { return zap.Int("pair_id", v) }
func OrderID(v string) zap.Field     { return zap.String("order_id", v) }
func Price(v float64) zap.Field      { return zap.Float64("price", v) }
func Volume(v float64) zap.Field     { return zap.Float64("volume", v) }
func Spread(v float64) zap.Field     { return zap.Float64("spread", v) }
func PNL(v float64) zap.Field        { return zap.Float64("pnl", v) }
func Side(v string) zap.Field        { return zap.String("side", v) }
func State(v string) zap.Field       { return zap.String("state", v) }
func Latency(v float64) zap.Field    { return zap.Float64("latency_ms", v) }
func RequestID(v string) zap.Field   { return zap.String("request_id", v) }
func UserID(v int) zap.Field         { return zap.Int("user_id", v) }
func Component(v string) zap.Field   { return zap.String("component", v) }

// Re-exported zap field constructors so callers only need to import utils.
func String(key, val string) zap.Field             { return zap.String(key, val) }
func Int(key string, val int) zap.Field             { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field         { return zap.Int64(key, val) }
func Float64(key string, val float64) zap.Field     { return zap.Float64(key, val) }
func Bool(key string, val bool) zap.Field           { return zap.Bool(key, val) }
func Err(err error) zap.Field                       { return zap.Error(err) }
func Any(key string, val interface{}) zap.Field     { return zap.Any(key, val) }

// fieldsToInterface flattens zap fields into alternating key/value pairs,
// preserving order, for bridging into the sugared logger's variadic API.
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, fieldScalar(f))
	}
	return out
}

func fieldScalar(f zap.Field) interface{} {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.BoolType:
		return f.Integer == 1
	case zapcore.Float64Type:
		return float64FromBits(f.Integer)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return f.Integer
	default:
		return f.Interface
	}
}
