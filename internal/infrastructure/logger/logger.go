package logger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/focuswin/core/internal/infrastructure/config"
)

// Logger is the application logger, a sugared zap logger with a few
// FocusWin-specific helpers
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger from config. Format "json" selects the production
// encoder; anything else gets the human-readable development encoder.
func New(cfg config.LoggerConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := baseConfig(cfg.Format)
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zc.OutputPaths, zc.ErrorOutputPaths = []string{"stdout"}, []string{"stderr"}
	if cfg.Output == "file" && cfg.Filename != "" {
		zc.OutputPaths, zc.ErrorOutputPaths = []string{cfg.Filename}, []string{cfg.Filename}
	}

	// Skip the wrapper so callers show up as the log site.
	base, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

func baseConfig(format string) zap.Config {
	if format == "json" {
		return zap.NewProductionConfig()
	}
	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zc
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key-value pairs
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.With("component", component)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With("request_id", requestID)
}

func (l *Logger) WithUserID(userID uuid.UUID) *Logger {
	return l.With("user_id", userID.String())
}

// RequestLine is one served HTTP request
type RequestLine struct {
	RequestID string
	Method    string
	Path      string
	IP        string
	Status    int
	Latency   time.Duration
}

// LogRequest writes one line per request, at warn for client errors and
// error for server errors
func (l *Logger) LogRequest(r RequestLine) {
	kv := []interface{}{
		"request_id", r.RequestID,
		"method", r.Method,
		"path", r.Path,
		"status", r.Status,
		"duration_ms", float64(r.Latency.Microseconds()) / 1000,
		"ip", r.IP,
	}

	switch {
	case r.Status >= 500:
		l.Errorw("http request", kv...)
	case r.Status >= 400:
		l.Warnw("http request", kv...)
	default:
		l.Infow("http request", kv...)
	}
}

// LogUserAction records a state change made on behalf of a user
func (l *Logger) LogUserAction(userID uuid.UUID, action string, keysAndValues ...interface{}) {
	l.WithUserID(userID).Infow("user action", append([]interface{}{"action", action}, keysAndValues...)...)
}

// LogSecurityEvent records a failed or suspicious authentication attempt
func (l *Logger) LogSecurityEvent(event, ip string, keysAndValues ...interface{}) {
	l.Warnw("security event", append([]interface{}{"security_event", event, "ip", ip}, keysAndValues...)...)
}

// Close flushes buffered entries
func (l *Logger) Close() error {
	return l.Sync()
}
