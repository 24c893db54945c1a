// Package log provides structured logging for pltintercept using zap: a
// thin *zap.Logger wrapper with domain-specific helper methods instead of
// call sites scattering zap.String/zap.Uint64 everywhere.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with pltintercept-specific helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance. Never nil: package initialization
	// assigns a non-debug default, which the first Init call replaces.
	L    *Logger
	once sync.Once
)

func init() {
	L = New(false)
}

// Init initializes the global logger with the given configuration. Safe
// to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger, useful in tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Resolved logs a successful symbol resolution.
func (l *Logger) Resolved(name string, addr uintptr) {
	l.Debug("resolved", zap.String("fn", name), Addr(addr))
}

// ResolveMiss logs a symbol that no loaded object defines.
func (l *Logger) ResolveMiss(name string) {
	l.Debug("unresolved", zap.String("fn", name))
}

// ObjectSkipped logs an object that a per-object scan skipped (the VDSO,
// or one carrying no usable dynamic segment).
func (l *Logger) ObjectSkipped(bias uintptr, reason string) {
	l.Debug("object skipped", Addr(bias), zap.String("reason", reason))
}

// Patched logs how many GOT cells a patch touched for a symbol.
func (l *Logger) Patched(name string, addr uintptr, count int) {
	l.Debug("patched",
		zap.String("fn", name),
		Addr(addr),
		zap.Int("cells", count),
	)
}

// Hex formats a uintptr as a 0x-prefixed hex string for logging.
func Hex(addr uintptr) string {
	const digits = "0123456789abcdef"
	if addr == 0 {
		return "0x0"
	}
	buf := make([]byte, 18)
	i := len(buf)
	v := uint64(addr)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	i -= 2
	buf[i], buf[i+1] = '0', 'x'
	return string(buf[i:])
}

// Addr creates an address field.
func Addr(addr uintptr) zap.Field {
	return zap.String("addr", Hex(addr))
}
