package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "error"

// Levels lists the accepted --log-level values.
var Levels = []string{"debug", "info", "warning", "error", "critical"}

// ParseLevel accepts zap level names plus "warning" and "critical",
// case-insensitively. An empty string yields DefaultLevel.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		s = DefaultLevel
	case "warning":
		s = "warn"
	case "critical":
		s = "fatal"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q (expected one of: %s)", s, strings.Join(Levels, ", "))
	}
	return lvl, nil
}

// New returns a console logger writing to w (stderr when nil). The returned
// level can be changed later, e.g. once --log-level is parsed.
func New(w io.Writer, level string) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atom := zap.NewAtomicLevelAt(lvl)
	if w == nil {
		w = os.Stderr
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		atom,
	)
	return zap.New(core).Named("camundactl"), atom, nil
}
