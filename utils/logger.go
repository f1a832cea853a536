package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// ParseLevel maps a LOG_LEVEL value onto a fiber log level. Unknown values fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "fatal":
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}

// SetupLogger configures the default fiber logger. When file is set, output goes to both stdout and
// the file; the returned writer is what access logs should use and closer must be called on shutdown.
func SetupLogger(level, file string) (out io.Writer, closer func() error, err error) {
	log.SetLevel(ParseLevel(level))

	if file == "" {
		log.SetOutput(os.Stdout)
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	out = io.MultiWriter(os.Stdout, f)
	log.SetOutput(out)
	return out, f.Close, nil
}
