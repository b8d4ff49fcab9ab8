package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// Setup routes the fiber logger to stdout and, when path is set, appends to
// the given log file as well. The returned func closes the file.
func Setup(path, level string) (func() error, error) {
	var out io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if strings.TrimSpace(path) != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("open log file %s: %w", path, err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = f.Close
	}

	log.SetOutput(out)
	log.SetLevel(ParseLevel(level))
	return closeFn, nil
}

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
	default:
		return log.LevelInfo
	}
}
