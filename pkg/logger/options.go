package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
)

type SourceFileMode int

const (
	// Nop does nothing.
	Nop SourceFileMode = iota

	// ShortFile produces only the filename (for example main.go:69).
	ShortFile

	// LongFile produces the full file path (for example /home/frajer/go/src/myapp/main.go:69).
	LongFile
)

type Options struct {
	// Level reports the minimum level to log.
	// If nil, the Handler uses [slog.LevelInfo].
	Level slog.Leveler

	// TimeFormat is the time format.
	TimeFormat string

	// SrcFileMode is the source file mode.
	SrcFileMode SourceFileMode

	// MsgPrefix to show prefix before message, default: white colored "| ".
	MsgPrefix string

	// MsgColor is the color of the message, default to empty.
	MsgColor *color.Color

	// NoColor disables color, default: false.
	NoColor bool
}

var DefaultOptions = &Options{
	Level:       slog.LevelInfo,
	TimeFormat:  time.DateTime,
	SrcFileMode: ShortFile,
	MsgPrefix:   color.HiWhiteString("| "),
	MsgColor:    color.New(),
}

// NewOptions derives handler options from textual settings such as LOG_LEVEL.
func NewOptions(level string, noColor bool) (*Options, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := *DefaultOptions
	opts.Level = lvl
	opts.NoColor = noColor
	return &opts, nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
