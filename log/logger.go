// Package log provides named, leveled loggers backed by go-logging.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/op/go-logging"
)

type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var names = map[string]Level{
	"debug":   Debug,
	"info":    Info,
	"notice":  Notice,
	"warning": Warning,
	"error":   Error,
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level:.4s}]%{color:reset} %{message}`,
)

var backend logging.LeveledBackend

// Logger is implemented by *logging.Logger.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the logger for a module. Loggers with the same name share
// their level.
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// SetSink redirects every logger to sink and resets all levels to Notice.
func SetSink(sink io.Writer) {
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(logging.NOTICE, "")
	logging.SetBackend(backend)
}

// SetLevel sets the default verbosity. Modules with their own level keep it.
func SetLevel(level Level) {
	backend.SetLevel(levels[level], "")
}

// SetModuleLevel sets the verbosity of a single module.
func SetModuleLevel(module string, level Level) {
	backend.SetLevel(levels[level], module)
}

// ParseLevel accepts the lowercase level names, e.g. "warning".
func ParseLevel(name string) (Level, error) {
	level, ok := names[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// ParseModuleLevel parses a "module=level" pair.
func ParseModuleLevel(s string) (string, Level, error) {
	module, name, ok := strings.Cut(s, "=")
	if !ok || module == "" {
		return "", 0, errors.Errorf("expected module=level, got %q", s)
	}
	level, err := ParseLevel(name)
	return module, level, err
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	l := logging.MustGetLogger("discard")
	quiet := logging.AddModuleLevel(logging.NewLogBackend(io.Discard, "", 0))
	quiet.SetLevel(logging.CRITICAL, "")
	l.SetBackend(quiet)
	return l
}

func init() {
	SetSink(os.Stderr)
}
