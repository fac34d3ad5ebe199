package pointmorph

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a logger that tags every line with component and shares
	// the parent's outputs and debug switch.
	With(component string) Logger
}

type logSink struct {
	mu    sync.Mutex
	debug bool
	out   *log.Logger
	err   *log.Logger
}

type DefaultLogger struct {
	sink      *logSink
	prefix    string
	component string
}

// NewDefaultLogger writes info and debug lines to stdout, warnings and
// errors to stderr.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewWriterLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		sink: &logSink{
			debug: debug,
			out:   log.New(out, "", flags),
			err:   log.New(errOut, "", flags),
		},
		prefix: prefix,
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.sink.mu.Lock()
	l.sink.debug = enabled
	l.sink.mu.Unlock()
}

func (l *DefaultLogger) With(component string) Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &DefaultLogger{sink: l.sink, prefix: l.prefix, component: component}
}

func (l *DefaultLogger) line(level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	switch {
	case l.prefix != "" && l.component != "":
		return fmt.Sprintf("[%s] %s %s: %s", l.prefix, level, l.component, msg)
	case l.prefix != "":
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	case l.component != "":
		return fmt.Sprintf("%s %s: %s", level, l.component, msg)
	}
	return fmt.Sprintf("%s: %s", level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.sink.out.Print(l.line("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.sink.out.Print(l.line("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.sink.err.Print(l.line("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.sink.err.Print(l.line("ERROR", format, args...))
}

// LoggingModule installs the app logger. Install it first so later modules
// pick it up.
type LoggingModule struct {
	Prefix string
	Debug  bool
	// Out and Err default to stdout and stderr.
	Out, Err io.Writer
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	out, errOut := m.Out, m.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	app.addResources(NewWriterLogger(out, errOut, m.Prefix, m.Debug))
}

type nopLogger struct{}

func NewNopLogger() Logger              { return nopLogger{} }
func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (n nopLogger) With(string) Logger  { return n }

// Logger returns the installed logger, or a no-op logger. Never nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	if l, ok := GetResource[DefaultLogger](app); ok {
		return l
	}
	return NewNopLogger()
}
