package cmdlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/jwalton/gchalk"
	"github.com/mattn/go-isatty"
)

// Logger loggs pretty stuff to the console
type Logger struct {
	out       io.Writer
	emojis    bool
	debug     bool
	indention int
	mu        *sync.Mutex
}

// helper for indention
func (l *Logger) println(a string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, strings.Repeat(" ", l.indention)+a)
}

func (l *Logger) sprintEmoji(e string) string {
	if l.emojis {
		return e + " "
	}
	return ""
}

// Headline prints a blue line
func (l *Logger) Headline(s string) {
	l.println(gchalk.WithCyan().Bold(s))
}

// Info prints a "normal" line
func (l *Logger) Info(s string) {
	l.println(s)
}

// Infof prints a formatted "normal" line
func (l *Logger) Infof(format string, a ...interface{}) {
	l.println(fmt.Sprintf(format, a...))
}

// Log prints a gray line
func (l *Logger) Log(s string) {
	l.println(gchalk.Gray(s))
}

// Debugf prints a gray line, but only in debug mode
func (l *Logger) Debugf(format string, a ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.println(gchalk.Gray("[debug] " + fmt.Sprintf(format, a...)))
}

// Warn will print a warning
func (l *Logger) Warn(s string) {
	if l == nil {
		return
	}
	l.println(l.sprintEmoji("⚠️ ") + gchalk.WithYellow().Bold(s))
}

// Warnf will print a formatted warning
func (l *Logger) Warnf(format string, a ...interface{}) {
	l.Warn(fmt.Sprintf(format, a...))
}

// SetDebug enables debug output
func (l *Logger) SetDebug(debug bool) {
	l.debug = debug
}

// NewTask returns a new Task logger
func (l *Logger) NewTask(end int) *Task {
	logger := *l
	logger.indention = 2
	return &Task{&logger, 0, end}
}

// New returns a new Logger writing to stdout
func New() *Logger {
	emojis := runtime.GOOS != "windows"

	// disable color for CI and pipes
	if os.Getenv("CI") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		emojis = false
		gchalk.SetLevel(gchalk.LevelNone)
	}
	return &Logger{out: os.Stdout, emojis: emojis, mu: &sync.Mutex{}}
}

// NewWithWriter returns a Logger without emojis writing to w
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{out: w, mu: &sync.Mutex{}}
}

// Discard returns a Logger that prints nothing
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

// Task logs but with progress
type Task struct {
	*Logger
	current int
	end     int
}

// Step prints progress
func (l *Task) Step(e string, s string) {
	l.current++
	text := gchalk.Cyan(fmt.Sprintf(
		"[%d / %d] %s%s",
		l.current,
		l.end,
		l.sprintEmoji(e),
		s,
	))

	// step headlines should have no indentation
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, text)
}
