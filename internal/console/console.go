// Package console carries the status lines an import run reports to its
// caller. Each line is classified as normal status or error.
package console

import (
	"sync"

	"go.uber.org/zap"
)

// Kind classifies a status line.
type Kind int

const (
	KindStatus Kind = iota
	KindError
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "status"
}

// Line is one reported status line.
type Line struct {
	Kind Kind
	Text string
}

// Console receives status lines.
type Console interface {
	Status(msg string)
	Error(msg string)
}

// Recorder stores lines in memory. Safe for use by a background run while
// the foreground drains it.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
	read  int
}

// Status records a normal line.
func (r *Recorder) Status(msg string) { r.add(KindStatus, msg) }

// Error records an error line.
func (r *Recorder) Error(msg string) { r.add(KindError, msg) }

func (r *Recorder) add(kind Kind, msg string) {
	r.mu.Lock()
	r.lines = append(r.lines, Line{Kind: kind, Text: msg})
	r.mu.Unlock()
}

// Lines returns a copy of every recorded line.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Drain returns the lines recorded since the previous Drain.
func (r *Recorder) Drain() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Line(nil), r.lines[r.read:]...)
	r.read = len(r.lines)
	return out
}

// Errors returns the text of every error line.
func (r *Recorder) Errors() []string {
	var out []string
	for _, l := range r.Lines() {
		if l.Kind == KindError {
			out = append(out, l.Text)
		}
	}
	return out
}

// Tee forwards every line to all consoles.
type Tee []Console

// Status forwards a normal line.
func (t Tee) Status(msg string) {
	for _, c := range t {
		c.Status(msg)
	}
}

// Error forwards an error line.
func (t Tee) Error(msg string) {
	for _, c := range t {
		c.Error(msg)
	}
}

// LogConsole mirrors status lines into a zap logger: status lines at info,
// errors at error level.
type LogConsole struct {
	log *zap.Logger
}

// NewLogConsole creates a console that writes to log.
func NewLogConsole(log *zap.Logger) *LogConsole {
	return &LogConsole{log: log}
}

// Status logs a normal line.
func (c *LogConsole) Status(msg string) {
	c.log.Info(msg)
}

// Error logs an error line.
func (c *LogConsole) Error(msg string) {
	c.log.Error(msg)
}
