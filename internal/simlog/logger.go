// Package simlog provides the simulator's leveled, timestamped logger.
//
// It wraps the standard library's log.Logger the way the rest of this
// codebase's teacher lineage does (plain log.Printf calls throughout
// internal/servermgr and cmd/server), adding the level tag and gating
// that spec.md's utilities component calls for. It must never be called
// from a signal handler; see internal/supervisor.
package simlog

import (
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// timestampFormat matches spec.md's "YYYY-MM-DD HH:MM:SS" local-time requirement.
const timestampFormat = "2006-01-02 15:04:05"

// Level is one of the four severities the simulator logs at.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) tag() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "???"
	}
}

// Logger emits level-tagged, timestamped lines through a standard log.Logger.
// The minimum level is adjustable at runtime (atomic, safe for concurrent use).
type Logger struct {
	std *log.Logger
	min atomic.Int32
}

// New creates a Logger with the given prefix (e.g. "registry: ") writing to w.
// If w is nil, os.Stderr is used. Default minimum level is Info.
func New(prefix string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := &Logger{std: log.New(w, prefix, 0)}
	l.min.Store(int32(LevelInfo))
	return l
}

// SetMinLevel changes the minimum level that will be emitted.
func (l *Logger) SetMinLevel(lv Level) { l.min.Store(int32(lv)) }

func (l *Logger) enabled(lv Level) bool { return int32(lv) >= l.min.Load() }

func (l *Logger) logf(lv Level, format string, args ...any) {
	if !l.enabled(lv) {
		return
	}
	msg := lv.tag() + " " + time.Now().Format(timestampFormat) + " " + format
	l.std.Printf(msg, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// Default is the package-level logger used where a component-specific
// logger has not been wired in explicitly.
var Default = New("", nil)
