package simserver

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// session is one accepted client connection: its receive buffer, its at
// most one active monitor subscription, and enough state for the event
// loop to drive it without blocking. It is only ever touched from the
// server's single goroutine (spec.md §5).
type session struct {
	conn          net.Conn
	id            uuid.UUID // assigned at accept time; correlates commands in logs/audit rows
	buf           []byte    // bytes read but not yet forming a complete line
	cmdBufferSize int       // CMD_BUFFER_SIZE (spec.md §6), fixed for this session's lifetime

	monitoring bool
	monitorPV  string
	intervalMS int64
	lastPush   time.Time
}

func newSession(conn net.Conn, cmdBufferSize int) *session {
	return &session{conn: conn, id: uuid.New(), buf: make([]byte, 0, cmdBufferSize), cmdBufferSize: cmdBufferSize}
}

func (s *session) close() {
	s.conn.Close()
}

// takeLine extracts the first complete "\n"-terminated line from the
// session buffer, stripping a trailing "\r" too, and reports whether one
// was found. The consumed bytes (including the newline) are removed
// from buf.
func (s *session) takeLine() (string, bool) {
	for i, b := range s.buf {
		if b == '\n' {
			line := string(s.buf[:i])
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			rest := append([]byte(nil), s.buf[i+1:]...)
			s.buf = rest
			return line, true
		}
	}
	return "", false
}

// appendOverflows reports whether appending n more bytes would exceed
// CMD_BUFFER_SIZE without the client having sent a newline; n counts the
// new bytes up to (not including) the first newline among them, if any.
// The caller must close the session when this is true (spec.md §6).
func (s *session) appendOverflows(n int) bool {
	return len(s.buf)+n > s.cmdBufferSize
}
