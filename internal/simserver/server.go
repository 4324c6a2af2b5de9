// Package simserver implements spec.md §4.4: the listening socket, the
// fixed-size client table, non-blocking I/O multiplexing, and per-verb
// dispatch. The whole server runs on one goroutine calling RunOnce in a
// loop; see Server.Run. No registry state, session buffer, or client
// table is ever touched from a second goroutine (spec.md §5).
package simserver

import (
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"devicesim/internal/audit"
	"devicesim/internal/metrics"
	"devicesim/internal/protocol"
	"devicesim/internal/registry"
	"devicesim/internal/simlog"
)

// Defaults from spec.md §6, used when a zero Limits is passed to New.
const (
	DefaultPort            = 5064
	DefaultMaxClients      = 32
	DefaultCmdBufferSize   = 1024
	DefaultResponseBufSize = 4096
	DefaultTickPeriodMS    = 10
)

// Limits bounds the server's resource usage and tick cadence, sourced
// from internal/config's manifest (spec.md §6). A zero field takes the
// corresponding Default* constant.
type Limits struct {
	MaxClients      int
	CmdBufferSize   int
	ResponseBufSize int
	TickPeriodMS    int
}

func (l Limits) withDefaults() Limits {
	if l.MaxClients <= 0 {
		l.MaxClients = DefaultMaxClients
	}
	if l.CmdBufferSize <= 0 {
		l.CmdBufferSize = DefaultCmdBufferSize
	}
	if l.ResponseBufSize <= 0 {
		l.ResponseBufSize = DefaultResponseBufSize
	}
	if l.TickPeriodMS <= 0 {
		l.TickPeriodMS = DefaultTickPeriodMS
	}
	return l
}

// Server owns the listener, the registry it simulates, and the fixed
// table of active sessions.
type Server struct {
	listener net.Listener
	reg      *registry.Registry
	rng      registry.Rng
	log      *simlog.Logger
	audit    *audit.Log // nil when no audit path is configured
	limits   Limits

	sessions []*session // len <= limits.MaxClients

	lastTick     time.Time
	tickPeriod   time.Duration
	bufHighWater int // largest per-session receive buffer seen, for diagnostics

	// onTick runs synchronously at the end of RunOnce, after the
	// registry tick and monitor pushes, from this server's single
	// goroutine (spec.md §5). It lets the supervisor mirror registry
	// state (e.g. into the Modbus gateway) without a second goroutine
	// ever touching the registry.
	onTick func()
}

// New binds the listener immediately the way spec.md's startup sequence
// does, so construction failures surface before the event loop starts.
// auditLog may be nil, in which case accepted writes are not persisted.
func New(addr string, reg *registry.Registry, rng registry.Rng, log *simlog.Logger, auditLog *audit.Log, limits Limits) (*Server, error) {
	if log == nil {
		log = simlog.Default
	}
	limits = limits.withDefaults()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener:   ln,
		reg:        reg,
		rng:        rng,
		log:        log,
		audit:      auditLog,
		limits:     limits,
		lastTick:   time.Now(),
		tickPeriod: time.Duration(limits.TickPeriodMS) * time.Millisecond,
	}, nil
}

// SetTickHook installs fn to run once per RunOnce call, after the
// registry tick and monitor pushes, from the server's own goroutine.
// Must be called before Run starts.
func (s *Server) SetTickHook(fn func()) { s.onTick = fn }

// Addr reports the bound listen address (tests use an ephemeral port).
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// BufHighWaterBytes reports the largest per-session receive buffer seen
// since startup, for the supervisor's periodic diagnostic log.
func (s *Server) BufHighWaterBytes() int { return s.bufHighWater }

// NumSessions reports the number of currently open sessions.
func (s *Server) NumSessions() int { return len(s.sessions) }

// Close releases the listener and every open session (spec.md §4.4
// teardown: "the supervisor drains every active session and closes the
// listener").
func (s *Server) Close() {
	s.listener.Close()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.sessions = nil
}

// Run drives RunOnce forever until stop is closed, sleeping briefly
// between iterations to avoid busy-waiting (spec.md §5, "a short sleep
// (~1ms) between iterations").
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		s.RunOnce()
		time.Sleep(time.Millisecond)
	}
}

// RunOnce performs spec.md §4.4's server_run_once: accept at most one
// new connection, service every session's pending input, advance the
// simulation tick if due, and deliver any due monitor pushes.
func (s *Server) RunOnce() {
	s.acceptOnce()
	s.serviceSessions()
	s.tickIfDue()
	s.pushMonitors()
	if s.onTick != nil {
		s.onTick()
	}
}

// acceptOnce accepts at most one pending connection per call, using an
// immediate deadline so a quiet listener never blocks the loop. Beyond
// MaxClients, the connection is accepted then closed immediately
// (spec.md §4.4 step 3 and §7's "Connection MAX_CLIENTS + 1" case).
func (s *Server) acceptOnce() {
	type deadliner interface {
		SetDeadline(time.Time) error
	}
	if dl, ok := s.listener.(deadliner); ok {
		dl.SetDeadline(time.Now())
	}
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	if len(s.sessions) >= s.limits.MaxClients {
		s.log.Warnf("refusing connection from %s: at capacity (%d)", conn.RemoteAddr(), s.limits.MaxClients)
		metrics.ConnectionsRefused.Inc()
		conn.Close()
		return
	}
	metrics.ConnectionsAccepted.Inc()
	metrics.ActiveSessions.Inc()
	s.sessions = append(s.sessions, newSession(conn, s.limits.CmdBufferSize))
}

// serviceSessions performs one non-blocking read per session, processes
// every complete line it yields in arrival order, and closes sessions
// that disconnected, errored, or overflowed their buffer.
func (s *Server) serviceSessions() {
	live := s.sessions[:0]
	for _, sess := range s.sessions {
		if s.serviceOne(sess) {
			live = append(live, sess)
		}
	}
	s.sessions = live
}

// serviceOne returns false when the session should be dropped from the
// table.
func (s *Server) serviceOne(sess *session) bool {
	sess.conn.SetReadDeadline(time.Now())
	tmp := make([]byte, s.limits.CmdBufferSize)
	n, err := sess.conn.Read(tmp)
	if n > 0 {
		// Only the bytes before the first newline extend the pending
		// line; later bytes start new lines.
		pending := n
		if i := bytes.IndexByte(tmp[:n], '\n'); i >= 0 {
			pending = i
		}
		if sess.appendOverflows(pending) {
			s.log.Warnf("session %s exceeded CMD_BUFFER_SIZE without newline, closing", sess.conn.RemoteAddr())
			s.closeSession(sess)
			return false
		}
		sess.buf = append(sess.buf, tmp[:n]...)
		if len(sess.buf) > s.bufHighWater {
			s.bufHighWater = len(sess.buf)
		}
	}
	if err != nil && !isTimeout(err) {
		if err != io.EOF {
			s.log.Debugf("session %s recv error: %v", sess.conn.RemoteAddr(), err)
		}
		if n == 0 {
			s.closeSession(sess)
			return false
		}
	}

	for {
		line, ok := sess.takeLine()
		if !ok {
			break
		}
		cmd := protocol.Parse(line)
		resp, quit := s.dispatch(sess, cmd)
		s.write(sess, resp)
		if quit {
			s.closeSession(sess)
			return false
		}
	}
	return true
}

// closeSession tears a session down regardless of why it's leaving the
// table, making sure every gauge it was counted against is released
// exactly once.
func (s *Server) closeSession(sess *session) {
	sess.close()
	metrics.ActiveSessions.Dec()
	if sess.monitoring {
		metrics.ActiveMonitors.Dec()
		sess.monitoring = false
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// write bounds a response to RESPONSE_BUFFER_SIZE before sending it
// (spec.md §4.3's truncation rule) and logs, rather than closing the
// session, on a short write.
func (s *Server) write(sess *session, resp string) {
	resp = protocol.Truncate(resp, s.limits.ResponseBufSize)
	if _, err := io.WriteString(sess.conn, resp); err != nil {
		s.log.Debugf("session %s write error: %v", sess.conn.RemoteAddr(), err)
	}
}

// tickIfDue advances the registry once at least TICK_PERIOD_MS has
// elapsed since the last tick, passing the precise elapsed dt (spec.md
// §5).
func (s *Server) tickIfDue() {
	now := time.Now()
	elapsed := now.Sub(s.lastTick)
	if elapsed < s.tickPeriod {
		return
	}
	start := time.Now()
	s.reg.Update(elapsed.Seconds(), s.rng)
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	s.lastTick = now
}

// pushMonitors delivers a DATA line to every session whose subscription
// interval has elapsed. A target that no longer resolves is skipped
// silently (spec.md §4.3 "missing PV fails silently on push").
func (s *Server) pushMonitors() {
	now := time.Now()
	for _, sess := range s.sessions {
		if !sess.monitoring {
			continue
		}
		due := sess.lastPush.IsZero() || now.Sub(sess.lastPush) >= time.Duration(sess.intervalMS)*time.Millisecond
		if !due {
			continue
		}
		pv := s.reg.FindPV(sess.monitorPV)
		if pv == nil {
			sess.lastPush = now
			continue
		}
		s.write(sess, protocol.FormatData(registry.Get(pv)))
		sess.lastPush = now
	}
}
