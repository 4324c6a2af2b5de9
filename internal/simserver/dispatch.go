package simserver

import (
	"context"
	"time"

	"devicesim/internal/metrics"
	"devicesim/internal/protocol"
	"devicesim/internal/registry"
)

// dispatch executes one parsed command against the registry and this
// session's subscription state, returning the exact line to write back
// (spec.md §4.4's per-verb response table). QUIT additionally asks the
// caller to close the session after the reply is flushed.
func (srv *Server) dispatch(sess *session, cmd protocol.Command) (resp string, quit bool) {
	metrics.CommandsTotal.WithLabelValues(verbLabel(cmd.Type)).Inc()

	switch cmd.Type {
	case protocol.VerbPing:
		return protocol.FormatOKPayload("PONG"), false

	case protocol.VerbQuit:
		return protocol.FormatOKPayload("BYE"), true

	case protocol.VerbStop:
		if sess.monitoring {
			metrics.ActiveMonitors.Dec()
		}
		sess.monitoring = false
		return protocol.FormatOKPayload("STOPPED"), false

	case protocol.VerbListAll:
		names, _ := srv.reg.List("", srv.limits.ResponseBufSize-len("OK:\n"))
		return protocol.FormatOKPayload(names), false

	case protocol.VerbList:
		names, _ := srv.reg.List(cmd.Target, srv.limits.ResponseBufSize-len("OK:\n"))
		return protocol.FormatOKPayload(names), false

	case protocol.VerbGet:
		pv := srv.reg.FindPV(cmd.Target)
		if pv == nil {
			return protocol.FormatErr(protocol.ErrUnknownPV), false
		}
		return protocol.FormatOKPayload(protocol.FormatNumber(registry.Get(pv))), false

	case protocol.VerbPut:
		pv := srv.reg.FindPV(cmd.Target)
		if pv == nil {
			return protocol.FormatErr(protocol.ErrUnknownPV), false
		}
		if !srv.reg.Set(pv, cmd.Value) {
			metrics.WritesRejected.Inc()
			return protocol.FormatErr(protocol.ErrInvalidValue), false
		}
		srv.recordAudit(sess, "PUT", cmd.Target, cmd.Value)
		return protocol.FormatOKPayload("PUT"), false

	case protocol.VerbMove:
		if !srv.reg.MotorMove(cmd.Target, cmd.Value) {
			metrics.WritesRejected.Inc()
			return protocol.FormatErr(protocol.ErrInvalidValue), false
		}
		srv.recordAudit(sess, "MOVE", cmd.Target, cmd.Value)
		return protocol.FormatOKPayload("MOVING"), false

	case protocol.VerbStatus:
		m := srv.reg.FindMotor(cmd.Target)
		if m == nil {
			return protocol.FormatErr(protocol.ErrUnknownPV), false
		}
		return protocol.FormatOKPayload(registry.MotorStatusString(m)), false

	case protocol.VerbMonitor:
		if !sess.monitoring {
			metrics.ActiveMonitors.Inc()
		}
		sess.monitoring = true
		sess.monitorPV = cmd.Target
		sess.intervalMS = cmd.MonitorIntervalMS
		sess.lastPush = time.Time{}
		return protocol.FormatOKPayload("MONITORING"), false

	default:
		return protocol.FormatErr(protocol.ErrUnknownCmd), false
	}
}

// recordAudit persists an accepted write to the optional audit log. It
// is best-effort: a write failure is logged, never surfaced to the
// client, since command history is diagnostic, not part of the
// protocol's contract.
func (srv *Server) recordAudit(sess *session, verb, target string, value float64) {
	if srv.audit == nil {
		return
	}
	if err := srv.audit.Record(context.Background(), sess.id, verb, target, value); err != nil {
		srv.log.Warnf("audit record failed: %v", err)
	}
}

func verbLabel(v protocol.Verb) string {
	switch v {
	case protocol.VerbPing:
		return "PING"
	case protocol.VerbQuit:
		return "QUIT"
	case protocol.VerbStop:
		return "STOP"
	case protocol.VerbListAll, protocol.VerbList:
		return "LIST"
	case protocol.VerbGet:
		return "GET"
	case protocol.VerbStatus:
		return "STATUS"
	case protocol.VerbPut:
		return "PUT"
	case protocol.VerbMove:
		return "MOVE"
	case protocol.VerbMonitor:
		return "MONITOR"
	default:
		return "UNKNOWN"
	}
}
