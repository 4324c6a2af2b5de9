// Package protocol implements spec.md §4.3: the wire grammar parser and
// response formatter for the simulator's line-oriented text protocol.
package protocol

import (
	"strings"

	"devicesim/internal/numeric"
)

// Verb identifies the command type.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbPing
	VerbQuit
	VerbStop
	VerbListAll
	VerbGet
	VerbStatus
	VerbList
	VerbPut
	VerbMove
	VerbMonitor
)

// Command is the parser's output: type, target, and optional value,
// matching spec.md §4.3 "Parser output".
type Command struct {
	Type               Verb
	Target             string
	Value              float64
	HasValue           bool
	MonitorIntervalMS  int64
}

// unknownCommand is the sentinel spec.md §4.3 describes for malformed
// input: the server surfaces it as ERR:UNKNOWN_CMD.
var unknownCommand = Command{Type: VerbUnknown}

// NameMax bounds target names the way spec.md §6 bounds PV_NAME_MAX: a
// request's target field longer than this is truncated before lookup,
// which makes it fail to resolve rather than panicking the parser.
const NameMax = 64

// Parse parses one request line (already stripped of its trailing \n and
// any \r per spec.md §6) into a Command. Malformed verbs, missing
// values, unparseable numbers, or empty input all yield the unknown-
// command sentinel.
func Parse(line string) Command {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return unknownCommand
	}

	verbEnd := strings.IndexByte(line, ':')
	var verbStr, rest string
	if verbEnd < 0 {
		verbStr, rest = line, ""
	} else {
		verbStr, rest = line[:verbEnd], line[verbEnd+1:]
	}

	switch verbStr {
	case "PING":
		return Command{Type: VerbPing}
	case "QUIT":
		return Command{Type: VerbQuit}
	case "STOP":
		return Command{Type: VerbStop}
	case "LIST":
		if verbEnd < 0 {
			return Command{Type: VerbListAll}
		}
		return Command{Type: VerbList, Target: truncateName(rest)}
	case "GET":
		if verbEnd < 0 || rest == "" {
			return unknownCommand
		}
		return Command{Type: VerbGet, Target: truncateName(rest)}
	case "STATUS":
		if verbEnd < 0 || rest == "" {
			return unknownCommand
		}
		return Command{Type: VerbStatus, Target: truncateName(rest)}
	case "PUT":
		return parseTargetAndValue(VerbPut, rest)
	case "MOVE":
		return parseTargetAndValue(VerbMove, rest)
	case "MONITOR":
		return parseMonitor(rest)
	default:
		return unknownCommand
	}
}

// parseTargetAndValue splits "target:value" on the LAST colon, since
// the target itself may contain colons (spec.md §4.3): "the last colon
// in the line separates the numeric tail from the target."
func parseTargetAndValue(verb Verb, rest string) Command {
	idx := strings.LastIndexByte(rest, ':')
	if idx < 0 {
		return unknownCommand
	}
	target := rest[:idx]
	valueStr := rest[idx+1:]
	if target == "" || valueStr == "" {
		return unknownCommand
	}
	v, ok := numeric.ParseDouble(valueStr)
	if !ok {
		return unknownCommand
	}
	return Command{Type: verb, Target: truncateName(target), Value: v, HasValue: true}
}

func parseMonitor(rest string) Command {
	idx := strings.LastIndexByte(rest, ':')
	if idx < 0 {
		return unknownCommand
	}
	target := rest[:idx]
	intervalStr := rest[idx+1:]
	if target == "" || intervalStr == "" {
		return unknownCommand
	}
	v, ok := numeric.ParseDouble(intervalStr)
	if !ok || v < 0 {
		return unknownCommand
	}
	return Command{
		Type:              VerbMonitor,
		Target:            truncateName(target),
		MonitorIntervalMS: int64(v),
	}
}

func truncateName(name string) string {
	if len(name) > NameMax-1 {
		return name[:NameMax-1]
	}
	return name
}

// Format renders a Command back into the wire form Parse accepts. It is
// the inverse Parse is checked against: parse(Format(c)) == c for every
// well-formed Command (spec.md §8).
func Format(c Command) string {
	switch c.Type {
	case VerbPing:
		return "PING"
	case VerbQuit:
		return "QUIT"
	case VerbStop:
		return "STOP"
	case VerbListAll:
		return "LIST"
	case VerbList:
		return "LIST:" + c.Target
	case VerbGet:
		return "GET:" + c.Target
	case VerbStatus:
		return "STATUS:" + c.Target
	case VerbPut:
		return "PUT:" + c.Target + ":" + FormatNumber(c.Value)
	case VerbMove:
		return "MOVE:" + c.Target + ":" + FormatNumber(c.Value)
	case VerbMonitor:
		return "MONITOR:" + c.Target + ":" + FormatNumber(float64(c.MonitorIntervalMS))
	default:
		return ""
	}
}
