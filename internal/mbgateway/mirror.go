package mbgateway

import (
	"devicesim/internal/registry"
)

// Mirror copies a configured, ordered subset of registry PVs onto a
// gateway's register/coil tables on each tick. It is the new
// domain-specific glue the teacher has no analogue for: the teacher's
// internal/modbus package only ever served whatever its own table held,
// never a second system of record.
//
// Each mirrored PV occupies one slot, at the index matching its
// position in Names, in the table its Kind maps to: AnalogOut (a
// writable setpoint) to a holding register, AnalogIn (a read-only
// sensor) to an input register, BinaryOut to a coil, BinaryIn to a
// discrete input — the same read/write-vs-read-only convention Modbus
// itself draws between the two register pairs. Analog values are scaled
// by 100 and truncated to uint16 (spec.md has no native Modbus
// encoding, so this mirror picks a fixed-point representation wide
// enough for the illustrative catalog's engineering units without
// overflowing a 16-bit register for any realistic reading).
type Mirror struct {
	server *Server
	reg    *registry.Registry
	names  []string
}

// NewMirror builds a mirror over gateway writing from reg, mirroring PVs
// in the order given by names. Names not present in the registry at
// Update time are skipped silently (a misconfigured register list should
// not stop the gateway serving the PVs that do resolve).
func NewMirror(server *Server, reg *registry.Registry, names []string) *Mirror {
	return &Mirror{server: server, reg: reg, names: names}
}

// Update writes every mirrored PV's current value into its table slot,
// re-resolving names against the registry each call since PVs are cheap
// map lookups and the registry never removes entries once registered.
// Called once per simserver RunOnce pass (not only on passes that tick
// the registry), from the server's own goroutine via Server.SetTickHook.
func (m *Mirror) Update() {
	for i, name := range m.names {
		pv := m.reg.FindPV(name)
		if pv == nil {
			continue
		}
		addr := uint16(i)
		value := registry.Get(pv)
		switch pv.Kind {
		case registry.AnalogOut:
			_ = m.server.SetHoldingRegister(addr, encodeFixedPoint(value))
		case registry.AnalogIn:
			_ = m.server.SetInputRegister(addr, encodeFixedPoint(value))
		case registry.BinaryOut:
			_ = m.server.SetCoil(addr, value != 0)
		case registry.BinaryIn:
			_ = m.server.SetDiscreteInput(addr, value != 0)
		}
	}
}

// encodeFixedPoint maps a float PV value onto a uint16 holding register
// using a fixed two-decimal-place scale, clamping to the register's
// representable range rather than wrapping.
func encodeFixedPoint(v float64) uint16 {
	scaled := v * 100
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 65535:
		return 65535
	default:
		return uint16(scaled)
	}
}

// DecodeFixedPoint reverses encodeFixedPoint, for tests and diagnostics
// that read a mirrored register back and want the engineering-unit
// value.
func DecodeFixedPoint(reg uint16) float64 {
	return float64(reg) / 100
}
