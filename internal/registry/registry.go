package registry

import (
	"strings"

	"devicesim/internal/simlog"
)

// Capacity limits from spec.md §6.
const (
	MaxPVs    = 128
	PVNameMax = 64
)

// Registry is the process-wide collection of PVs and motors. It is
// created once at startup and mutated only by the owning goroutine
// (spec.md §5): there are no locks here by design.
type Registry struct {
	pvs       []PV
	pvIndex   map[string]int
	motors    []Motor
	motorIdx  map[string]int
	log       *simlog.Logger
}

// New creates an empty registry. Call a Register* method for each PV and
// motor, or use DefaultCatalog to populate the illustrative device list
// from spec.md §4.2.
func New(log *simlog.Logger) *Registry {
	if log == nil {
		log = simlog.Default
	}
	return &Registry{
		pvIndex:  make(map[string]int),
		motorIdx: make(map[string]int),
		log:      log,
	}
}

func truncateName(name string) string {
	if len(name) > PVNameMax-1 {
		return name[:PVNameMax-1]
	}
	return name
}

// RegisterPV adds a PV to the catalog in registration order. It refuses
// (logs and returns false) when the name is a duplicate or the registry
// is at capacity, matching spec.md §4.2's "Registry exhaustion … is
// logged and the registration is refused."
func (r *Registry) RegisterPV(pv PV) bool {
	pv.Name = truncateName(pv.Name)
	if _, exists := r.pvIndex[pv.Name]; exists {
		r.log.Errorf("duplicate PV name %q refused", pv.Name)
		return false
	}
	if len(r.pvs) >= MaxPVs {
		r.log.Errorf("PV capacity (%d) exhausted, refusing %q", MaxPVs, pv.Name)
		return false
	}
	pv.clamp()
	r.pvIndex[pv.Name] = len(r.pvs)
	r.pvs = append(r.pvs, pv)
	return true
}

// RegisterMotor adds a motor tuple: setpoint, then "<name>.RBV" readback,
// then "<name>.DMOV" status, in that order (spec.md §4.2). The setpoint
// must already be registered; its Writable flag is not checked.
// Readback/status PVs are registered here as read-only AI/BI PVs with
// LawNone.
func (r *Registry) RegisterMotor(setpointName string, velocity float64) bool {
	spIdx, ok := r.pvIndex[setpointName]
	if !ok {
		r.log.Errorf("motor %q: setpoint PV not registered", setpointName)
		return false
	}
	if _, exists := r.motorIdx[setpointName]; exists {
		r.log.Errorf("duplicate motor %q refused", setpointName)
		return false
	}

	sp := r.pvs[spIdx]
	rbvName := setpointName + ".RBV"
	if !r.RegisterPV(PV{
		Name: rbvName, Kind: AnalogIn, Value: sp.Value, Min: sp.Min, Max: sp.Max,
	}) {
		return false
	}
	dmovName := setpointName + ".DMOV"
	if !r.RegisterPV(PV{
		Name: dmovName, Kind: BinaryIn, Value: 0, Min: 0, Max: 1,
	}) {
		return false
	}

	m := Motor{
		Name:        setpointName,
		SetpointIdx: spIdx,
		ReadbackIdx: r.pvIndex[rbvName],
		StatusIdx:   r.pvIndex[dmovName],
		Velocity:    velocity,
		Target:      sp.Value,
	}
	r.motorIdx[setpointName] = len(r.motors)
	r.motors = append(r.motors, m)
	return true
}

// FindPV returns a pointer to the named PV, or nil if absent. The
// returned pointer aliases registry storage and must only be used from
// the owning goroutine.
func (r *Registry) FindPV(name string) *PV {
	idx, ok := r.pvIndex[name]
	if !ok {
		return nil
	}
	return &r.pvs[idx]
}

// Get returns the current value of a PV found by FindPV.
func Get(pv *PV) float64 { return pv.Value }

// Set writes v to pv, enforcing spec.md §3's invariants: read-only PVs
// reject all writes, and out-of-range writes are rejected without
// mutation. On success and when pv.InstantReadback is set, the
// corresponding readback PV (if present) is updated immediately,
// bypassing the motor update rule (spec.md §4.2 "set() semantics").
func (r *Registry) Set(pv *PV, v float64) bool {
	if !pv.Writable {
		return false
	}
	if v < pv.Min || v > pv.Max {
		return false
	}
	pv.Value = v
	if pv.InstantReadback {
		if rb := r.FindPV(pv.ReadbackTarget); rb != nil {
			rb.Value = v
			rb.clamp()
		}
	}
	return true
}

// List writes comma-separated PV names matching pattern, in registration
// order, into out_buf-equivalent semantics: it returns as many names as
// fit within maxLen bytes, truncating silently (spec.md §4.2 "list()").
// The returned string is the joined, possibly-truncated output; the
// returned count is the number of names actually included.
func (r *Registry) List(pattern string, maxLen int) (string, int) {
	var b strings.Builder
	count := 0
	for _, pv := range r.pvs {
		if !globMatch(pattern, pv.Name) {
			continue
		}
		sep := ""
		if count > 0 {
			sep = ","
		}
		candidate := sep + pv.Name
		if b.Len()+len(candidate) > maxLen {
			break
		}
		b.WriteString(candidate)
		count++
	}
	return b.String(), count
}

// FindMotor returns a pointer to the named motor, or nil if absent.
func (r *Registry) FindMotor(name string) *Motor {
	idx, ok := r.motorIdx[name]
	if !ok {
		return nil
	}
	return &r.motors[idx]
}

// MotorMove commands a motor to a new target. It fails for an unknown
// motor or an out-of-range target (spec.md §4.2 "motor_move"); both
// failure modes are reported identically by the caller as
// INVALID_VALUE, per spec.md §9's "preserve source behavior" note.
func (r *Registry) MotorMove(name string, target float64) bool {
	m := r.FindMotor(name)
	if m == nil {
		return false
	}
	sp := &r.pvs[m.SetpointIdx]
	if target < sp.Min || target > sp.Max {
		return false
	}
	sp.Value = target
	m.Target = target
	m.Moving = true
	return true
}

// MotorStatusString reports "MOVING", "IDLE", or "UNKNOWN" for a motor
// pointer (nil yields "UNKNOWN"), per spec.md §4.2.
func MotorStatusString(m *Motor) string {
	if m == nil {
		return "UNKNOWN"
	}
	if m.Moving {
		return "MOVING"
	}
	return "IDLE"
}

// PVs exposes the registry's PVs in registration order for read-only
// iteration (used by the Modbus gateway and tests). Callers must not
// retain the slice across a tick.
func (r *Registry) PVs() []PV { return r.pvs }

// Motors exposes the registry's motors in registration order.
func (r *Registry) Motors() []Motor { return r.motors }

// PVAt and MotorAt give mutable access by index for update.go and the
// Modbus gateway, which needs stable addresses rather than name lookups
// on every tick.
func (r *Registry) PVAt(i int) *PV       { return &r.pvs[i] }
func (r *Registry) MotorAt(i int) *Motor { return &r.motors[i] }
func (r *Registry) NumPVs() int          { return len(r.pvs) }
func (r *Registry) NumMotors() int       { return len(r.motors) }

// globMatch implements spec.md §4.2's glob grammar: '*' matches any
// (possibly empty) substring, any other character must match literally,
// and an empty/absent pattern matches everything. Matching is
// greedy-leftmost over successive '*' segments.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	return matchHere(pattern, name)
}

func matchHere(pattern, s string) bool {
	for {
		if pattern == "" {
			return s == ""
		}
		if pattern[0] == '*' {
			pattern = pattern[1:]
			if pattern == "" {
				return true
			}
			// Greedy-leftmost: try the longest remaining match first.
			for i := len(s); i >= 0; i-- {
				if matchHere(pattern, s[i:]) {
					return true
				}
			}
			return false
		}
		if s == "" || s[0] != pattern[0] {
			return false
		}
		pattern = pattern[1:]
		s = s[1:]
	}
}
