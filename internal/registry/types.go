// Package registry implements spec.md §3 and §4.2: the process-variable
// and motor model, its deterministic startup catalog, and the per-tick
// simulation update.
//
// Ownership follows spec.md §9's "arena + stable indices" redesign: the
// Registry owns two slices (pvs, motors); a Motor stores three small
// integer indices into the PV slice rather than pointers, so PV lifetime
// trivially exceeds all motor references and nothing aliases across a
// slice grow. Lookup by name goes through a name->index map (a hash
// index), while the slices keep registration-order iteration for LIST.
package registry

// Kind distinguishes the four PV flavors from spec.md §3.
type Kind int

const (
	AnalogIn Kind = iota
	AnalogOut
	BinaryIn
	BinaryOut
)

func (k Kind) String() string {
	switch k {
	case AnalogIn:
		return "AI"
	case AnalogOut:
		return "AO"
	case BinaryIn:
		return "BI"
	case BinaryOut:
		return "BO"
	default:
		return "?"
	}
}

// UpdateLaw is a closed tagged variant over the simulation laws spec.md
// §9 asks for in place of function-pointer callbacks: it removes
// indirect-call hazards and makes every law exhaustively testable.
type UpdateLaw int

const (
	// LawNone marks a PV with no per-tick evolution (setpoints, readbacks,
	// and motor status PVs, which are driven by the motor update rule
	// instead of a sensor law).
	LawNone UpdateLaw = iota
	LawRingCurrent
	LawVacuumPressure
	LawHutchTemperature
	LawDetectorProportional
	LawShutterFollowsCommand
)

// PV is a named, typed, bounded scalar. See spec.md §3 for invariants.
type PV struct {
	Name     string
	Kind     Kind
	Value    float64
	Min      float64
	Max      float64
	Writable bool

	Law UpdateLaw
	// DependsOn names the PV a LawDetectorProportional/LawShutterFollowsCommand
	// law reads from. A missing dependency leaves Value unchanged (spec.md
	// §4.2 "Cross-PV dependencies must tolerate a missing dependency").
	DependsOn string
	// Base and NoiseAmplitude parameterize the sensor laws; see update.go.
	Base           float64
	NoiseAmplitude float64

	// InstantReadback implements spec.md §4.2's configurable
	// "instantaneous-readback" bit: when true, writing this (writable)
	// PV immediately copies the value into ReadbackTarget, bypassing the
	// motor update rule.
	InstantReadback bool
	ReadbackTarget  string

	// drift is private per-tick state for the Brownian hutch-temperature law.
	drift float64
}

func (p *PV) clamp() {
	if p.Value < p.Min {
		p.Value = p.Min
	}
	if p.Value > p.Max {
		p.Value = p.Max
	}
}

// Motor is a composite entity referencing three PVs by index: a writable
// setpoint, a read-only readback, and a read-only status (0=idle,
// 1=moving). See spec.md §3 for invariants.
type Motor struct {
	Name            string // the setpoint PV's name; the motor's lookup key
	SetpointIdx     int
	ReadbackIdx     int
	StatusIdx       int
	Velocity        float64 // units/second
	Target          float64
	Moving          bool
}

// ConvergenceEpsilon is the |readback - target| threshold below which a
// motor snaps to idle (spec.md §4.2 motor update rule, step 3).
const ConvergenceEpsilon = 1e-3
