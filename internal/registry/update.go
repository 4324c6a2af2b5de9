package registry

import (
	"math"
	"math/rand"
)

// Rng is the narrow interface update() needs from a random source,
// letting tests substitute a deterministic generator.
type Rng interface {
	// Float64 returns a pseudo-random number in [0,1), same contract as
	// math/rand.Rand.Float64.
	Float64() float64
}

// noise returns a draw from the uniform distribution on [-0.5, 0.5),
// scaled by amplitude (spec.md §4.2 "All noise is drawn from …").
func noise(rng Rng, amplitude float64) float64 {
	return (rng.Float64() - 0.5) * amplitude
}

// Update advances the simulation by one tick of dt seconds: every
// sensor PV's law runs, then every motor's trajectory rule runs
// (spec.md §4.2). Cross-PV dependencies that can't be resolved leave
// the dependent PV's value unchanged.
func (r *Registry) Update(dt float64, rng Rng) {
	for i := range r.pvs {
		r.updatePV(&r.pvs[i], rng)
	}
	for i := range r.motors {
		r.updateMotor(&r.motors[i], dt)
	}
}

// NewRand returns a rand.Rand seeded with seed. internal/supervisor
// passes the wall clock, so every startup re-seeds sensor noise.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func (r *Registry) updatePV(pv *PV, rng Rng) {
	switch pv.Law {
	case LawNone:
		return
	case LawRingCurrent:
		pv.Value = pv.Base + noise(rng, pv.NoiseAmplitude)
	case LawVacuumPressure:
		exponent := pv.Base + noise(rng, pv.NoiseAmplitude)
		pv.Value = math.Pow(10, exponent)
	case LawHutchTemperature:
		pv.drift += noise(rng, pv.NoiseAmplitude)
		pv.Value = pv.Base + pv.drift
	case LawDetectorProportional:
		dep := r.FindPV(pv.DependsOn)
		if dep == nil {
			return
		}
		pv.Value = pv.Base*(dep.Value/350.0) + noise(rng, pv.NoiseAmplitude)
	case LawShutterFollowsCommand:
		dep := r.FindPV(pv.DependsOn)
		if dep == nil {
			return
		}
		pv.Value = dep.Value
	}
	pv.clamp()
}

// updateMotor implements spec.md §4.2's linear (non-accelerating)
// trajectory: idle motors no-op; otherwise the readback steps toward
// the target at Velocity units/second, snapping to the target and
// going idle once within ConvergenceEpsilon or one step away.
func (r *Registry) updateMotor(m *Motor, dt float64) {
	status := r.PVAt(m.StatusIdx)
	if !m.Moving {
		status.Value = 0
		return
	}

	readback := r.PVAt(m.ReadbackIdx)
	diff := m.Target - readback.Value

	if math.Abs(diff) < ConvergenceEpsilon {
		readback.Value = m.Target
		m.Moving = false
		status.Value = 0
		return
	}

	step := m.Velocity * dt
	if math.Abs(diff) < step {
		readback.Value = m.Target
		m.Moving = false
		status.Value = 0
		return
	}

	if diff > 0 {
		readback.Value += step
	} else {
		readback.Value -= step
	}
	status.Value = 1
}
