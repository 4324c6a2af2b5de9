package registry

import (
	"math"
	"testing"
)

type zeroRng struct{}

func (zeroRng) Float64() float64 { return 0.5 } // noise() == 0

func TestRegisterPVDuplicateRefused(t *testing.T) {
	r := New(nil)
	if !r.RegisterPV(PV{Name: "A", Min: 0, Max: 1}) {
		t.Fatalf("first registration should succeed")
	}
	if r.RegisterPV(PV{Name: "A", Min: 0, Max: 1}) {
		t.Fatalf("duplicate registration should be refused")
	}
	if r.NumPVs() != 1 {
		t.Fatalf("expected 1 PV, got %d", r.NumPVs())
	}
}

func TestRegisterPVCapacity(t *testing.T) {
	r := New(nil)
	for i := 0; i < MaxPVs; i++ {
		if !r.RegisterPV(PV{Name: string(rune('a' + i%26)) + string(rune(i)), Min: 0, Max: 1}) {
			t.Fatalf("expected registration %d to succeed", i)
		}
	}
	if r.RegisterPV(PV{Name: "overflow", Min: 0, Max: 1}) {
		t.Fatalf("expected capacity-exhausted registration to be refused")
	}
}

func TestSetRejectsReadOnly(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "RO", Value: 1, Min: 0, Max: 10, Writable: false})
	pv := r.FindPV("RO")
	if r.Set(pv, 5) {
		t.Fatalf("expected write to read-only PV to fail")
	}
	if pv.Value != 1 {
		t.Fatalf("read-only PV value mutated: %v", pv.Value)
	}
}

func TestSetRejectsOutOfRange(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "W", Value: 5, Min: 0, Max: 10, Writable: true})
	pv := r.FindPV("W")
	if r.Set(pv, 10.0001) {
		t.Fatalf("expected out-of-range write to fail")
	}
	if pv.Value != 5 {
		t.Fatalf("value should be unchanged on failed write, got %v", pv.Value)
	}
	if !r.Set(pv, 10) {
		t.Fatalf("expected write at max to succeed")
	}
	if pv.Value != 10 {
		t.Fatalf("expected value to equal the argument exactly, got %v", pv.Value)
	}
}

func TestSetInstantReadback(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "SP", Value: 0, Min: 0, Max: 100, Writable: true,
		InstantReadback: true, ReadbackTarget: "SP.RBV"})
	r.RegisterPV(PV{Name: "SP.RBV", Value: 0, Min: 0, Max: 100})

	sp := r.FindPV("SP")
	if !r.Set(sp, 42) {
		t.Fatalf("expected write to succeed")
	}
	rb := r.FindPV("SP.RBV")
	if rb.Value != 42 {
		t.Fatalf("expected instant readback propagation, got %v", rb.Value)
	}
}

func TestListGlob(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "BL02:SAMPLE:X", Min: 0, Max: 1})
	r.RegisterPV(PV{Name: "BL02:SAMPLE:Y", Min: 0, Max: 1})
	r.RegisterPV(PV{Name: "BL02:MONO:ENERGY", Min: 0, Max: 1})

	out, n := r.List("*", 1024)
	if n != 3 || out != "BL02:SAMPLE:X,BL02:SAMPLE:Y,BL02:MONO:ENERGY" {
		t.Fatalf("unexpected list-all result: %q (%d)", out, n)
	}

	out, n = r.List("BL02:SAMPLE:*", 1024)
	if n != 2 || out != "BL02:SAMPLE:X,BL02:SAMPLE:Y" {
		t.Fatalf("unexpected glob result: %q (%d)", out, n)
	}

	out, n = r.List("", 1024)
	if n != 3 {
		t.Fatalf("empty pattern should match everything, got %d", n)
	}
}

func TestListTruncatesSilently(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "AAAA", Min: 0, Max: 1})
	r.RegisterPV(PV{Name: "BBBB", Min: 0, Max: 1})

	out, n := r.List("*", 4)
	if n != 1 || out != "AAAA" {
		t.Fatalf("expected silent truncation to first name, got %q (%d)", out, n)
	}
}

func TestMotorMoveUnknownOrOutOfRange(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "M", Value: 0, Min: 0, Max: 10, Writable: true})
	r.RegisterMotor("M", 1)

	if r.MotorMove("NOPE", 5) {
		t.Fatalf("expected unknown motor to fail")
	}
	if r.MotorMove("M", 50) {
		t.Fatalf("expected out-of-range target to fail")
	}
	if !r.MotorMove("M", 5) {
		t.Fatalf("expected in-range move to succeed")
	}
}

func TestMotorStatusString(t *testing.T) {
	if MotorStatusString(nil) != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for nil motor")
	}
	m := &Motor{Moving: true}
	if MotorStatusString(m) != "MOVING" {
		t.Fatalf("expected MOVING")
	}
	m.Moving = false
	if MotorStatusString(m) != "IDLE" {
		t.Fatalf("expected IDLE")
	}
}

func TestMotorConvergesAndSnapsIdle(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "M", Value: 0, Min: -100, Max: 100, Writable: true})
	r.RegisterMotor("M", 10) // 10 units/sec

	r.MotorMove("M", 5)
	rb := r.FindPV("M.RBV")
	status := r.FindPV("M.DMOV")

	// One second at 10 units/sec covers the full 5-unit distance.
	r.Update(1.0, zeroRng{})

	if status.Value != 0 {
		t.Fatalf("expected motor idle after convergence, status=%v", status.Value)
	}
	if math.Abs(rb.Value-5) > 1e-9 {
		t.Fatalf("expected readback to equal target exactly on snap, got %v", rb.Value)
	}
	if m := r.FindMotor("M"); m.Moving {
		t.Fatalf("expected motor.Moving == false")
	}
}

func TestMotorInvariantHoldsWhileMoving(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{Name: "M", Value: 0, Min: -1000, Max: 1000, Writable: true})
	r.RegisterMotor("M", 10)
	r.MotorMove("M", 500)

	for i := 0; i < 5; i++ {
		r.Update(0.01, zeroRng{})
		m := r.FindMotor("M")
		status := r.FindPV("M.DMOV")
		moving := status.Value == 1.0
		if m.Moving != moving {
			t.Fatalf("invariant broken: moving=%v but status=%v", m.Moving, status.Value)
		}
	}
}

func TestCrossPVDependencyToleratesMissing(t *testing.T) {
	r := New(nil)
	r.RegisterPV(PV{
		Name: "DEP", Value: 1, Min: 0, Max: 10,
		Law: LawDetectorProportional, DependsOn: "NOPE", Base: 1,
	})
	pv := r.FindPV("DEP")
	before := pv.Value
	r.Update(0.01, zeroRng{})
	if pv.Value != before {
		t.Fatalf("expected value unchanged when dependency missing, got %v", pv.Value)
	}
}

func TestDefaultCatalogInvariants(t *testing.T) {
	r := New(nil)
	r.DefaultCatalog()

	rng := zeroRng{}
	for tick := 0; tick < 200; tick++ {
		r.Update(0.01, rng)
		for i := 0; i < r.NumPVs(); i++ {
			pv := r.PVAt(i)
			if pv.Value < pv.Min || pv.Value > pv.Max {
				t.Fatalf("PV %s out of range: %v not in [%v,%v]", pv.Name, pv.Value, pv.Min, pv.Max)
			}
		}
		for i := 0; i < r.NumMotors(); i++ {
			m := r.MotorAt(i)
			status := r.PVAt(m.StatusIdx)
			moving := status.Value == 1.0
			if m.Moving != moving {
				t.Fatalf("motor %s invariant broken at tick %d", m.Name, tick)
			}
		}
	}
}
