package registry

// DefaultCatalog registers the illustrative device list from spec.md
// §4.2 in deterministic order. The catalog is illustrative, not the
// core's contract (spec.md §1); internal/config can extend it from a
// YAML manifest. A manifest PV whose name matches a catalog PV is
// refused as a duplicate rather than overriding it.
func (r *Registry) DefaultCatalog() {
	r.RegisterPV(PV{
		Name: "BL02:RING:CURRENT", Kind: AnalogIn,
		Value: 350, Min: 0, Max: 400,
		Law: LawRingCurrent, Base: 350, NoiseAmplitude: 4.0,
	})
	r.RegisterPV(PV{
		Name: "BL02:VAC:PRESSURE", Kind: AnalogIn,
		Value: 1e-8, Min: 1e-10, Max: 1e-8,
		Law: LawVacuumPressure, Base: -8.3, NoiseAmplitude: 0.2,
	})
	r.RegisterPV(PV{
		Name: "BL02:TEMP:HUTCH", Kind: AnalogIn,
		Value: 23, Min: 20, Max: 26,
		Law: LawHutchTemperature, Base: 23, NoiseAmplitude: 0.01,
	})

	r.RegisterPV(PV{
		Name: "BL02:DET:I0", Kind: AnalogIn,
		Value: 5e5, Min: 0, Max: 1e6,
		Law: LawDetectorProportional, DependsOn: "BL02:RING:CURRENT",
		Base: 5e5, NoiseAmplitude: 1e4,
	})
	r.RegisterPV(PV{
		Name: "BL02:DET:IT", Kind: AnalogIn,
		Value: 4.5e5, Min: 0, Max: 1e6,
		Law: LawDetectorProportional, DependsOn: "BL02:RING:CURRENT",
		Base: 4.5e5, NoiseAmplitude: 1e4,
	})
	r.RegisterPV(PV{
		Name: "BL02:DET:IF", Kind: AnalogIn,
		Value: 5e4, Min: 0, Max: 1e5,
		Law: LawDetectorProportional, DependsOn: "BL02:RING:CURRENT",
		Base: 5e4, NoiseAmplitude: 1e3,
	})

	r.RegisterPV(PV{
		Name: "BL02:SHUTTER:CMD", Kind: BinaryOut,
		Value: 0, Min: 0, Max: 1, Writable: true,
	})
	r.RegisterPV(PV{
		Name: "BL02:SHUTTER:STATUS", Kind: BinaryIn,
		Value: 0, Min: 0, Max: 1,
		Law: LawShutterFollowsCommand, DependsOn: "BL02:SHUTTER:CMD",
	})

	r.RegisterPV(PV{
		Name: "BL02:MONO:ENERGY", Kind: AnalogOut,
		Value: 10000, Min: 4000, Max: 30000, Writable: true,
		InstantReadback: true, ReadbackTarget: "BL02:MONO:ENERGY.RBV",
	})
	r.RegisterMotor("BL02:MONO:ENERGY", 5000)

	r.RegisterPV(PV{
		Name: "BL02:SAMPLE:X", Kind: AnalogOut,
		Value: 0, Min: -5000, Max: 5000, Writable: true,
	})
	r.RegisterMotor("BL02:SAMPLE:X", 1000)

	r.RegisterPV(PV{
		Name: "BL02:SAMPLE:Y", Kind: AnalogOut,
		Value: 0, Min: -5000, Max: 5000, Writable: true,
	})
	r.RegisterMotor("BL02:SAMPLE:Y", 1000)
}
