package config

import (
	"os"
	"path/filepath"
	"testing"

	"devicesim/internal/registry"
)

func TestLoadDefaultsWithNoPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Listen != DefaultListen || cfg.MaxClients != DefaultMaxClients {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadYAMLOverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	body := `
listen: "127.0.0.1:6000"
pvs:
  - name: "BL03:TEST:PV"
    kind: ao
    value: 1
    min: 0
    max: 10
    writable: true
motors:
  - setpoint: "BL03:TEST:PV"
    velocity: 50
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:6000" {
		t.Fatalf("expected overridden listen addr, got %q", cfg.Listen)
	}
	if len(cfg.PVs) != 1 || cfg.PVs[0].Name != "BL03:TEST:PV" {
		t.Fatalf("expected one extra pv, got %+v", cfg.PVs)
	}

	reg := registry.New(nil)
	BuildRegistry(cfg, reg)
	if reg.FindPV("BL02:RING:CURRENT") == nil {
		t.Fatalf("expected default catalog still present")
	}
	if reg.FindPV("BL03:TEST:PV") == nil {
		t.Fatalf("expected extended pv to be registered")
	}
	if reg.FindMotor("BL03:TEST:PV") == nil {
		t.Fatalf("expected extended motor to be registered")
	}
}

func TestValidateRejectsDuplicatePVs(t *testing.T) {
	cfg := Config{PVs: []PVSpec{{Name: "A"}, {Name: "A"}}}
	applyDefaults(&cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected duplicate pv name to be rejected")
	}
}

func TestValidateRejectsUndeclaredMotorSetpoint(t *testing.T) {
	cfg := Config{Motors: []MotorSpec{{Setpoint: "NOPE", Velocity: 1}}}
	applyDefaults(&cfg)
	if err := validate(cfg); err == nil {
		t.Fatalf("expected undeclared setpoint to be rejected")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/devices.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
