// Package config loads the optional YAML device/server manifest that
// extends the registry's compiled-in catalog, grounded on
// internal/collector/config.go's RootConfig/yaml.v3 pattern. Manifest
// PVs are added after the catalog; one that reuses a catalog PV's name
// is refused by the registry as a duplicate, so catalog entries are not
// overridden.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"devicesim/internal/registry"
)

// Config is the root document. Every field is optional; Load fills in
// spec.md §6 defaults for anything left zero.
type Config struct {
	Listen          string      `yaml:"listen"`
	MaxClients      int         `yaml:"max_clients"`
	CmdBufferSize   int         `yaml:"cmd_buffer_size"`
	ResponseBufSize int         `yaml:"response_buffer_size"`
	TickPeriodMS    int         `yaml:"tick_period_ms"`
	AuditDBPath     string      `yaml:"audit_db_path"`
	MetricsListen   string      `yaml:"metrics_listen"`
	Modbus          *ModbusGW   `yaml:"modbus"`
	PVs             []PVSpec    `yaml:"pvs"`
	Motors          []MotorSpec `yaml:"motors"`
}

// ModbusGW configures the optional Modbus gateway (internal/mbgateway).
type ModbusGW struct {
	TCPListen string   `yaml:"tcp_listen"`
	RTUDevice string   `yaml:"rtu_device"`
	RTUBaud   int      `yaml:"rtu_baud"`
	Registers []string `yaml:"registers"` // PV names mirrored in order, each onto the table its Kind maps to (see mbgateway.Mirror)
}

// PVSpec declares or overrides one PV. Law names one of registry's
// UpdateLaw values ("none", "ring_current", …); an unknown or empty law
// defaults to LawNone.
type PVSpec struct {
	Name            string  `yaml:"name"`
	Kind            string  `yaml:"kind"` // "ai" | "ao" | "bi" | "bo"
	Value           float64 `yaml:"value"`
	Min             float64 `yaml:"min"`
	Max             float64 `yaml:"max"`
	Writable        bool    `yaml:"writable"`
	Law             string  `yaml:"law"`
	DependsOn       string  `yaml:"depends_on"`
	Base            float64 `yaml:"base"`
	NoiseAmplitude  float64 `yaml:"noise_amplitude"`
	InstantReadback bool    `yaml:"instant_readback"`
	ReadbackTarget  string  `yaml:"readback_target"`
}

// MotorSpec declares a motor tuple over an already-declared setpoint PV.
type MotorSpec struct {
	Setpoint string  `yaml:"setpoint"`
	Velocity float64 `yaml:"velocity"`
}

// Defaults from spec.md §6.
const (
	DefaultListen          = "0.0.0.0:5064"
	DefaultMaxClients      = 32
	DefaultCmdBufferSize   = 1024
	DefaultResponseBufSize = 4096
	DefaultTickPeriodMS    = 10
)

// Load reads and validates a YAML manifest. An empty path is not an
// error: it is treated the same as "no config file", matching
// cmd/server/main.go's fallback to the compiled-in catalog.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.CmdBufferSize <= 0 {
		cfg.CmdBufferSize = DefaultCmdBufferSize
	}
	if cfg.ResponseBufSize <= 0 {
		cfg.ResponseBufSize = DefaultResponseBufSize
	}
	if cfg.TickPeriodMS <= 0 {
		cfg.TickPeriodMS = DefaultTickPeriodMS
	}
}

// validate rejects duplicate PV names and motor tuples that reference an
// undeclared setpoint before anything downstream is built.
func validate(cfg Config) error {
	seen := make(map[string]bool, len(cfg.PVs))
	for _, pv := range cfg.PVs {
		if pv.Name == "" {
			return fmt.Errorf("config: pv entry missing name")
		}
		if seen[pv.Name] {
			return fmt.Errorf("config: duplicate pv name %q", pv.Name)
		}
		seen[pv.Name] = true
	}
	for _, m := range cfg.Motors {
		if m.Setpoint == "" {
			return fmt.Errorf("config: motor entry missing setpoint")
		}
		if !seen[m.Setpoint] {
			return fmt.Errorf("config: motor %q references undeclared setpoint pv", m.Setpoint)
		}
		if m.Velocity <= 0 {
			return fmt.Errorf("config: motor %q velocity must be positive", m.Setpoint)
		}
	}
	return nil
}

func kindOf(s string) registry.Kind {
	switch s {
	case "ao":
		return registry.AnalogOut
	case "bi":
		return registry.BinaryIn
	case "bo":
		return registry.BinaryOut
	default:
		return registry.AnalogIn
	}
}

func lawOf(s string) registry.UpdateLaw {
	switch s {
	case "ring_current":
		return registry.LawRingCurrent
	case "vacuum_pressure":
		return registry.LawVacuumPressure
	case "hutch_temperature":
		return registry.LawHutchTemperature
	case "detector_proportional":
		return registry.LawDetectorProportional
	case "shutter_follows_command":
		return registry.LawShutterFollowsCommand
	default:
		return registry.LawNone
	}
}

// BuildRegistry populates reg from the config: the compiled-in catalog
// first, then any additional PVs and motors the manifest declares,
// matching spec.md's "illustrative, not the contract" framing of the
// default device list — the manifest extends it rather than replacing
// it outright.
func BuildRegistry(cfg Config, reg *registry.Registry) {
	reg.DefaultCatalog()
	for _, p := range cfg.PVs {
		reg.RegisterPV(registry.PV{
			Name:            p.Name,
			Kind:            kindOf(p.Kind),
			Value:           p.Value,
			Min:             p.Min,
			Max:             p.Max,
			Writable:        p.Writable,
			Law:             lawOf(p.Law),
			DependsOn:       p.DependsOn,
			Base:            p.Base,
			NoiseAmplitude:  p.NoiseAmplitude,
			InstantReadback: p.InstantReadback,
			ReadbackTarget:  p.ReadbackTarget,
		})
	}
	for _, m := range cfg.Motors {
		reg.RegisterMotor(m.Setpoint, m.Velocity)
	}
}
