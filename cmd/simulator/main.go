// Command simulator runs the device simulator server described by
// spec.md: it loads an optional YAML manifest, builds the PV/motor
// registry, and serves the line protocol (plus an optional Modbus
// gateway) until SIGINT/SIGTERM, adapted from the teacher's
// cmd/server/main.go flag/run split.
package main

import (
	"flag"
	"log"

	"devicesim/internal/config"
	"devicesim/internal/simlog"
	"devicesim/internal/supervisor"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML device/server manifest (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := supervisor.Run(supervisor.Options{Config: cfg, Log: simlog.Default}); err != nil {
		log.Fatalf("simulator: %v", err)
	}
}
