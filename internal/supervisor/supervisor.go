// Package supervisor implements spec.md §4.5: signal handling, the tick
// scheduler, and startup/teardown sequencing. It is grounded on
// cmd/server/main.go's signal.NotifyContext + errCh pattern, adapted
// from "run one simulator" to "run the event loop until asked to stop."
package supervisor

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"devicesim/internal/audit"
	"devicesim/internal/config"
	"devicesim/internal/mbgateway"
	"devicesim/internal/metrics"
	"devicesim/internal/registry"
	"devicesim/internal/simlog"
	"devicesim/internal/simserver"
)

// Options bundles what Run needs to stand the simulator up, mirroring
// the teacher's simulator struct but assembled from config.Config
// instead of its TOML fields.
type Options struct {
	Config config.Config
	Log    *simlog.Logger
}

// Run builds the registry and server from cfg, starts the optional
// metrics listener, opens the optional audit log, and drives the event
// loop until SIGINT/SIGTERM, matching spec.md §4.5's "a monotonic clock
// drives the simulation tick … the supervisor drains every active
// session and closes the listener" teardown.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = simlog.Default
	}

	reg := registry.New(simlog.New("registry: ", nil))
	config.BuildRegistry(opts.Config, reg)

	var auditLog *audit.Log
	if opts.Config.AuditDBPath != "" {
		var err error
		auditLog, err = audit.Open(opts.Config.AuditDBPath)
		if err != nil {
			return err
		}
		defer auditLog.Close()
		log.Infof("audit log opened at %s", opts.Config.AuditDBPath)
	}

	if opts.Config.MetricsListen != "" {
		go func() {
			log.Infof("metrics listening on %s", opts.Config.MetricsListen)
			if err := metrics.Serve(opts.Config.MetricsListen); err != nil {
				log.Errorf("metrics listener stopped: %v", err)
			}
		}()
	}

	rng := registry.NewRand(time.Now().UnixNano())
	limits := simserver.Limits{
		MaxClients:      opts.Config.MaxClients,
		CmdBufferSize:   opts.Config.CmdBufferSize,
		ResponseBufSize: opts.Config.ResponseBufSize,
		TickPeriodMS:    opts.Config.TickPeriodMS,
	}
	srv, err := simserver.New(opts.Config.Listen, reg, rng, simlog.New("server: ", nil), auditLog, limits)
	if err != nil {
		return err
	}
	defer srv.Close()
	log.Infof("listening on %s", opts.Config.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Config.Modbus != nil {
		gw := mbgateway.NewServer(len(opts.Config.Modbus.Registers))
		mirror := mbgateway.NewMirror(gw, reg, opts.Config.Modbus.Registers)
		// Running from the server's own goroutine (via RunOnce's tick
		// hook) keeps the registry read inside the single execution
		// context spec.md §5 mandates: nothing outside srv.Run ever
		// touches reg.
		srv.SetTickHook(mirror.Update)

		if opts.Config.Modbus.TCPListen != "" {
			if err := gw.Listen(opts.Config.Modbus.TCPListen); err != nil {
				return err
			}
			defer gw.Close()
			log.Infof("modbus gateway listening on %s", opts.Config.Modbus.TCPListen)
		}
		if opts.Config.Modbus.RTUDevice != "" {
			rtuCtx, rtuCancel := context.WithCancel(context.Background())
			defer rtuCancel()
			go func() {
				params := mbgateway.RTUParams{
					Address: opts.Config.Modbus.RTUDevice,
					Baud:    opts.Config.Modbus.RTUBaud,
				}
				if err := gw.ServeRTU(rtuCtx, params); err != nil {
					log.Errorf("modbus rtu handler stopped: %v", err)
				}
			}()
			log.Infof("modbus gateway serving RTU on %s", opts.Config.Modbus.RTUDevice)
		}
	}

	stopLoop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Run(stopLoop)
	}()

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	var lastStats time.Time
	for {
		select {
		case <-ctx.Done():
			log.Infof("signal received, shutting down")
			close(stopLoop)
			<-done
			return nil
		case <-statsTicker.C:
			logStats(log, srv, lastStats)
			lastStats = time.Now()
		}
	}
}

// logStats writes a periodic diagnostic line using go-humanize for
// human-readable byte counts and relative timestamps; this does not
// affect simulation state.
func logStats(log *simlog.Logger, srv *simserver.Server, last time.Time) {
	highWater := humanize.Bytes(uint64(srv.BufHighWaterBytes()))
	if last.IsZero() {
		log.Infof("stats: startup complete, sessions=%d buf_high_water=%s", srv.NumSessions(), highWater)
		return
	}
	log.Infof("stats: sessions=%d buf_high_water=%s last report %s", srv.NumSessions(), highWater, humanize.Time(last))
}
