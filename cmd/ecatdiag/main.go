// ecatdiag runs a scripted diagnostic session against a simulated bus: it
// brings the bus up from a YAML description, runs cyclic exchange with an
// optional mid-run dropout, exercises recovery, and reports bus health.
//
// Usage: ecatdiag <config.yaml>
package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/logger"
	"github.com/arloliu/go-ecat/master"
	"github.com/arloliu/go-ecat/pdo"
	"github.com/arloliu/go-ecat/simbus"
)

func main() {
	log := logger.NewSlog(logger.InfoLevel, false)
	logger.SetDefault(log)

	if len(os.Args) < 2 {
		log.Fatal("usage: ecatdiag <config.yaml>")
	}

	cfg, err := loadConfig(os.Args[1])
	if err != nil {
		log.Fatal("config load failed", "error", err)
	}

	if err := run(cfg, log); err != nil {
		log.Error("diagnostic run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *Config, log logger.Logger) error {
	slaveCfgs := make([]simbus.SlaveConfig, 0, len(cfg.Slaves))
	for _, s := range cfg.Slaves {
		slaveCfgs = append(slaveCfgs, simbus.SlaveConfig{
			Name:        s.Name,
			VendorID:    s.VendorID,
			ProductCode: s.ProductCode,
			OutputBytes: s.OutputBytes,
			InputBytes:  s.InputBytes,
		})
	}
	bus := simbus.New(slaveCfgs...)

	opts := []master.Option{master.WithLogger(log)}
	if cfg.ImageSize != 0 {
		opts = append(opts, master.WithImageSize(cfg.ImageSize))
	}

	sess, err := master.Open(bus, cfg.Adapter, opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	infos, err := sess.ScanSlaves(sess.SlaveCount())
	if err != nil {
		return err
	}
	for _, info := range infos {
		log.Info("slave", "position", info.Position, "name", info.Name,
			"vendor", info.VendorID, "product", info.ProductCode)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var (
		lowCycles  int
		recoveries int
		failed     int
	)

	ticker := time.NewTicker(cfg.Cycle.interval())
	defer ticker.Stop()

	for cycle := 1; cycle <= cfg.Cycle.Count; cycle++ {
		select {
		case <-stop:
			log.Warn("interrupted", "cycle", cycle)
			cycle = cfg.Cycle.Count // fall through to the summary
		case <-ticker.C:
		}

		if cfg.Fault.DropSlave != 0 {
			switch cycle {
			case cfg.Fault.DropAtCycle:
				log.Warn("injecting dropout", "slave", cfg.Fault.DropSlave, "cycle", cycle)
				bus.DropSlave(cfg.Fault.DropSlave)
			case cfg.Fault.RestoreAtCycle:
				log.Warn("restoring slave", "slave", cfg.Fault.DropSlave, "cycle", cycle)
				bus.RestoreSlave(cfg.Fault.DropSlave)
			}
		}

		// walk the first axis through a slow ramp to exercise the command
		// and status paths
		if cycle%10 == 1 {
			cmd := pdo.Command{Code: "DPOS", Parameter: int32(cycle * 100), Execute: 1}
			if err := sess.WriteCommand(1, cmd); err != nil {
				log.Error("command write failed", "error", err)
			}
		}

		wkc, err := sess.Exchange(nil, nil, cfg.Cycle.timeout())
		switch {
		case err == nil:
			if cycle%10 == 0 {
				if st, serr := sess.ReadStatus(1); serr == nil {
					log.Info("cycle", "n", cycle, "wkc", wkc,
						"position", st.ActualPosition, "flags", st.Flags.Names())
				}
			}

		case errors.Is(err, ecat.ErrWKCLow):
			lowCycles++
			if text, derr := sess.DrainErrors(); derr == nil && text != "" {
				log.Warn("bus error text", "text", text)
			}
			if rerr := sess.Recover(cfg.Cycle.recoverTimeout()); rerr != nil {
				log.Warn("recovery failed", "cycle", cycle, "error", rerr)
			} else {
				recoveries++
				log.Info("recovered", "cycle", cycle)
			}

		default:
			failed++
			log.Error("exchange failed", "cycle", cycle, "error", err)
		}
	}

	health, err := sess.GetHealth()
	if err != nil {
		return err
	}
	log.Info("run summary",
		"slaves", health.SlavesFound,
		"operational", health.SlavesOperational,
		"expectedWKC", health.ExpectedWKC,
		"lastWKC", health.LastWKC,
		"lowCycles", lowCycles,
		"recoveries", recoveries,
		"failedCycles", failed,
		"alStatus", health.ALStatusCode)

	if health.SlavesOperational < health.SlavesFound {
		return errors.New("bus degraded at end of run")
	}

	return nil
}
