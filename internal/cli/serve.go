package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/config"
	"github.com/zoneai/zoneai/internal/debugserver"
	"github.com/zoneai/zoneai/internal/inspector"
	"github.com/zoneai/zoneai/internal/maintenance"
	"github.com/zoneai/zoneai/internal/treedef"
	"github.com/zoneai/zoneai/internal/zone"
)

// NewServeCmd builds the serve command: load the world definition, build
// zones, start the debug server (and its optional satellites), and tick
// every zone until signaled (spec §4.7, SPEC_FULL.md §2.3).
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the world definition and run the zone scheduler",
		Long: `serve loads the YAML world definition, builds every zone it
describes, starts the remote debug protocol server, and ticks each zone
until interrupted.`,
		Example: `  zoned serve
  zoned serve --world ./world.yaml`,
		RunE: runServe,
	}

	cmd.Flags().String("world", "", "path to the world definition YAML file (overrides config)")
	cmd.Flags().String("address", "", "debug server bind address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return fmt.Errorf("CLI context not initialized")
	}
	cfg := cliCtx.Config
	log := cliCtx.Log()

	if worldPath, _ := cmd.Flags().GetString("world"); worldPath != "" {
		cfg.World.DefinitionPath = worldPath
	}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		cfg.DebugServer.Address = address
	}
	if cfg.World.DefinitionPath == "" {
		return fmt.Errorf("no world definition configured (set world.definition_path or pass --world)")
	}

	zones, err := buildZones(cfg.World.DefinitionPath)
	if err != nil {
		return fmt.Errorf("build zones: %w", err)
	}
	log.Info().Int("zones", len(zones)).Str("path", cfg.World.DefinitionPath).Msg("world definition loaded")

	runner := newServeRunner(cfg, zones, log)
	if err := runner.start(); err != nil {
		return err
	}
	defer runner.stop()

	// SPEC_FULL.md §2.2: hot-reload the debug server's bind address and
	// idle timeout when the config file changes on disk.
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed, reloading debug server")
		var reloaded config.Config
		if err := viper.Unmarshal(&reloaded); err != nil {
			log.Warn().Err(err).Msg("failed to reload config")
			return
		}
		if err := runner.reconfigureDebugServer(reloaded.DebugServer); err != nil {
			log.Warn().Err(err).Msg("failed to apply reloaded debug server config")
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")
	return nil
}

func buildZones(path string) (map[string]*zone.Zone, error) {
	doc, err := treedef.Load(path)
	if err != nil {
		return nil, err
	}
	regs := treedef.NewRegistries()
	builder := treedef.NewBuilder(doc, regs)
	return builder.BuildZones(aggro.DecrementPerSecond(1), 0)
}

// serveRunner owns the lifetime of every component a running simulation
// needs: the debug server, the optional inspector HTTP bridge, the
// maintenance reporter, and the tick loop driving every zone.
type serveRunner struct {
	cfg   *config.Config
	zones map[string]*zone.Zone
	log   *zerolog.Logger

	mu         sync.Mutex
	debug      *debugserver.Server
	inspectSrv *http.Server
	reporter   *maintenance.Reporter

	tickCancel context.CancelFunc
	tickDone   chan struct{}
}

func newServeRunner(cfg *config.Config, zones map[string]*zone.Zone, log *zerolog.Logger) *serveRunner {
	return &serveRunner{cfg: cfg, zones: zones, log: log}
}

func (r *serveRunner) start() error {
	if err := r.startDebugServer(r.cfg.DebugServer); err != nil {
		return err
	}

	if r.cfg.Inspector.Enabled {
		bridge := inspector.New(func() []string {
			names := make([]string, 0, len(r.zones))
			for name := range r.zones {
				names = append(names, name)
			}
			return names
		})
		r.debug.SetInspector(bridge)

		srv := &http.Server{Addr: r.cfg.Inspector.Address, Handler: bridge.Router()}
		r.inspectSrv = srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.log.Warn().Err(err).Msg("inspector HTTP server stopped")
			}
		}()
		r.log.Info().Str("address", r.cfg.Inspector.Address).Msg("inspector bridge listening")
	}

	if r.cfg.Maintenance.Enabled {
		reporter, err := maintenance.NewReporter(r.cfg.Maintenance.Schedule)
		if err != nil {
			return fmt.Errorf("maintenance reporter: %w", err)
		}
		for _, z := range r.zones {
			reporter.Watch(z)
		}
		if err := reporter.Start(); err != nil {
			return fmt.Errorf("maintenance reporter: %w", err)
		}
		r.reporter = reporter
	}

	r.startTickLoop()
	return nil
}

func (r *serveRunner) stop() {
	if r.tickCancel != nil {
		r.tickCancel()
		<-r.tickDone
	}
	if r.reporter != nil {
		r.reporter.Stop()
	}
	if r.inspectSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.inspectSrv.Shutdown(ctx)
	}

	r.mu.Lock()
	debug := r.debug
	r.mu.Unlock()
	if debug != nil {
		_ = debug.Stop()
	}
}

func (r *serveRunner) startDebugServer(cfg config.DebugServerConfig) error {
	idleTimeout, err := parseDurationOrZero(cfg.IdleTimeout)
	if err != nil {
		return fmt.Errorf("debug_server.idle_timeout: %w", err)
	}

	srv := debugserver.New(debugserver.Config{
		Address:         cfg.Address,
		IdleTimeout:     idleTimeout,
		ProtocolVersion: cfg.ProtocolVersion,
	})
	for _, z := range r.zones {
		srv.RegisterZone(z)
	}
	if err := srv.Start(context.Background()); err != nil {
		return fmt.Errorf("start debug server: %w", err)
	}
	r.log.Info().Str("address", cfg.Address).Msg("debug server listening")

	r.mu.Lock()
	r.debug = srv
	r.mu.Unlock()
	return nil
}

// reconfigureDebugServer restarts the debug server against a new
// address/idle-timeout/protocol version, re-registering every zone that
// was already built. Client connections are dropped across the restart -
// spec §4.8's "last client disconnects" cleanup already handles that
// cleanly.
func (r *serveRunner) reconfigureDebugServer(cfg config.DebugServerConfig) error {
	r.mu.Lock()
	old := r.debug
	r.mu.Unlock()
	if old != nil {
		_ = old.Stop()
	}
	return r.startDebugServer(cfg)
}

func (r *serveRunner) startTickLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	r.tickCancel = cancel
	r.tickDone = make(chan struct{})

	interval, err := parseDurationOrZero(r.cfg.World.TickInterval)
	if err != nil || interval <= 0 {
		interval = 100 * time.Millisecond
	}

	go func() {
		defer close(r.tickDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		dt := interval.Milliseconds()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, z := range r.zones {
					z.Update(dt)
				}
				r.mu.Lock()
				debug := r.debug
				r.mu.Unlock()
				if debug != nil {
					debug.Update(dt)
				}
			}
		}
	}()
}

func parseDurationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
