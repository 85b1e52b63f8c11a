package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/orchestration"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/config"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/logging"
	"github.com/vsinha/dough/pkg/interfaces/api"
)

const shutdownTimeout = 10 * time.Second

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	ConfigFile string
	SeedFile   string
	Addr       string
}

// ServeCommand runs the HTTP API with a background stage ticker
type ServeCommand struct {
	config ServeConfig
}

// NewServeCommand creates a new serve command with the given configuration
func NewServeCommand(config ServeConfig) *ServeCommand {
	return &ServeCommand{config: config}
}

// Execute blocks until ctx is cancelled, then stops the app
func (c *ServeCommand) Execute(ctx context.Context) error {
	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}
	if c.config.SeedFile != "" {
		cfg.Seed.File = c.config.SeedFile
	}
	if c.config.Addr != "" {
		cfg.HTTP.Addr = c.config.Addr
	}

	app := fx.New(serveOptions(cfg))
	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Stop(stopCtx)
}

func serveOptions(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newRegistry,
			newClock,
			newEventStore,
			newRestockLog,
			newOrchestrator,
			newServer,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(runHTTP, runTicker),
	)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newClock() clock.Clock {
	return clock.SystemClock{}
}

func newEventStore(logger *zap.Logger) *events.InMemoryEventStore {
	return events.NewInMemoryEventStore(logger)
}

// newRestockLog subscribes before the orchestrator seeds, so no restock event is missed
func newRestockLog(logger *zap.Logger, store *events.InMemoryEventStore) (*events.RestockLog, error) {
	log := events.NewRestockLog(logger)
	if err := log.Subscribe(store); err != nil {
		return nil, err
	}
	return log, nil
}

func newOrchestrator(
	cfg config.Config,
	logger *zap.Logger,
	reg *prometheus.Registry,
	clk clock.Clock,
	store *events.InMemoryEventStore,
	_ *events.RestockLog,
) (*orchestration.InventoryOrchestrator, error) {
	orch, err := buildOrchestrator(cfg, logger, reg, clk, store)
	if err != nil {
		return nil, err
	}

	seeds, err := loadSeeds(cfg, clk.Now())
	if err != nil {
		return nil, err
	}
	if err := orch.Initialize(context.Background(), seeds); err != nil {
		return nil, err
	}
	return orch, nil
}

func newServer(
	orch *orchestration.InventoryOrchestrator,
	clk clock.Clock,
	reg *prometheus.Registry,
	restocks *events.RestockLog,
	logger *zap.Logger,
) *api.Server {
	return api.NewServer(orch, clk, reg, restocks, logger)
}

func runHTTP(lc fx.Lifecycle, cfg config.Config, s *api.Server, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func runTicker(lc fx.Lifecycle, cfg config.Config, orch *orchestration.InventoryOrchestrator, clk clock.Clock, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				tickLoop(ctx, orch, clk, cfg.Tick.Interval, logger)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// tickLoop re-evaluates stage transitions every interval until ctx is done
func tickLoop(ctx context.Context, orch *orchestration.InventoryOrchestrator, clk clock.Clock, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if moved := orch.Tick(ctx, clk.Now()); len(moved) > 0 {
				logger.Debug("stage transitions applied", zap.Int("count", len(moved)))
			}
		}
	}
}
