package commands

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/orchestration"
	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/config"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/idgen"
	"github.com/vsinha/dough/pkg/infrastructure/metrics"
	"github.com/vsinha/dough/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/dough/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/dough/pkg/infrastructure/seed"
)

// loadSeeds reads the configured seed file, or the sample inventory when none is set
func loadSeeds(cfg config.Config, now time.Time) ([]entities.Batch, error) {
	var batches []*entities.Batch
	if cfg.Seed.File == "" {
		batches = seed.Default(now)
	} else {
		loaded, err := csv.NewLoader().LoadBatches(cfg.Seed.File, now)
		if err != nil {
			return nil, fmt.Errorf("error loading seed batches: %w", err)
		}
		batches = loaded
	}

	seeds := make([]entities.Batch, len(batches))
	for i, b := range batches {
		seeds[i] = *b
	}
	return seeds, nil
}

// buildOrchestrator wires an orchestrator from configuration. A nil registerer disables metrics.
func buildOrchestrator(
	cfg config.Config,
	logger *zap.Logger,
	registerer prometheus.Registerer,
	clk clock.Clock,
	store events.EventStore,
) (*orchestration.InventoryOrchestrator, error) {
	ids, err := idgen.New(idgen.Strategy(cfg.IDs.Strategy), cfg.IDs.Node)
	if err != nil {
		return nil, err
	}

	opts := orchestration.Options{
		Events:     store,
		Logger:     logger,
		EventClock: clk,
	}
	if registerer != nil {
		opts.Metrics = metrics.New(registerer)
	}

	return orchestration.NewInventoryOrchestrator(cfg.Policy, memory.NewBatchRepository(64), ids, opts)
}
