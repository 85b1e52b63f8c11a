package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/config"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/logging"
	"github.com/vsinha/dough/pkg/interfaces/cli/output"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	ConfigFile string
	SeedFile   string
	At         string
	Forecast   entities.Forecast
	Release    int
	Consume    int
	Advance    string
	OutputDir  string
	Format     string
	Verbose    bool
	Help       bool
	Out        io.Writer
}

// PlanCommand loads an inventory, applies the requested operations and prints the plan
type PlanCommand struct {
	config PlanConfig
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config PlanConfig) *PlanCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &PlanCommand{config: config}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}
	if c.config.SeedFile != "" {
		cfg.Seed.File = c.config.SeedFile
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	now, err := c.resolveNow()
	if err != nil {
		return err
	}
	clk := clock.NewFakeClock(now)

	seeds, err := loadSeeds(cfg, now)
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg, logger, nil, clk, events.NewInMemoryEventStore(logger))
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}
	if err := orch.Initialize(ctx, seeds); err != nil {
		return err
	}

	report := output.Report{AsOf: now, Forecast: c.config.Forecast}
	report.Transitions = orch.Tick(ctx, now)

	for _, id := range c.advanceIDs() {
		if err := orch.AdvanceDefrostToProve(ctx, id, now); err != nil {
			return fmt.Errorf("error advancing %s: %w", id, err)
		}
	}
	if c.config.Release != 0 {
		report.Release, err = orch.ReleaseFromFrozen(ctx, c.config.Release, now)
		if err != nil {
			return fmt.Errorf("error releasing from frozen: %w", err)
		}
	}
	if c.config.Consume != 0 {
		report.Consume, err = orch.ConsumeReady(ctx, c.config.Consume)
		if err != nil {
			return fmt.Errorf("error consuming ready trays: %w", err)
		}
	}

	report.Plan, err = orch.ComputePlan(ctx, c.config.Forecast, now)
	if err != nil {
		return fmt.Errorf("error computing plan: %w", err)
	}
	report.Summary = orch.Summary(ctx, now)

	logger.Debug("plan run complete",
		zap.Int("batches", len(report.Summary.Batches)),
		zap.Int("trays_to_start", report.Plan.TotalTraysToStart))

	return output.Generate(c.config.Out, report, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
	})
}

func (c *PlanCommand) validateInputs() error {
	switch c.config.Format {
	case "", "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	return nil
}

// resolveNow parses -at, defaulting to the wall clock
func (c *PlanCommand) resolveNow() (time.Time, error) {
	if c.config.At == "" {
		return clock.SystemClock{}.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, c.config.At)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -at %q: expected RFC3339", c.config.At)
	}
	return at.UTC(), nil
}

func (c *PlanCommand) advanceIDs() []entities.BatchID {
	var ids []entities.BatchID
	for _, raw := range strings.Split(c.config.Advance, ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, entities.BatchID(id))
		}
	}
	return ids
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.config.Out, `dough plan - tray planning for a proving dough pipeline

USAGE:
    dough plan [options]

OPTIONS:
    -config <file>        Config file (default: dough.yml in . or /etc/dough)
    -seed <file>          Seed batches CSV (default: built-in sample inventory)
    -at <time>            Plan as of an RFC3339 time (default: now)
    -lunch <n>            Lunch forecast in dough balls (default: 180)
    -dinner <n>           Dinner forecast in dough balls (default: 220)
    -safety <pct>         Safety margin percent (default: 10)
    -buffer <trays>       Minimum tray buffer per period (default: 2)
    -advance <ids>        Comma-separated defrosting batches to move into proving
    -release <trays>      Trays to release from frozen before planning
    -consume <trays>      Ready trays to consume before planning
    -format <fmt>         Output format: text, json, csv (default: text)
    -output <dir>         Write json/csv results to a directory
    -verbose              Show every batch and transition
    -help                 Show this help message

SEED CSV FORMAT:
    id,quantity,stage,stage_entered_at
    B-1001,120,Ready,-60h
    B-1002,84,Proving,2025-06-01T13:00:00Z
    B-1004,140,Frozen,

EXAMPLES:
    # Plan from the sample inventory
    dough plan -verbose

    # Start the suggested trays and show the new plan as JSON
    dough plan -release 18 -format json
`)
}
