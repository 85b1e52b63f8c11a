package orchestration

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/allocation"
	"github.com/vsinha/dough/pkg/application/services/lifecycle"
	"github.com/vsinha/dough/pkg/application/services/planning"
	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/domain/repositories"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/idgen"
	"github.com/vsinha/dough/pkg/infrastructure/metrics"
)

const (
	OpInitialize = "initialize"
	OpRelease    = "release"
	OpConsume    = "consume"
	OpAdvance    = "advance"
	OpPlan       = "plan"
)

// maxIDAttempts bounds the search for an unused id before giving up on the generator
const maxIDAttempts = 1 << 16

// Recorder receives operational signals from the orchestrator
type Recorder interface {
	ObservePlan(plan entities.Plan)
	ObserveStock(snapshot []entities.Batch)
	ObserveOperation(operation string, err error)
	ObserveRelease(released, granted entities.Quantity, restocked bool)
	ObserveConsume(consumed, unfulfilled entities.Quantity)
	ObserveTransition(from, to entities.Stage)
}

var _ Recorder = (*metrics.Recorder)(nil)

// Options carries the optional collaborators of an InventoryOrchestrator
type Options struct {
	Events  events.EventStore
	Metrics Recorder
	Logger  *zap.Logger
	// EventClock stamps events for operations that take no explicit time.
	// It is never used for stage arithmetic.
	EventClock clock.Clock
}

// InventoryOrchestrator is the single entry point to the batch store.
// Every operation runs under one mutex, so callers may use it from any goroutine.
type InventoryOrchestrator struct {
	mu sync.Mutex

	policy     entities.Policy
	repo       repositories.BatchRepository
	ids        idgen.Generator
	lifecycle  *lifecycle.TransitionEngine
	allocation *allocation.Engine
	planner    *planning.Planner

	events     events.EventStore
	metrics    Recorder
	logger     *zap.Logger
	eventClock clock.Clock
}

// NewInventoryOrchestrator wires the engines around repo for the given policy
func NewInventoryOrchestrator(
	policy entities.Policy,
	repo repositories.BatchRepository,
	ids idgen.Generator,
	opts Options,
) (*InventoryOrchestrator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("batch repository cannot be nil")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Events
	if store == nil {
		store = events.NewInMemoryEventStore(logger)
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = nopRecorder{}
	}
	eventClock := opts.EventClock
	if eventClock == nil {
		eventClock = clock.SystemClock{}
	}

	return &InventoryOrchestrator{
		policy:     policy,
		repo:       repo,
		ids:        ids,
		lifecycle:  lifecycle.NewTransitionEngine(policy),
		allocation: allocation.NewEngine(policy),
		planner:    planning.NewPlanner(policy),
		events:     store,
		metrics:    recorder,
		logger:     logger.Named("orchestrator"),
		eventClock: eventClock,
	}, nil
}

// Policy returns the constants and switches the orchestrator runs with
func (o *InventoryOrchestrator) Policy() entities.Policy {
	return o.policy
}

// Initialize replaces the store contents with seeds.
// Invalid or duplicate seeds are rejected before anything changes.
func (o *InventoryOrchestrator) Initialize(ctx context.Context, seeds []entities.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batches := make([]*entities.Batch, 0, len(seeds))
	seen := make(map[entities.BatchID]struct{}, len(seeds))
	for _, s := range seeds {
		batch, err := entities.NewBatch(s.ID, s.Quantity, s.Stage, s.StageEnteredAt)
		if err != nil {
			err = fmt.Errorf("invalid seed batch: %w", err)
			o.metrics.ObserveOperation(OpInitialize, err)
			return err
		}
		if _, dup := seen[batch.ID]; dup {
			err := fmt.Errorf("invalid seed batch: %w: %s", entities.ErrDuplicateBatch, batch.ID)
			o.metrics.ObserveOperation(OpInitialize, err)
			return err
		}
		seen[batch.ID] = struct{}{}
		batches = append(batches, batch)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.repo.Reset()
	if err := o.repo.LoadBatches(batches); err != nil {
		o.metrics.ObserveOperation(OpInitialize, err)
		return fmt.Errorf("failed to load seed batches: %w", err)
	}
	purged := o.repo.RemoveEmpty()

	at := o.eventClock.Now()
	for _, batch := range o.repo.List() {
		o.publish(events.NewBatchSeededEvent(*batch, at))
	}

	o.metrics.ObserveOperation(OpInitialize, nil)
	o.metrics.ObserveStock(o.snapshotLocked())
	o.logger.Info("inventory initialized",
		zap.Int("batches", len(batches)-purged),
		zap.Int("purged_empty", purged))
	return nil
}

// Tick applies time-driven stage transitions as of now
func (o *InventoryOrchestrator) Tick(ctx context.Context, now time.Time) []lifecycle.Transition {
	o.mu.Lock()
	defer o.mu.Unlock()

	transitions := o.tickLocked(now)
	if len(transitions) > 0 {
		o.metrics.ObserveStock(o.snapshotLocked())
	}
	return transitions
}

// GetSnapshot returns copies of the live batches in store order
func (o *InventoryOrchestrator) GetSnapshot() []entities.Batch {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// ReleaseFromFrozen starts defrosting trays worth of frozen units
func (o *InventoryOrchestrator) ReleaseFromFrozen(ctx context.Context, trays int, now time.Time) (*allocation.ReleaseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	result, err := o.allocation.ReleaseFromFrozen(o.repo, unusedIDs{repo: o.repo, ids: o.ids}, trays, now)
	o.metrics.ObserveOperation(OpRelease, err)
	if err != nil {
		o.logger.Warn("release rejected", zap.Int("trays", trays), zap.Error(err))
		return nil, err
	}
	if result.UnitsRequested == 0 {
		return result, nil
	}

	for i, created := range result.Created {
		batch, _ := o.repo.Get(created.BatchID)
		var source entities.BatchID
		if i < len(result.DrawnFrom) {
			source = result.DrawnFrom[i].BatchID
		}
		o.publish(events.NewBatchReleasedEvent(*batch, source, now))
	}

	if result.GrantedShortfall > 0 {
		fields := []zap.Field{
			zap.Int("trays", trays),
			zap.Int64("shortfall_units", int64(result.GrantedShortfall)),
		}
		if result.RestockBatch != nil {
			restock, _ := o.repo.Get(result.RestockBatch.BatchID)
			o.publish(events.NewRestockRequestedEvent(*restock, result.GrantedShortfall, now))
			fields = append(fields,
				zap.String("restock_batch", string(restock.ID)),
				zap.Int64("restock_units", int64(restock.Quantity)))
		}
		o.logger.Warn("frozen stock short, shortfall granted", fields...)
	}

	o.metrics.ObserveRelease(result.UnitsRequested, result.GrantedShortfall, result.RestockBatch != nil)
	o.metrics.ObserveStock(o.snapshotLocked())
	o.logger.Info("released from frozen",
		zap.Int("trays", trays),
		zap.Int64("units", int64(result.UnitsRequested)),
		zap.Int("defrosting_batches", len(result.Created)),
		zap.Int("purged", result.Purged))
	return result, nil
}

// ConsumeReady takes trays worth of units from the Ready pool, oldest batches first
func (o *InventoryOrchestrator) ConsumeReady(ctx context.Context, trays int) (*allocation.ConsumeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	result, err := o.allocation.ConsumeReady(o.repo, trays)
	o.metrics.ObserveOperation(OpConsume, err)
	if err != nil {
		o.logger.Warn("consume rejected", zap.Int("trays", trays), zap.Error(err))
		return nil, err
	}
	if result.UnitsRequested == 0 {
		return result, nil
	}

	at := o.eventClock.Now()
	for _, draw := range result.DrawnFrom {
		o.publish(events.NewBatchConsumedEvent(draw.BatchID, draw.Quantity, at))
	}

	o.metrics.ObserveConsume(result.Consumed, result.Unfulfilled)
	o.metrics.ObserveStock(o.snapshotLocked())

	fields := []zap.Field{
		zap.Int("trays", trays),
		zap.Int64("consumed", int64(result.Consumed)),
		zap.Int("purged", result.Purged),
	}
	if result.Unfulfilled > 0 {
		o.logger.Warn("ready pool short", append(fields, zap.Int64("unfulfilled", int64(result.Unfulfilled)))...)
	} else {
		o.logger.Info("consumed ready trays", fields...)
	}
	return result, nil
}

// AdvanceDefrostToProve starts proving a defrosting batch as of now
func (o *InventoryOrchestrator) AdvanceDefrostToProve(ctx context.Context, id entities.BatchID, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	moved, err := o.allocation.AdvanceDefrostToProve(o.repo, id, now)
	o.metrics.ObserveOperation(OpAdvance, err)
	if err != nil {
		o.logger.Warn("advance rejected", zap.String("batch", string(id)), zap.Error(err))
		return err
	}
	if !moved {
		o.logger.Debug("advance ignored", zap.String("batch", string(id)))
		return nil
	}

	o.publish(events.NewBatchAdvancedEvent(id, entities.Defrosting, entities.Proving, now))
	o.metrics.ObserveTransition(entities.Defrosting, entities.Proving)
	o.metrics.ObserveStock(o.snapshotLocked())
	o.logger.Info("batch moved to proving", zap.String("batch", string(id)))
	return nil
}

// ComputePlan ticks to now and plans the trays to release for the forecast
func (o *InventoryOrchestrator) ComputePlan(ctx context.Context, forecast entities.Forecast, now time.Time) (entities.Plan, error) {
	if err := ctx.Err(); err != nil {
		return entities.Plan{}, err
	}
	if err := checkSafetyMargin(forecast); err != nil {
		o.metrics.ObserveOperation(OpPlan, err)
		return entities.Plan{}, err
	}
	if o.policy.StrictValidation {
		if err := validateForecast(forecast); err != nil {
			o.metrics.ObserveOperation(OpPlan, err)
			return entities.Plan{}, err
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.tickLocked(now)
	snapshot := o.snapshotLocked()
	plan := o.planner.ComputePlan(snapshot, forecast, now)

	o.publish(events.NewPlanComputedEvent(forecast, plan, now))
	o.metrics.ObserveOperation(OpPlan, nil)
	o.metrics.ObservePlan(plan)
	o.metrics.ObserveStock(snapshot)
	o.logger.Debug("plan computed",
		zap.Int("trays_ready", plan.TraysReady),
		zap.Int("inbound", plan.InboundReadyBy50h),
		zap.Int("trays_to_start", plan.TotalTraysToStart))
	return plan, nil
}

// Summary ticks to now and aggregates the store for display
func (o *InventoryOrchestrator) Summary(ctx context.Context, now time.Time) planning.InventorySummary {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.tickLocked(now)
	return o.planner.Summarize(o.snapshotLocked(), now)
}

// History returns recorded events starting at position from
func (o *InventoryOrchestrator) History(from int) ([]events.Event, error) {
	return o.events.ReadAllEvents(from)
}

// unusedIDs skips generator candidates the store has already issued
type unusedIDs struct {
	repo repositories.BatchRepository
	ids  idgen.Generator
}

var _ allocation.IDSource = unusedIDs{}

func (u unusedIDs) NextBatchID() entities.BatchID {
	for range maxIDAttempts {
		id := u.ids.NextID()
		if !u.repo.Contains(id) {
			return id
		}
	}
	panic(fmt.Sprintf("orchestration: no unused batch id after %d attempts", maxIDAttempts))
}

func (o *InventoryOrchestrator) tickLocked(now time.Time) []lifecycle.Transition {
	transitions := o.lifecycle.Advance(o.repo, now)
	for _, tr := range transitions {
		o.publish(events.NewStageTransitionedEvent(tr.BatchID, tr.From, tr.To, tr.ElapsedHours, now))
		o.metrics.ObserveTransition(tr.From, tr.To)
		o.logger.Debug("stage transition",
			zap.String("batch", string(tr.BatchID)),
			zap.Stringer("from", tr.From),
			zap.Stringer("to", tr.To),
			zap.Float64("elapsed_hours", tr.ElapsedHours))
	}
	return transitions
}

func (o *InventoryOrchestrator) snapshotLocked() []entities.Batch {
	batches := o.repo.List()
	snapshot := make([]entities.Batch, len(batches))
	for i, b := range batches {
		snapshot[i] = *b
	}
	return snapshot
}

func (o *InventoryOrchestrator) publish(event events.Event) {
	if err := o.events.AppendEvent(event.StreamID(), event); err != nil {
		o.logger.Warn("failed to record event", zap.String("type", event.Type()), zap.Error(err))
	}
}

// checkSafetyMargin rejects margins decimal arithmetic cannot represent, in every validation mode
func checkSafetyMargin(f entities.Forecast) error {
	if math.IsNaN(f.SafetyPct) || math.IsInf(f.SafetyPct, 0) {
		return fmt.Errorf("%w: safety margin must be a finite percentage, got %v", entities.ErrInvalidQuantity, f.SafetyPct)
	}
	return nil
}

func validateForecast(f entities.Forecast) error {
	if f.Lunch < 0 || f.Dinner < 0 || f.MinTrayBuffer < 0 || f.SafetyPct < 0 {
		return fmt.Errorf("%w: forecast values cannot be negative: %+v", entities.ErrInvalidQuantity, f)
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObservePlan(entities.Plan) {}
func (nopRecorder) ObserveStock([]entities.Batch) {}
func (nopRecorder) ObserveOperation(string, error) {}
func (nopRecorder) ObserveRelease(entities.Quantity, entities.Quantity, bool) {}
func (nopRecorder) ObserveConsume(entities.Quantity, entities.Quantity) {}
func (nopRecorder) ObserveTransition(entities.Stage, entities.Stage) {}
