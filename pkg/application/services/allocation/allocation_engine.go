package allocation

import (
	"fmt"
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/domain/repositories"
)

// IDSource hands out batch ids that have never been used by the store
type IDSource interface {
	NextBatchID() entities.BatchID
}

// Draw records units taken from one source batch
type Draw struct {
	BatchID  entities.BatchID  `json:"batch_id"`
	Quantity entities.Quantity `json:"quantity"`
}

// ReleaseResult describes what ReleaseFromFrozen did to the store
type ReleaseResult struct {
	TraysRequested int               `json:"trays_requested"`
	UnitsRequested entities.Quantity `json:"units_requested"`
	DrawnFrom      []Draw            `json:"drawn_from"`
	// Created lists the new Defrosting batches in creation order
	Created []Draw `json:"created"`
	// GrantedShortfall is the part of the request frozen stock could not cover
	GrantedShortfall entities.Quantity `json:"granted_shortfall"`
	// RestockBatch is the Frozen batch recorded as a restock signal, if any
	RestockBatch *Draw `json:"restock_batch,omitempty"`
	Purged       int   `json:"purged"`
}

// ConsumeResult describes what ConsumeReady took from the ready pool
type ConsumeResult struct {
	TraysRequested int               `json:"trays_requested"`
	UnitsRequested entities.Quantity `json:"units_requested"`
	Consumed       entities.Quantity `json:"consumed"`
	Unfulfilled    entities.Quantity `json:"unfulfilled"`
	DrawnFrom      []Draw            `json:"drawn_from"`
	Purged         int               `json:"purged"`
}

// Engine implements FIFO release and consumption across the stage pools
type Engine struct {
	policy entities.Policy
}

// NewEngine creates an allocation engine for the given policy
func NewEngine(policy entities.Policy) *Engine {
	return &Engine{policy: policy}
}

// ReleaseFromFrozen moves trays worth of units from Frozen into new Defrosting batches.
//
// When frozen stock runs out the remainder is still released as a Defrosting batch and a
// Frozen batch of BoxSize minus the remainder is recorded as a restock signal, unless
// StrictFrozenStock is set, in which case nothing changes and ErrInsufficientStock is returned.
func (e *Engine) ReleaseFromFrozen(
	repo repositories.BatchRepository,
	ids IDSource,
	trays int,
	now time.Time,
) (*ReleaseResult, error) {
	result := &ReleaseResult{TraysRequested: trays}
	if trays <= 0 {
		if e.policy.StrictValidation {
			return nil, fmt.Errorf("%w: release of %d trays", entities.ErrInvalidQuantity, trays)
		}
		return result, nil
	}
	if trays > e.policy.MaxTrays() {
		return nil, fmt.Errorf("%w: release of %d trays exceeds %d", entities.ErrInvalidQuantity, trays, e.policy.MaxTrays())
	}

	needed := e.policy.Units(trays)
	result.UnitsRequested = needed

	if e.policy.StrictFrozenStock {
		available := totalIn(repo, entities.Frozen)
		if available < needed {
			return nil, fmt.Errorf("%w: need %d frozen units, have %d", entities.ErrInsufficientStock, needed, available)
		}
	}

	remaining := needed
	for _, batch := range repo.List() {
		if remaining == 0 {
			break
		}
		if batch.Stage != entities.Frozen || batch.Empty() {
			continue
		}

		take := min(remaining, batch.Quantity)
		batch.Take(take)
		remaining -= take
		result.DrawnFrom = append(result.DrawnFrom, Draw{BatchID: batch.ID, Quantity: take})

		created, err := e.appendBatch(repo, ids, take, entities.Defrosting, now)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, created)
	}

	if remaining > 0 {
		// A zero-sized restock batch would be purged straight away, so it is never stored.
		if restockQty := max(0, e.policy.BoxSize-remaining); restockQty > 0 {
			restock, err := e.appendBatch(repo, ids, restockQty, entities.Frozen, now)
			if err != nil {
				return nil, err
			}
			result.RestockBatch = &restock
		}

		created, err := e.appendBatch(repo, ids, remaining, entities.Defrosting, now)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, created)
		result.GrantedShortfall = remaining
	}

	result.Purged = repo.RemoveEmpty()
	return result, nil
}

// ConsumeReady removes trays worth of units from Ready batches in store order.
// A short pool is not an error: the missing units are reported as Unfulfilled.
func (e *Engine) ConsumeReady(repo repositories.BatchRepository, trays int) (*ConsumeResult, error) {
	result := &ConsumeResult{TraysRequested: trays}
	if trays <= 0 {
		if e.policy.StrictValidation {
			return nil, fmt.Errorf("%w: consume of %d trays", entities.ErrInvalidQuantity, trays)
		}
		return result, nil
	}
	if trays > e.policy.MaxTrays() {
		return nil, fmt.Errorf("%w: consume of %d trays exceeds %d", entities.ErrInvalidQuantity, trays, e.policy.MaxTrays())
	}

	needed := e.policy.Units(trays)
	result.UnitsRequested = needed

	remaining := needed
	for _, batch := range repo.List() {
		if remaining == 0 {
			break
		}
		if batch.Stage != entities.Ready || batch.Empty() {
			continue
		}

		take := min(remaining, batch.Quantity)
		batch.Take(take)
		remaining -= take
		result.DrawnFrom = append(result.DrawnFrom, Draw{BatchID: batch.ID, Quantity: take})
	}

	result.Consumed = needed - remaining
	result.Unfulfilled = remaining
	result.Purged = repo.RemoveEmpty()
	return result, nil
}

// AdvanceDefrostToProve moves a Defrosting batch into Proving, restarting its clock at now.
//
// Unknown ids and batches in other stages are ignored unless StrictValidation is set.
// The defrost time is only enforced when EnforceDefrostComplete is set; otherwise callers
// gate the move with IsDefrostComplete.
func (e *Engine) AdvanceDefrostToProve(repo repositories.BatchRepository, id entities.BatchID, now time.Time) (bool, error) {
	batch, err := repo.Get(id)
	if err != nil {
		if e.policy.StrictValidation {
			return false, err
		}
		return false, nil
	}

	if batch.Stage != entities.Defrosting {
		if e.policy.StrictValidation {
			return false, fmt.Errorf("%w: batch %s is %s, not Defrosting", entities.ErrInvalidTransition, id, batch.Stage)
		}
		return false, nil
	}

	if e.policy.EnforceDefrostComplete && batch.ElapsedHours(now) < e.policy.DefrostHours {
		return false, fmt.Errorf("%w: batch %s has defrosted %.2fh of %.2fh",
			entities.ErrInvalidTransition, id, batch.ElapsedHours(now), e.policy.DefrostHours)
	}

	batch.EnterStage(entities.Proving, now)
	return true, nil
}

func (e *Engine) appendBatch(
	repo repositories.BatchRepository,
	ids IDSource,
	qty entities.Quantity,
	stage entities.Stage,
	now time.Time,
) (Draw, error) {
	batch := &entities.Batch{ID: ids.NextBatchID(), Quantity: qty}
	batch.EnterStage(stage, now)
	if err := repo.Upsert(batch); err != nil {
		return Draw{}, fmt.Errorf("failed to store %s batch: %w", stage, err)
	}
	return Draw{BatchID: batch.ID, Quantity: qty}, nil
}

func totalIn(repo repositories.BatchRepository, stage entities.Stage) entities.Quantity {
	var total entities.Quantity
	for _, batch := range repo.List() {
		if batch.Stage == stage {
			total += batch.Quantity
		}
	}
	return total
}
