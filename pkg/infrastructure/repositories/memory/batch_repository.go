package memory

import (
	"fmt"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/domain/repositories"
)

// BatchRepository provides in-memory batch storage that preserves insertion order.
// It is not safe for concurrent use.
type BatchRepository struct {
	batches []*entities.Batch
	index   map[entities.BatchID]int
	// seen remembers every id ever stored so purged ids are never reissued
	seen map[entities.BatchID]struct{}
}

// NewBatchRepository creates a new in-memory batch repository
func NewBatchRepository(expectedBatches int) *BatchRepository {
	return &BatchRepository{
		batches: make([]*entities.Batch, 0, expectedBatches),
		index:   make(map[entities.BatchID]int, expectedBatches),
		seen:    make(map[entities.BatchID]struct{}, expectedBatches),
	}
}

// Verify interface compliance
var _ repositories.BatchRepository = (*BatchRepository)(nil)

// LoadBatches loads seed batches into the repository, rejecting duplicate ids
func (r *BatchRepository) LoadBatches(batches []*entities.Batch) error {
	for _, batch := range batches {
		if _, exists := r.seen[batch.ID]; exists {
			return fmt.Errorf("%w: %s", entities.ErrDuplicateBatch, batch.ID)
		}
		if err := r.Upsert(batch); err != nil {
			return err
		}
	}
	return nil
}

// List returns live batches in insertion order
func (r *BatchRepository) List() []*entities.Batch {
	batches := make([]*entities.Batch, len(r.batches))
	copy(batches, r.batches)
	return batches
}

// Get returns the batch with the given id
func (r *BatchRepository) Get(id entities.BatchID) (*entities.Batch, error) {
	i, exists := r.index[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrBatchNotFound, id)
	}
	return r.batches[i], nil
}

// Contains reports whether id was ever issued by this repository, including purged batches
func (r *BatchRepository) Contains(id entities.BatchID) bool {
	_, exists := r.seen[id]
	return exists
}

// Upsert replaces a live batch with the same id or appends a new one
func (r *BatchRepository) Upsert(batch *entities.Batch) error {
	if batch == nil {
		return fmt.Errorf("batch cannot be nil")
	}
	if batch.Quantity < 0 {
		panic(fmt.Errorf("%w: batch %s has quantity %d", entities.ErrNegativeQuantity, batch.ID, batch.Quantity))
	}

	if i, exists := r.index[batch.ID]; exists {
		r.batches[i] = batch
		return nil
	}
	if _, purged := r.seen[batch.ID]; purged {
		return fmt.Errorf("%w: %s was already used", entities.ErrDuplicateBatch, batch.ID)
	}

	r.index[batch.ID] = len(r.batches)
	r.seen[batch.ID] = struct{}{}
	r.batches = append(r.batches, batch)
	return nil
}

// RemoveEmpty purges zero-quantity batches, keeping the order of the rest
func (r *BatchRepository) RemoveEmpty() int {
	kept := r.batches[:0]
	removed := 0
	for _, batch := range r.batches {
		if batch.Empty() {
			delete(r.index, batch.ID)
			removed++
			continue
		}
		kept = append(kept, batch)
	}
	for i := len(kept); i < len(r.batches); i++ {
		r.batches[i] = nil
	}
	r.batches = kept

	if removed > 0 {
		for i, batch := range r.batches {
			r.index[batch.ID] = i
		}
	}
	return removed
}

// Reset drops every batch and forgets issued ids
func (r *BatchRepository) Reset() {
	r.batches = r.batches[:0]
	r.index = make(map[entities.BatchID]int)
	r.seen = make(map[entities.BatchID]struct{})
}

// TotalQuantity returns the units held in the given stage
func (r *BatchRepository) TotalQuantity(stage entities.Stage) entities.Quantity {
	var total entities.Quantity
	for _, batch := range r.batches {
		if batch.Stage == stage {
			total += batch.Quantity
		}
	}
	return total
}
