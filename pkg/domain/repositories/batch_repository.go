package repositories

import "github.com/vsinha/dough/pkg/domain/entities"

// BatchRepository provides ordered access to the batch store.
// Implementations are single-writer; callers serialize access.
type BatchRepository interface {
	// List returns live batches in insertion order
	List() []*entities.Batch
	Get(id entities.BatchID) (*entities.Batch, error)
	Contains(id entities.BatchID) bool
	// Upsert replaces a batch with the same id in place or appends a new one
	Upsert(batch *entities.Batch) error
	// RemoveEmpty purges zero-quantity batches and returns how many were removed
	RemoveEmpty() int
	LoadBatches(batches []*entities.Batch) error
	// Reset drops every batch and forgets issued ids
	Reset()
}
